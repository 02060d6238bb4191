package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/vladislavdragonenkov/lessonshop/internal/domain"
)

const (
	defaultConnTimeout     = 5 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute

	opTimeout = 5 * time.Second
)

// Store оборачивает SQL-подключение к PostgreSQL и реализует domain.Storage.
type Store struct {
	db *sql.DB

	lessons *lessonRepository
	orders  *orderRepository
	users   *userRepository
}

// Open открывает подключение к PostgreSQL и проверяет доступность базы.
// Непустой database заменяет имя базы из DSN.
// Делается ровно одна попытка подключения, ограниченная контекстом и defaultConnTimeout.
func Open(ctx context.Context, dsn, database string) (*Store, error) {
	connCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if database = strings.TrimSpace(database); database != "" {
		connCfg.Database = database
	}
	connCfg.ConnectTimeout = defaultConnTimeout

	db := stdlib.OpenDB(*connCfg)
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return newStore(db), nil
}

func newStore(db *sql.DB) *Store {
	return &Store{
		db:      db,
		lessons: &lessonRepository{db: db},
		orders:  &orderRepository{db: db},
		users:   &userRepository{db: db},
	}
}

func (s *Store) Mode() domain.StorageMode { return domain.StorageModePostgres }

func (s *Store) Lessons() domain.LessonRepository { return s.lessons }

func (s *Store) Orders() domain.OrderRepository { return s.orders }

func (s *Store) Users() domain.UserRepository { return s.users }

// Ping проверяет доступность подключения.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// Close закрывает подключение к БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func withOpTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}

var _ domain.Storage = (*Store)(nil)

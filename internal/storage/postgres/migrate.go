package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

const migrationsDir = "sql/migrations"

//go:embed sql/migrations/*.sql
var migrationsFS embed.FS

func (s *Store) migrationProvider() (*goose.Provider, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("postgres store is not initialized")
	}

	fsys, err := fs.Sub(migrationsFS, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, s.db, fsys)
	if err != nil {
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	return provider, nil
}

// MigrateUp применяет все ещё не применённые миграции и возвращает их количество.
func (s *Store) MigrateUp(ctx context.Context) (int, error) {
	provider, err := s.migrationProvider()
	if err != nil {
		return 0, err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return len(results), fmt.Errorf("apply migrations: %w", err)
	}
	return len(results), nil
}

// MigrateDown откатывает steps миграций.
// steps<=0 интерпретируется как 1 шаг для безопасного поведения.
func (s *Store) MigrateDown(ctx context.Context, steps int) (int, error) {
	if steps <= 0 {
		steps = 1
	}

	provider, err := s.migrationProvider()
	if err != nil {
		return 0, err
	}

	rolledBack := 0
	for ; rolledBack < steps; rolledBack++ {
		if _, err := provider.Down(ctx); err != nil {
			if errors.Is(err, goose.ErrNoNextVersion) {
				break
			}
			return rolledBack, fmt.Errorf("rollback migration: %w", err)
		}
	}
	return rolledBack, nil
}

// MigrationStatus возвращает текущую версию схемы и количество применённых миграций.
func (s *Store) MigrationStatus(ctx context.Context) (int64, int, error) {
	provider, err := s.migrationProvider()
	if err != nil {
		return 0, 0, err
	}

	statuses, err := provider.Status(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("query migration status: %w", err)
	}

	var (
		version int64
		applied int
	)
	for _, st := range statuses {
		if st.State != goose.StateApplied {
			continue
		}
		applied++
		if st.Source != nil && st.Source.Version > version {
			version = st.Source.Version
		}
	}
	return version, applied, nil
}

// EnsureSchema применяет все up-миграции; используется при старте сервиса.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.MigrateUp(ctx)
	return err
}

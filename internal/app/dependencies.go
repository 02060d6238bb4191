package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/lessonshop/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/lessonshop/internal/health"
	"github.com/vladislavdragonenkov/lessonshop/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/lessonshop/internal/storage/memory"
	"github.com/vladislavdragonenkov/lessonshop/internal/storage/postgres"
)

const defaultStartupTimeout = 5 * time.Second

// runtimeDependencies: всё, что Run собирает до старта HTTP-сервера.
type runtimeDependencies struct {
	storage        domain.Storage
	publisher      domain.EventPublisher
	kafkaProducer  *kafka.Producer
	storageChecker healthcheck.Checker
	imagesChecker  healthcheck.Checker
}

// initRuntimeDependencies выбирает хранилище и шину событий.
// Недоступная БД не является ошибкой: сервис уходит в режим памяти.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	storage, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	deps := &runtimeDependencies{
		storage:        storage,
		publisher:      domain.NoopPublisher{},
		storageChecker: healthcheck.NewStorageChecker(storage),
		imagesChecker:  newImagesChecker(cfg.ImagesDir),
	}

	// Kafka опциональна: ошибка подключения только логируется.
	producer, err := initKafkaProducer(cfg, logger)
	if err == nil && producer != nil {
		deps.kafkaProducer = producer
		deps.publisher = producer
	}

	return deps, nil
}

func (d *runtimeDependencies) close(logger *log.Entry) {
	if d == nil {
		return
	}
	closeKafka(d.kafkaProducer, logger)
	if d.storage != nil {
		if err := d.storage.Close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}
}

// newImagesChecker помечает сервис degraded, если каталога с картинками нет:
// API работает, но /images будет отвечать 404.
func newImagesChecker(dir string) healthcheck.Checker {
	return healthcheck.NewFuncChecker("images", healthcheck.StatusDegraded, func(context.Context) error {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("images directory %q: %w", dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("images path %q is not a directory", dir)
		}
		return nil
	})
}

// initStorage делает одну ограниченную по времени попытку поднять PostgreSQL
// (подключение, миграции, посев). При любой неудаче возвращает хранилище в памяти
// с теми же стартовыми уроками. Решение логируется один раз.
func initStorage(ctx context.Context, cfg Config, logger *log.Entry) (domain.Storage, error) {
	store, err := openPostgres(ctx, cfg)
	if err == nil {
		logger.WithFields(log.Fields{
			"mode":     domain.StorageModePostgres,
			"database": cfg.PostgresDatabase,
		}).Info("storage selected")
		return store, nil
	}

	fields := log.Fields{"mode": domain.StorageModeMemory}
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		fields["reason"] = "postgres dsn is not configured"
	} else {
		fields["reason"] = err.Error()
	}
	logger.WithFields(fields).Warn("storage selected: postgres unavailable, data will not be persisted")

	mem := memory.NewStorage()
	if _, err := mem.Lessons().SeedIfEmpty(ctx, domain.SampleLessons()); err != nil {
		return nil, fmt.Errorf("seed in-memory lessons: %w", err)
	}
	return mem, nil
}

func openPostgres(ctx context.Context, cfg Config) (*postgres.Store, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, fmt.Errorf("postgres dsn is empty")
	}

	timeout := cfg.StartupTimeout
	if timeout <= 0 {
		timeout = defaultStartupTimeout
	}

	openCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	store, err := postgres.Open(openCtx, cfg.PostgresDSN, cfg.PostgresDatabase)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := store.EnsureSchema(openCtx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
	}

	if _, err := store.Lessons().SeedIfEmpty(openCtx, domain.SampleLessons()); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("seed lessons: %w", err)
	}
	return store, nil
}

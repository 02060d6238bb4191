package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/vladislavdragonenkov/lessonshop/internal/storage/postgres"
)

const (
	defaultTimeout = 30 * time.Second

	envPostgresDSN = "LESSONS_POSTGRES_DSN"
	envDBName      = "LESSONS_DB_NAME"
)

type direction string

const (
	directionUp     direction = "up"
	directionDown   direction = "down"
	directionStatus direction = "status"
)

// options: разобранные флаги с подставленными значениями из окружения.
type options struct {
	direction direction
	steps     int
	dsn       string
	database  string
}

func main() {
	_ = godotenv.Load()

	opts, err := parseOptions(os.Args[1:], os.Getenv)
	if err != nil {
		fail("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	store, err := postgres.Open(ctx, opts.dsn, opts.database)
	if err != nil {
		fail("open postgres store: %v", err)
	}
	defer store.Close()

	if err := run(ctx, store, opts, os.Stdout); err != nil {
		fail("%v", err)
	}
}

func parseOptions(args []string, getenv func(string) string) (options, error) {
	var (
		opts options
		dir  string
	)

	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.StringVar(&dir, "direction", string(directionUp), "migration direction: up|down|status")
	fs.IntVar(&opts.steps, "steps", 1, "number of migrations to roll back (down only)")
	fs.StringVar(&opts.dsn, "dsn", "", "PostgreSQL DSN (fallback: "+envPostgresDSN+")")
	fs.StringVar(&opts.database, "db", "", "database name overriding the DSN (fallback: "+envDBName+")")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	switch d := direction(strings.ToLower(strings.TrimSpace(dir))); d {
	case directionUp, directionDown, directionStatus:
		opts.direction = d
	default:
		return options{}, fmt.Errorf("unsupported direction: %s (use up|down|status)", dir)
	}

	if opts.dsn = strings.TrimSpace(opts.dsn); opts.dsn == "" {
		opts.dsn = strings.TrimSpace(getenv(envPostgresDSN))
	}
	if opts.dsn == "" {
		return options{}, errors.New(envPostgresDSN + " (or -dsn) is required")
	}
	if opts.database = strings.TrimSpace(opts.database); opts.database == "" {
		opts.database = strings.TrimSpace(getenv(envDBName))
	}
	if opts.steps <= 0 {
		opts.steps = 1
	}
	return opts, nil
}

func run(ctx context.Context, store *postgres.Store, opts options, out io.Writer) error {
	var summary string
	switch opts.direction {
	case directionUp:
		applied, err := store.MigrateUp(ctx)
		if err != nil {
			return fmt.Errorf("migrate up failed: %w", err)
		}
		summary = fmt.Sprintf("migrate up ok (%d new)", applied)
	case directionDown:
		rolledBack, err := store.MigrateDown(ctx, opts.steps)
		if err != nil {
			return fmt.Errorf("migrate down failed: %w", err)
		}
		summary = fmt.Sprintf("migrate down ok (%d rolled back)", rolledBack)
	case directionStatus:
		summary = "migration status"
	default:
		return fmt.Errorf("unsupported direction: %s", opts.direction)
	}

	version, applied, err := store.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("migration status failed: %w", err)
	}
	_, err = fmt.Fprintf(out, "%s: version=%d applied=%d\n", summary, version, applied)
	return err
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

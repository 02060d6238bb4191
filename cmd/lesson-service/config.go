package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/lessonshop/internal/app"
)

const (
	envPort           = "PORT"
	envPostgresDSN    = "LESSONS_POSTGRES_DSN"
	envDBName         = "LESSONS_DB_NAME"
	envMetricsAddr    = "LESSONS_METRICS_ADDR"
	envStartupTimeout = "LESSONS_STARTUP_TIMEOUT"
	envAutoMigrate    = "LESSONS_AUTO_MIGRATE"
	envImagesDir      = "LESSONS_IMAGES_DIR"
	envKafkaBrokers   = "LESSONS_KAFKA_BROKERS"
	envLogLevel       = "LESSONS_LOG_LEVEL"
)

type envLookup func(key string) (string, bool)

// readConfigFromEnv накладывает переменные окружения на DefaultConfig.
// Некорректные значения не прерывают запуск: остаётся значение по умолчанию,
// а в warnings попадает описание проблемы.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	if v, ok := lookupTrimmed(lookup, envPort); ok {
		port, err := parseInt(v, func(p int) bool { return p > 0 && p <= 65535 }, "must be in 1..65535")
		if err != nil {
			warnings = append(warnings, invalidEnv(envPort, v, err))
		} else {
			cfg.HTTPAddr = ":" + strconv.Itoa(port)
		}
	}
	if v, ok := lookupTrimmed(lookup, envMetricsAddr); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := lookup(envPostgresDSN); ok {
		// Пустое значение явно отключает PostgreSQL.
		cfg.PostgresDSN = strings.TrimSpace(v)
	}
	if v, ok := lookupTrimmed(lookup, envDBName); ok {
		cfg.PostgresDatabase = v
	}
	if v, ok := lookupTrimmed(lookup, envStartupTimeout); ok {
		timeout, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0")
		if err != nil {
			warnings = append(warnings, invalidEnv(envStartupTimeout, v, err))
		} else {
			cfg.StartupTimeout = timeout
		}
	}
	if v, ok := lookupTrimmed(lookup, envAutoMigrate); ok {
		autoMigrate, err := parseBool(v)
		if err != nil {
			warnings = append(warnings, invalidEnv(envAutoMigrate, v, err))
		} else {
			cfg.AutoMigrate = autoMigrate
		}
	}
	if v, ok := lookupTrimmed(lookup, envImagesDir); ok {
		cfg.ImagesDir = v
	}
	if v, ok := lookupTrimmed(lookup, envKafkaBrokers); ok {
		cfg.KafkaBrokers = v
	}

	return cfg, warnings
}

func lookupTrimmed(lookup envLookup, key string) (string, bool) {
	v, ok := lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func invalidEnv(key, value string, err error) string {
	return fmt.Sprintf("invalid %s=%q: %v, using default", key, value, err)
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("unsupported bool value %q", raw)
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if !valid(v) {
		return 0, fmt.Errorf("%s", rule)
	}
	return v, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if !valid(v) {
		return 0, fmt.Errorf("%s", rule)
	}
	return v, nil
}

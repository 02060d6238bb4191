// Package health отдаёт состояние сервиса для оркестратора и дежурных:
// /healthz с подробностями по каждой проверке, /livez и /readyz.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/lessonshop/internal/domain"
	"github.com/vladislavdragonenkov/lessonshop/internal/version"
)

// Status: итог проверки компонента.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

const checkTimeout = 2 * time.Second

// severity упорядочивает статусы: итог по сервису равен худшему из них.
func (s Status) severity() int {
	switch s {
	case StatusUnhealthy:
		return 2
	case StatusDegraded:
		return 1
	default:
		return 0
	}
}

// Check: результат одной проверки.
type Check struct {
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Response: тело ответа /healthz.
type Response struct {
	Status        Status           `json:"status"`
	Timestamp     time.Time        `json:"timestamp"`
	Checks        map[string]Check `json:"checks,omitempty"`
	Build         version.Build    `json:"build"`
	UptimeSeconds int64            `json:"uptime_seconds"`
}

// Checker проверяет один компонент.
type Checker interface {
	Check(ctx context.Context) Check
}

// Handler собирает зарегистрированные проверки.
type Handler struct {
	mu        sync.RWMutex
	checkers  map[string]Checker
	build     version.Build
	startedAt time.Time
}

func NewHandler(build version.Build) *Handler {
	return &Handler{
		checkers:  make(map[string]Checker),
		build:     build,
		startedAt: time.Now(),
	}
}

// RegisterChecker добавляет или заменяет проверку с указанным именем.
func (h *Handler) RegisterChecker(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
}

// evaluate прогоняет все проверки с общим таймаутом.
func (h *Handler) evaluate(ctx context.Context) (Status, map[string]Check) {
	h.mu.RLock()
	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	checkers := make([]Checker, 0, len(names))
	sort.Strings(names)
	for _, name := range names {
		checkers = append(checkers, h.checkers[name])
	}
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	overall := StatusHealthy
	results := make(map[string]Check, len(names))
	for i, checker := range checkers {
		check := checker.Check(ctx)
		results[names[i]] = check
		if check.Status.severity() > overall.severity() {
			overall = check.Status
		}
	}
	return overall, results
}

// ServeHTTP отвечает 503 только при unhealthy: degraded сервис продолжает
// обслуживать запросы.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	overall, checks := h.evaluate(r.Context())

	code := http.StatusOK
	if overall == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Response{
		Status:        overall,
		Timestamp:     time.Now().UTC(),
		Checks:        checks,
		Build:         h.build,
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
	})
}

// ReadinessHandler отвечает "ready", пока ни одна проверка не unhealthy.
func (h *Handler) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	if overall, _ := h.evaluate(r.Context()); overall == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// LivenessHandler всегда отвечает 200: процесс жив, пока обрабатывает HTTP.
func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// FuncChecker превращает функцию в проверку. Ошибка функции даёт failStatus.
type FuncChecker struct {
	name       string
	failStatus Status
	fn         func(ctx context.Context) error
}

func NewFuncChecker(name string, failStatus Status, fn func(ctx context.Context) error) *FuncChecker {
	return &FuncChecker{name: name, failStatus: failStatus, fn: fn}
}

func (c *FuncChecker) Check(ctx context.Context) Check {
	start := time.Now()
	err := c.fn(ctx)

	check := Check{Name: c.name, Status: StatusHealthy, DurationMs: time.Since(start).Milliseconds()}
	if err != nil {
		check.Status = c.failStatus
		check.Message = err.Error()
	}
	return check
}

// StorageChecker: недоступная БД даёт unhealthy, работа в памяти даёт degraded.
type StorageChecker struct {
	storage domain.Storage
}

func NewStorageChecker(storage domain.Storage) *StorageChecker {
	return &StorageChecker{storage: storage}
}

func (c *StorageChecker) Check(ctx context.Context) Check {
	start := time.Now()
	err := c.storage.Ping(ctx)
	mode := c.storage.Mode()

	check := Check{
		Name:       "storage",
		Status:     StatusHealthy,
		Message:    string(mode),
		DurationMs: time.Since(start).Milliseconds(),
	}
	switch {
	case err != nil:
		check.Status = StatusUnhealthy
		check.Message = err.Error()
	case mode == domain.StorageModeMemory:
		check.Status = StatusDegraded
		check.Message = "running on in-memory fallback, data is not persisted"
	}
	return check
}

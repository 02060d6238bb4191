package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vladislavdragonenkov/lessonshop/internal/domain"
)

// ShopMetrics содержит метрики HTTP API и бизнес-операций магазина.
type ShopMetrics struct {
	// HTTP
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	// Бизнес-события
	ordersCreated   *prometheus.CounterVec
	lessonsUpdated  prometheus.Counter
	searches        prometheus.Counter
	publishFailures prometheus.Counter

	// Текущий режим хранилища: 1 у активного режима, 0 у остальных.
	storageMode *prometheus.GaugeVec
}

// NewShopMetrics создаёт метрики в default registry.
func NewShopMetrics() *ShopMetrics {
	return NewShopMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewShopMetricsWithRegisterer создаёт метрики в указанном registry (удобно для тестов).
func NewShopMetricsWithRegisterer(registerer prometheus.Registerer) *ShopMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &ShopMetrics{
		httpRequests: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "lessons_http_requests_total",
			Help: "Total number of HTTP requests by route and status code",
		}, []string{"method", "route", "status"}),
		httpDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "lessons_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "route"}),
		ordersCreated: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "lessons_orders_created_total",
			Help: "Total number of orders created by storage mode",
		}, []string{"mode"}),
		lessonsUpdated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "lessons_lesson_updates_total",
			Help: "Total number of successful lesson updates",
		}),
		searches: registerCounter(registerer, prometheus.CounterOpts{
			Name: "lessons_searches_total",
			Help: "Total number of lesson searches",
		}),
		publishFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "lessons_event_publish_failures_total",
			Help: "Total number of domain events that failed to publish",
		}),
		storageMode: registerGaugeVec(registerer, prometheus.GaugeOpts{
			Name: "lessons_storage_mode",
			Help: "Active storage mode (1 for the selected mode)",
		}, []string{"mode"}),
	}
}

// ObserveHTTPRequest фиксирует завершённый HTTP-запрос.
func (m *ShopMetrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordOrderCreated увеличивает счётчик заказов для режима хранилища.
func (m *ShopMetrics) RecordOrderCreated(mode domain.StorageMode) {
	if m == nil {
		return
	}
	m.ordersCreated.WithLabelValues(string(mode)).Inc()
}

// RecordLessonUpdated увеличивает счётчик обновлений уроков.
func (m *ShopMetrics) RecordLessonUpdated() {
	if m == nil {
		return
	}
	m.lessonsUpdated.Inc()
}

// RecordSearch увеличивает счётчик поисковых запросов.
func (m *ShopMetrics) RecordSearch() {
	if m == nil {
		return
	}
	m.searches.Inc()
}

// RecordPublishFailure фиксирует неудачную публикацию события.
func (m *ShopMetrics) RecordPublishFailure() {
	if m == nil {
		return
	}
	m.publishFailures.Inc()
}

// SetStorageMode выставляет gauge активного режима.
func (m *ShopMetrics) SetStorageMode(mode domain.StorageMode) {
	if m == nil {
		return
	}
	for _, candidate := range []domain.StorageMode{domain.StorageModePostgres, domain.StorageModeMemory} {
		value := 0.0
		if candidate == mode {
			value = 1
		}
		m.storageMode.WithLabelValues(string(candidate)).Set(value)
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGaugeVec(registerer prometheus.Registerer, opts prometheus.GaugeOpts, labels []string) *prometheus.GaugeVec {
	collector := prometheus.NewGaugeVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.GaugeVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

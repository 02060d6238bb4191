package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/lessonshop/internal/domain"
	"github.com/vladislavdragonenkov/lessonshop/internal/metrics"
	"github.com/vladislavdragonenkov/lessonshop/internal/version"
)

const (
	orderCreatedMessage = "Order created successfully"
	registeredMessage   = "User registered successfully"
	loggedInMessage     = "Login successful"

	// memoryModeWarning добавляется к квитанции, если заказ сохранён только в памяти процесса.
	memoryModeWarning = "Order stored in memory only: database is unavailable, data will be lost on restart"
)

// OrderReceipt: ответ на успешное оформление заказа.
type OrderReceipt struct {
	Message string `json:"message"`
	OrderID string `json:"orderId"`
	Warning string `json:"warning,omitempty"`
}

// LoginResult: ответ на успешный вход.
type LoginResult struct {
	Message string         `json:"message"`
	User    domain.Profile `json:"user"`
}

// StatusCounts: размеры коллекций.
type StatusCounts struct {
	Lessons int `json:"lessons"`
	Orders  int `json:"orders"`
	Users   int `json:"users"`
}

// StatusReport описывает режим работы и состояние хранилища.
type StatusReport struct {
	Status   string             `json:"status"`
	Mode     domain.StorageMode `json:"mode"`
	Database string             `json:"database"`
	Version  string             `json:"version"`
	Counts   StatusCounts       `json:"counts"`
}

// Service реализует операции магазина поверх выбранного при старте хранилища.
type Service struct {
	storage    domain.Storage
	publisher  domain.EventPublisher
	metrics    *metrics.ShopMetrics
	logger     *log.Entry
	now        func() time.Time
	bcryptCost int
}

// Option настраивает Service.
type Option func(*Service)

// WithPublisher подключает публикацию доменных событий.
func WithPublisher(publisher domain.EventPublisher) Option {
	return func(s *Service) {
		if publisher != nil {
			s.publisher = publisher
		}
	}
}

// WithMetrics подключает prometheus-метрики.
func WithMetrics(m *metrics.ShopMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithBcryptCost задаёт стоимость хеширования паролей.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

// NewService создаёт сервис магазина.
func NewService(storage domain.Storage, logger *log.Entry, opts ...Option) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "shop")
	}
	s := &Service{
		storage:    storage,
		publisher:  domain.NoopPublisher{},
		logger:     logger,
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode возвращает режим хранилища.
func (s *Service) Mode() domain.StorageMode {
	return s.storage.Mode()
}

// ListLessons возвращает все уроки.
func (s *Service) ListLessons(ctx context.Context) ([]domain.Lesson, error) {
	lessons, err := s.storage.Lessons().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

// SearchLessons ищет уроки по сырой строке запроса. Пустой запрос даёт пустой список.
func (s *Service) SearchLessons(ctx context.Context, raw string) ([]domain.Lesson, error) {
	s.metrics.RecordSearch()

	q := domain.ParseSearchQuery(raw)
	if q.IsEmpty() {
		return []domain.Lesson{}, nil
	}

	lessons, err := s.storage.Lessons().Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search lessons: %w", err)
	}
	return lessons, nil
}

// PlaceOrder валидирует и сохраняет заказ. Ошибка публикации события
// только логируется: заказ уже записан.
func (s *Service) PlaceOrder(ctx context.Context, order domain.Order) (OrderReceipt, error) {
	order.Name = strings.TrimSpace(order.Name)
	order.Phone = strings.TrimSpace(order.Phone)
	order.Email = strings.TrimSpace(order.Email)
	if err := order.Validate(); err != nil {
		return OrderReceipt{}, err
	}

	order.ID = ""
	order.CreatedAt = s.now().UTC()

	mode := s.storage.Mode()
	created, err := s.storage.Orders().Create(ctx, order)
	if err != nil {
		return OrderReceipt{}, fmt.Errorf("create order: %w", err)
	}
	s.metrics.RecordOrderCreated(mode)

	if err := s.publisher.OrderCreated(ctx, created, mode); err != nil {
		s.metrics.RecordPublishFailure()
		s.logger.WithError(err).WithField("order_id", created.ID).Warn("failed to publish order created event")
	}

	s.logger.WithFields(log.Fields{
		"order_id": created.ID,
		"items":    len(created.Items),
		"mode":     mode,
	}).Info("order created")

	receipt := OrderReceipt{Message: orderCreatedMessage, OrderID: created.ID}
	if mode == domain.StorageModeMemory {
		receipt.Warning = memoryModeWarning
	}
	return receipt, nil
}

// UpdateLesson частично обновляет урок и возвращает его новое состояние.
// Неизвестный id даёт ErrLessonNotFound раньше, чем пустой патч даёт ErrEmptyPatch.
func (s *Service) UpdateLesson(ctx context.Context, id string, patch domain.LessonPatch) (domain.Lesson, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Lesson{}, domain.ErrLessonNotFound
	}
	if patch.IsEmpty() {
		if _, err := s.storage.Lessons().Get(ctx, id); err != nil {
			if errors.Is(err, domain.ErrLessonNotFound) {
				return domain.Lesson{}, err
			}
			return domain.Lesson{}, fmt.Errorf("get lesson: %w", err)
		}
		return domain.Lesson{}, domain.ErrEmptyPatch
	}

	lesson, err := s.storage.Lessons().Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, domain.ErrLessonNotFound) {
			return domain.Lesson{}, err
		}
		return domain.Lesson{}, fmt.Errorf("update lesson: %w", err)
	}
	s.metrics.RecordLessonUpdated()

	if err := s.publisher.LessonUpdated(ctx, lesson); err != nil {
		s.metrics.RecordPublishFailure()
		s.logger.WithError(err).WithField("lesson_id", lesson.ID).Warn("failed to publish lesson updated event")
	}
	return lesson, nil
}

// RecentOrders возвращает последние заказы, новые первыми.
func (s *Service) RecentOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.storage.Orders().ListRecent(ctx, domain.MaxRecentOrders)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Status собирает сводку о режиме хранения и размерах коллекций.
func (s *Service) Status(ctx context.Context) (StatusReport, error) {
	report := StatusReport{
		Status:   "ok",
		Mode:     s.storage.Mode(),
		Database: "connected",
		Version:  version.Current().Version,
	}
	if report.Mode == domain.StorageModeMemory {
		report.Database = "unavailable, using in-memory storage"
	}

	if err := s.storage.Ping(ctx); err != nil {
		return StatusReport{}, fmt.Errorf("ping storage: %w", err)
	}

	var err error
	if report.Counts.Lessons, err = s.storage.Lessons().Count(ctx); err != nil {
		return StatusReport{}, fmt.Errorf("count lessons: %w", err)
	}
	if report.Counts.Orders, err = s.storage.Orders().Count(ctx); err != nil {
		return StatusReport{}, fmt.Errorf("count orders: %w", err)
	}
	if report.Counts.Users, err = s.storage.Users().Count(ctx); err != nil {
		return StatusReport{}, fmt.Errorf("count users: %w", err)
	}
	return report, nil
}

// Register создаёт пользователя. Пароль хранится только в виде bcrypt-хеша.
func (s *Service) Register(ctx context.Context, reg domain.Registration) (string, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.TrimSpace(reg.Email)
	if err := reg.Validate(); err != nil {
		return "", err
	}

	_, err := s.storage.Users().GetByEmail(ctx, reg.Email)
	switch {
	case err == nil:
		return "", domain.ErrEmailTaken
	case !errors.Is(err, domain.ErrUserNotFound):
		return "", fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.storage.Users().Create(ctx, domain.User{
		Name:         reg.Name,
		Email:        reg.Email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return "", err
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("user registered")
	return registeredMessage, nil
}

// Login проверяет учётные данные и возвращает публичный профиль.
func (s *Service) Login(ctx context.Context, creds domain.Credentials) (LoginResult, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := creds.Validate(); err != nil {
		return LoginResult{}, err
	}

	user, err := s.storage.Users().GetByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return LoginResult{}, err
		}
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return LoginResult{}, domain.ErrInvalidPassword
	}

	return LoginResult{Message: loggedInMessage, User: user.Profile()}, nil
}

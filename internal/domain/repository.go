package domain

import "context"

// StorageMode: режим хранения, выбранный один раз при старте процесса.
type StorageMode string

const (
	// StorageModePostgres: данные лежат в PostgreSQL.
	StorageModePostgres StorageMode = "postgres"
	// StorageModeMemory: деградированный режим: данные живут только в памяти процесса.
	StorageModeMemory StorageMode = "memory"
)

// LessonRepository описывает требования к хранилищу уроков.
type LessonRepository interface {
	// List возвращает все уроки в порядке хранения.
	List(ctx context.Context) ([]Lesson, error)
	// Search возвращает уроки, подходящие под запрос. Пустой запрос даёт пустой результат.
	Search(ctx context.Context, q SearchQuery) ([]Lesson, error)
	// Get возвращает урок по id или ErrLessonNotFound.
	Get(ctx context.Context, id string) (Lesson, error)
	// Create сохраняет урок и возвращает его с присвоенным id.
	Create(ctx context.Context, lesson Lesson) (Lesson, error)
	// SeedIfEmpty вставляет уроки, только если коллекция пуста. Возвращает число вставленных.
	SeedIfEmpty(ctx context.Context, lessons []Lesson) (int, error)
	// Update применяет частичное обновление или возвращает ErrLessonNotFound.
	Update(ctx context.Context, id string, patch LessonPatch) (Lesson, error)
	// Count возвращает количество уроков.
	Count(ctx context.Context) (int, error)
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет заказ и возвращает его с присвоенным id.
	Create(ctx context.Context, order Order) (Order, error)
	// ListRecent возвращает заказы от новых к старым, не более limit (если >0).
	ListRecent(ctx context.Context, limit int) ([]Order, error)
	// Count возвращает количество заказов.
	Count(ctx context.Context) (int, error)
}

// UserRepository описывает требования к хранилищу пользователей.
type UserRepository interface {
	// Create сохраняет пользователя; ErrEmailTaken, если email уже занят.
	Create(ctx context.Context, user User) (User, error)
	// GetByEmail возвращает пользователя или ErrUserNotFound.
	GetByEmail(ctx context.Context, email string) (User, error)
	// Count возвращает количество пользователей.
	Count(ctx context.Context) (int, error)
}

// Storage объединяет коллекции одного бэкенда. Реализация выбирается
// при старте и дальше не меняется.
type Storage interface {
	Mode() StorageMode
	Lessons() LessonRepository
	Orders() OrderRepository
	Users() UserRepository
	// Ping проверяет доступность бэкенда.
	Ping(ctx context.Context) error
	Close() error
}

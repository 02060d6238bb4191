package memory

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/vladislavdragonenkov/lessonshop/internal/domain"
)

// idGenerator выдаёт идентификаторы вида <prefix>_<unix-nano>_<seq>.
// Счётчик исключает коллизии при нескольких вставках в одну наносекунду.
type idGenerator struct {
	seq atomic.Uint64
}

func (g *idGenerator) next(prefix string) string {
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano(), g.seq.Add(1))
}

// Storage: in-memory реализация domain.Storage для деградированного режима и тестов.
type Storage struct {
	lessons *lessonRepositoryInMemory
	orders  *orderRepositoryInMemory
	users   *userRepositoryInMemory
}

// NewStorage создаёт пустое in-memory хранилище.
func NewStorage() *Storage {
	ids := &idGenerator{}
	return &Storage{
		lessons: newLessonRepository(ids),
		orders:  newOrderRepository(ids),
		users:   newUserRepository(ids),
	}
}

func (s *Storage) Mode() domain.StorageMode { return domain.StorageModeMemory }

func (s *Storage) Lessons() domain.LessonRepository { return s.lessons }

func (s *Storage) Orders() domain.OrderRepository { return s.orders }

func (s *Storage) Users() domain.UserRepository { return s.users }

// Ping для памяти всегда успешен.
func (s *Storage) Ping(context.Context) error { return nil }

func (s *Storage) Close() error { return nil }

var _ domain.Storage = (*Storage)(nil)

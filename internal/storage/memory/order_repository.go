package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/lessonshop/internal/domain"
)

// orderRepositoryInMemory: простая in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	mu    sync.RWMutex
	ids   *idGenerator
	items []domain.Order
}

// NewOrderRepository возвращает in-memory репозиторий для деградированного режима и тестов.
func NewOrderRepository() domain.OrderRepository {
	return newOrderRepository(&idGenerator{})
}

func newOrderRepository(ids *idGenerator) *orderRepositoryInMemory {
	return &orderRepositoryInMemory{ids: ids}
}

// Create присваивает заказу id и сохраняет его копию.
func (r *orderRepositoryInMemory) Create(_ context.Context, order domain.Order) (domain.Order, error) {
	if order.ID == "" {
		order.ID = r.ids.next("order")
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	stored := cloneOrder(order)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, stored)
	return cloneOrder(stored), nil
}

// ListRecent возвращает заказы от новых к старым, ограничивая выборку limit (если >0).
func (r *orderRepositoryInMemory) ListRecent(_ context.Context, limit int) ([]domain.Order, error) {
	r.mu.RLock()
	result := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		result = append(result, cloneOrder(order))
	}
	r.mu.RUnlock()

	// Стабильная сортировка: при равном времени более поздняя вставка идёт первой.
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *orderRepositoryInMemory) Count(context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}

func cloneOrder(src domain.Order) domain.Order {
	dst := src
	dst.Items = make([]json.RawMessage, len(src.Items))
	for i, item := range src.Items {
		dst.Items[i] = append(json.RawMessage(nil), item...)
	}
	return dst
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)

package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/lessonshop/internal/domain"
)

type userRepositoryInMemory struct {
	mu    sync.RWMutex
	ids   *idGenerator
	items []domain.User
}

// NewUserRepository создаёт in-memory реализацию UserRepository.
func NewUserRepository() domain.UserRepository {
	return newUserRepository(&idGenerator{})
}

func newUserRepository(ids *idGenerator) *userRepositoryInMemory {
	return &userRepositoryInMemory{ids: ids}
}

func (r *userRepositoryInMemory) Create(_ context.Context, user domain.User) (domain.User, error) {
	user.Email = strings.TrimSpace(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.findLocked(user.Email); ok {
		return domain.User{}, domain.ErrEmailTaken
	}
	if user.ID == "" {
		user.ID = r.ids.next("user")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	r.items = append(r.items, user)
	return user, nil
}

func (r *userRepositoryInMemory) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.findLocked(strings.TrimSpace(email))
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (r *userRepositoryInMemory) Count(context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}

func (r *userRepositoryInMemory) findLocked(email string) (domain.User, bool) {
	for _, user := range r.items {
		if user.Email == email {
			return user, true
		}
	}
	return domain.User{}, false
}

var _ domain.UserRepository = (*userRepositoryInMemory)(nil)

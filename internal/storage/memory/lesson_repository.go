package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/lessonshop/internal/domain"
)

// lessonRepositoryInMemory хранит уроки в срезе, сохраняя порядок вставки.
type lessonRepositoryInMemory struct {
	mu    sync.RWMutex
	ids   *idGenerator
	items []domain.Lesson
}

// NewLessonRepository возвращает отдельный in-memory репозиторий уроков.
func NewLessonRepository() domain.LessonRepository {
	return newLessonRepository(&idGenerator{})
}

func newLessonRepository(ids *idGenerator) *lessonRepositoryInMemory {
	return &lessonRepositoryInMemory{ids: ids}
}

func (r *lessonRepositoryInMemory) List(context.Context) ([]domain.Lesson, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Lesson, len(r.items))
	copy(result, r.items)
	return result, nil
}

// Search применяет тот же предикат, что и PostgreSQL-реализация, включая числовое совпадение.
func (r *lessonRepositoryInMemory) Search(_ context.Context, q domain.SearchQuery) ([]domain.Lesson, error) {
	result := make([]domain.Lesson, 0)
	if q.IsEmpty() {
		return result, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, lesson := range r.items {
		if q.Matches(lesson) {
			result = append(result, lesson)
		}
	}
	return result, nil
}

func (r *lessonRepositoryInMemory) Get(_ context.Context, id string) (domain.Lesson, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, lesson := range r.items {
		if lesson.ID == id {
			return lesson, nil
		}
	}
	return domain.Lesson{}, domain.ErrLessonNotFound
}

func (r *lessonRepositoryInMemory) Create(_ context.Context, lesson domain.Lesson) (domain.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insertLocked(lesson), nil
}

func (r *lessonRepositoryInMemory) SeedIfEmpty(_ context.Context, lessons []domain.Lesson) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.items) > 0 {
		return 0, nil
	}
	for _, lesson := range lessons {
		// Посев всегда выдаёт свежие id, даже если в образце что-то было.
		lesson.ID = ""
		r.insertLocked(lesson)
	}
	return len(lessons), nil
}

// Update мёржит поля патча в найденный урок на месте.
func (r *lessonRepositoryInMemory) Update(_ context.Context, id string, patch domain.LessonPatch) (domain.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		if r.items[i].ID != id {
			continue
		}
		r.items[i] = patch.Apply(r.items[i])
		return r.items[i], nil
	}
	return domain.Lesson{}, domain.ErrLessonNotFound
}

func (r *lessonRepositoryInMemory) Count(context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}

func (r *lessonRepositoryInMemory) insertLocked(lesson domain.Lesson) domain.Lesson {
	if lesson.ID == "" {
		lesson.ID = r.ids.next("lesson")
	}
	r.items = append(r.items, lesson)
	return lesson
}

var _ domain.LessonRepository = (*lessonRepositoryInMemory)(nil)

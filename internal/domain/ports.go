package domain

import "context"

// EventPublisher публикует доменные события во внешнюю шину.
// Ошибка публикации не должна откатывать уже выполненную запись.
type EventPublisher interface {
	OrderCreated(ctx context.Context, order Order, mode StorageMode) error
	LessonUpdated(ctx context.Context, lesson Lesson) error
}

// NoopPublisher: публикатор-заглушка, когда брокер не настроен.
type NoopPublisher struct{}

func (NoopPublisher) OrderCreated(context.Context, Order, StorageMode) error { return nil }

func (NoopPublisher) LessonUpdated(context.Context, Lesson) error { return nil }

var _ EventPublisher = NoopPublisher{}

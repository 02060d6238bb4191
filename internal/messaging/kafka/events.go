package kafka

import (
	"time"

	"github.com/google/uuid"
)

// EventType определяет тип события
type EventType string

const (
	EventTypeOrderCreated  EventType = "order.created"
	EventTypeLessonUpdated EventType = "lesson.updated"
)

// Topics для Kafka
const (
	TopicOrderEvents  = "lessons.order.events"
	TopicLessonEvents = "lessons.lesson.events"
)

// OrderEvent представляет событие заказа
type OrderEvent struct {
	EventID     string    `json:"event_id"`
	EventType   EventType `json:"event_type"`
	OrderID     string    `json:"order_id"`
	Email       string    `json:"email"`
	ItemsCount  int       `json:"items_count"`
	StorageMode string    `json:"storage_mode"`
	Timestamp   time.Time `json:"timestamp"`
}

// LessonEvent представляет событие изменения урока
type LessonEvent struct {
	EventID   string    `json:"event_id"`
	EventType EventType `json:"event_type"`
	LessonID  string    `json:"lesson_id"`
	Subject   string    `json:"subject"`
	Spaces    int       `json:"spaces"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// NewOrderEvent создает новое событие заказа
func NewOrderEvent(eventType EventType, orderID, email string, itemsCount int, storageMode string) *OrderEvent {
	return &OrderEvent{
		EventID:     uuid.NewString(),
		EventType:   eventType,
		OrderID:     orderID,
		Email:       email,
		ItemsCount:  itemsCount,
		StorageMode: storageMode,
		Timestamp:   time.Now().UTC(),
	}
}

// NewLessonEvent создает новое событие урока
func NewLessonEvent(eventType EventType, lessonID, subject string, spaces int, price float64) *LessonEvent {
	return &LessonEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		LessonID:  lessonID,
		Subject:   subject,
		Spaces:    spaces,
		Price:     price,
		Timestamp: time.Now().UTC(),
	}
}

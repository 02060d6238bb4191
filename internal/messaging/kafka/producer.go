package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/lessonshop/internal/domain"
)

const (
	defaultClientID    = "lesson-service"
	defaultDialTimeout = 5 * time.Second

	// HeaderEventType: заголовок сообщения с типом события.
	HeaderEventType = "event-type"
)

// ProducerConfig описывает подключение к брокерам.
type ProducerConfig struct {
	Brokers     []string
	ClientID    string
	DialTimeout time.Duration
}

// Producer публикует события магазина (новые заказы, изменения уроков).
type Producer struct {
	sync   sarama.SyncProducer
	logger *log.Entry
}

// NewProducer подключается к брокерам синхронным producer'ом с подтверждением
// от всех реплик.
func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are not configured")
	}

	sp, err := sarama.NewSyncProducer(cfg.Brokers, newSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect kafka producer: %w", err)
	}
	return newProducer(sp), nil
}

// newSaramaConfig собирает конфигурацию producer'а. Первичный запрос метаданных
// делается одной попыткой и ограничен DialTimeout, чтобы недоступный брокер
// не задерживал старт HTTP-сервера.
func newSaramaConfig(cfg ProducerConfig) *sarama.Config {
	config := sarama.NewConfig()
	config.ClientID = cfg.ClientID
	if config.ClientID == "" {
		config.ClientID = defaultClientID
	}
	config.Net.DialTimeout = cfg.DialTimeout
	if config.Net.DialTimeout <= 0 {
		config.Net.DialTimeout = defaultDialTimeout
	}
	config.Metadata.Retry.Max = 0
	config.Metadata.Timeout = config.Net.DialTimeout
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1
	return config
}

func newProducer(sp sarama.SyncProducer) *Producer {
	return &Producer{
		sync:   sp,
		logger: log.WithField("component", "kafka-producer"),
	}
}

// OrderCreated публикует order.created с ключом по id заказа.
func (p *Producer) OrderCreated(ctx context.Context, order domain.Order, mode domain.StorageMode) error {
	event := NewOrderEvent(EventTypeOrderCreated, order.ID, order.Email, len(order.Items), string(mode))
	return p.publish(ctx, TopicOrderEvents, order.ID, event.EventType, event)
}

// LessonUpdated публикует lesson.updated с ключом по id урока.
func (p *Producer) LessonUpdated(ctx context.Context, lesson domain.Lesson) error {
	event := NewLessonEvent(EventTypeLessonUpdated, lesson.ID, lesson.Subject, lesson.Spaces, lesson.Price)
	return p.publish(ctx, TopicLessonEvents, lesson.ID, event.EventType, event)
}

func (p *Producer) publish(ctx context.Context, topic, key string, eventType EventType, payload any) error {
	// Запрос уже отменён: брокер не трогаем.
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte(HeaderEventType), Value: []byte(eventType)},
		},
		Timestamp: time.Now().UTC(),
	}

	fields := log.Fields{"topic": topic, "key": key, "event_type": eventType}
	partition, offset, err := p.sync.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithFields(fields).Error("kafka publish failed")
		return fmt.Errorf("publish %s: %w", eventType, err)
	}

	fields["partition"] = partition
	fields["offset"] = offset
	p.logger.WithFields(fields).Debug("event published")
	return nil
}

// Close закрывает соединения с брокерами.
func (p *Producer) Close() error {
	if err := p.sync.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}

var _ domain.EventPublisher = (*Producer)(nil)

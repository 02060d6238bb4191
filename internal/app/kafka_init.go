package app

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/lessonshop/internal/messaging/kafka"
)

// initKafkaProducer подключает публикацию событий, если в конфиге заданы брокеры.
// Без брокеров возвращает nil, nil: сервис работает с NoopPublisher.
func initKafkaProducer(cfg Config, logger *log.Entry) (*kafka.Producer, error) {
	brokers := splitBrokers(cfg.KafkaBrokers)
	if len(brokers) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:     brokers,
		DialTimeout: cfg.StartupTimeout,
	})
	if err != nil {
		logger.WithError(err).WithField("brokers", brokers).Warn("kafka unavailable, domain events disabled")
		return nil, err
	}

	logger.WithField("brokers", brokers).Info("kafka producer connected")
	return producer, nil
}

func splitBrokers(raw string) []string {
	var out []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
		return
	}
	logger.Info("kafka producer closed")
}

package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

// Producer публикует события витрины синхронно: подтверждение требуется от
// всех in-sync реплик, продьюсер идемпотентный, тело сжимается snappy.
type Producer struct {
	sync   sarama.SyncProducer
	logger *log.Entry
}

// NewProducer подключается к брокерам и возвращает готовый к публикации Producer.
func NewProducer(brokers []string) (*Producer, error) {
	p, err := sarama.NewSyncProducer(brokers, producerConfig())
	if err != nil {
		return nil, fmt.Errorf("create sync producer: %w", err)
	}
	return &Producer{
		sync:   p,
		logger: log.WithField("component", "kafka-producer"),
	}, nil
}

func producerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Return.Successes = true
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Idempotent = true
	// Идемпотентный продьюсер требует не больше одного запроса в полёте.
	cfg.Net.MaxOpenRequests = 1
	return cfg
}

// PublishEvent сериализует событие в JSON и отправляет его в topic под ключом
// key. Ключом служит id агрегата: события одного заказа попадают в одну
// партицию и сохраняют порядок.
func (p *Producer) PublishEvent(topic, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	partition, offset, err := p.sync.SendMessage(&sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: time.Now(),
	})
	if err != nil {
		p.logger.WithError(err).WithFields(log.Fields{
			"topic": topic,
			"key":   key,
		}).Error("publish failed")
		return fmt.Errorf("send to %s: %w", topic, err)
	}

	p.logger.WithFields(log.Fields{
		"topic":     topic,
		"key":       key,
		"partition": partition,
		"offset":    offset,
	}).Debug("event published")
	return nil
}

// Close закрывает подключение к брокерам.
func (p *Producer) Close() error {
	if err := p.sync.Close(); err != nil {
		return fmt.Errorf("close sync producer: %w", err)
	}
	return nil
}

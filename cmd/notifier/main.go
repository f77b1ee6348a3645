// Notifier потребляет события заказов из Kafka и доставляет уведомления
// покупателю и администратору. Доставка здесь — запись в лог; боевой канал
// (почта, мессенджер) подключается вместо логгера без изменения консьюмера.
// Отравленные сообщения после исчерпания повторов уходят в DLQ.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

const defaultGroupID = "storefront-notifier"

func main() {
	var (
		brokersFlag string
		groupID     string
		topic       string
		maxRetries  int
	)
	flag.StringVar(&brokersFlag, "brokers", "", "comma-separated kafka brokers (fallback: STOREFRONT_KAFKA__BROKERS)")
	flag.StringVar(&groupID, "group", defaultGroupID, "consumer group id")
	flag.StringVar(&topic, "topic", kafka.TopicOrderEvents, "topic with order events")
	flag.IntVar(&maxRetries, "max-retries", 3, "delivery attempts before a message goes to the DLQ")
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	logger := log.WithField("component", "notifier")

	brokers := parseBrokers(brokersFlag)
	if len(brokers) == 0 {
		fail("no kafka brokers: pass -brokers or set STOREFRONT_KAFKA__BROKERS")
	}

	dlqProducer, err := kafka.NewProducer(brokers)
	if err != nil {
		fail("create dlq producer: %v", err)
	}
	defer func() {
		if err := dlqProducer.Close(); err != nil {
			logger.WithError(err).Warn("failed to close dlq producer")
		}
	}()

	consumer, err := kafka.NewConsumerWithDLQ(brokers, groupID, []string{topic}, deliver(logger), dlqProducer, maxRetries)
	if err != nil {
		fail("create consumer: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := consumer.Start(ctx); err != nil {
		fail("start consumer: %v", err)
	}
	logger.WithFields(log.Fields{"topic": topic, "group": groupID}).Info("notifier started")

	<-ctx.Done()
	if err := consumer.Stop(); err != nil {
		logger.WithError(err).Error("consumer shutdown failed")
	}
	logger.Info("notifier stopped")
}

// deliver маршрутизирует события по типу. Неизвестные типы подтверждаются
// молча: в топике живут и события для других потребителей.
func deliver(logger *log.Entry) kafka.MessageHandler {
	return func(_ context.Context, message *sarama.ConsumerMessage) error {
		envelope, err := kafka.ParseEnvelope(message)
		if err != nil {
			return err
		}

		switch envelope.EventType {
		case kafka.EventTypeNotifyBuyer, kafka.EventTypeNotifyAdmin:
		default:
			return nil
		}

		event, err := envelope.OrderEvent()
		if err != nil {
			return fmt.Errorf("decode order event %s: %w", envelope.ID, err)
		}

		entry := logger.WithFields(log.Fields{
			"order_number": event.OrderNumber,
			"status":       event.Status,
			"total_price":  event.TotalPrice.String(),
		})
		if envelope.EventType == kafka.EventTypeNotifyBuyer {
			entry.WithField("user_id", event.UserID).Info("buyer notification delivered")
		} else {
			entry.Info("admin notification delivered")
		}
		return nil
	}
}

func parseBrokers(raw string) []string {
	if raw == "" {
		raw = os.Getenv("STOREFRONT_KAFKA__BROKERS")
	}
	var brokers []string
	for _, broker := range strings.Split(raw, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

package messaging

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/athebyme/emag-console/pkg/interfaces"
	"github.com/confluentinc/confluent-kafka-go/kafka"
)

// KafkaMessaging реализация MessagingPort с использованием Kafka (только публикация)
type KafkaMessaging struct {
	producer *kafka.Producer
	logger   interfaces.LoggerPort
	wg       sync.WaitGroup
}

// NewKafkaMessaging создает producer и запускает обработку отчетов о доставке
func NewKafkaMessaging(brokers []string, clientID string, logger interfaces.LoggerPort) (interfaces.MessagingPort, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":            strings.Join(brokers, ","),
		"client.id":                    clientID,
		"acks":                         "all",
		"retries":                      5,
		"retry.backoff.ms":             500,
		"linger.ms":                    10,
		"message.max.bytes":            1000000,
		"queue.buffering.max.messages": 10000,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Kafka producer: %w", err)
	}

	k := &KafkaMessaging{
		producer: producer,
		logger:   logger.WithField("component", "kafka_producer"),
	}

	k.wg.Add(1)
	go k.handleDeliveryReports()

	return k, nil
}

// toKafkaMessage преобразует Message в kafka.Message
func toKafkaMessage(msg *interfaces.Message) *kafka.Message {
	topic := msg.Topic

	kafkaHeaders := make([]kafka.Header, 0, len(msg.Headers)+2)
	for k, v := range msg.Headers {
		kafkaHeaders = append(kafkaHeaders, kafka.Header{Key: k, Value: []byte(v)})
	}

	// Служебные заголовки
	kafkaHeaders = append(kafkaHeaders,
		kafka.Header{Key: "message_id", Value: []byte(msg.ID)},
		kafka.Header{Key: "timestamp", Value: []byte(msg.PublishedAt.Format(time.RFC3339Nano))},
	)

	var keyBytes []byte
	if msg.Key != "" {
		keyBytes = []byte(msg.Key)
	}

	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          msg.Value,
		Key:            keyBytes,
		Headers:        kafkaHeaders,
		Timestamp:      msg.PublishedAt,
	}
}

// Publish ставит сообщение в очередь producer. Доставка подтверждается асинхронно
func (k *KafkaMessaging) Publish(ctx context.Context, msg *interfaces.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.PublishedAt.IsZero() {
		msg.PublishedAt = time.Now().UTC()
	}

	if err := k.producer.Produce(toKafkaMessage(msg), nil); err != nil {
		return fmt.Errorf("ошибка публикации в топик %s: %w", msg.Topic, err)
	}
	return nil
}

// handleDeliveryReports логирует неудачные доставки
func (k *KafkaMessaging) handleDeliveryReports() {
	defer k.wg.Done()

	for ev := range k.producer.Events() {
		switch e := ev.(type) {
		case *kafka.Message:
			if e.TopicPartition.Error != nil {
				k.logger.Warn("Сообщение не доставлено в Kafka",
					"topic", *e.TopicPartition.Topic,
					"error", e.TopicPartition.Error)
			}
		case kafka.Error:
			k.logger.Error("Ошибка Kafka producer", "error", e.Error(), "code", e.Code())
		}
	}
}

// Close отправляет накопленные сообщения и закрывает producer
func (k *KafkaMessaging) Close() error {
	if remaining := k.producer.Flush(15 * 1000); remaining > 0 {
		k.logger.Warn("Не все сообщения отправлены в Kafka перед закрытием", "remaining", remaining)
	}
	k.producer.Close()
	k.wg.Wait()
	return nil
}

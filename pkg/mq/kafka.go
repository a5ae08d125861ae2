package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/learninverse/server/internal/models"
)

// KafkaProducer publishes persisted chat messages for durable fan-out.
// The consumer group on the other side bridges them to live websocket
// connections.
type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

func NewKafkaProducer(brokers []string, topic string, logger *zap.Logger) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("start sarama producer: %w", err)
	}

	return &KafkaProducer{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}, nil
}

// SendMessage publishes a JSON-encoded value under the given key. Keys
// keep one conversation's messages on one partition, preserving order.
func (k *KafkaProducer) SendMessage(key string, message any) error {
	bytes, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal kafka message: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(bytes),
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send to kafka: %w", err)
	}

	k.logger.Debug("message published",
		zap.String("topic", k.topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

// Deliver publishes a persisted chat message, keyed by conversation so
// per-conversation order survives partitioning. Satisfies the message
// service's delivery sink.
func (k *KafkaProducer) Deliver(_ context.Context, msg *models.ChatMessage) error {
	key := msg.GroupID
	if key == "" {
		// normalize so both directions of a DM share a partition
		a, b := models.NormalizePair(msg.SenderID, msg.RecipientID)
		key = a + ":" + b
	}
	return k.SendMessage(key, msg)
}

func (k *KafkaProducer) Close() error {
	return k.producer.Close()
}

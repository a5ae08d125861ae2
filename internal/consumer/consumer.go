package consumer

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/learninverse/server/internal/models"
	"github.com/learninverse/server/internal/ws"
)

// MessageConsumer bridges the chat topic to live websocket connections.
// Messages arriving here were already persisted by the sending node, so
// the consumer only fans them out.
type MessageConsumer struct {
	hub    *ws.Hub
	logger *zap.Logger
}

func NewMessageConsumer(hub *ws.Hub, logger *zap.Logger) *MessageConsumer {
	return &MessageConsumer{
		hub:    hub,
		logger: logger,
	}
}

// Setup is run at the beginning of a new session, before ConsumeClaim.
func (c *MessageConsumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim
// goroutines have exited.
func (c *MessageConsumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim drains one partition claim, pushing each message to the
// hub. Malformed payloads are logged and skipped; they would never
// become deliverable.
func (c *MessageConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		var msg models.ChatMessage
		if err := json.Unmarshal(message.Value, &msg); err != nil {
			c.logger.Warn("undecodable chat message, skipping",
				zap.String("topic", message.Topic),
				zap.Int64("offset", message.Offset),
				zap.Error(err))
			session.MarkMessage(message, "")
			continue
		}

		if err := c.hub.Deliver(session.Context(), &msg); err != nil {
			c.logger.Warn("websocket delivery failed",
				zap.Int64("message_id", msg.ID),
				zap.Error(err))
		}

		session.MarkMessage(message, "")
	}
	return nil
}

// StartConsumer joins the consumer group and keeps consuming until the
// context is cancelled.
func StartConsumer(ctx context.Context, brokers []string, groupID, topic string, consumer *MessageConsumer, logger *zap.Logger) error {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	config.Consumer.Offsets.Initial = sarama.OffsetNewest

	client, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return err
	}

	go func() {
		defer client.Close()
		for {
			if err := client.Consume(ctx, []string{topic}, consumer); err != nil {
				logger.Error("consumer error", zap.Error(err))
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
	return nil
}

package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// EventHandler processes one decoded booking event. Returning an error stops
// the consumer; undecodable messages are logged and skipped instead.
type EventHandler func(ctx context.Context, event BookingEvent) error

// Consumer reads the booking event stream as part of a consumer group.
type Consumer struct {
	reader *kafka.Reader
	logger *slog.Logger
}

func NewConsumer(brokers []string, groupID, topic string, logger *slog.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		logger: logger,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume decodes and dispatches booking events until the context is
// canceled or the handler fails.
func (c *Consumer) Consume(ctx context.Context, handler EventHandler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}

		var event BookingEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.logger.Error("decode booking event",
				"topic", msg.Topic, "offset", msg.Offset, "error", err)
			continue
		}

		if err := handler(ctx, event); err != nil {
			return err
		}
	}
}

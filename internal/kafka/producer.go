package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event types carried on the booking stream.
const (
	EventBookingCreated       = "booking_created"
	EventAcquisitionStarted   = "acquisition_started"
	EventAcquisitionConfirmed = "acquisition_confirmed"
	EventAcquisitionAborted   = "acquisition_aborted"
)

// BookingEvent is the wire format for booking lifecycle notifications.
type BookingEvent struct {
	Type             string    `json:"type"`
	BookingReference string    `json:"booking_reference"`
	BookingID        int64     `json:"booking_id"`
	VenueID          int64     `json:"venue_id"`
	UserID           int64     `json:"user_id"`
	EventAt          time.Time `json:"event_at"`
	TicketStatus     string    `json:"ticket_status,omitempty"`
	ConfirmationCode string    `json:"confirmation_code,omitempty"`
	Reason           string    `json:"reason,omitempty"`
}

type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewProducer(brokers []string, logger *slog.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Producer{writer: writer, logger: logger}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("write message to %s: %w", topic, err)
	}

	p.logger.Debug("event published", "topic", topic, "key", key)
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

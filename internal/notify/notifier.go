// Package notify turns booking events into user-facing notifications. The
// delivery channel is a log line for now; the consumer loop and message
// shapes are what the rest of the system depends on.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nkraemer/slotgrab/internal/kafka"
)

type Notifier struct {
	logger *slog.Logger
}

func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{logger: logger}
}

func (n *Notifier) Send(ctx context.Context, event kafka.BookingEvent) error {
	n.logger.Info("notify user",
		"user_id", event.UserID,
		"booking", event.BookingReference,
		"message", message(event))
	return nil
}

func message(event kafka.BookingEvent) string {
	switch event.Type {
	case kafka.EventBookingCreated:
		return fmt.Sprintf("booking registered for %s", event.EventAt.Format("2006-01-02 15:04 MST"))
	case kafka.EventAcquisitionConfirmed:
		return fmt.Sprintf("slot secured, confirmation code %s", event.ConfirmationCode)
	case kafka.EventAcquisitionAborted:
		return fmt.Sprintf("slot acquisition failed: %s", event.Reason)
	default:
		return event.Type
	}
}

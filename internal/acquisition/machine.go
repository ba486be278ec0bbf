// Package acquisition owns the ticket lifecycle around a slot purchase:
// STARTED -> CONFIRMED | ABORTED, with the STARTED row doubling as the
// mutual-exclusion guard against concurrent attempts.
package acquisition

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nkraemer/slotgrab/internal/domain"
	"github.com/nkraemer/slotgrab/internal/kafka"
	"github.com/nkraemer/slotgrab/internal/repository"
)

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// StateMachine drives one acquisition attempt from STARTED to a terminal
// state. It runs on a queue worker; a single Attempt may block for tens of
// seconds inside the acquirer.
type StateMachine struct {
	bookings repository.BookingRepository
	venues   repository.VenueRepository
	tickets  repository.TicketRepository
	acquirer Acquirer
	producer Producer
	topic    string
	logger   *slog.Logger
}

func NewStateMachine(
	bookings repository.BookingRepository,
	venues repository.VenueRepository,
	tickets repository.TicketRepository,
	acquirer Acquirer,
	producer Producer,
	topic string,
	logger *slog.Logger,
) *StateMachine {
	return &StateMachine{
		bookings: bookings,
		venues:   venues,
		tickets:  tickets,
		acquirer: acquirer,
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// Attempt creates a STARTED ticket for the booking, invokes the external
// acquisition capability, and moves the ticket to CONFIRMED or ABORTED.
//
// The STARTED insert is the idempotency boundary: if an attempt for this
// booking is still active the insert fails with domain.ErrAlreadyInProgress
// and no second attempt is made. A failed acquisition aborts the ticket and
// returns the failure so the runner marks the task failed; the runner never
// retries on its own, re-attempting requires a new explicit submission once
// this ticket is terminal.
func (m *StateMachine) Attempt(ctx context.Context, bookingID, userID int64) (*domain.Ticket, error) {
	booking, err := m.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("load booking %d: %w", bookingID, err)
	}
	venue, err := m.venues.GetByID(ctx, booking.VenueID)
	if err != nil {
		return nil, fmt.Errorf("load venue %d: %w", booking.VenueID, err)
	}

	ticket, err := m.tickets.CreateStarted(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	m.logger.Info("acquisition started", "booking_id", bookingID, "ticket_id", ticket.ID)
	m.publish(ctx, booking, ticket, kafka.EventAcquisitionStarted, "", "")

	code, acqErr := m.acquire(ctx, venue, booking)
	if acqErr != nil || code == "" {
		if acqErr == nil {
			acqErr = &Error{Reason: "external site returned an empty confirmation code"}
		}
		return m.abort(ctx, booking, ticket, acqErr)
	}

	if err := m.bookings.SetConfirmationCode(ctx, bookingID, code); err != nil {
		return m.abort(ctx, booking, ticket, fmt.Errorf("persist confirmation code: %w", err))
	}

	confirmed, err := m.tickets.UpdateStatus(ctx, ticket.ID, domain.TicketStatusConfirmed, "")
	if err != nil {
		// The slot is secured and the code is already on the booking; the
		// ticket must still reach a terminal state or the booking could
		// never be re-triggered.
		return m.abort(ctx, booking, ticket,
			fmt.Errorf("slot secured with code %s but ticket confirmation failed: %w", code, err))
	}

	m.logger.Info("acquisition confirmed", "booking_id", bookingID, "ticket_id", ticket.ID, "code", code)
	m.publish(ctx, booking, confirmed, kafka.EventAcquisitionConfirmed, code, "")
	return confirmed, nil
}

// acquire shields the state machine from a panicking acquirer so a stuck
// STARTED row can never be left behind.
func (m *StateMachine) acquire(ctx context.Context, venue *domain.Venue, booking *domain.Booking) (code string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Error{Reason: fmt.Sprintf("acquirer panic: %v", r)}
		}
	}()
	return m.acquirer.AcquireSlot(ctx, venue, booking)
}

func (m *StateMachine) abort(ctx context.Context, booking *domain.Booking, ticket *domain.Ticket, cause error) (*domain.Ticket, error) {
	aborted, err := m.tickets.UpdateStatus(ctx, ticket.ID, domain.TicketStatusAborted, cause.Error())
	if err != nil {
		// The failure that got us here still wins; the stuck update is logged.
		m.logger.Error("abort ticket", "ticket_id", ticket.ID, "error", err)
		aborted = ticket
	}

	m.logger.Warn("acquisition aborted", "booking_id", booking.ID, "ticket_id", ticket.ID, "reason", cause.Error())
	m.publish(ctx, booking, aborted, kafka.EventAcquisitionAborted, "", cause.Error())
	return aborted, cause
}

func (m *StateMachine) publish(ctx context.Context, booking *domain.Booking, ticket *domain.Ticket, eventType, code, reason string) {
	if m.producer == nil || m.topic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:             eventType,
		BookingReference: booking.Reference,
		BookingID:        booking.ID,
		VenueID:          booking.VenueID,
		UserID:           ticket.UserID,
		EventAt:          booking.EventAt,
		TicketStatus:     string(ticket.Status),
		ConfirmationCode: code,
		Reason:           reason,
	}
	if err := m.producer.Publish(ctx, m.topic, booking.Reference, event); err != nil {
		m.logger.Warn("publish booking event", "type", eventType, "booking", booking.Reference, "error", err)
	}
}

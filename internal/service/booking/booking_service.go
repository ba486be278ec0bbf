package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nkraemer/slotgrab/internal/domain"
	"github.com/nkraemer/slotgrab/internal/eligibility"
	"github.com/nkraemer/slotgrab/internal/kafka"
	"github.com/nkraemer/slotgrab/internal/repository"
	"github.com/nkraemer/slotgrab/internal/scheduler"
	"github.com/nkraemer/slotgrab/internal/timeslot"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*CreateBookingResult, error)
	TriggerAcquisition(ctx context.Context, reference string, userID int64) (*TriggerResult, error)
	CancelAcquisition(ctx context.Context, reference string, userID int64) (bool, error)
	GetBooking(ctx context.Context, reference string) (*domain.Booking, error)
	ListBookings(ctx context.Context, userID int64) ([]domain.Booking, error)
	ListTickets(ctx context.Context, reference string) ([]domain.Ticket, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Canceler removes a pending deferred attempt, best effort.
type Canceler interface {
	Cancel(ctx context.Context, bookingID int64) (bool, error)
}

type CreateBookingInput struct {
	VenueID   int64  `json:"venue_id"`
	EventDate string `json:"event_date"` // YYYY-MM-DD, venue-local
	EventTime string `json:"event_time"` // HH:MM, venue-local
	UserID    int64  `json:"user_id"`
}

// CreateBookingResult couples the stored booking with the scheduling outcome
// so the caller can show "will fire at ..." right away.
type CreateBookingResult struct {
	Booking *domain.Booking
	Plan    *scheduler.Plan
}

// TriggerResult reports how an explicit acquisition trigger was handled. The
// attempt itself always runs on a queue worker; its ticket becomes visible
// through ListTickets once the worker picks the task up.
type TriggerResult struct {
	Decision       scheduler.Decision
	FireAt         time.Time
	AlreadyPending bool
}

type BookingService struct {
	bookings  repository.BookingRepository
	venues    repository.VenueRepository
	tickets   repository.TicketRepository
	scheduler *scheduler.Scheduler
	canceler  Canceler
	producer  Producer
	topic     string
	logger    *slog.Logger
}

func NewBookingService(
	bookings repository.BookingRepository,
	venues repository.VenueRepository,
	tickets repository.TicketRepository,
	sched *scheduler.Scheduler,
	canceler Canceler,
	producer Producer,
	topic string,
	logger *slog.Logger,
) *BookingService {
	return &BookingService{
		bookings:  bookings,
		venues:    venues,
		tickets:   tickets,
		scheduler: sched,
		canceler:  canceler,
		producer:  producer,
		topic:     topic,
		logger:    logger,
	}
}

// CreateBooking validates the requested slot, derives and caches the earliest
// acquisition instant, stores the booking, and immediately schedules the
// acquisition attempt. Timing and derivation errors surface synchronously;
// acquisition outcomes are observed by polling the booking's tickets.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*CreateBookingResult, error) {
	if input.UserID <= 0 {
		return nil, errors.New("user id is required")
	}

	venue, err := s.venues.GetByID(ctx, input.VenueID)
	if err != nil {
		return nil, err
	}

	eventAt, err := timeslot.Normalize(input.EventDate, input.EventTime, venue.Timezone)
	if err != nil {
		return nil, err
	}

	earliestAt, err := eligibility.EarliestInstant(venue.Type, eventAt)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		Reference:             uuid.NewString(),
		UserID:                input.UserID,
		VenueID:               venue.ID,
		EventAt:               eventAt,
		EarliestAcquisitionAt: earliestAt,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("store booking: %w", err)
	}

	s.logger.Info("booking created",
		"booking_id", booking.ID, "venue_id", venue.ID, "event_at", eventAt, "earliest_at", earliestAt)
	s.publish(ctx, booking, kafka.EventBookingCreated)

	plan, err := s.scheduler.Schedule(ctx, booking, input.UserID)
	if err != nil {
		// The booking exists and can be re-triggered explicitly; do not fail
		// the creation because the queue was unreachable.
		s.logger.Error("schedule acquisition after create", "booking_id", booking.ID, "error", err)
		return &CreateBookingResult{Booking: booking}, nil
	}

	return &CreateBookingResult{Booking: booking, Plan: plan}, nil
}

// TriggerAcquisition re-submits the booking to the scheduler, for bookings
// whose earlier attempt ended ABORTED or whose creation-time scheduling
// failed. The no-concurrent-attempt invariant is enforced downstream by the
// STARTED-row guard, and the task-ID guard absorbs double submissions.
func (s *BookingService) TriggerAcquisition(ctx context.Context, reference string, userID int64) (*TriggerResult, error) {
	booking, err := s.bookings.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	tickets, err := s.tickets.ListByBooking(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	for _, t := range tickets {
		if !t.Status.Terminal() {
			return nil, fmt.Errorf("booking %s: %w", reference, domain.ErrAlreadyInProgress)
		}
	}

	plan, err := s.scheduler.Schedule(ctx, booking, userID)
	if err != nil {
		return nil, err
	}

	return &TriggerResult{
		Decision:       plan.Decision,
		FireAt:         plan.FireAt,
		AlreadyPending: plan.AlreadyPending,
	}, nil
}

// CancelAcquisition removes the pending deferred attempt if it has not fired
// yet. Returns false when there was nothing to cancel or the attempt is
// already running.
func (s *BookingService) CancelAcquisition(ctx context.Context, reference string, userID int64) (bool, error) {
	booking, err := s.bookings.GetByReference(ctx, reference)
	if err != nil {
		return false, err
	}
	return s.canceler.Cancel(ctx, booking.ID)
}

func (s *BookingService) GetBooking(ctx context.Context, reference string) (*domain.Booking, error) {
	return s.bookings.GetByReference(ctx, reference)
}

func (s *BookingService) ListBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

func (s *BookingService) ListTickets(ctx context.Context, reference string) ([]domain.Ticket, error) {
	booking, err := s.bookings.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	return s.tickets.ListByBooking(ctx, booking.ID)
}

func (s *BookingService) publish(ctx context.Context, booking *domain.Booking, eventType string) {
	if s.producer == nil || s.topic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:             eventType,
		BookingReference: booking.Reference,
		BookingID:        booking.ID,
		VenueID:          booking.VenueID,
		UserID:           booking.UserID,
		EventAt:          booking.EventAt,
	}
	if err := s.producer.Publish(ctx, s.topic, booking.Reference, event); err != nil {
		s.logger.Warn("publish booking event", "type", eventType, "booking", booking.Reference, "error", err)
	}
}

var _ BookingUseCase = (*BookingService)(nil)

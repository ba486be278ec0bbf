// Package scheduler decides whether a booking's acquisition runs now or
// later, and hands deferred work to the task runner. It never sleeps the
// calling goroutine; all waiting happens inside the runner.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/nkraemer/slotgrab/internal/domain"
)

type Action string

const (
	ActionActNow Action = "ACT_NOW"
	ActionDefer  Action = "DEFER"
)

// Decision is the outcome of comparing the current time against a booking's
// earliest acquisition instant.
type Decision struct {
	Action Action
	Delay  time.Duration
}

// Decide returns ActNow when now is at or past the booking's earliest
// acquisition instant (equality counts as ActNow), otherwise Defer with the
// remaining delay in whole seconds. The delay is clamped at zero so minor
// clock skew never produces a negative duration.
func Decide(booking *domain.Booking, now time.Time) Decision {
	if !now.Before(booking.EarliestAcquisitionAt) {
		return Decision{Action: ActionActNow}
	}
	delay := booking.EarliestAcquisitionAt.Sub(now).Truncate(time.Second)
	if delay < 0 {
		delay = 0
	}
	return Decision{Action: ActionDefer, Delay: delay}
}

// Enqueuer is the deferred-task runner as the scheduler sees it. Schedule
// persists one pending invocation per booking; re-submitting a pending
// booking is a no-op and reports enqueued=false.
type Enqueuer interface {
	Schedule(ctx context.Context, bookingID, userID int64, delay time.Duration) (fireAt time.Time, enqueued bool, err error)
}

// Plan is what the caller gets back after scheduling: the decision that was
// made and when the attempt will fire. AlreadyPending is set when a pending
// task for the booking existed and the submission was absorbed.
type Plan struct {
	Decision       Decision
	FireAt         time.Time
	AlreadyPending bool
}

// Scheduler routes bookings to the deferred-task runner.
type Scheduler struct {
	clock    Clock
	enqueuer Enqueuer
}

func New(clock Clock, enqueuer Enqueuer) *Scheduler {
	return &Scheduler{clock: clock, enqueuer: enqueuer}
}

// Schedule decides and enqueues in one step. Both outcomes go through the
// runner: an ActNow booking is enqueued with zero delay so the long-running
// acquisition executes on a worker, never on the request path.
func (s *Scheduler) Schedule(ctx context.Context, booking *domain.Booking, userID int64) (*Plan, error) {
	decision := Decide(booking, s.clock.Now())

	fireAt, enqueued, err := s.enqueuer.Schedule(ctx, booking.ID, userID, decision.Delay)
	if err != nil {
		return nil, fmt.Errorf("schedule acquisition for booking %d: %w", booking.ID, err)
	}

	return &Plan{Decision: decision, FireAt: fireAt, AlreadyPending: !enqueued}, nil
}

package acquisition

import (
	"context"
	"fmt"

	"github.com/nkraemer/slotgrab/internal/domain"
)

// Acquirer is the external capability that completes a purchase on the
// ticketing site. It returns the confirmation code on success. Failures are
// expected and carry the reason: the site may have changed its markup, the
// slot may already be gone, or the network may be down.
type Acquirer interface {
	AcquireSlot(ctx context.Context, venue *domain.Venue, booking *domain.Booking) (string, error)
}

// Error is a failure signaled by the external site. It is recorded on the
// aborted ticket rather than escalated as a crash.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("acquisition failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("acquisition failed: %s", e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

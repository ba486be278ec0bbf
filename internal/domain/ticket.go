package domain

import "time"

type TicketStatus string

const (
	TicketStatusStarted   TicketStatus = "STARTED"
	TicketStatusConfirmed TicketStatus = "CONFIRMED"
	TicketStatusAborted   TicketStatus = "ABORTED"
)

// Terminal reports whether the status is final. A booking may only be
// re-attempted once its latest ticket is terminal.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusConfirmed || s == TicketStatusAborted
}

// Ticket records one acquisition attempt for a booking. It is created in
// STARTED and moves exactly once to CONFIRMED or ABORTED. Reason holds the
// failure description for aborted attempts.
type Ticket struct {
	ID        int64
	BookingID int64
	UserID    int64
	Status    TicketStatus
	Reason    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

package domain

import "time"

// Booking is a user's standing request for one slot at a venue.
//
// EventAt and EarliestAcquisitionAt are UTC. EarliestAcquisitionAt is derived
// from EventAt and the owning venue's type when the booking is created and is
// never recomputed afterwards, so the stored value stays auditable.
type Booking struct {
	ID                    int64
	Reference             string
	UserID                int64
	VenueID               int64
	EventAt               time.Time
	EarliestAcquisitionAt time.Time
	ConfirmationCode      *string // set once, on successful acquisition
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

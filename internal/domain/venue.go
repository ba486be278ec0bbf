package domain

import "time"

type VenueType string

const (
	VenueTypeSwimming   VenueType = "SWIMMING"
	VenueTypeBouldering VenueType = "BOULDERING"
)

// Valid reports whether the venue type is one of the known policy
// discriminators. Unknown types must fail closed everywhere they are
// dispatched on.
func (t VenueType) Valid() bool {
	switch t {
	case VenueTypeSwimming, VenueTypeBouldering:
		return true
	}
	return false
}

// Venue is a third-party ticketing site we acquire slots from. Type and
// Timezone drive the eligibility window and the acquisition sequence; both
// are fixed at creation and only change through an explicit update.
type Venue struct {
	ID        int64
	Name      string
	BaseURL   string
	Type      VenueType
	Timezone  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

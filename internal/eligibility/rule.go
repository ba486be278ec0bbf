// Package eligibility computes the earliest instant at which a venue starts
// selling slots for an event.
package eligibility

import (
	"fmt"
	"time"

	"github.com/nkraemer/slotgrab/internal/domain"
)

// Lead times per venue type. Extend the table when a new venue type is
// added; unmatched types fail closed.
const (
	swimmingLead   = 96 * time.Hour
	boulderingLead = 7 * 24 * time.Hour
)

// LeadTime returns the venue type's booking-window lead time.
func LeadTime(venueType domain.VenueType) (time.Duration, error) {
	switch venueType {
	case domain.VenueTypeSwimming:
		return swimmingLead, nil
	case domain.VenueTypeBouldering:
		return boulderingLead, nil
	default:
		return 0, fmt.Errorf("%w: %q", domain.ErrUnsupportedVenueType, venueType)
	}
}

// EarliestInstant returns the first UTC instant at which acquisition for an
// event at eventAt is permitted. Pure function of its inputs. An unmatched
// venue type fails closed with domain.ErrUnsupportedVenueType rather than
// falling back to any window.
func EarliestInstant(venueType domain.VenueType, eventAt time.Time) (time.Time, error) {
	lead, err := LeadTime(venueType)
	if err != nil {
		return time.Time{}, err
	}
	return eventAt.Add(-lead), nil
}

// Package timeslot converts user-supplied local event times into canonical
// UTC instants using the venue's timezone rules.
package timeslot

import (
	"fmt"
	"time"

	"github.com/nkraemer/slotgrab/internal/domain"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	layout = DateLayout + " " + TimeLayout
)

// Normalize interprets the naive localDate/localTime pair in the given IANA
// timezone and returns the corresponding UTC instant. The zone's rules at the
// event's own date decide the offset, so daylight-saving transitions months
// away from "now" resolve correctly.
//
// A wall time that does not exist in the zone (spring-forward gap) returns
// domain.ErrInvalidTime instead of being shifted to the nearest valid time.
func Normalize(localDate, localTime, venueTimezone string) (time.Time, error) {
	loc, err := time.LoadLocation(venueTimezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("load venue timezone %q: %w", venueTimezone, err)
	}

	input := localDate + " " + localTime
	t, err := time.ParseInLocation(layout, input, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: parse %q: %v", domain.ErrInvalidTime, input, err)
	}

	// ParseInLocation normalizes nonexistent wall times to a real instant on
	// either side of the gap. If formatting the result does not reproduce the
	// input, the requested time never occurred in this zone.
	if t.Format(layout) != input {
		return time.Time{}, fmt.Errorf("%w: %q in %s", domain.ErrInvalidTime, input, venueTimezone)
	}

	return t.UTC(), nil
}

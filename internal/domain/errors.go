package domain

import "errors"

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidTime is returned when a user-supplied local date/time cannot be
// resolved in the venue's timezone, most notably when it falls into a
// spring-forward gap. The input is rejected rather than silently shifted.
var ErrInvalidTime = errors.New("local time does not exist in venue timezone")

// ErrUnsupportedVenueType is returned when a venue type falls through the
// eligibility policy table. This is a configuration defect and fails closed
// instead of guessing a default window.
var ErrUnsupportedVenueType = errors.New("unsupported venue type")

// ErrAlreadyInProgress is returned when an acquisition attempt is refused
// because a STARTED ticket already exists for the booking.
var ErrAlreadyInProgress = errors.New("acquisition already in progress")

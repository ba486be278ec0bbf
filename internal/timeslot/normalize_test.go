package timeslot

import (
	"testing"
	"time"

	"github.com/nkraemer/slotgrab/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestNormalize_ConvertsLocalTimeToUTC(t *testing.T) {
	// Berlin is UTC+1 in March before the DST switch.
	got, err := Normalize("2022-03-15", "20:00", "Europe/Berlin")

	assert.NoError(t, err)
	assert.Equal(t, time.Date(2022, 3, 15, 19, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestNormalize_UsesZoneRulesAtEventDate(t *testing.T) {
	// Same wall time, opposite sides of the DST switch: the offset must come
	// from the event's date, not from the current date.
	winter, err := Normalize("2022-01-10", "14:00", "Europe/Berlin")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2022, 1, 10, 13, 0, 0, 0, time.UTC), winter)

	summer, err := Normalize("2022-07-10", "14:00", "Europe/Berlin")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2022, 7, 10, 12, 0, 0, 0, time.UTC), summer)
}

func TestNormalize_RejectsSpringForwardGap(t *testing.T) {
	// 02:30 on 2022-03-27 never happened in Berlin; clocks jumped from
	// 02:00 to 03:00.
	_, err := Normalize("2022-03-27", "02:30", "Europe/Berlin")

	assert.ErrorIs(t, err, domain.ErrInvalidTime)
}

func TestNormalize_AcceptsTimesAroundTheGap(t *testing.T) {
	before, err := Normalize("2022-03-27", "01:59", "Europe/Berlin")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2022, 3, 27, 0, 59, 0, 0, time.UTC), before)

	after, err := Normalize("2022-03-27", "03:00", "Europe/Berlin")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2022, 3, 27, 1, 0, 0, 0, time.UTC), after)
}

func TestNormalize_RejectsMalformedInput(t *testing.T) {
	testCases := []struct {
		name      string
		date      string
		timeOfDay string
	}{
		{name: "garbage date", date: "not-a-date", timeOfDay: "14:00"},
		{name: "garbage time", date: "2022-03-15", timeOfDay: "25:99"},
		{name: "empty", date: "", timeOfDay: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.date, tc.timeOfDay, "Europe/Berlin")
			assert.ErrorIs(t, err, domain.ErrInvalidTime)
		})
	}
}

func TestNormalize_RejectsUnknownTimezone(t *testing.T) {
	_, err := Normalize("2022-03-15", "20:00", "Europe/Atlantis")

	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidTime)
}

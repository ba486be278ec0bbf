package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nkraemer/slotgrab/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) Schedule(ctx context.Context, bookingID, userID int64, delay time.Duration) (time.Time, bool, error) {
	args := m.Called(ctx, bookingID, userID, delay)
	return args.Get(0).(time.Time), args.Bool(1), args.Error(2)
}

func bookingWithWindow(earliest time.Time) *domain.Booking {
	return &domain.Booking{
		ID:                    42,
		UserID:                7,
		EventAt:               earliest.Add(96 * time.Hour),
		EarliestAcquisitionAt: earliest,
	}
}

func TestDecide(t *testing.T) {
	earliest := time.Date(2022, 3, 11, 20, 0, 0, 0, time.UTC)
	booking := bookingWithWindow(earliest)

	testCases := []struct {
		name       string
		now        time.Time
		wantAction Action
		wantDelay  time.Duration
	}{
		{
			name:       "well before the window defers with remaining delay",
			now:        time.Date(2022, 3, 10, 8, 27, 0, 0, time.UTC),
			wantAction: ActionDefer,
			wantDelay:  35*time.Hour + 33*time.Minute,
		},
		{
			name:       "exactly at the window acts now",
			now:        earliest,
			wantAction: ActionActNow,
		},
		{
			name:       "one second past the window acts now",
			now:        time.Date(2022, 3, 11, 20, 0, 1, 0, time.UTC),
			wantAction: ActionActNow,
		},
		{
			name:       "fractional seconds are truncated",
			now:        earliest.Add(-1500 * time.Millisecond),
			wantAction: ActionDefer,
			wantDelay:  time.Second,
		},
		{
			name:       "sub-second remainder clamps to zero",
			now:        earliest.Add(-300 * time.Millisecond),
			wantAction: ActionDefer,
			wantDelay:  0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Decide(booking, tc.now)
			assert.Equal(t, tc.wantAction, got.Action)
			assert.Equal(t, tc.wantDelay, got.Delay)
		})
	}
}

func TestScheduler_Schedule_Defers(t *testing.T) {
	earliest := time.Date(2022, 3, 11, 20, 0, 0, 0, time.UTC)
	now := time.Date(2022, 3, 10, 8, 27, 0, 0, time.UTC)
	booking := bookingWithWindow(earliest)

	enqueuer := &MockEnqueuer{}
	enqueuer.On("Schedule", mock.Anything, int64(42), int64(7), 35*time.Hour+33*time.Minute).
		Return(earliest, true, nil).Once()

	s := New(fixedClock{now: now}, enqueuer)
	plan, err := s.Schedule(context.Background(), booking, 7)

	assert.NoError(t, err)
	assert.Equal(t, ActionDefer, plan.Decision.Action)
	assert.Equal(t, earliest, plan.FireAt)
	assert.False(t, plan.AlreadyPending)
	enqueuer.AssertExpectations(t)
}

func TestScheduler_Schedule_ActNowStillGoesThroughRunner(t *testing.T) {
	earliest := time.Date(2022, 3, 11, 20, 0, 0, 0, time.UTC)
	now := earliest.Add(time.Minute)
	booking := bookingWithWindow(earliest)

	enqueuer := &MockEnqueuer{}
	enqueuer.On("Schedule", mock.Anything, int64(42), int64(7), time.Duration(0)).
		Return(now, true, nil).Once()

	s := New(fixedClock{now: now}, enqueuer)
	plan, err := s.Schedule(context.Background(), booking, 7)

	assert.NoError(t, err)
	assert.Equal(t, ActionActNow, plan.Decision.Action)
	enqueuer.AssertExpectations(t)
}

func TestScheduler_Schedule_ReportsAlreadyPending(t *testing.T) {
	earliest := time.Date(2022, 3, 11, 20, 0, 0, 0, time.UTC)
	booking := bookingWithWindow(earliest)

	enqueuer := &MockEnqueuer{}
	enqueuer.On("Schedule", mock.Anything, int64(42), int64(7), mock.Anything).
		Return(earliest, false, nil).Once()

	s := New(fixedClock{now: earliest.Add(-time.Hour)}, enqueuer)
	plan, err := s.Schedule(context.Background(), booking, 7)

	assert.NoError(t, err)
	assert.True(t, plan.AlreadyPending)
	enqueuer.AssertExpectations(t)
}

func TestScheduler_Schedule_PropagatesEnqueueError(t *testing.T) {
	booking := bookingWithWindow(time.Date(2022, 3, 11, 20, 0, 0, 0, time.UTC))

	enqueuer := &MockEnqueuer{}
	enqueuer.On("Schedule", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(time.Time{}, false, errors.New("redis down")).Once()

	s := New(fixedClock{now: time.Now()}, enqueuer)
	_, err := s.Schedule(context.Background(), booking, 7)

	assert.ErrorContains(t, err, "redis down")
}

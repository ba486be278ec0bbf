package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
)

func TestNewMux_DispatchesPayloadToAttempt(t *testing.T) {
	var gotBooking, gotUser int64
	mux := NewMux(func(ctx context.Context, bookingID, userID int64) error {
		gotBooking, gotUser = bookingID, userID
		return nil
	})

	payload, _ := json.Marshal(AcquirePayload{BookingID: 42, UserID: 7})
	err := mux.ProcessTask(context.Background(), asynq.NewTask(TypeAcquireSlot, payload))

	assert.NoError(t, err)
	assert.Equal(t, int64(42), gotBooking)
	assert.Equal(t, int64(7), gotUser)
}

func TestNewMux_PropagatesAttemptError(t *testing.T) {
	mux := NewMux(func(ctx context.Context, bookingID, userID int64) error {
		return errors.New("slot already gone")
	})

	payload, _ := json.Marshal(AcquirePayload{BookingID: 1, UserID: 1})
	err := mux.ProcessTask(context.Background(), asynq.NewTask(TypeAcquireSlot, payload))

	assert.ErrorContains(t, err, "slot already gone")
}

func TestNewMux_RejectsMalformedPayload(t *testing.T) {
	called := false
	mux := NewMux(func(ctx context.Context, bookingID, userID int64) error {
		called = true
		return nil
	})

	err := mux.ProcessTask(context.Background(), asynq.NewTask(TypeAcquireSlot, []byte("{not json")))

	assert.Error(t, err)
	assert.False(t, called)
}

func TestTaskID_IsStablePerBooking(t *testing.T) {
	assert.Equal(t, taskID(42), taskID(42))
	assert.NotEqual(t, taskID(42), taskID(43))
}

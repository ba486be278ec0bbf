package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// AttemptFunc is the acquisition state machine's entry point as the worker
// sees it. It is invoked exactly once per dequeued task.
type AttemptFunc func(ctx context.Context, bookingID, userID int64) error

// NewServer builds the worker-pool server that drains due acquisition tasks.
// Concurrency bounds how many acquisitions run at once; each one may block
// for tens of seconds on the external site.
func NewServer(redisOpt asynq.RedisClientOpt, queueName string, concurrency int, logger *slog.Logger) *asynq.Server {
	return asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queueName: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("acquisition task failed", "type", task.Type(), "error", err)
		}),
	})
}

// NewMux routes acquisition tasks to the state machine.
func NewMux(attempt AttemptFunc) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeAcquireSlot, func(ctx context.Context, task *asynq.Task) error {
		var payload AcquirePayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("decode acquire payload: %w", err)
		}
		return attempt(ctx, payload.BookingID, payload.UserID)
	})
	return mux
}

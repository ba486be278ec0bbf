// Package queue is the durable deferred-task runner. It persists one pending
// acquisition task per booking in redis via asynq: the target instant is
// stored server-side, so pending tasks survive process restart and overdue
// tasks fire as soon as a worker comes back.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// TypeAcquireSlot is the task type consumed by the acquisition worker.
const TypeAcquireSlot = "acquisition:attempt"

// AcquirePayload identifies the booking to attempt and the user acting.
type AcquirePayload struct {
	BookingID int64 `json:"booking_id"`
	UserID    int64 `json:"user_id"`
}

// taskID keys the pending task by booking, which is what makes Schedule
// idempotent: asynq refuses a second task with the same ID while the first
// one is still pending or running.
func taskID(bookingID int64) string {
	return fmt.Sprintf("acquire:booking:%d", bookingID)
}

// Runner enqueues and cancels deferred acquisition attempts.
type Runner struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	queue     string
	retention time.Duration
	logger    *slog.Logger
}

func NewRunner(redisOpt asynq.RedisClientOpt, queueName string, retention time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		queue:     queueName,
		retention: retention,
		logger:    logger,
	}
}

func (r *Runner) Close() error {
	if err := r.client.Close(); err != nil {
		return err
	}
	return r.inspector.Close()
}

// Schedule enqueues exactly one pending acquisition for the booking, to run
// after delay. Re-submitting while a task for the same booking is pending is
// a no-op: the existing task's fire time is returned with enqueued=false.
//
// The runner itself never retries: a failed attempt lands in the archive and
// any retry is an explicit re-submission once the ticket is terminal. An
// archived or retained task still holds the booking's task ID in redis, so a
// conflict against a finished task is cleared and re-enqueued rather than
// absorbed; otherwise no booking could ever be re-attempted.
func (r *Runner) Schedule(ctx context.Context, bookingID, userID int64, delay time.Duration) (time.Time, bool, error) {
	payload, err := json.Marshal(AcquirePayload{BookingID: bookingID, UserID: userID})
	if err != nil {
		return time.Time{}, false, fmt.Errorf("marshal acquire payload: %w", err)
	}

	task := asynq.NewTask(TypeAcquireSlot, payload)
	info, err := r.enqueue(ctx, task, bookingID, delay)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		existing, infoErr := r.inspector.GetTaskInfo(r.queue, taskID(bookingID))
		if infoErr == nil && taskInFlight(existing.State) {
			r.logger.Info("acquisition already scheduled, submission absorbed",
				"booking_id", bookingID, "fire_at", existing.NextProcessAt)
			return existing.NextProcessAt, false, nil
		}

		if delErr := r.inspector.DeleteTask(r.queue, taskID(bookingID)); delErr != nil && !errors.Is(delErr, asynq.ErrTaskNotFound) {
			return time.Time{}, false, fmt.Errorf("clear finished task for booking %d: %w", bookingID, delErr)
		}
		info, err = r.enqueue(ctx, task, bookingID, delay)
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("enqueue acquisition for booking %d: %w", bookingID, err)
	}

	r.logger.Info("acquisition scheduled",
		"booking_id", bookingID, "user_id", userID, "delay", delay, "fire_at", info.NextProcessAt)
	return info.NextProcessAt, true, nil
}

func (r *Runner) enqueue(ctx context.Context, task *asynq.Task, bookingID int64, delay time.Duration) (*asynq.TaskInfo, error) {
	return r.client.EnqueueContext(ctx, task,
		asynq.TaskID(taskID(bookingID)),
		asynq.Queue(r.queue),
		asynq.ProcessIn(delay),
		asynq.MaxRetry(0),
		asynq.Retention(r.retention),
	)
}

// taskInFlight reports whether a task in the given state still represents a
// forthcoming or running attempt. Archived and retained-completed tasks are
// finished; their leftover task ID must not block a re-submission.
func taskInFlight(state asynq.TaskState) bool {
	switch state {
	case asynq.TaskStatePending, asynq.TaskStateScheduled, asynq.TaskStateActive,
		asynq.TaskStateRetry, asynq.TaskStateAggregating:
		return true
	default:
		return false
	}
}

// Cancel removes a pending task before it fires. Best effort only: a task
// that already started executing runs to completion, and Cancel reports
// canceled=false for it as well as for bookings with nothing pending.
func (r *Runner) Cancel(ctx context.Context, bookingID int64) (bool, error) {
	err := r.inspector.DeleteTask(r.queue, taskID(bookingID))
	switch {
	case err == nil:
		r.logger.Info("pending acquisition canceled", "booking_id", bookingID)
		return true, nil
	case errors.Is(err, asynq.ErrTaskNotFound), errors.Is(err, asynq.ErrQueueNotFound):
		return false, nil
	default:
		// asynq refuses to delete an active task; that is the reportable
		// no-op case. Anything else is a real failure.
		info, infoErr := r.inspector.GetTaskInfo(r.queue, taskID(bookingID))
		if infoErr == nil && info.State == asynq.TaskStateActive {
			r.logger.Warn("acquisition already running, cancel skipped", "booking_id", bookingID)
			return false, nil
		}
		return false, fmt.Errorf("cancel acquisition for booking %d: %w", bookingID, err)
	}
}

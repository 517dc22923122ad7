package driven

import (
	"context"
	"time"

	"github.com/extindex/extindex/internal/core/domain"
)

// TaskQueue is the enqueue-facing contract consumed by the services.
// Every ingestion unit of work runs as an independently scheduled,
// at-least-once task; the services never spawn concurrent sub-work
// themselves.
type TaskQueue interface {
	// Enqueue schedules a task and returns its identifier.
	Enqueue(ctx context.Context, kind domain.TaskKind, repositoryID int64) (string, error)
}

// TaskStore is the dispatcher-facing persistence of the queue.
type TaskStore interface {
	TaskQueue

	// Claim atomically takes the next due task, or returns nil when none
	// is due. A claimed task is invisible to other workers until
	// rescheduled or finished.
	Claim(ctx context.Context, now time.Time) (*domain.Task, error)

	// Reschedule returns a failed task to the queue for a later attempt.
	Reschedule(ctx context.Context, id string, notBefore time.Time, attempts int, lastErr string) error

	// Finish removes a completed task.
	Finish(ctx context.Context, id string) error

	// Fail marks a task permanently failed after the retry ceiling.
	Fail(ctx context.Context, id string, lastErr string) error
}

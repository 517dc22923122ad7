package domain

import "time"

// TaskKind identifies which updater operation a task runs.
type TaskKind string

const (
	// TaskUpdate runs a full repository import.
	TaskUpdate TaskKind = "update"

	// TaskUpdateStats refreshes only the star/fork/issue counters.
	TaskUpdateStats TaskKind = "update_stats"

	// TaskSubscribe registers the change webhook for a repository.
	TaskSubscribe TaskKind = "subscribe"
)

// MaxTaskAttempts is the retry ceiling per task. After this many failed
// attempts the task is marked failed and needs manual intervention.
const MaxTaskAttempts = 5

// Task is one unit of ingestion work, executed at-least-once by the
// dispatcher's worker pool.
type Task struct {
	ID           string
	Kind         TaskKind
	RepositoryID int64
	Attempts     int
	LastError    string
	NotBefore    time.Time
	CreatedAt    time.Time
}

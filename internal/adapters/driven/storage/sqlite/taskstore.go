package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/extindex/extindex/internal/core/domain"
	"github.com/extindex/extindex/internal/core/ports/driven"
)

// taskStore implements driven.TaskStore. Tasks survive restarts; claiming
// happens inside a transaction so concurrent workers never run the same
// task twice.
type taskStore struct {
	store *Store
}

var _ driven.TaskStore = (*taskStore)(nil)

// Enqueue schedules a task due immediately.
func (s *taskStore) Enqueue(ctx context.Context, kind domain.TaskKind, repositoryID int64) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO tasks (id, kind, repository_id, not_before, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, string(kind), repositoryID, now, now)
	if err != nil {
		return "", fmt.Errorf("enqueueing task: %w", err)
	}
	return id, nil
}

// Claim atomically takes the next due task, or returns nil when none is due.
func (s *taskStore) Claim(ctx context.Context, now time.Time) (*domain.Task, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	row := tx.QueryRowContext(ctx, `
		SELECT id, kind, repository_id, attempts, last_error, not_before, created_at
		FROM tasks
		WHERE claimed = 0 AND failed = 0 AND not_before <= ?
		ORDER BY not_before
		LIMIT 1
	`, now.UTC())

	var task domain.Task
	var kind string
	if err := row.Scan(&task.ID, &kind, &task.RepositoryID, &task.Attempts,
		&task.LastError, &task.NotBefore, &task.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}
	task.Kind = domain.TaskKind(kind)

	if _, err := tx.ExecContext(ctx, "UPDATE tasks SET claimed = 1 WHERE id = ?", task.ID); err != nil {
		return nil, fmt.Errorf("claiming task: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing claim: %w", err)
	}
	return &task, nil
}

// Reschedule returns a failed task to the queue for a later attempt.
func (s *taskStore) Reschedule(ctx context.Context, id string, notBefore time.Time, attempts int, lastErr string) error {
	_, err := s.store.db.ExecContext(ctx, `
		UPDATE tasks SET claimed = 0, not_before = ?, attempts = ?, last_error = ?
		WHERE id = ?
	`, notBefore.UTC(), attempts, lastErr, id)
	if err != nil {
		return fmt.Errorf("rescheduling task: %w", err)
	}
	return nil
}

// Finish removes a completed task.
func (s *taskStore) Finish(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("finishing task: %w", err)
	}
	return nil
}

// Fail marks a task permanently failed. The row is kept for inspection.
func (s *taskStore) Fail(ctx context.Context, id string, lastErr string) error {
	_, err := s.store.db.ExecContext(ctx, `
		UPDATE tasks SET claimed = 0, failed = 1, last_error = ?
		WHERE id = ?
	`, lastErr, id)
	if err != nil {
		return fmt.Errorf("failing task: %w", err)
	}
	return nil
}

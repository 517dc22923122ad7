package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// Infrastructure errors (API, storage) are wrapped around these where useful.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransient indicates a retryable remote failure: rate limiting,
	// network trouble, server errors, or an open circuit breaker. The
	// dispatcher retries tasks failing with it, with backoff.
	ErrTransient = errors.New("transient remote failure")

	// ErrManifestInvalid indicates the manifest file could not be parsed.
	// The updater treats this as "no manifest"; the submission checker
	// surfaces it to the user.
	ErrManifestInvalid = errors.New("manifest invalid")

	// ErrManifestMissing indicates no manifest file exists at the repository root.
	ErrManifestMissing = errors.New("manifest missing")

	// ErrWebhooksDisabled indicates webhook registration is administratively off.
	ErrWebhooksDisabled = errors.New("webhook registration disabled")

	// ErrQueueClosed indicates the task queue no longer accepts work.
	ErrQueueClosed = errors.New("task queue closed")
)

// CheckError is a user-facing validation failure from the submission checker.
// Reason is safe to show verbatim.
type CheckError struct {
	Reason string
	Err    error
}

func (e *CheckError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *CheckError) Unwrap() error { return e.Err }

// NewCheckError builds a CheckError with an optional cause.
func NewCheckError(reason string, err error) *CheckError {
	return &CheckError{Reason: reason, Err: err}
}

package driving

import "context"

// Dispatcher runs the worker pool that executes queued ingestion tasks
// and the daily fan-out over system-imported repositories.
type Dispatcher interface {
	// Start runs workers until the context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop shuts the pool down, waiting for in-flight tasks.
	Stop() error
}

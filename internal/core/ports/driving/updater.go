package driving

import "context"

// Updater drives the ingestion of one repository. All operations are
// synchronous and blocking; the dispatcher runs them as independent tasks
// and owns retries.
type Updater interface {
	// Update performs the full import: remote metadata, manifest, type and
	// file inference, related-repository discovery, one atomic persist,
	// release sync, index republish. A repository gone from the remote is
	// deleted locally.
	Update(ctx context.Context, repositoryID int64) error

	// UpdateStats refreshes only the star/fork/open-issue counters.
	UpdateStats(ctx context.Context, repositoryID int64) error

	// Subscribe registers the change webhook for the repository and
	// persists the returned webhook identifier. A no-op (with a logged
	// notice) when webhook registration is disabled.
	Subscribe(ctx context.Context, repositoryID int64) error
}

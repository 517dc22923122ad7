package driving

import (
	"context"

	"github.com/extindex/extindex/internal/core/domain"
)

// Submitter handles explicit submission of a repository to the catalog.
type Submitter interface {
	// Submit get-or-creates the record for a GitHub repository URL,
	// enqueues a full update, and enqueues a subscribe task when the
	// repository has no webhook yet. Returns the record and whether it
	// was newly created.
	Submit(ctx context.Context, repositoryURL string) (*domain.Repository, bool, error)
}

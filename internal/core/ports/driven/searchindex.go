package driven

import (
	"context"

	"github.com/extindex/extindex/internal/core/domain"
)

// SearchIndex is the full-text index boundary. The catalog republishes a
// denormalized document after every successful import and removes entries
// when the backing repository is deleted.
type SearchIndex interface {
	// Index inserts or replaces the document for a repository.
	Index(ctx context.Context, doc domain.SearchDocument) error

	// Delete removes a repository's document. Deleting an unindexed
	// repository is a no-op.
	Delete(ctx context.Context, repositoryID int64) error

	// Search runs a fuzzy multi-field query and returns matches ranked by
	// relevance.
	Search(ctx context.Context, term string, limit int) ([]domain.SearchResult, error)
}

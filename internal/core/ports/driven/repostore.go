package driven

import (
	"context"

	"github.com/extindex/extindex/internal/core/domain"
)

// RepositoryStore persists catalogued repositories and their dependency
// edges. Implementations must make GetOrCreate atomic with respect to the
// (owner, name) unique constraint so two racing tasks cannot create
// duplicate rows.
type RepositoryStore interface {
	// Get retrieves a repository by ID. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id int64) (*domain.Repository, error)

	// GetByKey retrieves a repository by its (owner, name) identity.
	GetByKey(ctx context.Context, key domain.RepoKey) (*domain.Repository, error)

	// GetOrCreate returns the repository for key, creating an empty record
	// if none exists. The second return value reports whether a record was
	// created; callers enqueue ingestion only for newly created records.
	GetOrCreate(ctx context.Context, key domain.RepoKey) (*domain.Repository, bool, error)

	// Apply writes the staged patch fields as one atomic update.
	Apply(ctx context.Context, id int64, patch *domain.RepositoryPatch) error

	// Delete removes the repository, its dependency edges and releases.
	Delete(ctx context.Context, id int64) error

	// SetDependencies replaces the dependency edge set of a repository.
	SetDependencies(ctx context.Context, id int64, dependencyIDs []int64) error

	// Dependencies returns the repositories the given one depends on.
	Dependencies(ctx context.Context, id int64) ([]domain.Repository, error)

	// ListUnlinked returns repositories without a linked owner account.
	// The periodic fan-out refreshes exactly these.
	ListUnlinked(ctx context.Context) ([]domain.Repository, error)

	// CountByType reports catalog totals per extension type.
	CountByType(ctx context.Context) (map[domain.ExtensionType]int, error)
}

// ReleaseStore persists repository releases idempotently.
type ReleaseStore interface {
	// InsertMissing inserts the release unless a row for the
	// (repository, tag) pair already exists. Existing rows are never
	// modified. Returns true if a row was inserted.
	InsertMissing(ctx context.Context, rel domain.Release) (bool, error)

	// ListByRepository returns the releases of a repository, newest first.
	ListByRepository(ctx context.Context, repositoryID int64) ([]domain.Release, error)
}

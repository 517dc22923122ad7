package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/extindex/extindex/internal/core/domain"
	"github.com/extindex/extindex/internal/core/ports/driven"
)

// IndexSync keeps the full-text index in step with the repository store.
// Only repositories carrying a manifest are published; everything else is
// kept out of (or removed from) the index.
type IndexSync struct {
	repos driven.RepositoryStore
	index driven.SearchIndex
}

// NewIndexSync creates the sync service.
func NewIndexSync(repos driven.RepositoryStore, index driven.SearchIndex) *IndexSync {
	return &IndexSync{repos: repos, index: index}
}

// Republish reloads the repository and replaces its index document.
// Repositories without a manifest are withdrawn instead.
func (s *IndexSync) Republish(ctx context.Context, repositoryID int64) error {
	repo, err := s.repos.Get(ctx, repositoryID)
	if err != nil {
		return err
	}
	if !repo.HasManifest {
		return s.index.Delete(ctx, repositoryID)
	}

	doc := domain.SearchDocument{
		RepositoryID: repo.ID,
		Owner:        repo.Owner,
		Name:         repo.Name,
		Keywords:     strings.Join(repo.Keywords, " "),
		DisplayName:  repo.DisplayName,
		AuthorName:   repo.AuthorName,
		Description:  repo.Description,
		Readme:       repo.Readme,
		Type:         repo.Type,
	}
	if err := s.index.Index(ctx, doc); err != nil {
		return err
	}
	log.Debug().Str("repo", repo.FullName()).Msg("search document republished")
	return nil
}

// Remove withdraws a repository's document from the index.
func (s *IndexSync) Remove(ctx context.Context, repositoryID int64) error {
	return s.index.Delete(ctx, repositoryID)
}

package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/extindex/extindex/internal/core/domain"
	"github.com/extindex/extindex/internal/core/ports/driven"
)

// SubmitterService turns a user-submitted repository reference into a
// catalog record and the tasks that ingest it.
type SubmitterService struct {
	repos driven.RepositoryStore
	queue driven.TaskQueue
}

// NewSubmitter creates the submission service.
func NewSubmitter(repos driven.RepositoryStore, queue driven.TaskQueue) *SubmitterService {
	return &SubmitterService{repos: repos, queue: queue}
}

// Submit registers the repository behind a GitHub URL (or bare "owner/name"
// reference), schedules a full import, and schedules a webhook subscription
// if none exists yet. The second return value reports whether the record
// was newly created.
func (s *SubmitterService) Submit(ctx context.Context, repositoryURL string) (*domain.Repository, bool, error) {
	key, err := ParseRepositoryURL(repositoryURL)
	if err != nil {
		return nil, false, err
	}

	repo, created, err := s.repos.GetOrCreate(ctx, key)
	if err != nil {
		return nil, false, err
	}

	if _, err := s.queue.Enqueue(ctx, domain.TaskUpdate, repo.ID); err != nil {
		return nil, false, err
	}
	if repo.WebhookID == nil {
		if _, err := s.queue.Enqueue(ctx, domain.TaskSubscribe, repo.ID); err != nil {
			return nil, false, err
		}
	}

	log.Info().Str("repo", repo.FullName()).Bool("created", created).Msg("repository submitted")
	return repo, created, nil
}

// ParseRepositoryURL extracts the (owner, name) identity from a GitHub
// repository URL. Bare "owner/name" references are accepted too; a trailing
// ".git" suffix is stripped.
func ParseRepositoryURL(raw string) (domain.RepoKey, error) {
	raw = strings.TrimSpace(raw)
	path := raw

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return domain.RepoKey{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return domain.RepoKey{}, fmt.Errorf("%w: unsupported scheme %q", domain.ErrInvalidInput, u.Scheme)
		}
		if !strings.EqualFold(u.Host, "github.com") && !strings.EqualFold(u.Host, "www.github.com") {
			return domain.RepoKey{}, fmt.Errorf("%w: not a github.com repository: %s", domain.ErrInvalidInput, raw)
		}
		path = u.Path
	}

	key, err := domain.ParseRepoKey(strings.TrimSuffix(strings.Trim(path, "/"), ".git"))
	if err != nil {
		return domain.RepoKey{}, fmt.Errorf("%w: expected owner/name, got %q", domain.ErrInvalidInput, raw)
	}
	return key, nil
}

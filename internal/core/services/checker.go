package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/extindex/extindex/internal/core/domain"
	"github.com/extindex/extindex/internal/core/ports/driven"
	"github.com/extindex/extindex/internal/manifest"
)

// CheckerService validates a repository's manifest before submission. It
// reads from the remote only and persists nothing.
type CheckerService struct {
	remote driven.RemoteClient
}

// NewChecker creates the pre-submission checker.
func NewChecker(remote driven.RemoteClient) *CheckerService {
	return &CheckerService{remote: remote}
}

// CheckManifest verifies that the repository exists, carries a manifest at
// its root, and that the manifest satisfies the submission schema. Failures
// are returned as *domain.CheckError with a reason safe to show the user.
func (s *CheckerService) CheckManifest(ctx context.Context, owner, name string) error {
	contents, err := s.remote.ListContents(ctx, owner, name, "")
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewCheckError("repository not found on GitHub", err)
	}
	if err != nil {
		return err
	}

	entry := findEntry(contents, manifest.IsManifestPath)
	if entry == nil {
		return domain.NewCheckError(
			"no "+manifest.FileName+" found at the repository root",
			domain.ErrManifestMissing,
		)
	}

	data, err := s.remote.FileContent(ctx, owner, name, entry.Path)
	if err != nil {
		return err
	}

	doc, err := manifest.Decode(data)
	if err != nil {
		return domain.NewCheckError(manifest.FileName+" could not be parsed", err)
	}
	if err := manifest.ValidateSchema(doc); err != nil {
		return domain.NewCheckError(err.Error(), domain.ErrManifestInvalid)
	}

	log.Debug().Str("repo", owner+"/"+name).Msg("manifest check passed")
	return nil
}

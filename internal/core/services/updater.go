package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/extindex/extindex/internal/core/domain"
	"github.com/extindex/extindex/internal/core/ports/driven"
	"github.com/extindex/extindex/internal/manifest"
)

// webhookEvents is the event set registered with every subscription.
// push triggers a full re-import, the rest refresh the counters.
var webhookEvents = []string{"push", "watch", "issues", "pull_request", "fork"}

// callbackPath is the webhook target below the configured page URL. It must
// match the route the webhook adapter serves.
const callbackPath = "/api/github/callback"

// readmeNames are the root files accepted as the repository readme,
// matched case-insensitively in listing order.
var readmeNames = map[string]bool{
	"readme":     true,
	"readme.md":  true,
	"readme.rst": true,
	"readme.txt": true,
}

// UpdaterService runs the ingestion pipeline for a single repository. Every
// operation is idempotent so the at-least-once task queue can replay it.
type UpdaterService struct {
	repos     driven.RepositoryStore
	releases  driven.ReleaseStore
	remote    driven.RemoteClient
	queue     driven.TaskQueue
	renderer  driven.ReadmeRenderer
	config    driven.ConfigStore
	index     *IndexSync
	inventory *InventoryBuilder

	now func() time.Time
}

// NewUpdater wires the updater over its collaborators.
func NewUpdater(
	repos driven.RepositoryStore,
	releases driven.ReleaseStore,
	remote driven.RemoteClient,
	queue driven.TaskQueue,
	renderer driven.ReadmeRenderer,
	config driven.ConfigStore,
	index *IndexSync,
) *UpdaterService {
	return &UpdaterService{
		repos:     repos,
		releases:  releases,
		remote:    remote,
		queue:     queue,
		renderer:  renderer,
		config:    config,
		index:     index,
		inventory: NewInventoryBuilder(remote),
		now:       time.Now,
	}
}

// Update runs a full import: metadata, manifest, readme, fork parent,
// dependencies, type and file inference, then the release sync. All field
// changes accumulate in a patch applied as one atomic write, so an abort
// before the write persists nothing.
func (s *UpdaterService) Update(ctx context.Context, repositoryID int64) error {
	repo, err := s.repos.Get(ctx, repositoryID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Debug().Int64("repository_id", repositoryID).Msg("update for deleted record skipped")
		return nil
	}
	if err != nil {
		return err
	}

	remote, err := s.remote.GetRepository(ctx, repo.Owner, repo.Name)
	if errors.Is(err, domain.ErrNotFound) {
		return s.forget(ctx, repo)
	}
	if err != nil {
		return err
	}

	// A failed listing aborts before anything is staged, the record
	// stays as it was.
	contents, err := s.remote.ListContents(ctx, repo.Owner, repo.Name, "")
	if err != nil {
		return err
	}

	patch := domain.NewRepositoryPatch()
	if remote.Description != "" {
		patch.Set(domain.FieldDescription, remote.Description)
	}
	patch.Set(domain.FieldStargazers, remote.Stargazers)
	patch.Set(domain.FieldForks, remote.Forks)
	patch.Set(domain.FieldOpenIssues, remote.OpenIssues)
	if !remote.PushedAt.IsZero() {
		patch.Set(domain.FieldLastPush, remote.PushedAt)
	}

	commits, err := s.remote.ListCommits(ctx, repo.Owner, repo.Name)
	if err != nil {
		return err
	}
	if len(commits) > 0 {
		patch.Set(domain.FieldLastCommitID, commits[0].SHA)
	}

	if remote.Parent != nil {
		parent, created, err := s.repos.GetOrCreate(ctx, *remote.Parent)
		if err != nil {
			return err
		}
		patch.Set(domain.FieldParentID, parent.ID)
		if created {
			if _, err := s.queue.Enqueue(ctx, domain.TaskUpdate, parent.ID); err != nil {
				return err
			}
		}
	}

	man, err := s.loadManifest(ctx, repo, contents)
	if err != nil {
		return err
	}
	patch.Set(domain.FieldHasManifest, man != nil)

	if err := s.loadReadme(ctx, repo, contents, patch); err != nil {
		return err
	}

	var depIDs []int64
	if man != nil {
		depIDs, err = s.applyManifest(ctx, man, patch)
		if err != nil {
			return err
		}
	}

	s.infer(ctx, repo, contents, patch)

	patch.Set(domain.FieldLastImport, s.now())
	if err := s.repos.Apply(ctx, repo.ID, patch); err != nil {
		return err
	}
	if man != nil {
		if err := s.repos.SetDependencies(ctx, repo.ID, depIDs); err != nil {
			return err
		}
	}
	if err := s.index.Republish(ctx, repo.ID); err != nil {
		return err
	}
	if err := s.syncReleases(ctx, repo); err != nil {
		return err
	}

	log.Info().
		Str("repo", repo.FullName()).
		Bool("manifest", man != nil).
		Int("fields", patch.Len()).
		Msg("repository imported")
	return nil
}

// UpdateStats refreshes only the activity counters.
func (s *UpdaterService) UpdateStats(ctx context.Context, repositoryID int64) error {
	repo, err := s.repos.Get(ctx, repositoryID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	remote, err := s.remote.GetRepository(ctx, repo.Owner, repo.Name)
	if errors.Is(err, domain.ErrNotFound) {
		return s.forget(ctx, repo)
	}
	if err != nil {
		return err
	}

	patch := domain.NewRepositoryPatch()
	patch.Set(domain.FieldStargazers, remote.Stargazers)
	patch.Set(domain.FieldForks, remote.Forks)
	patch.Set(domain.FieldOpenIssues, remote.OpenIssues)
	return s.repos.Apply(ctx, repo.ID, patch)
}

// Subscribe registers the change webhook for a repository. Re-running it for
// an already subscribed repository is a no-op.
func (s *UpdaterService) Subscribe(ctx context.Context, repositoryID int64) error {
	if !s.config.GetBool(driven.ConfigWebhookEnabled) {
		log.Info().Int64("repository_id", repositoryID).Msg("webhooks disabled, subscription skipped")
		return nil
	}

	repo, err := s.repos.Get(ctx, repositoryID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if repo.WebhookID != nil {
		return nil
	}

	cfg := driven.WebhookConfig{
		URL:    strings.TrimRight(s.config.GetString(driven.ConfigPageURL), "/") + callbackPath,
		Secret: s.config.GetString(driven.ConfigWebhookSecret),
		Events: webhookEvents,
	}
	hookID, err := s.remote.CreateWebhook(ctx, repo.Owner, repo.Name, cfg)
	if errors.Is(err, domain.ErrNotFound) {
		return s.forget(ctx, repo)
	}
	if err != nil {
		return err
	}

	patch := domain.NewRepositoryPatch()
	patch.Set(domain.FieldWebhookID, hookID)
	if err := s.repos.Apply(ctx, repo.ID, patch); err != nil {
		return err
	}
	log.Info().Str("repo", repo.FullName()).Int64("webhook_id", hookID).Msg("webhook registered")
	return nil
}

// forget removes a repository the remote no longer knows, cascading to its
// releases, dependency edges and index document.
func (s *UpdaterService) forget(ctx context.Context, repo *domain.Repository) error {
	if err := s.index.Remove(ctx, repo.ID); err != nil {
		return err
	}
	if err := s.repos.Delete(ctx, repo.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	log.Info().Str("repo", repo.FullName()).Msg("repository gone upstream, record removed")
	return nil
}

// loadManifest fetches and parses the root manifest. A missing manifest or
// an unparsable one yields nil; only the fetch itself can fail the import.
func (s *UpdaterService) loadManifest(
	ctx context.Context, repo *domain.Repository, contents []driven.RemoteEntry,
) (*domain.Manifest, error) {
	entry := findEntry(contents, manifest.IsManifestPath)
	if entry == nil {
		return nil, nil
	}
	data, err := s.remote.FileContent(ctx, repo.Owner, repo.Name, entry.Path)
	if err != nil {
		return nil, err
	}
	man, err := manifest.Parse(data)
	if err != nil {
		log.Debug().Err(err).Str("repo", repo.FullName()).Msg("unparsable manifest ignored")
		return nil, nil
	}
	return man, nil
}

// loadReadme renders the first readme candidate found at the root.
func (s *UpdaterService) loadReadme(
	ctx context.Context, repo *domain.Repository, contents []driven.RemoteEntry,
	patch *domain.RepositoryPatch,
) error {
	entry := findEntry(contents, func(path string) bool {
		return readmeNames[strings.ToLower(path)]
	})
	if entry == nil {
		return nil
	}
	data, err := s.remote.FileContent(ctx, repo.Owner, repo.Name, entry.Path)
	if err != nil {
		return err
	}
	html := s.renderer.HTML(string(data), domain.ExtensionOf(strings.ToLower(entry.Path)))
	patch.Set(domain.FieldReadme, html)
	return nil
}

// applyManifest stages the declared fields and resolves the dependency set.
// Newly discovered dependencies get their own import task.
func (s *UpdaterService) applyManifest(
	ctx context.Context, man *domain.Manifest, patch *domain.RepositoryPatch,
) ([]int64, error) {
	if man.HasName {
		patch.Set(domain.FieldDisplayName, man.Name)
	}
	if man.HasDesc {
		patch.Set(domain.FieldDescription, man.Description)
	}
	if man.HasType {
		patch.Set(domain.FieldType, man.Type)
	}
	if man.HasKeywords {
		patch.Set(domain.FieldKeywords, man.Keywords)
	}
	if man.Author.Name != "" {
		patch.Set(domain.FieldAuthorName, man.Author.Name)
	}
	if man.Author.Email != "" {
		patch.Set(domain.FieldAuthorEmail, man.Author.Email)
	}
	if man.Author.Homepage != "" {
		patch.Set(domain.FieldAuthorURL, man.Author.Homepage)
	}
	if man.HasLicense {
		patch.Set(domain.FieldLicense, man.License)
	}
	patch.Set(domain.FieldFiles, man.Files)

	depIDs := make([]int64, 0, len(man.Dependencies))
	for _, key := range man.Dependencies {
		dep, created, err := s.repos.GetOrCreate(ctx, key)
		if err != nil {
			return nil, err
		}
		depIDs = append(depIDs, dep.ID)
		if created {
			if _, err := s.queue.Enqueue(ctx, domain.TaskUpdate, dep.ID); err != nil {
				return nil, err
			}
		}
	}
	return depIDs, nil
}

// infer fills in type and files when the manifest left them open. Inference
// never overwrites an explicitly declared or previously stored value.
func (s *UpdaterService) infer(
	ctx context.Context, repo *domain.Repository, contents []driven.RemoteEntry,
	patch *domain.RepositoryPatch,
) {
	effectiveType := repo.Type
	if v, ok := patch.Get(domain.FieldType); ok {
		effectiveType = v.(domain.ExtensionType)
	}

	var inv *domain.FileInventory
	if effectiveType == domain.TypeUnknown {
		inv = s.inventory.Build(ctx, repo.Owner, repo.Name, contents)
		js, py := inv.Count(".js"), inv.Count(".py")
		if js > 0 || py > 0 {
			if js > py {
				effectiveType = domain.TypePlugin
			} else {
				effectiveType = domain.TypeComponent
			}
			patch.Set(domain.FieldType, effectiveType)
		}
	}

	effectiveFiles := repo.Files
	if v, ok := patch.Get(domain.FieldFiles); ok {
		effectiveFiles = v.([]string)
	}
	if len(effectiveFiles) > 0 || effectiveType == domain.TypeUnknown {
		return
	}
	if inv == nil {
		inv = s.inventory.Build(ctx, repo.Owner, repo.Name, contents)
	}
	switch effectiveType {
	case domain.TypePlugin:
		patch.Set(domain.FieldFiles, inv.Files(".js"))
	case domain.TypeComponent:
		patch.Set(domain.FieldFiles, inv.Files(".py"))
	}
}

// syncReleases inserts releases the store has not seen. Existing rows are
// left untouched, so edited upstream release notes never rewrite history.
func (s *UpdaterService) syncReleases(ctx context.Context, repo *domain.Repository) error {
	rels, err := s.remote.ListReleases(ctx, repo.Owner, repo.Name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	inserted := 0
	for _, rel := range rels {
		ok, err := s.releases.InsertMissing(ctx, domain.Release{
			RepositoryID: repo.ID,
			TagName:      rel.TagName,
			Body:         rel.Body,
			PublishedAt:  rel.PublishedAt,
			ZipballURL:   rel.ZipballURL,
		})
		if err != nil {
			return err
		}
		if ok {
			inserted++
		}
	}
	if inserted > 0 {
		log.Debug().Str("repo", repo.FullName()).Int("new", inserted).Msg("releases synced")
	}
	return nil
}

// findEntry returns the first root file whose path matches.
func findEntry(entries []driven.RemoteEntry, match func(string) bool) *driven.RemoteEntry {
	for i := range entries {
		if entries[i].Type == driven.EntryFile && match(entries[i].Path) {
			return &entries[i]
		}
	}
	return nil
}

package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/extindex/extindex/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "extindex-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

// createTestRepository creates a catalog entry and returns it.
func createTestRepository(t *testing.T, store *Store, owner, name string) *domain.Repository {
	t.Helper()
	ctx := context.Background()
	repo, created, err := store.RepositoryStore().GetOrCreate(ctx, domain.RepoKey{Owner: owner, Name: name})
	require.NoError(t, err)
	require.True(t, created)
	return repo
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Success(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "extindex-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	dbPath := filepath.Join(tempDir, "catalog.db")
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)

	err = store.db.Ping()
	assert.NoError(t, err)
}

func TestNewStore_Migrations(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	var count int
	err := store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Greater(t, count, 0, "should have at least one migration")

	tables := []string{
		"repositories",
		"repository_dependencies",
		"releases",
		"tasks",
		"repository_search",
	}
	for _, table := range tables {
		var tableExists int
		err := store.db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&tableExists)
		require.NoError(t, err)
		assert.Equal(t, 1, tableExists, "table %s should exist", table)
	}
}

func TestNewStore_MigrationIdempotency(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "extindex-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store1, err := NewStore(tempDir)
	require.NoError(t, err)

	var count1 int
	err = store1.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count1)
	require.NoError(t, err)
	require.NoError(t, store1.Close())

	// Reopening must not run migrations again.
	store2, err := NewStore(tempDir)
	require.NoError(t, err)
	defer store2.Close()

	var count2 int
	err = store2.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count2)
	require.NoError(t, err)
	assert.Equal(t, count1, count2)
}

func TestNewStore_ForeignKeysEnabled(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	var fkEnabled int
	err := store.db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled)
	require.NoError(t, err)
	assert.Equal(t, 1, fkEnabled, "foreign keys should be enabled")
}

func TestStore_InterfaceGetters(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.NotNil(t, store.RepositoryStore())
	assert.NotNil(t, store.ReleaseStore())
	assert.NotNil(t, store.TaskStore())
	assert.NotNil(t, store.SearchIndex())
}

// ==================== RepositoryStore Tests ====================

func TestRepositoryStore_GetOrCreate(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	repos := store.RepositoryStore()
	key := domain.RepoKey{Owner: "acme", Name: "widget"}

	repo, created, err := repos.GetOrCreate(ctx, key)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, repo.ID)
	assert.Equal(t, "acme", repo.Owner)
	assert.Equal(t, "widget", repo.Name)
	assert.Equal(t, domain.TypeUnknown, repo.Type)
	assert.NotNil(t, repo.Keywords)
	assert.NotNil(t, repo.Files)

	// The same key resolves to the same row.
	again, created, err := repos.GetOrCreate(ctx, key)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, repo.ID, again.ID)
}

func TestRepositoryStore_GetOrCreate_CaseInsensitive(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	repos := store.RepositoryStore()

	repo, created, err := repos.GetOrCreate(ctx, domain.RepoKey{Owner: "Acme", Name: "Widget"})
	require.NoError(t, err)
	require.True(t, created)

	// GitHub identities are case preserving but case insensitive.
	same, created, err := repos.GetOrCreate(ctx, domain.RepoKey{Owner: "acme", Name: "WIDGET"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, repo.ID, same.ID)

	byKey, err := repos.GetByKey(ctx, domain.RepoKey{Owner: "ACME", Name: "widget"})
	require.NoError(t, err)
	assert.Equal(t, repo.ID, byKey.ID)
}

func TestRepositoryStore_Get_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	repos := store.RepositoryStore()

	repo, err := repos.Get(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, repo)

	repo, err = repos.GetByKey(ctx, domain.RepoKey{Owner: "nobody", Name: "home"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, repo)
}

func TestRepositoryStore_ApplyRoundtrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	repos := store.RepositoryStore()
	repo := createTestRepository(t, store, "acme", "widget")
	parent := createTestRepository(t, store, "acme", "base")

	pushedAt := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	importedAt := time.Date(2024, 5, 11, 8, 30, 0, 0, time.UTC)

	patch := domain.NewRepositoryPatch()
	patch.Set(domain.FieldDisplayName, "Widget")
	patch.Set(domain.FieldDescription, "A very fine widget")
	patch.Set(domain.FieldReadme, "<h1>Widget</h1>")
	patch.Set(domain.FieldType, domain.TypePlugin)
	patch.Set(domain.FieldKeywords, []string{"home", "widget"})
	patch.Set(domain.FieldAuthorName, "Jo Coder")
	patch.Set(domain.FieldAuthorEmail, "jo@example.com")
	patch.Set(domain.FieldAuthorURL, "https://example.com")
	patch.Set(domain.FieldLicense, "MIT")
	patch.Set(domain.FieldFiles, []string{"dist/widget.js"})
	patch.Set(domain.FieldHasManifest, true)
	patch.Set(domain.FieldLastCommitID, "abc123def456")
	patch.Set(domain.FieldLastPush, pushedAt)
	patch.Set(domain.FieldStargazers, 42)
	patch.Set(domain.FieldForks, 7)
	patch.Set(domain.FieldOpenIssues, 3)
	patch.Set(domain.FieldParentID, parent.ID)
	patch.Set(domain.FieldWebhookID, int64(711))
	patch.Set(domain.FieldLastImport, importedAt)

	err := repos.Apply(ctx, repo.ID, patch)
	require.NoError(t, err)

	got, err := repos.Get(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.DisplayName)
	assert.Equal(t, "A very fine widget", got.Description)
	assert.Equal(t, "<h1>Widget</h1>", got.Readme)
	assert.Equal(t, domain.TypePlugin, got.Type)
	assert.Equal(t, []string{"home", "widget"}, got.Keywords)
	assert.Equal(t, "Jo Coder", got.AuthorName)
	assert.Equal(t, "jo@example.com", got.AuthorEmail)
	assert.Equal(t, "https://example.com", got.AuthorURL)
	assert.Equal(t, "MIT", got.License)
	assert.Equal(t, []string{"dist/widget.js"}, got.Files)
	assert.True(t, got.HasManifest)
	assert.Equal(t, "abc123def456", got.LastCommitID)
	assert.True(t, pushedAt.Equal(got.LastPush))
	assert.Equal(t, 42, got.Stargazers)
	assert.Equal(t, 7, got.Forks)
	assert.Equal(t, 3, got.OpenIssues)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, parent.ID, *got.ParentID)
	require.NotNil(t, got.WebhookID)
	assert.Equal(t, int64(711), *got.WebhookID)
	assert.True(t, importedAt.Equal(got.LastImport))
}

func TestRepositoryStore_ApplyEmptyPatch(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	repos := store.RepositoryStore()
	repo := createTestRepository(t, store, "acme", "widget")

	err := repos.Apply(ctx, repo.ID, domain.NewRepositoryPatch())
	assert.NoError(t, err)
}

func TestRepositoryStore_Apply_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	repos := store.RepositoryStore()

	patch := domain.NewRepositoryPatch()
	patch.Set(domain.FieldDescription, "nothing to update")

	err := repos.Apply(ctx, 999, patch)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepositoryStore_Delete(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	repos := store.RepositoryStore()
	repo := createTestRepository(t, store, "acme", "widget")

	err := repos.Delete(ctx, repo.ID)
	require.NoError(t, err)

	_, err = repos.Get(ctx, repo.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = repos.Delete(ctx, repo.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepositoryStore_Delete_CascadesDependenciesAndReleases(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	repos := store.RepositoryStore()
	repo := createTestRepository(t, store, "acme", "widget")
	dep := createTestRepository(t, store, "acme", "base")

	err := repos.SetDependencies(ctx, repo.ID, []int64{dep.ID})
	require.NoError(t, err)

	_, err = store.ReleaseStore().InsertMissing(ctx, domain.Release{
		RepositoryID: repo.ID,
		TagName:      "v1.0.0",
		PublishedAt:  time.Now().UTC(),
	})
	require.NoError(t, err)

	err = repos.Delete(ctx, repo.ID)
	require.NoError(t, err)

	var edges int
	err = store.db.QueryRow(
		"SELECT COUNT(*) FROM repository_dependencies WHERE repository_id = ?", repo.ID).Scan(&edges)
	require.NoError(t, err)
	assert.Zero(t, edges)

	releases, err := store.ReleaseStore().ListByRepository(ctx, repo.ID)
	require.NoError(t, err)
	assert.Empty(t, releases)

	// The dependency itself survives.
	_, err = repos.Get(ctx, dep.ID)
	assert.NoError(t, err)
}

func TestRepositoryStore_DeleteParent_KeepsForks(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	repos := store.RepositoryStore()
	parent := createTestRepository(t, store, "acme", "widget")
	fork := createTestRepository(t, store, "forker", "widget")

	patch := domain.NewRepositoryPatch()
	patch.Set(domain.FieldParentID, parent.ID)
	require.NoError(t, repos.Apply(ctx, fork.ID, patch))

	err := repos.Delete(ctx, parent.ID)
	require.NoError(t, err)

	// The fork stays, its parent link is cleared.
	got, err := repos.Get(ctx, fork.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)
}

func TestRepositoryStore_SetDependencies_Replaces(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	repos := store.RepositoryStore()
	repo := createTestRepository(t, store, "acme", "widget")
	depA := createTestRepository(t, store, "acme", "base")
	depB := createTestRepository(t, store, "other", "lib")

	err := repos.SetDependencies(ctx, repo.ID, []int64{depA.ID})
	require.NoError(t, err)

	deps, err := repos.Dependencies(ctx, repo.ID)
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, depA.ID, deps[0].ID)

	// A later set replaces the edge set wholesale.
	err = repos.SetDependencies(ctx, repo.ID, []int64{depB.ID})
	require.NoError(t, err)

	deps, err = repos.Dependencies(ctx, repo.ID)
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, depB.ID, deps[0].ID)

	err = repos.SetDependencies(ctx, repo.ID, nil)
	require.NoError(t, err)

	deps, err = repos.Dependencies(ctx, repo.ID)
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestRepositoryStore_ListUnlinked(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	repos := store.RepositoryStore()
	createTestRepository(t, store, "acme", "widget")
	linked := createTestRepository(t, store, "acme", "base")

	_, err := store.db.ExecContext(ctx,
		"UPDATE repositories SET owner_linked = 1 WHERE id = ?", linked.ID)
	require.NoError(t, err)

	unlinked, err := repos.ListUnlinked(ctx)
	require.NoError(t, err)
	require.Len(t, unlinked, 1)
	assert.Equal(t, "widget", unlinked[0].Name)
}

func TestRepositoryStore_CountByType(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	repos := store.RepositoryStore()
	plugin := createTestRepository(t, store, "acme", "widget")
	createTestRepository(t, store, "acme", "sensor")
	createTestRepository(t, store, "other", "thing")

	patch := domain.NewRepositoryPatch()
	patch.Set(domain.FieldType, domain.TypePlugin)
	require.NoError(t, repos.Apply(ctx, plugin.ID, patch))

	counts, err := repos.CountByType(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.TypePlugin])
	assert.Equal(t, 2, counts[domain.TypeUnknown])
}

// ==================== ReleaseStore Tests ====================

func TestReleaseStore_InsertMissing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	releases := store.ReleaseStore()
	repo := createTestRepository(t, store, "acme", "widget")

	rel := domain.Release{
		RepositoryID: repo.ID,
		TagName:      "v1.0.0",
		Body:         "first release",
		PublishedAt:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		ZipballURL:   "https://example.com/v1.zip",
	}

	inserted, err := releases.InsertMissing(ctx, rel)
	require.NoError(t, err)
	assert.True(t, inserted)

	// The same tag is never rewritten, even with new content.
	rel.Body = "rewritten body"
	inserted, err = releases.InsertMissing(ctx, rel)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := releases.ListByRepository(ctx, repo.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "first release", got[0].Body)
	assert.Equal(t, "https://example.com/v1.zip", got[0].ZipballURL)
}

func TestReleaseStore_ListByRepository_NewestFirst(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	releases := store.ReleaseStore()
	repo := createTestRepository(t, store, "acme", "widget")
	other := createTestRepository(t, store, "acme", "base")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, tag := range []string{"v1.0.0", "v1.1.0", "v2.0.0"} {
		_, err := releases.InsertMissing(ctx, domain.Release{
			RepositoryID: repo.ID,
			TagName:      tag,
			PublishedAt:  base.AddDate(0, i, 0),
		})
		require.NoError(t, err)
	}
	_, err := releases.InsertMissing(ctx, domain.Release{
		RepositoryID: other.ID,
		TagName:      "v9.0.0",
		PublishedAt:  base,
	})
	require.NoError(t, err)

	got, err := releases.ListByRepository(ctx, repo.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "v2.0.0", got[0].TagName)
	assert.Equal(t, "v1.1.0", got[1].TagName)
	assert.Equal(t, "v1.0.0", got[2].TagName)
}

// ==================== TaskStore Tests ====================

func TestTaskStore_EnqueueAndClaim(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	tasks := store.TaskStore()
	repo := createTestRepository(t, store, "acme", "widget")

	id, err := tasks.Enqueue(ctx, domain.TaskUpdate, repo.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	task, err := tasks.Claim(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, id, task.ID)
	assert.Equal(t, domain.TaskUpdate, task.Kind)
	assert.Equal(t, repo.ID, task.RepositoryID)
	assert.Zero(t, task.Attempts)

	// A claimed task is invisible to other workers.
	task, err = tasks.Claim(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestTaskStore_Claim_HonorsNotBefore(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	tasks := store.TaskStore()
	repo := createTestRepository(t, store, "acme", "widget")

	id, err := tasks.Enqueue(ctx, domain.TaskUpdate, repo.ID)
	require.NoError(t, err)

	later := time.Now().UTC().Add(time.Hour)
	err = tasks.Reschedule(ctx, id, later, 1, "flaky remote")
	require.NoError(t, err)

	// Not due yet.
	task, err := tasks.Claim(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Nil(t, task)

	// Due once the clock passes not_before.
	task, err = tasks.Claim(ctx, later.Add(time.Minute))
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, id, task.ID)
	assert.Equal(t, 1, task.Attempts)
	assert.Equal(t, "flaky remote", task.LastError)
}

func TestTaskStore_Claim_OldestDueFirst(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	tasks := store.TaskStore()
	repo := createTestRepository(t, store, "acme", "widget")

	first, err := tasks.Enqueue(ctx, domain.TaskUpdate, repo.ID)
	require.NoError(t, err)
	second, err := tasks.Enqueue(ctx, domain.TaskUpdateStats, repo.ID)
	require.NoError(t, err)

	// Push the first task further into the past.
	_, err = store.db.ExecContext(ctx,
		"UPDATE tasks SET not_before = ? WHERE id = ?",
		time.Now().UTC().Add(-time.Hour), first)
	require.NoError(t, err)

	task, err := tasks.Claim(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, first, task.ID)

	task, err = tasks.Claim(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, second, task.ID)
}

func TestTaskStore_Finish(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	tasks := store.TaskStore()
	repo := createTestRepository(t, store, "acme", "widget")

	id, err := tasks.Enqueue(ctx, domain.TaskUpdate, repo.ID)
	require.NoError(t, err)

	task, err := tasks.Claim(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.NotNil(t, task)

	err = tasks.Finish(ctx, id)
	require.NoError(t, err)

	var count int
	err = store.db.QueryRow("SELECT COUNT(*) FROM tasks").Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTaskStore_Fail_KeepsRowOutOfQueue(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	tasks := store.TaskStore()
	repo := createTestRepository(t, store, "acme", "widget")

	id, err := tasks.Enqueue(ctx, domain.TaskUpdate, repo.ID)
	require.NoError(t, err)

	err = tasks.Fail(ctx, id, "gave up")
	require.NoError(t, err)

	// Failed tasks are never claimed again.
	task, err := tasks.Claim(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Nil(t, task)

	// The row survives for inspection.
	var lastError string
	err = store.db.QueryRow("SELECT last_error FROM tasks WHERE id = ?", id).Scan(&lastError)
	require.NoError(t, err)
	assert.Equal(t, "gave up", lastError)
}

// ==================== SearchIndex Tests ====================

func indexTestDocument(t *testing.T, store *Store, repo *domain.Repository, doc domain.SearchDocument) {
	t.Helper()
	doc.RepositoryID = repo.ID
	doc.Owner = repo.Owner
	doc.Name = repo.Name
	require.NoError(t, store.SearchIndex().Index(context.Background(), doc))
}

func TestSearchIndex_IndexAndSearch(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	repo := createTestRepository(t, store, "acme", "widget")
	indexTestDocument(t, store, repo, domain.SearchDocument{
		Keywords:    "home dashboard",
		DisplayName: "Widget",
		Description: "A dashboard widget",
		Readme:      "<h1>Widget</h1><p>Install &amp; enjoy.</p>",
		Type:        domain.TypePlugin,
	})

	results, err := store.SearchIndex().Search(ctx, "widget", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, repo.ID, results[0].RepositoryID)
	assert.Equal(t, "acme", results[0].Owner)
	assert.Equal(t, "widget", results[0].Name)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestSearchIndex_NameOutranksReadme(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	named := createTestRepository(t, store, "acme", "tracker")
	mentioned := createTestRepository(t, store, "other", "misc")

	indexTestDocument(t, store, named, domain.SearchDocument{
		Description: "Keeps an eye on things",
	})
	indexTestDocument(t, store, mentioned, domain.SearchDocument{
		Readme: "works with the tracker somehow",
	})

	results, err := store.SearchIndex().Search(ctx, "tracker", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, named.ID, results[0].RepositoryID, "name match should rank first")
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearchIndex_PrefixMatchOnLastTerm(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	repo := createTestRepository(t, store, "acme", "thermostat")
	indexTestDocument(t, store, repo, domain.SearchDocument{})

	// A partially typed last word still finds its target.
	results, err := store.SearchIndex().Search(ctx, "thermo", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, repo.ID, results[0].RepositoryID)
}

func TestSearchIndex_QuotesHostileInput(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	repo := createTestRepository(t, store, "acme", "widget")
	indexTestDocument(t, store, repo, domain.SearchDocument{})

	// FTS5 operators in the query must not cause a syntax error.
	_, err := store.SearchIndex().Search(ctx, `widget AND "NOT(`, 10)
	assert.NoError(t, err)

	results, err := store.SearchIndex().Search(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchIndex_ReindexReplaces(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	repo := createTestRepository(t, store, "acme", "widget")
	indexTestDocument(t, store, repo, domain.SearchDocument{Description: "weather station"})
	indexTestDocument(t, store, repo, domain.SearchDocument{Description: "doorbell chime"})

	results, err := store.SearchIndex().Search(ctx, "weather", 10)
	require.NoError(t, err)
	assert.Empty(t, results, "old document content should be gone")

	results, err = store.SearchIndex().Search(ctx, "doorbell", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	var count int
	err = store.db.QueryRow(
		"SELECT COUNT(*) FROM repository_search WHERE repository_id = ?", repo.ID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "reindexing must not accumulate rows")
}

func TestSearchIndex_Delete(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	repo := createTestRepository(t, store, "acme", "widget")
	indexTestDocument(t, store, repo, domain.SearchDocument{})

	err := store.SearchIndex().Delete(ctx, repo.ID)
	require.NoError(t, err)

	results, err := store.SearchIndex().Search(ctx, "widget", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	// Deleting an unindexed repository is a no-op.
	err = store.SearchIndex().Delete(ctx, repo.ID)
	assert.NoError(t, err)
}

func TestSearchIndex_StripsReadmeMarkup(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	repo := createTestRepository(t, store, "acme", "widget")
	indexTestDocument(t, store, repo, domain.SearchDocument{
		Readme: "<pre>unobtainium</pre>",
	})

	// Tag names are stripped before indexing, the text inside is kept.
	results, err := store.SearchIndex().Search(ctx, "unobtainium", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = store.SearchIndex().Search(ctx, "pre", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/extindex/extindex/internal/core/domain"
	"github.com/extindex/extindex/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// mockRepositoryStore implements driven.RepositoryStore in memory.
type mockRepositoryStore struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*domain.Repository
	deps   map[int64][]int64

	applyErr error
}

func newMockRepositoryStore() *mockRepositoryStore {
	return &mockRepositoryStore{
		byID: make(map[int64]*domain.Repository),
		deps: make(map[int64][]int64),
	}
}

// add seeds a repository and returns it.
func (m *mockRepositoryStore) add(owner, name string) *domain.Repository {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.create(domain.RepoKey{Owner: owner, Name: name})
}

// create inserts a fresh record (caller must hold lock).
func (m *mockRepositoryStore) create(key domain.RepoKey) *domain.Repository {
	m.nextID++
	repo := &domain.Repository{
		ID:        m.nextID,
		Owner:     key.Owner,
		Name:      key.Name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.byID[repo.ID] = repo
	return repo
}

func (m *mockRepositoryStore) Get(_ context.Context, id int64) (*domain.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	repo, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *repo
	return &cp, nil
}

func (m *mockRepositoryStore) GetByKey(_ context.Context, key domain.RepoKey) (*domain.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if repo := m.find(key); repo != nil {
		cp := *repo
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockRepositoryStore) find(key domain.RepoKey) *domain.Repository {
	for _, repo := range m.byID {
		if strings.EqualFold(repo.Owner, key.Owner) && strings.EqualFold(repo.Name, key.Name) {
			return repo
		}
	}
	return nil
}

func (m *mockRepositoryStore) GetOrCreate(_ context.Context, key domain.RepoKey) (*domain.Repository, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if repo := m.find(key); repo != nil {
		cp := *repo
		return &cp, false, nil
	}
	repo := m.create(key)
	cp := *repo
	return &cp, true, nil
}

func (m *mockRepositoryStore) Apply(_ context.Context, id int64, patch *domain.RepositoryPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applyErr != nil {
		return m.applyErr
	}
	repo, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	for _, field := range patch.Fields() {
		value, _ := patch.Get(field)
		applyField(repo, field, value)
	}
	repo.UpdatedAt = time.Now()
	return nil
}

func applyField(r *domain.Repository, field string, value any) {
	switch field {
	case domain.FieldDisplayName:
		r.DisplayName = value.(string)
	case domain.FieldDescription:
		r.Description = value.(string)
	case domain.FieldReadme:
		r.Readme = value.(string)
	case domain.FieldType:
		r.Type = value.(domain.ExtensionType)
	case domain.FieldKeywords:
		r.Keywords = value.([]string)
	case domain.FieldAuthorName:
		r.AuthorName = value.(string)
	case domain.FieldAuthorEmail:
		r.AuthorEmail = value.(string)
	case domain.FieldAuthorURL:
		r.AuthorURL = value.(string)
	case domain.FieldLicense:
		r.License = value.(string)
	case domain.FieldFiles:
		r.Files = value.([]string)
	case domain.FieldHasManifest:
		r.HasManifest = value.(bool)
	case domain.FieldLastCommitID:
		r.LastCommitID = value.(string)
	case domain.FieldLastPush:
		r.LastPush = value.(time.Time)
	case domain.FieldStargazers:
		r.Stargazers = value.(int)
	case domain.FieldForks:
		r.Forks = value.(int)
	case domain.FieldOpenIssues:
		r.OpenIssues = value.(int)
	case domain.FieldParentID:
		id := value.(int64)
		r.ParentID = &id
	case domain.FieldWebhookID:
		id := value.(int64)
		r.WebhookID = &id
	case domain.FieldLastImport:
		r.LastImport = value.(time.Time)
	}
}

func (m *mockRepositoryStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	delete(m.deps, id)
	return nil
}

func (m *mockRepositoryStore) SetDependencies(_ context.Context, id int64, dependencyIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deps[id] = append([]int64(nil), dependencyIDs...)
	return nil
}

func (m *mockRepositoryStore) Dependencies(_ context.Context, id int64) ([]domain.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Repository
	for _, depID := range m.deps[id] {
		if repo, ok := m.byID[depID]; ok {
			out = append(out, *repo)
		}
	}
	return out, nil
}

func (m *mockRepositoryStore) ListUnlinked(_ context.Context) ([]domain.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Repository
	for _, repo := range m.byID {
		if !repo.OwnerLinked {
			out = append(out, *repo)
		}
	}
	return out, nil
}

func (m *mockRepositoryStore) CountByType(_ context.Context) (map[domain.ExtensionType]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[domain.ExtensionType]int)
	for _, repo := range m.byID {
		counts[repo.Type]++
	}
	return counts, nil
}

// mockReleaseStore implements driven.ReleaseStore in memory.
type mockReleaseStore struct {
	mu       sync.Mutex
	nextID   int64
	releases map[string]domain.Release // "repoID/tag"
}

func newMockReleaseStore() *mockReleaseStore {
	return &mockReleaseStore{releases: make(map[string]domain.Release)}
}

func (m *mockReleaseStore) InsertMissing(_ context.Context, rel domain.Release) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%d/%s", rel.RepositoryID, rel.TagName)
	if _, ok := m.releases[key]; ok {
		return false, nil
	}
	m.nextID++
	rel.ID = m.nextID
	m.releases[key] = rel
	return true, nil
}

func (m *mockReleaseStore) ListByRepository(_ context.Context, repositoryID int64) ([]domain.Release, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Release
	for _, rel := range m.releases {
		if rel.RepositoryID == repositoryID {
			out = append(out, rel)
		}
	}
	return out, nil
}

// mockQueue implements driven.TaskQueue and records enqueued work.
type mockQueue struct {
	mu    sync.Mutex
	tasks []queuedTask
	err   error
}

type queuedTask struct {
	kind   domain.TaskKind
	repoID int64
}

func (m *mockQueue) Enqueue(_ context.Context, kind domain.TaskKind, repositoryID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.tasks = append(m.tasks, queuedTask{kind: kind, repoID: repositoryID})
	return fmt.Sprintf("task-%d", len(m.tasks)), nil
}

// count returns how many queued tasks match the kind.
func (m *mockQueue) count(kind domain.TaskKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tasks {
		if t.kind == kind {
			n++
		}
	}
	return n
}

// mockRemote implements driven.RemoteClient with scripted responses.
type mockRemote struct {
	repo    *driven.RemoteRepo
	repoErr error

	contents    map[string][]driven.RemoteEntry // path -> entries
	contentsErr map[string]error

	files   map[string][]byte
	fileErr map[string]error

	commits    []driven.RemoteCommit
	commitsErr error

	releases    []driven.RemoteRelease
	releasesErr error

	webhookID  int64
	webhookErr error
	hooks      []driven.WebhookConfig
}

func newMockRemote() *mockRemote {
	return &mockRemote{
		contents:    make(map[string][]driven.RemoteEntry),
		contentsErr: make(map[string]error),
		files:       make(map[string][]byte),
		fileErr:     make(map[string]error),
		webhookID:   711,
	}
}

func (m *mockRemote) GetRepository(_ context.Context, _, _ string) (*driven.RemoteRepo, error) {
	if m.repoErr != nil {
		return nil, m.repoErr
	}
	cp := *m.repo
	return &cp, nil
}

func (m *mockRemote) ListContents(_ context.Context, _, _, path string) ([]driven.RemoteEntry, error) {
	if err, ok := m.contentsErr[path]; ok {
		return nil, err
	}
	return m.contents[path], nil
}

func (m *mockRemote) FileContent(_ context.Context, _, _, path string) ([]byte, error) {
	if err, ok := m.fileErr[path]; ok {
		return nil, err
	}
	data, ok := m.files[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (m *mockRemote) ListCommits(_ context.Context, _, _ string) ([]driven.RemoteCommit, error) {
	if m.commitsErr != nil {
		return nil, m.commitsErr
	}
	return m.commits, nil
}

func (m *mockRemote) ListReleases(_ context.Context, _, _ string) ([]driven.RemoteRelease, error) {
	if m.releasesErr != nil {
		return nil, m.releasesErr
	}
	return m.releases, nil
}

func (m *mockRemote) CreateWebhook(_ context.Context, _, _ string, cfg driven.WebhookConfig) (int64, error) {
	if m.webhookErr != nil {
		return 0, m.webhookErr
	}
	m.hooks = append(m.hooks, cfg)
	return m.webhookID, nil
}

// mockSearchIndex implements driven.SearchIndex in memory.
type mockSearchIndex struct {
	mu      sync.Mutex
	docs    map[int64]domain.SearchDocument
	deleted []int64
}

func newMockSearchIndex() *mockSearchIndex {
	return &mockSearchIndex{docs: make(map[int64]domain.SearchDocument)}
}

func (m *mockSearchIndex) Index(_ context.Context, doc domain.SearchDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.RepositoryID] = doc
	return nil
}

func (m *mockSearchIndex) Delete(_ context.Context, repositoryID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, repositoryID)
	m.deleted = append(m.deleted, repositoryID)
	return nil
}

func (m *mockSearchIndex) Search(_ context.Context, _ string, _ int) ([]domain.SearchResult, error) {
	return nil, nil
}

// mockConfigStore implements driven.ConfigStore over a plain map.
type mockConfigStore struct {
	values map[string]any
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{values: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	if s, ok := m.values[key].(string); ok {
		return s
	}
	return ""
}

func (m *mockConfigStore) GetInt(key string) int {
	if i, ok := m.values[key].(int); ok {
		return i
	}
	return 0
}

func (m *mockConfigStore) GetBool(key string) bool {
	if b, ok := m.values[key].(bool); ok {
		return b
	}
	return false
}

func (m *mockConfigStore) Set(key string, value any) error {
	m.values[key] = value
	return nil
}

func (m *mockConfigStore) Save() error { return nil }
func (m *mockConfigStore) Load() error { return nil }
func (m *mockConfigStore) Path() string {
	return "mock-config.toml"
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/extindex/extindex/internal/core/domain"
	"github.com/extindex/extindex/internal/core/ports/driven"
)

// repositoryStore implements driven.RepositoryStore.
type repositoryStore struct {
	store *Store
}

var _ driven.RepositoryStore = (*repositoryStore)(nil)

// repositoryColumns is the scan order shared by every repository query.
const repositoryColumns = `
	id, owner, name, type, display_name, description, readme, keywords,
	author_name, author_email, author_url, license, files, has_manifest,
	last_commit_id, last_push, stargazers_count, forks_count, issues_count,
	parent_id, webhook_id, owner_linked, last_import, created_at, updated_at`

// patchColumns whitelists patch field names against their columns. Keywords
// and files are stored as JSON arrays, type as its integer value.
var patchColumns = map[string]string{
	domain.FieldDisplayName:  "display_name",
	domain.FieldDescription:  "description",
	domain.FieldReadme:       "readme",
	domain.FieldType:         "type",
	domain.FieldKeywords:     "keywords",
	domain.FieldAuthorName:   "author_name",
	domain.FieldAuthorEmail:  "author_email",
	domain.FieldAuthorURL:    "author_url",
	domain.FieldLicense:      "license",
	domain.FieldFiles:        "files",
	domain.FieldHasManifest:  "has_manifest",
	domain.FieldLastCommitID: "last_commit_id",
	domain.FieldLastPush:     "last_push",
	domain.FieldStargazers:   "stargazers_count",
	domain.FieldForks:        "forks_count",
	domain.FieldOpenIssues:   "issues_count",
	domain.FieldParentID:     "parent_id",
	domain.FieldWebhookID:    "webhook_id",
	domain.FieldLastImport:   "last_import",
}

// Get retrieves a repository by ID.
func (s *repositoryStore) Get(ctx context.Context, id int64) (*domain.Repository, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT"+repositoryColumns+" FROM repositories WHERE id = ?", id)
	return scanRepository(row)
}

// GetByKey retrieves a repository by its (owner, name) identity.
func (s *repositoryStore) GetByKey(ctx context.Context, key domain.RepoKey) (*domain.Repository, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT"+repositoryColumns+" FROM repositories WHERE owner = ? AND name = ?",
		key.Owner, key.Name)
	return scanRepository(row)
}

// GetOrCreate returns the repository for key, creating an empty record if
// none exists. The unique (owner, name) constraint makes the insert the
// single arbiter under concurrent calls.
func (s *repositoryStore) GetOrCreate(ctx context.Context, key domain.RepoKey) (*domain.Repository, bool, error) {
	now := time.Now().UTC()
	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO repositories (owner, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(owner, name) DO NOTHING
	`, key.Owner, key.Name, now, now)
	if err != nil {
		return nil, false, fmt.Errorf("inserting repository: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("checking insert result: %w", err)
	}

	repo, err := s.GetByKey(ctx, key)
	if err != nil {
		return nil, false, err
	}
	return repo, affected > 0, nil
}

// Apply writes the staged patch fields as one atomic update.
func (s *repositoryStore) Apply(ctx context.Context, id int64, patch *domain.RepositoryPatch) error {
	if patch.Len() == 0 {
		return nil
	}

	assignments := make([]string, 0, patch.Len()+1)
	args := make([]any, 0, patch.Len()+2)
	for _, field := range patch.Fields() {
		column, ok := patchColumns[field]
		if !ok {
			return fmt.Errorf("%w: unknown patch field %q", domain.ErrInvalidInput, field)
		}
		value, _ := patch.Get(field)
		encoded, err := encodePatchValue(field, value)
		if err != nil {
			return err
		}
		assignments = append(assignments, column+" = ?")
		args = append(args, encoded)
	}
	assignments = append(assignments, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	query := "UPDATE repositories SET " + strings.Join(assignments, ", ") + " WHERE id = ?"
	res, err := s.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("applying repository patch: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking patch result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the repository. Dependency edges and releases cascade.
func (s *repositoryStore) Delete(ctx context.Context, id int64) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM repositories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting repository: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetDependencies replaces the dependency edge set of a repository.
func (s *repositoryStore) SetDependencies(ctx context.Context, id int64, dependencyIDs []int64) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM repository_dependencies WHERE repository_id = ?", id); err != nil {
		return fmt.Errorf("clearing dependencies: %w", err)
	}
	for _, depID := range dependencyIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO repository_dependencies (repository_id, dependency_id)
			VALUES (?, ?)
			ON CONFLICT DO NOTHING
		`, id, depID); err != nil {
			return fmt.Errorf("adding dependency: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Dependencies returns the repositories the given one depends on.
func (s *repositoryStore) Dependencies(ctx context.Context, id int64) ([]domain.Repository, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT`+repositoryColumns+`
		FROM repositories
		JOIN repository_dependencies ON repositories.id = repository_dependencies.dependency_id
		WHERE repository_dependencies.repository_id = ?
		ORDER BY owner, name
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying dependencies: %w", err)
	}
	defer rows.Close()

	return scanRepositories(rows)
}

// ListUnlinked returns repositories without a linked owner account.
func (s *repositoryStore) ListUnlinked(ctx context.Context) ([]domain.Repository, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT"+repositoryColumns+" FROM repositories WHERE owner_linked = 0")
	if err != nil {
		return nil, fmt.Errorf("querying unlinked repositories: %w", err)
	}
	defer rows.Close()

	return scanRepositories(rows)
}

// CountByType reports catalog totals per extension type.
func (s *repositoryStore) CountByType(ctx context.Context) (map[domain.ExtensionType]int, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT type, COUNT(*) FROM repositories GROUP BY type")
	if err != nil {
		return nil, fmt.Errorf("counting repositories: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.ExtensionType]int)
	for rows.Next() {
		var t, n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[domain.ExtensionType(t)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating counts: %w", err)
	}
	return counts, nil
}

// encodePatchValue converts a staged patch value into its column
// representation.
func encodePatchValue(field string, value any) (any, error) {
	switch field {
	case domain.FieldKeywords, domain.FieldFiles:
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshalling %s: %w", field, err)
		}
		return string(data), nil
	case domain.FieldType:
		t, ok := value.(domain.ExtensionType)
		if !ok {
			return nil, fmt.Errorf("%w: type field holds %T", domain.ErrInvalidInput, value)
		}
		return int(t), nil
	default:
		return value, nil
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRepositoryInto scans one repository row in repositoryColumns order.
func scanRepositoryInto(row rowScanner) (*domain.Repository, error) {
	var repo domain.Repository
	var typ int
	var keywordsJSON, filesJSON string
	var lastPush, lastImport sql.NullTime
	var parentID, webhookID sql.NullInt64

	if err := row.Scan(&repo.ID, &repo.Owner, &repo.Name, &typ,
		&repo.DisplayName, &repo.Description, &repo.Readme, &keywordsJSON,
		&repo.AuthorName, &repo.AuthorEmail, &repo.AuthorURL, &repo.License,
		&filesJSON, &repo.HasManifest, &repo.LastCommitID, &lastPush,
		&repo.Stargazers, &repo.Forks, &repo.OpenIssues,
		&parentID, &webhookID, &repo.OwnerLinked, &lastImport,
		&repo.CreatedAt, &repo.UpdatedAt); err != nil {
		return nil, err
	}

	repo.Type = domain.ExtensionType(typ)
	if err := json.Unmarshal([]byte(keywordsJSON), &repo.Keywords); err != nil {
		return nil, fmt.Errorf("unmarshaling keywords: %w", err)
	}
	if err := json.Unmarshal([]byte(filesJSON), &repo.Files); err != nil {
		return nil, fmt.Errorf("unmarshaling files: %w", err)
	}
	if lastPush.Valid {
		repo.LastPush = lastPush.Time
	}
	if lastImport.Valid {
		repo.LastImport = lastImport.Time
	}
	if parentID.Valid {
		repo.ParentID = &parentID.Int64
	}
	if webhookID.Valid {
		repo.WebhookID = &webhookID.Int64
	}
	return &repo, nil
}

// scanRepository scans a single repository row.
func scanRepository(row *sql.Row) (*domain.Repository, error) {
	repo, err := scanRepositoryInto(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning repository: %w", err)
	}
	return repo, nil
}

// scanRepositories scans multiple repository rows.
func scanRepositories(rows *sql.Rows) ([]domain.Repository, error) {
	var repos []domain.Repository //nolint:prealloc // size unknown from query
	for rows.Next() {
		repo, err := scanRepositoryInto(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning repository: %w", err)
		}
		repos = append(repos, *repo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating repositories: %w", err)
	}
	return repos, nil
}

// ==================== Release Store ====================

// releaseStore implements driven.ReleaseStore.
type releaseStore struct {
	store *Store
}

var _ driven.ReleaseStore = (*releaseStore)(nil)

// InsertMissing inserts the release unless the (repository, tag) pair
// already exists. Existing rows are never modified.
func (s *releaseStore) InsertMissing(ctx context.Context, rel domain.Release) (bool, error) {
	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO releases (repository_id, tag_name, body, published_at, zipball_url)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(repository_id, tag_name) DO NOTHING
	`, rel.RepositoryID, rel.TagName, rel.Body, rel.PublishedAt, rel.ZipballURL)
	if err != nil {
		return false, fmt.Errorf("inserting release: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking insert result: %w", err)
	}
	return affected > 0, nil
}

// ListByRepository returns the releases of a repository, newest first.
func (s *releaseStore) ListByRepository(ctx context.Context, repositoryID int64) ([]domain.Release, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, repository_id, tag_name, body, published_at, zipball_url
		FROM releases WHERE repository_id = ?
		ORDER BY published_at DESC
	`, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("querying releases: %w", err)
	}
	defer rows.Close()

	var releases []domain.Release //nolint:prealloc // size unknown from query
	for rows.Next() {
		var rel domain.Release
		var publishedAt sql.NullTime
		if err := rows.Scan(&rel.ID, &rel.RepositoryID, &rel.TagName,
			&rel.Body, &publishedAt, &rel.ZipballURL); err != nil {
			return nil, fmt.Errorf("scanning release: %w", err)
		}
		if publishedAt.Valid {
			rel.PublishedAt = publishedAt.Time
		}
		releases = append(releases, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating releases: %w", err)
	}
	return releases, nil
}

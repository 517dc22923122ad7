package sqlite

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/extindex/extindex/internal/core/domain"
	"github.com/extindex/extindex/internal/core/ports/driven"
)

// searchIndex implements driven.SearchIndex over an FTS5 virtual table.
type searchIndex struct {
	store *Store
}

var _ driven.SearchIndex = (*searchIndex)(nil)

// searchWeights ranks owner and name highest, then keywords, with the
// readme body counting least. Order follows the indexed columns: owner,
// name, keywords, display_name, author_name, description, readme.
const searchWeights = "bm25(repository_search, 5.0, 5.0, 3.0, 1.0, 1.0, 1.0, 0.5)"

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Index inserts or replaces the document for a repository.
func (s *searchIndex) Index(ctx context.Context, doc domain.SearchDocument) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM repository_search WHERE repository_id = ?", doc.RepositoryID); err != nil {
		return fmt.Errorf("clearing search document: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO repository_search
			(owner, name, keywords, display_name, author_name, description, readme, type, repository_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.Owner, doc.Name, doc.Keywords, doc.DisplayName, doc.AuthorName,
		doc.Description, stripTags(doc.Readme), int(doc.Type), doc.RepositoryID); err != nil {
		return fmt.Errorf("inserting search document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Delete removes a repository's document. A no-op when unindexed.
func (s *searchIndex) Delete(ctx context.Context, repositoryID int64) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM repository_search WHERE repository_id = ?", repositoryID)
	if err != nil {
		return fmt.Errorf("deleting search document: %w", err)
	}
	return nil
}

// Search runs a multi-field query ranked by weighted bm25. The last term
// matches as a prefix so partially typed words still find their target.
func (s *searchIndex) Search(ctx context.Context, term string, limit int) ([]domain.SearchResult, error) {
	match := buildMatchQuery(term)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 25
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT repository_id, owner, name, `+searchWeights+` AS rank
		FROM repository_search
		WHERE repository_search MATCH ?
		ORDER BY rank
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("querying search index: %w", err)
	}
	defer rows.Close()

	var results []domain.SearchResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.SearchResult
		var rank float64
		if err := rows.Scan(&r.RepositoryID, &r.Owner, &r.Name, &rank); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		// bm25 ranks better matches more negative.
		r.Score = -rank
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return results, nil
}

// buildMatchQuery quotes each whitespace-separated term and lets the last
// one match as a prefix. Quoting keeps FTS5 operators out of user input.
func buildMatchQuery(term string) string {
	words := strings.Fields(term)
	if len(words) == 0 {
		return ""
	}
	parts := make([]string, 0, len(words))
	for i, w := range words {
		w = strings.ReplaceAll(w, `"`, "")
		if w == "" {
			continue
		}
		quoted := `"` + w + `"`
		if i == len(words)-1 {
			quoted += "*"
		}
		parts = append(parts, quoted)
	}
	return strings.Join(parts, " ")
}

// stripTags reduces rendered readme HTML to its text for indexing.
func stripTags(s string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(s, " "))
}

// Package manifest parses the optional package.yaml a repository may carry
// at its root and validates submissions against the catalog schema.
package manifest

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/extindex/extindex/internal/core/domain"
)

// FileName is the manifest file looked up at the repository root.
const FileName = "package.yaml"

// maxFieldLen caps free-text scalar fields copied from the manifest.
const maxFieldLen = 100

// IsManifestPath reports whether a root entry path is the manifest,
// matched case-insensitively against the exact file name.
func IsManifestPath(path string) bool {
	return strings.EqualFold(path, FileName)
}

// Decode unmarshals raw manifest bytes into a generic document.
// A YAML error or a non-mapping root yields domain.ErrManifestInvalid.
func Decode(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrManifestInvalid, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", domain.ErrManifestInvalid)
	}
	return doc, nil
}

// Parse decodes and validates manifest bytes into the intermediate
// representation the updater applies. Field-level problems (bad email,
// bad URL, unknown type, non-list keywords) drop the field silently;
// only an unparsable document is an error.
func Parse(data []byte) (*domain.Manifest, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Build(doc), nil
}

// Build converts a decoded manifest document into the validated IR.
func Build(doc map[string]any) *domain.Manifest {
	m := &domain.Manifest{}

	if v, ok := doc["name"]; ok {
		m.Name = truncate(scalarString(v), maxFieldLen)
		m.HasName = true
	}

	if v, ok := doc["description"]; ok {
		if s, ok := v.(string); ok {
			m.Description = s
			m.HasDesc = true
		}
	}

	if v, ok := doc["type"]; ok {
		if s, ok := v.(string); ok {
			if t, known := domain.ParseExtensionType(s); known {
				m.Type = t
				m.HasType = true
			}
		}
	}

	// Keywords are accepted only when declared as a list.
	if v, ok := doc["keywords"]; ok {
		if list, ok := v.([]any); ok {
			m.Keywords = make([]string, 0, len(list))
			for _, kw := range list {
				m.Keywords = append(m.Keywords, scalarString(kw))
			}
			m.HasKeywords = true
		}
	}

	if v, ok := doc["author"]; ok {
		if author, ok := v.(map[string]any); ok {
			m.Author = buildAuthor(author)
		}
	}

	if v, ok := doc["license"]; ok {
		m.License = truncate(scalarString(v), maxFieldLen)
		m.HasLicense = true
	}

	// Dependencies and files are replacement semantics: a present manifest
	// always resets both, so empty slices are meaningful.
	m.Dependencies = buildDependencies(doc["dependencies"])
	m.Files = buildFiles(doc["files"])

	return m
}

// buildAuthor validates the author block. Invalid email and homepage
// values are dropped, not errors.
func buildAuthor(author map[string]any) domain.ManifestAuthor {
	var out domain.ManifestAuthor

	if v, ok := author["name"]; ok {
		out.Name = truncate(scalarString(v), maxFieldLen)
	}
	if v, ok := author["email"]; ok {
		if s, ok := v.(string); ok && validEmail(s) {
			out.Email = s
		}
	}
	if v, ok := author["homepage"]; ok {
		if s, ok := v.(string); ok && validURL(s) {
			out.Homepage = s
		}
	}
	return out
}

func buildDependencies(v any) []domain.RepoKey {
	deps := []domain.RepoKey{}
	list, ok := v.([]any)
	if !ok {
		return deps
	}
	for _, entry := range list {
		s, ok := entry.(string)
		if !ok {
			continue
		}
		key, err := domain.ParseRepoKey(s)
		if err != nil {
			// Malformed references are dropped like other invalid fields.
			continue
		}
		deps = append(deps, key)
	}
	return deps
}

func buildFiles(v any) []string {
	files := []string{}
	list, ok := v.([]any)
	if !ok {
		return files
	}
	for _, entry := range list {
		if s, ok := entry.(string); ok {
			files = append(files, s)
		}
	}
	return files
}

// scalarString renders a scalar manifest value as a string the way the
// catalog stores it. Maps and lists render to their default formatting,
// which the length cap keeps harmless.
func scalarString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// truncate caps s at n runes so a multi-byte character is never split.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// validEmail accepts RFC 5322 addresses without a display name.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// validURL accepts absolute http(s) URLs.
func validURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

package domain

import (
	"fmt"
	"strings"
	"time"
)

// ExtensionType classifies what kind of extension a repository ships.
type ExtensionType int

const (
	// TypeUnknown means no manifest declared a type and inference has not run.
	TypeUnknown ExtensionType = 0

	// TypePlugin is a frontend plugin (JavaScript based).
	TypePlugin ExtensionType = 1

	// TypeComponent is a backend component (Python based).
	TypeComponent ExtensionType = 2
)

// String returns the manifest spelling of the type.
func (t ExtensionType) String() string {
	switch t {
	case TypePlugin:
		return "plugin"
	case TypeComponent:
		return "component"
	default:
		return "unknown"
	}
}

// ParseExtensionType maps a manifest type value to an ExtensionType.
// "lovelace" is the historical spelling of "plugin" and is still accepted.
func ParseExtensionType(s string) (ExtensionType, bool) {
	switch strings.ToLower(s) {
	case "plugin", "lovelace":
		return TypePlugin, true
	case "component":
		return TypeComponent, true
	default:
		return TypeUnknown, false
	}
}

// Repository is a catalogued GitHub repository.
// It is uniquely identified by the (Owner, Name) pair.
type Repository struct {
	ID    int64
	Owner string
	Name  string

	Type        ExtensionType
	DisplayName string
	Description string
	Readme      string // rendered HTML
	Keywords    []string
	AuthorName  string
	AuthorEmail string
	AuthorURL   string
	License     string
	Files       []string
	HasManifest bool

	LastCommitID string
	LastPush     time.Time
	Stargazers   int
	Forks        int
	OpenIssues   int

	// ParentID references the repository this one was forked from, if any.
	ParentID *int64

	// WebhookID is the remote webhook identifier once Subscribe succeeded.
	WebhookID *int64

	// OwnerLinked is true when a platform account claimed this owner.
	// Unlinked repositories (dependency or fork discoveries) are refreshed
	// by the periodic fan-out instead of webhooks.
	OwnerLinked bool

	LastImport time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FullName returns the canonical "owner/name" identifier.
func (r *Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// URL returns the repository's GitHub page.
func (r *Repository) URL() string {
	return fmt.Sprintf("https://github.com/%s/%s", r.Owner, r.Name)
}

// ShortCommitID returns the abbreviated last commit hash.
func (r *Repository) ShortCommitID() string {
	if len(r.LastCommitID) < 7 {
		return r.LastCommitID
	}
	return r.LastCommitID[:7]
}

// DisplayAuthor returns the manifest author name, falling back to the owner.
func (r *Repository) DisplayAuthor() string {
	if r.AuthorName != "" {
		return r.AuthorName
	}
	return r.Owner
}

// RepoKey addresses a repository by its remote identity.
type RepoKey struct {
	Owner string
	Name  string
}

// String returns "owner/name".
func (k RepoKey) String() string {
	return k.Owner + "/" + k.Name
}

// ParseRepoKey splits an "owner/name" reference.
func ParseRepoKey(s string) (RepoKey, error) {
	parts := strings.Split(strings.Trim(s, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepoKey{}, fmt.Errorf("%w: repository reference %q", ErrInvalidInput, s)
	}
	return RepoKey{Owner: parts[0], Name: parts[1]}, nil
}

// Release is a published release of a repository.
// The (RepositoryID, TagName) pair is unique and rows are never rewritten.
type Release struct {
	ID           int64
	RepositoryID int64
	TagName      string
	Body         string
	PublishedAt  time.Time
	ZipballURL   string
}

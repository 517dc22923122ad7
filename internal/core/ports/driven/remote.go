package driven

import (
	"context"
	"time"

	"github.com/extindex/extindex/internal/core/domain"
)

// EntryType distinguishes files from directories in a content listing.
type EntryType string

const (
	// EntryFile is a regular file.
	EntryFile EntryType = "file"

	// EntryDir is a directory.
	EntryDir EntryType = "dir"
)

// RemoteRepo is the metadata snapshot of a repository on the hosting platform.
type RemoteRepo struct {
	Owner         string
	Name          string
	Description   string
	DefaultBranch string
	Stargazers    int
	Forks         int
	OpenIssues    int
	PushedAt      time.Time

	// Parent identifies the fork source when the repository is a fork.
	Parent *domain.RepoKey
}

// RemoteEntry is one entry of a directory listing.
type RemoteEntry struct {
	Path string
	Type EntryType
	SHA  string
}

// RemoteCommit is one commit of the default branch.
type RemoteCommit struct {
	SHA string
}

// RemoteRelease is one published release.
type RemoteRelease struct {
	TagName     string
	Body        string
	PublishedAt time.Time
	ZipballURL  string
}

// WebhookConfig describes the webhook to register on a repository.
type WebhookConfig struct {
	URL    string
	Secret string
	Events []string
}

// RemoteClient is the boundary to the repository-hosting API.
//
// All methods classify failures: a missing remote object yields an error
// matching domain.ErrNotFound, and retryable conditions (rate limits,
// network trouble, 5xx) match domain.ErrTransient. Callers distinguish
// only these two classes.
type RemoteClient interface {
	// GetRepository fetches repository metadata.
	GetRepository(ctx context.Context, owner, name string) (*RemoteRepo, error)

	// ListContents lists the entries at path ("" for the root).
	ListContents(ctx context.Context, owner, name, path string) ([]RemoteEntry, error)

	// FileContent fetches the decoded content of a file.
	FileContent(ctx context.Context, owner, name, path string) ([]byte, error)

	// ListCommits returns commits of the default branch, newest first.
	ListCommits(ctx context.Context, owner, name string) ([]RemoteCommit, error)

	// ListReleases returns the published releases.
	ListReleases(ctx context.Context, owner, name string) ([]RemoteRelease, error)

	// CreateWebhook registers a webhook and returns its identifier.
	CreateWebhook(ctx context.Context, owner, name string, cfg WebhookConfig) (int64, error)
}

// TokenProvider resolves a per-owner access token from the credential
// store. An empty token means no owner-specific credential exists and the
// client falls back to the system credential.
type TokenProvider interface {
	Token(ctx context.Context, owner string) (string, error)
}

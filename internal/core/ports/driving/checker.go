package driving

import "context"

// Checker validates a repository before submission. It performs no
// persistence; every failure is a *domain.CheckError with a reason safe
// to show to the submitting user.
type Checker interface {
	// CheckManifest verifies the repository exists, carries a manifest at
	// its root, and that the manifest parses and satisfies the submission
	// schema.
	CheckManifest(ctx context.Context, owner, name string) error
}

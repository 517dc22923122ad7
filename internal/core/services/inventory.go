package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/extindex/extindex/internal/core/domain"
	"github.com/extindex/extindex/internal/core/ports/driven"
)

const (
	// maxWalkDepth caps directory recursion. The remote API controls the
	// breadth, so an unbounded walk over a pathological repository could
	// run forever; past the cap the inventory is returned partial.
	maxWalkDepth = 10

	// maxWalkFiles caps the total number of files recorded per walk.
	maxWalkFiles = 10000
)

// InventoryBuilder walks a repository's file tree through the remote API
// and accumulates per-extension statistics used for type inference.
type InventoryBuilder struct {
	remote driven.RemoteClient
}

// NewInventoryBuilder creates a builder over the given remote client.
func NewInventoryBuilder(remote driven.RemoteClient) *InventoryBuilder {
	return &InventoryBuilder{remote: remote}
}

// Build walks the tree starting from the already-fetched root contents.
// A transient listing failure mid-walk aborts the remainder of the walk
// and returns the partial inventory built so far; retrying is the
// caller's task-level concern, not this component's.
func (b *InventoryBuilder) Build(
	ctx context.Context, owner, name string, root []driven.RemoteEntry,
) *domain.FileInventory {
	inv := domain.NewFileInventory()
	b.walk(ctx, owner, name, root, 0, inv)
	return inv
}

// walk descends depth-first. Returns false when the walk must stop.
func (b *InventoryBuilder) walk(
	ctx context.Context, owner, name string,
	entries []driven.RemoteEntry, depth int, inv *domain.FileInventory,
) bool {
	if depth > maxWalkDepth {
		inv.Truncated = true
		return true // skip this subtree, keep walking siblings
	}

	for _, entry := range entries {
		switch entry.Type {
		case driven.EntryDir:
			children, err := b.remote.ListContents(ctx, owner, name, entry.Path)
			if err != nil {
				if errors.Is(err, ctx.Err()) && ctx.Err() != nil {
					inv.Truncated = true
					return false
				}
				log.Debug().Err(err).
					Str("repo", owner+"/"+name).
					Str("path", entry.Path).
					Msg("inventory walk aborted on listing failure")
				inv.Truncated = true
				return false
			}
			if !b.walk(ctx, owner, name, children, depth+1, inv) {
				return false
			}

		case driven.EntryFile:
			if inv.Total() >= maxWalkFiles {
				inv.Truncated = true
				return false
			}
			inv.Add(entry.Path)
		}
	}
	return true
}

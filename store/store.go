// Package store describes the entity-store collaborator's contract, out of
// scope for this module beyond the interface: the SQL-backed store lives
// elsewhere; the dispatch loop only needs a single-writer handle scoped to
// one deployment.
package store

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// EntityWrite is one entity mutation keyed by (entityType, entityID),
// produced by a handler invocation.
type EntityWrite struct {
	EntityType string
	EntityID   string
	Data       map[string]any
}

// Writer is a transactional, single-writer handle to one deployment's
// entity store. Commits are per-block.
type Writer interface {
	WriteEntity(ctx context.Context, w EntityWrite) error
	// CommitBlock persists the accumulated entity writes for one block
	// together with the deployment head record (deploymentID, number,
	// hash), atomically.
	CommitBlock(ctx context.Context, deploymentID string, number uint64, hash common.Hash) error
	// RollbackBlock discards the accumulated entity writes for the current
	// block without advancing the deployment head. The dispatch loop calls
	// it whenever a block fails, whether the error is deterministic or not.
	RollbackBlock(ctx context.Context) error
}

package chain

import "context"

// Adapter is the chain-adapter collaborator, out of scope for this module
// beyond its contract: given a block number, it returns the block with its
// transactions and, on demand, the block's logs and internal-call traces.
// Implementations must return byte-identical responses across calls for the
// same inputs — the dispatch loop's determinism depends on it.
type Adapter interface {
	BlockByNumber(ctx context.Context, number uint64) (*Block, []*Transaction, error)
	LogsForBlock(ctx context.Context, number uint64) ([]*Log, error)
	CallsForBlock(ctx context.Context, number uint64) ([]*Call, error)
}

// Package trigger defines the closed set of on-chain events that can drive
// handler dispatch — Block, Call and Log triggers — and the total order
// that replay-determinism depends on. The kind set is fixed by design: a
// closed tagged variant is preferable to open polymorphism here, so Trigger
// is an interface with exactly three implementations rather than an
// extensible registry.
package trigger

import (
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"
	"github.com/graphrunner/trigcore/chain"
	"github.com/graphrunner/trigcore/xerrors"
)

// BlockPtr identifies a block by number and hash.
type BlockPtr struct {
	Number uint64
	Hash   common.Hash
}

// BlockFilterKind selects which blocks a BlockHandler cares about.
type BlockFilterKind int

const (
	// Every matches every block.
	Every BlockFilterKind = iota
	// WithCallTo matches blocks containing at least one Call to Address.
	WithCallTo
)

// BlockFilter is Every, or WithCallTo paired with the address of interest.
type BlockFilter struct {
	Kind    BlockFilterKind
	Address common.Address // meaningful only when Kind == WithCallTo
}

// Trigger is the closed tagged variant over {Block, Call, Log}. Use a type
// switch on the concrete *Block, *Call, *Log types to pattern-match; Kind
// is provided for callers that prefer not to import the concrete types.
type Trigger interface {
	Kind() Kind
	// BlockNumber returns the block number this trigger belongs to. For a
	// Log trigger this narrows the log's uint64 block number to an int32
	// and returns a deterministic host error if it does not fit.
	BlockNumber() (int32, error)
	// BlockHash returns the hash of the block this trigger belongs to.
	BlockHash() common.Hash
	// ErrorContext renders the block/transaction identifying string used to
	// annotate surfaced errors. Empty for Block triggers.
	ErrorContext() string
}

// Kind identifies which of the three Trigger variants a value holds.
type Kind int

const (
	KindLog Kind = iota
	KindCall
	KindBlock
)

// Block is a block-level trigger: some registered BlockHandler's filter
// matched this block.
type Block struct {
	Ptr    BlockPtr
	Filter BlockFilter
}

func (t *Block) Kind() Kind                { return KindBlock }
func (t *Block) BlockHash() common.Hash    { return t.Ptr.Hash }
func (t *Block) ErrorContext() string      { return "" }
func (t *Block) BlockNumber() (int32, error) {
	if t.Ptr.Number > math.MaxInt32 {
		return 0, xerrors.NewDeterministic("", fmt.Errorf("block number %d does not fit in int32", t.Ptr.Number))
	}
	return int32(t.Ptr.Number), nil
}

// Equal reports whether two Block triggers share the same (BlockPtr,
// BlockFilter).
func (t *Block) Equal(o *Block) bool {
	return t.Ptr == o.Ptr && t.Filter == o.Filter
}

// Call is a call-level trigger: some registered CallHandler's address
// matched this internal call.
type Call struct {
	Value *chain.Call
}

func (t *Call) Kind() Kind             { return KindCall }
func (t *Call) BlockHash() common.Hash { return t.Value.BlockHash }
func (t *Call) BlockNumber() (int32, error) {
	if t.Value.BlockNumber > math.MaxInt32 {
		return 0, xerrors.NewDeterministic(t.ErrorContext(), fmt.Errorf("block number %d does not fit in int32", t.Value.BlockNumber))
	}
	return int32(t.Value.BlockNumber), nil
}

func (t *Call) ErrorContext() string {
	return fmt.Sprintf("block #%d (%s), transaction %s", t.Value.BlockNumber, t.Value.BlockHash.Hex(), t.Value.TransactionHash.Hex())
}

// Equal reports structural equality of the underlying call.
func (t *Call) Equal(o *Call) bool {
	a, b := t.Value, o.Value
	return a.From == b.From && a.To == b.To && a.BlockNumber == b.BlockNumber &&
		a.BlockHash == b.BlockHash && a.TransactionHash == b.TransactionHash &&
		a.TransactionIndex == b.TransactionIndex &&
		string(a.Inputs) == string(b.Inputs) && string(a.Outputs) == string(b.Outputs)
}

// Log is a log-level trigger: some registered EventHandler's signature and
// address matched this log.
type Log struct {
	Value *chain.Log
}

func (t *Log) Kind() Kind             { return KindLog }
func (t *Log) BlockHash() common.Hash { return t.Value.BlockHash }
func (t *Log) BlockNumber() (int32, error) {
	if t.Value.BlockNumber > math.MaxInt32 {
		return 0, xerrors.NewDeterministic(t.ErrorContext(), fmt.Errorf("block number %d does not fit in int32", t.Value.BlockNumber))
	}
	return int32(t.Value.BlockNumber), nil
}

func (t *Log) ErrorContext() string {
	return fmt.Sprintf("block #%d (%s), transaction %s", t.Value.BlockNumber, t.Value.BlockHash.Hex(), t.Value.TransactionHash.Hex())
}

// Equal is a deliberate weakening: two Logs with the same
// (transaction_hash, log_index) compare equal regardless of their other
// fields (e.g. differing Data).
func (t *Log) Equal(o *Log) bool {
	return t.Value.TransactionHash == o.Value.TransactionHash && t.Value.LogIndex == o.Value.LogIndex
}

// MustBlockNumber returns t.BlockNumber(), panicking if it returns an error.
// Reserved for callers that already hold an invariant guaranteeing the block
// number fits (e.g. a value freshly produced by trigger.Sort on an in-memory
// batch) and would rather fail loudly than thread the error through.
func MustBlockNumber(t Trigger) int32 {
	n, err := t.BlockNumber()
	if err != nil {
		panic(err)
	}
	return n
}

var (
	_ Trigger = (*Block)(nil)
	_ Trigger = (*Call)(nil)
	_ Trigger = (*Log)(nil)
)

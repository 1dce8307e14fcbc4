package guest

import "math/big"

// Ptr is an opaque pointer into the guest's heap, as returned by the
// runtime host. The dispatch core never dereferences it.
type Ptr uint32

// The structs below are the wire contract with the guest: their field order
// and widths are part of the public ABI and must not be reordered or
// resized once released. New layout versions are additive (a new struct),
// never an in-place field change.

// EthereumBlock is the guest-side block record, identical across every API
// version.
type EthereumBlock struct {
	Hash             [32]byte
	ParentHash       [32]byte
	UnclesHash       [32]byte
	Author           [20]byte
	StateRoot        [32]byte
	TransactionsRoot [32]byte
	ReceiptsRoot     [32]byte
	Number           uint64
	GasUsed          *big.Int
	GasLimit         *big.Int
	Timestamp        *big.Int
	Difficulty       *big.Int
	TotalDifficulty  *big.Int // never nil on the wire: defaults to zero
	Size             *big.Int // nil means "not reported"
}

// EthereumTransactionV001 is the pre-0.0.2 transaction layout: no from, no
// index.
type EthereumTransactionV001 struct {
	Hash     [32]byte
	To       *[20]byte // nil for contract creation
	Value    *big.Int
	GasLimit *big.Int
	GasPrice *big.Int
	Input    []byte
}

// EthereumTransactionV002 adds From and Index on top of the v0.0.1 layout,
// appended rather than interleaved so the v0.0.1 prefix stays byte-stable.
type EthereumTransactionV002 struct {
	Hash     [32]byte
	To       *[20]byte
	Value    *big.Int
	GasLimit *big.Int
	GasPrice *big.Int
	Input    []byte
	From     [20]byte
	Index    *big.Int
}

// Param is one decoded, ABI-typed argument as written to the guest heap.
// Value holds whatever representation the runtime host's AbiValue encoding
// uses; the dispatch core only needs to preserve decode order — parameters
// are projected as ordered sequences, never reordered by name or type.
type Param struct {
	Name  string
	Value any
}

// EthereumEvent is the guest-side log/event record. Transaction is either an
// EthereumTransactionV001 or EthereumTransactionV002 depending on the
// manifest's declared API version.
type EthereumEvent struct {
	Address              [20]byte
	LogIndex             *big.Int
	TransactionLogIndex  *big.Int
	LogType              *string
	Block                EthereumBlock
	Transaction          any // *EthereumTransactionV001 | *EthereumTransactionV002
	Params               []Param
}

// EthereumCallLegacy is the pre-0.0.3 call layout: inputs only.
type EthereumCallLegacy struct {
	To          [20]byte
	From        [20]byte
	Block       EthereumBlock
	Transaction any
	Inputs      []Param
}

// EthereumCallV003 adds Outputs on top of the legacy layout.
type EthereumCallV003 struct {
	To          [20]byte
	From        [20]byte
	Block       EthereumBlock
	Transaction any
	Inputs      []Param
	Outputs     []Param
}

// Heap is the subset of the runtime host's guest memory that guest
// projection needs: one write method per wire record, each returning an
// opaque pointer — the host writes a tree-shaped graph of value records and
// receives back an opaque pointer into guest memory.
type Heap interface {
	APIVersion() (Version, error)

	WriteBlock(*EthereumBlock) (Ptr, error)
	WriteTransactionV001(*EthereumTransactionV001) (Ptr, error)
	WriteTransactionV002(*EthereumTransactionV002) (Ptr, error)
	WriteEvent(*EthereumEvent) (Ptr, error)
	WriteCallLegacy(*EthereumCallLegacy) (Ptr, error)
	WriteCallV003(*EthereumCallV003) (Ptr, error)
}

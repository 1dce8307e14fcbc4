// Package chain holds the canonical in-memory shapes for on-chain artifacts
// that flow through the trigger ordering and dispatch core: blocks,
// transactions, logs and internal calls. All types here are immutable once
// constructed and are safe to share by pointer across multiple triggers
// generated from the same block.
package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Block is an immutable view of a canonical chain block. hash and Number are
// always present for any Block that reaches the core.
type Block struct {
	Hash             common.Hash
	ParentHash       common.Hash
	UnclesHash       common.Hash
	Author           common.Address
	StateRoot        common.Hash
	TransactionsRoot common.Hash
	ReceiptsRoot     common.Hash
	Number           uint64
	GasUsed          *uint256.Int
	GasLimit         *uint256.Int
	Timestamp        *uint256.Int
	Difficulty       *uint256.Int
	TotalDifficulty  *uint256.Int // nil if the upstream block omitted it
	Size             *uint256.Int // nil when not reported
}

// Transaction is an immutable view of a transaction within a Block. Index is
// always present when the transaction is referenced by a Trigger.
type Transaction struct {
	Hash     common.Hash
	Index    *big.Int // U128 per the wire contract
	From     common.Address
	To       *common.Address // nil for contract-creation transactions
	Value    *uint256.Int
	GasLimit *uint256.Int
	GasPrice *uint256.Int
	Input    []byte
}

// Log is an immutable view of an EVM log. BlockNumber, BlockHash,
// TransactionIndex and LogIndex are always present for any Log that reaches
// the core.
type Log struct {
	Address          common.Address
	BlockNumber      uint64
	BlockHash        common.Hash
	TransactionHash  common.Hash
	TransactionIndex uint64
	LogIndex         uint64
	HasLogIndex      bool // false models the upstream-omitted case (see guest projection quirk)
	LogType          string
	HasLogType       bool
	Topics           []common.Hash
	Data             []byte
}

// Call is an immutable view of an internal call trace entry.
type Call struct {
	From             common.Address
	To               common.Address
	BlockNumber      uint64
	BlockHash        common.Hash
	TransactionHash  common.Hash
	TransactionIndex uint64
	Inputs           []byte
	Outputs          []byte
}

// DecodedParam is one named, ABI-decoded argument. Value holds whatever the
// go-ethereum accounts/abi unpacker produced for the argument's declared
// type: common.Address, *big.Int, bool, [N]byte, []byte, string, a slice for
// array/dynamic-array types, or a generated struct for tuples. DecodedParams
// are owned by the MappingTrigger that produced them; they are never shared
// across triggers.
type DecodedParam struct {
	Name  string
	Value interface{}
}

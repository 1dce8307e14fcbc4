// Package mapping defines the fully-resolved dispatch unit handed to the
// guest runtime: a Trigger joined with its matched Handler Binding and
// decoded ABI parameters, plus the block/transaction context the trigger
// occurred in.
package mapping

import (
	"fmt"

	"github.com/graphrunner/trigcore/chain"
	"github.com/graphrunner/trigcore/handler"
)

// MappingTrigger is the closed tagged variant over {Log, Call, Block}
// dispatch units. Use a type switch on the concrete pointer types to
// pattern-match.
type MappingTrigger interface {
	// HandlerName returns the name of the guest function to invoke.
	HandlerName() string
	// LoggingExtras returns structured metadata for host-side logs as
	// alternating key/value pairs, ready to splat into a
	// github.com/ethereum/go-ethereum/log call.
	LoggingExtras() []any
}

// Log is a MappingTrigger produced by a matched EventHandler.
type Log struct {
	Block       *chain.Block
	Transaction *chain.Transaction
	Entry       *chain.Log
	Params      []chain.DecodedParam
	Handler     *handler.EventHandler
}

func (m *Log) HandlerName() string { return m.Handler.HandlerName }
func (m *Log) LoggingExtras() []any {
	return []any{"signature", m.Handler.Signature, "address", m.Entry.Address.Hex()}
}

// String omits the embedded block (bulky and redundant with the block hash
// already carried by the parent dispatch context), matching the texture of
// the original Rust Debug impl this was ported from.
func (m *Log) String() string {
	return fmt.Sprintf("mapping.Log{transaction: %s, log_index: %d, handler: %s}",
		m.Transaction.Hash.Hex(), m.Entry.LogIndex, m.Handler.HandlerName)
}

// Call is a MappingTrigger produced by a matched CallHandler.
type Call struct {
	Block       *chain.Block
	Transaction *chain.Transaction
	Entry       *chain.Call
	Inputs      []chain.DecodedParam
	Outputs     []chain.DecodedParam
	Handler     *handler.CallHandler
}

func (m *Call) HandlerName() string { return m.Handler.HandlerName }
func (m *Call) LoggingExtras() []any {
	return []any{"function", m.Handler.Function, "to", m.Entry.To.Hex()}
}

func (m *Call) String() string {
	return fmt.Sprintf("mapping.Call{transaction: %s, handler: %s}",
		m.Transaction.Hash.Hex(), m.Handler.HandlerName)
}

// Block is a MappingTrigger produced by a matched BlockHandler.
type Block struct {
	Block   *chain.Block
	Handler *handler.BlockHandler
}

func (m *Block) HandlerName() string  { return m.Handler.HandlerName }
func (m *Block) LoggingExtras() []any { return nil }

func (m *Block) String() string {
	return fmt.Sprintf("mapping.Block{handler: %s}", m.Handler.HandlerName)
}

var (
	_ MappingTrigger = (*Log)(nil)
	_ MappingTrigger = (*Call)(nil)
	_ MappingTrigger = (*Block)(nil)
)

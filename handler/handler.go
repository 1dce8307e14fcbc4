// Package handler declares which triggers a subgraph handler consumes —
// event signature, function selector, or block filter — and matches those
// declarations against incoming Triggers. Matching uses Keccak-256 the same
// way accounts/abi computes topic0 and function selectors.
package handler

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/graphrunner/trigcore/chain"
	"github.com/graphrunner/trigcore/trigger"
)

// EventHandler binds a guest function to a contract's event log.
type EventHandler struct {
	Address     common.Address
	Signature   string // e.g. "Transfer(address,address,uint256)"
	HandlerName string
	ABI         abi.Arguments // arguments used to decode topics[1:] + data
	Indexed     []bool        // parallel to ABI; true where the argument is indexed (a topic)
}

// topic0 is the Keccak-256 hash of the event's canonical signature, the
// value every EVM log's first topic carries for a matching event.
func (h *EventHandler) topic0() common.Hash {
	return crypto.Keccak256Hash([]byte(h.Signature))
}

// CallHandler binds a guest function to a contract function call.
type CallHandler struct {
	Address     common.Address
	Function    string // e.g. "transfer(address,uint256)"
	HandlerName string
	Inputs      abi.Arguments
	Outputs     abi.Arguments
}

// selector is the first 4 bytes of Keccak-256(function signature), matching
// the EVM's own function dispatch convention.
func (h *CallHandler) selector() [4]byte {
	var sel [4]byte
	copy(sel[:], crypto.Keccak256([]byte(h.Function))[:4])
	return sel
}

// BlockHandler binds a guest function to blocks matching Filter.
type BlockHandler struct {
	Filter      trigger.BlockFilter
	HandlerName string
}

// Registry holds every binding a deployment has installed, in the order a
// registrar registered them — dispatch order for multiple matches on one
// Trigger follows registration order.
type Registry struct {
	events []*EventHandler
	calls  []*CallHandler
	blocks []*BlockHandler
}

func NewRegistry() *Registry { return &Registry{} }

func (r *Registry) AddEventHandler(h *EventHandler) { r.events = append(r.events, h) }
func (r *Registry) AddCallHandler(h *CallHandler)    { r.calls = append(r.calls, h) }
func (r *Registry) AddBlockHandler(h *BlockHandler)  { r.blocks = append(r.blocks, h) }

// MatchLog returns every EventHandler whose declared signature hash equals
// the log's first topic and whose declared address equals the log's
// address, in registration order.
func (r *Registry) MatchLog(l *chain.Log) []*EventHandler {
	if len(l.Topics) == 0 {
		return nil
	}
	var out []*EventHandler
	for _, h := range r.events {
		if h.Address == l.Address && h.topic0() == l.Topics[0] {
			out = append(out, h)
		}
	}
	return out
}

// MatchCall returns every CallHandler whose declared function selector
// equals the first four bytes of the call's input and whose declared
// address equals the call's destination, in registration order.
func (r *Registry) MatchCall(c *chain.Call) []*CallHandler {
	if len(c.Inputs) < 4 {
		return nil
	}
	var want [4]byte
	copy(want[:], c.Inputs[:4])

	var out []*CallHandler
	for _, h := range r.calls {
		if h.Address == c.To && h.selector() == want {
			out = append(out, h)
		}
	}
	return out
}

// MatchBlock returns every BlockHandler whose filter is satisfied by the
// block. hasCallTo reports whether the block contains at least one Call
// whose To equals the given address (computed once per block by the caller
// rather than per handler).
func (r *Registry) MatchBlock(hasCallTo func(common.Address) bool) []*BlockHandler {
	var out []*BlockHandler
	for _, h := range r.blocks {
		switch h.Filter.Kind {
		case trigger.Every:
			out = append(out, h)
		case trigger.WithCallTo:
			if hasCallTo(h.Filter.Address) {
				out = append(out, h)
			}
		}
	}
	return out
}

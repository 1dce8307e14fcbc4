// Package memheap is a deterministic in-memory stand-in for the real
// sandboxed runtime's guest heap. It is not the runtime — it only records
// the tree it was asked to write, so tests can assert the version-selected
// layout and projection purity/round-trip properties without a real guest.
package memheap

import (
	"reflect"

	"github.com/graphrunner/trigcore/guest"
)

// Heap is a guest.Heap that stores every written record by value and hands
// back a sequential Ptr. Records written with equal content always compare
// reflect.DeepEqual, regardless of how many prior writes happened on this or
// another Heap instance — this is what makes projection purity and
// round-trip fidelity testable without a real guest runtime.
type Heap struct {
	version guest.Version
	records []any
}

func New(version guest.Version) *Heap {
	return &Heap{version: version}
}

func (h *Heap) APIVersion() (guest.Version, error) { return h.version, nil }

func (h *Heap) write(v any) guest.Ptr {
	h.records = append(h.records, v)
	return guest.Ptr(len(h.records) - 1)
}

func (h *Heap) WriteBlock(b *guest.EthereumBlock) (guest.Ptr, error) { return h.write(*b), nil }

func (h *Heap) WriteTransactionV001(t *guest.EthereumTransactionV001) (guest.Ptr, error) {
	return h.write(*t), nil
}

func (h *Heap) WriteTransactionV002(t *guest.EthereumTransactionV002) (guest.Ptr, error) {
	return h.write(*t), nil
}

func (h *Heap) WriteEvent(e *guest.EthereumEvent) (guest.Ptr, error) { return h.write(*e), nil }

func (h *Heap) WriteCallLegacy(c *guest.EthereumCallLegacy) (guest.Ptr, error) {
	return h.write(*c), nil
}

func (h *Heap) WriteCallV003(c *guest.EthereumCallV003) (guest.Ptr, error) {
	return h.write(*c), nil
}

// RecordAt returns the value written at ptr, for test assertions.
func (h *Heap) RecordAt(ptr guest.Ptr) any { return h.records[ptr] }

// Equal reports whether the record trees rooted at a (on h) and b (on o)
// are structurally identical, ignoring pointer identity — the check
// projection purity tests need.
func Equal(h *Heap, a guest.Ptr, o *Heap, b guest.Ptr) bool {
	return reflect.DeepEqual(h.RecordAt(a), o.RecordAt(b))
}

var _ guest.Heap = (*Heap)(nil)

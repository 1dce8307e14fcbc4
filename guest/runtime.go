package guest

import "context"

// RuntimeHost is the sandboxed execution engine collaborator, out of scope
// for this module beyond its contract: it exposes the heap this package
// projects onto, and an invoke operation that runs a named guest function
// with the projected trigger pointer.
type RuntimeHost interface {
	Heap
	// Invoke runs handlerName with triggerPtr as its argument and blocks
	// until the guest handler returns. A failure is returned as a
	// classified error (see package xerrors): a *xerrors.GuestTrap if the
	// runtime could classify it, or a plain error otherwise which the
	// dispatch loop treats as non-deterministic (conservative default).
	Invoke(ctx context.Context, handlerName string, triggerPtr Ptr) error
}

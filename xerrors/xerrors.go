// Package xerrors implements the error taxonomy of the dispatch core: a
// deterministic-vs-non-deterministic distinction that decides whether a
// failed block is aborted for good or rolled back and retried. Modeled on
// go-ethereum's habit of wrapping a causal error with %w and attaching a
// short identifying context string rather than inventing a new error type
// per call site.
package xerrors

import "fmt"

// Deterministic is a pure function of its inputs: a different node replaying
// the same block will hit the same error, so retrying is pointless. The
// deployment is marked failed and halted.
type Deterministic struct {
	Context string // from Trigger.ErrorContext(), empty for block-level triggers
	Err     error
}

func NewDeterministic(context string, err error) *Deterministic {
	return &Deterministic{Context: context, Err: err}
}

func (e *Deterministic) Error() string {
	if e.Context == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Context, e.Err)
}

func (e *Deterministic) Unwrap() error { return e.Err }

// NonDeterministic is a transient failure (I/O, timeout, resource
// exhaustion). The current block is rolled back and retried with backoff.
type NonDeterministic struct {
	Err error
}

func NewNonDeterministic(err error) *NonDeterministic {
	return &NonDeterministic{Err: err}
}

func (e *NonDeterministic) Error() string { return e.Err.Error() }
func (e *NonDeterministic) Unwrap() error { return e.Err }

// Kind classifies a GuestTrap once the runtime host has inspected it.
type Kind int

const (
	KindDeterministic Kind = iota
	KindNonDeterministic
)

// GuestTrap is a failure inside handler code itself (division by zero,
// unreachable, assertion). The runtime host classifies it as deterministic
// or non-deterministic; the core treats it accordingly from that point on.
type GuestTrap struct {
	Context        string
	Err            error
	Classification Kind
}

func (e *GuestTrap) Error() string {
	if e.Context == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Context, e.Err)
}

func (e *GuestTrap) Unwrap() error { return e.Err }

// AsDispatchError reclassifies a GuestTrap into the Deterministic or
// NonDeterministic type the dispatch loop switches on.
func (e *GuestTrap) AsDispatchError() error {
	if e.Classification == KindNonDeterministic {
		return NewNonDeterministic(e)
	}
	return NewDeterministic(e.Context, e)
}

// DecodeMismatch is raised when a handler's declared ABI signature does not
// match the runtime bytes of the log or call it claims to handle. Always
// deterministic.
type DecodeMismatch struct {
	Context  string
	ArgIndex int
	WantType string
	GotType  string
}

func (e *DecodeMismatch) Error() string {
	msg := fmt.Sprintf("argument %d: expected type %s, got %s", e.ArgIndex, e.WantType, e.GotType)
	if e.Context == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Context, msg)
}

// AsDeterministic wraps a DecodeMismatch in Deterministic for callers that
// switch on the two dispatch-level error types.
func (e *DecodeMismatch) AsDeterministic() *Deterministic {
	return NewDeterministic(e.Context, e)
}

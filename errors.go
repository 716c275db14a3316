package sct

import (
	"errors"
	"fmt"
)

// Failure classifies the non-success terminal outcomes a run can produce.
// All four failure kinds are reported as normal trace outcomes (§7); none of them
// terminates the search.
type Failure int

const (
	// FailureNone indicates the run produced a success value, not a failure.
	FailureNone Failure = iota
	// FailureDeadlock: no thread is runnable and the main thread has not completed.
	FailureDeadlock
	// FailureSTMDeadlock: a transaction cannot be retried because nothing can unblock it.
	FailureSTMDeadlock
	// FailureUncaughtException: an error propagated out of the main thread.
	FailureUncaughtException
	// FailureAbort: the scheduler returned no tid (step budget exhausted, or
	// will-block-safely eliminated every choice).
	FailureAbort
)

func (f Failure) String() string {
	switch f {
	case FailureDeadlock:
		return "deadlock"
	case FailureSTMDeadlock:
		return "stm-deadlock"
	case FailureUncaughtException:
		return "uncaught-exception"
	case FailureAbort:
		return "abort"
	default:
		return "none"
	}
}

// ErrReplayMismatch names a recorded effect's response hash not matching a
// live re-execution during replay, a sign of non-determinism in a lifted
// effect (e.g. unseeded randomness, wall-clock reads, or external state
// that changed between recording and replay). No function in this package
// returns it; the effect package's ReplayingRunner reports such a mismatch
// as effect.ErrRecordingMismatch.
var ErrReplayMismatch = errors.New("sct: replay mismatch: recorded effect hash differs from live response")

// ErrNoProgress marks an execution engine's internal can't-happen check: a
// thread reported alive with no pending proposal and none ever arrives
// (distinct from FailureDeadlock, where every runnable thread is blocked —
// here nothing is even offered). exec.Machine.Run panics with an error
// wrapping this sentinel if it ever observes that state, since it indicates
// a bug in the engine rather than in the computation under test.
var ErrNoProgress = errors.New("sct: no progress: no runnable thread")

// ErrInvalidBound is returned by Bound constructors given an out-of-range
// budget (e.g. a negative pre-emption count).
var ErrInvalidBound = errors.New("sct: invalid bound configuration")

// InvariantError is a fatal, internal error: a violation of one of the DPOR
// tree invariants (§3) or of a data-model precondition (e.g. ActiveTid on a
// sequence that doesn't start with Start). Unlike Failure, an
// InvariantError terminates the search immediately; it is never packaged
// into a Result.
type InvariantError struct {
	Op      string
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("sct: invariant violation in %s: %s", e.Op, e.Message)
}

func newInvariantError(msg string) error {
	return &InvariantError{Op: "core", Message: msg}
}

// newInvariantErrorf builds an InvariantError tagged with the operation
// that detected the violation, for ops that want a clearer Op field than
// newInvariantError's generic "core".
func newInvariantErrorf(op, format string, args ...interface{}) error {
	return &InvariantError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// IsInvariantViolation reports whether err is (or wraps) an InvariantError.
func IsInvariantViolation(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}

package exec

import "errors"

// errAborted is returned by Handle.Lift when the enclosing run was aborted
// (the scheduler returned no tid) while the calling goroutine was still
// waiting for a grant; the other primitives return their zero value in that
// case. The Machine has already reported FailureAbort for the run and is
// unwinding.
var errAborted = errors.New("exec: run aborted")

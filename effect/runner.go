package effect

import "context"

// Call identifies one lifted effect site: the thread that performed it, the
// name it was lifted under, and the serialised request driving it. ThreadID
// is a plain int (rather than sct.ThreadID) so this package stays free of
// any dependency back on sct or exec.
type Call struct {
	ThreadID int
	Name     string
	Request  []byte
}

// Result is what a Runner reports back to the caller of Handle.Lift: the
// serialised response and any error the call itself produced (as opposed to
// an error in the Runner's own bookkeeping, which is returned separately).
type Result struct {
	Response []byte
	Err      error
}

// Runner is the collaborator Handle.Lift calls through. do is the real,
// side-effecting call; a Runner decides whether to invoke it or substitute
// a previously recorded Result.
type Runner interface {
	Invoke(ctx context.Context, call Call, do func(ctx context.Context) ([]byte, error)) (Result, error)
}

// nullRunner always invokes do, performing no recording. It is the default
// for computations that never lift an external effect.
type nullRunner struct{}

// NewNullRunner returns a Runner that always performs the real call.
func NewNullRunner() Runner { return nullRunner{} }

func (nullRunner) Invoke(ctx context.Context, call Call, do func(context.Context) ([]byte, error)) (Result, error) {
	resp, err := do(ctx)
	return Result{Response: resp, Err: err}, nil
}

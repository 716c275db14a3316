package exec

import (
	"context"

	"github.com/go-sct/sct"
	"github.com/go-sct/sct/effect"
)

// Handle is the capability a thread uses to touch shared primitives and
// fork further threads. A Computation receives one for its own (main)
// thread; every forked thread receives its own Handle bound to its own
// ThreadID.
type Handle struct {
	tid ThreadID
	m   interface {
		propose(tid ThreadID, action sct.Action, reclassify func() sct.Action) bool
	}
	ctx context.Context
}

// Tid returns the thread identifier this Handle acts as.
func (h *Handle) Tid() ThreadID { return h.tid }

// Context is the context.Context the Machine was run with, for lifted
// effects that accept one (cancellation propagates from the ctx passed to
// exec.RunOnce).
func (h *Handle) Context() context.Context { return h.ctx }

// forker narrows h.m back to the concrete *Machine[S] methods Fork/Lift
// need beyond propose; declared separately because Handle itself must stay
// free of S so every thread (forked at any point) can share the same type.
type forker interface {
	forkChild(ctx context.Context, parent ThreadID, fn func(h *Handle)) ThreadID
	liftEffect(ctx context.Context, tid ThreadID, call effect.Call, do func(context.Context) ([]byte, error)) ([]byte, error)
}

// Fork starts fn as a new concurrently-schedulable thread and returns its
// ThreadID. The spawn itself is a schedulable primitive (§4.4: "spawn t:
// any action of t is dependent"); fn runs free until its own first
// primitive, at which point it proposes like any other thread.
func (h *Handle) Fork(fn func(h *Handle)) ThreadID {
	fm := h.m.(forker)
	return fm.forkChild(h.ctx, h.tid, fn)
}

// Lift grounds an opaque, side-effecting call through the configured
// effect.Runner. Whether a call is recorded, answered from a recording or
// re-invoked on every exploration that reaches it depends on that Runner;
// the null runner invokes do every time.
func (h *Handle) Lift(name string, request []byte, do func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	fm := h.m.(forker)
	call := effect.Call{ThreadID: int(h.tid), Name: name, Request: request}
	var resp []byte
	var callErr error
	ok := h.m.propose(h.tid, sct.Action{Kind: sct.ActionLiftExternal}, func() sct.Action {
		return sct.Action{Kind: sct.ActionLiftExternal}
	})
	if !ok {
		return nil, errAborted
	}
	resp, callErr = fm.liftEffect(h.ctx, h.tid, call, do)
	return resp, callErr
}

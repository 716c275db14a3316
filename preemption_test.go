package sct

import "testing"

func TestNewPreemptionBoundRejectsNegativeBudget(t *testing.T) {
	if _, err := NewPreemptionBound(-1); err == nil {
		t.Errorf("expected an error for a negative budget")
	}
}

func TestPreemptionBoundOK(t *testing.T) {
	b, err := NewPreemptionBound(1)
	if err != nil {
		t.Fatalf("NewPreemptionBound: %v", err)
	}
	within := []Decision{Start(1), SwitchTo(2)}
	over := []Decision{Start(1), SwitchTo(2), SwitchTo(1)}
	if !b.BoundOK(within) {
		t.Errorf("expected %v to be within budget 1", within)
	}
	if b.BoundOK(over) {
		t.Errorf("expected %v to exceed budget 1", over)
	}
}

func TestPreemptionBoundInitialisePrefersPrior(t *testing.T) {
	b, _ := NewPreemptionBound(1)
	prior := ThreadID(2)
	runnable := []Alternative{{Tid: 1}, {Tid: 2}}
	got := b.Initialise(&prior, runnable)
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("Initialise should offer only the still-runnable prior thread, got %v", got)
	}
}

func TestPreemptionBoundInitialiseOffersAllWhenPriorGone(t *testing.T) {
	b, _ := NewPreemptionBound(1)
	runnable := []Alternative{{Tid: 3}, {Tid: 1}, {Tid: 2}}
	got := b.Initialise(nil, runnable)
	want := []ThreadID{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("Initialise returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Initialise[%d] = %d, want %d (ascending tid order)", i, got[i], want[i])
		}
	}
}

func TestPreemptionBoundBacktrackFnAddsConservativeEntry(t *testing.T) {
	b, _ := NewPreemptionBound(1)
	scratch := []BacktrackStep{
		{Index: 0, Path: nil, Tid: 1},
		{Index: 1, Path: Path{Start(1)}, Tid: 2, Runnable: []Alternative{{Tid: 1}, {Tid: 3}}},
		{Index: 2, Path: Path{Start(1), SwitchTo(2)}, Tid: 2, Runnable: []Alternative{{Tid: 1}, {Tid: 3}}},
	}
	reqs := []BacktrackRequest{{Path: Path{Start(1), SwitchTo(2)}, Tid: 3, Conservative: false}}
	out := b.BacktrackFn(scratch, reqs)
	if len(out) != 2 {
		t.Fatalf("expected the precise request plus one conservative insertion, got %d: %+v", len(out), out)
	}
	var sawPrecise, sawConservative bool
	for _, r := range out {
		if !r.Conservative {
			sawPrecise = true
		} else {
			sawConservative = true
		}
	}
	if !sawPrecise || !sawConservative {
		t.Errorf("expected both a precise and a conservative request, got %+v", out)
	}
}

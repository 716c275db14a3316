package sct

import "testing"

func TestFindBacktrackPointsDetectsDependentReadWrite(t *testing.T) {
	// main (1) reads ref 0, then thread (2) writes ref 0: reordering
	// requires backtracking to the point where 2 was offered as an
	// alternative, i.e. the root (path length 0).
	trace := Trace{
		{
			Decision:     Start(1),
			Alternatives: []Alternative{{Tid: 2, Action: Action{Kind: ActionWriteRef, RefID: 0}}},
			Action:       Action{Kind: ActionReadRef, RefID: 0},
		},
		{
			Decision: SwitchTo(2),
			Action:   Action{Kind: ActionWriteRef, RefID: 0},
		},
	}

	reqs := FindBacktrackPoints(trace)
	if len(reqs) == 0 {
		t.Fatalf("expected at least one backtrack request for the dependent read/write pair")
	}
	found := false
	for _, r := range reqs {
		if r.Tid == 2 && len(r.Path) == 0 && !r.Conservative {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a precise request for tid=2 at the root, got %+v", reqs)
	}
}

func TestFindBacktrackPointsIgnoresIndependentActions(t *testing.T) {
	trace := Trace{
		{
			Decision:     Start(1),
			Alternatives: []Alternative{{Tid: 2, Action: Action{Kind: ActionWriteRef, RefID: 9}}},
			Action:       Action{Kind: ActionReadRef, RefID: 0},
		},
		{
			Decision: SwitchTo(2),
			Action:   Action{Kind: ActionWriteRef, RefID: 9},
		},
	}
	if reqs := FindBacktrackPoints(trace); len(reqs) != 0 {
		t.Errorf("expected no backtrack requests for an independent pair, got %+v", reqs)
	}
}

func TestFindBacktrackIndexStopsAtOwnPriorRun(t *testing.T) {
	// If ti itself ran between the dependent step and the candidate
	// alternative offer, there is nothing new to expose by backtracking
	// further; findBacktrackIndex must report -1 (no request emitted).
	trace := Trace{
		{
			Decision:     Start(2),
			Alternatives: []Alternative{{Tid: 1, Action: Action{Kind: ActionWriteRef, RefID: 1}}},
			Action:       Action{Kind: ActionReadRef, RefID: 1},
		},
		{Decision: SwitchTo(1), Action: Action{Kind: ActionWriteRef, RefID: 2}},
		{Decision: SwitchTo(2), Action: Action{Kind: ActionReadRef, RefID: 2}},
	}
	tids := traceTids(trace)
	if got := findBacktrackIndex(trace, tids, 1, 2); got != -1 {
		t.Errorf("findBacktrackIndex = %d, want -1 (ti already ran more recently)", got)
	}
}

func TestDecisionsToPath(t *testing.T) {
	trace := Trace{
		{Decision: Start(1)},
		{Decision: SwitchTo(2)},
	}
	path := decisionsToPath(trace)
	if len(path) != 2 || !path[0].IsStart() || !path[1].IsSwitchTo() {
		t.Errorf("decisionsToPath = %v", path)
	}
}

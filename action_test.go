package sct

import "testing"

func TestActionKindString(t *testing.T) {
	cases := []struct {
		kind ActionKind
		want string
	}{
		{ActionReadRef, "read-ref"},
		{ActionWriteRef, "write-ref"},
		{ActionTakeMVar, "take-mvar"},
		{ActionPutMVar, "put-mvar"},
		{ActionSTM, "stm"},
		{ActionSpawn, "spawn"},
		{ActionStop, "stop"},
		{ActionLiftExternal, "lift-external"},
		{ActionUnknown, "unknown"},
	}
	for _, c := range cases {
		if got := c.kind.String(); got != c.want {
			t.Errorf("%v.String() = %q, want %q", int(c.kind), got, c.want)
		}
	}
}

func TestDependentRefs(t *testing.T) {
	read := Action{Kind: ActionReadRef, RefID: 1}
	write := Action{Kind: ActionWriteRef, RefID: 1}
	writeOther := Action{Kind: ActionWriteRef, RefID: 2}

	if !Dependent(1, read, 2, write) {
		t.Errorf("read/write of the same ref must be dependent")
	}
	if !Dependent(1, write, 2, write) {
		t.Errorf("write/write of the same ref must be dependent")
	}
	if Dependent(1, read, 2, writeOther) {
		t.Errorf("read/write of different refs must not be dependent")
	}
}

func TestDependentMVars(t *testing.T) {
	take := Action{Kind: ActionTakeMVar, MVarID: 7}
	put := Action{Kind: ActionPutMVar, MVarID: 7}
	putOther := Action{Kind: ActionPutMVar, MVarID: 8}

	if !Dependent(1, take, 2, put) {
		t.Errorf("take/put of the same mvar must be dependent")
	}
	if !Dependent(1, put, 2, put) {
		t.Errorf("put/put of the same mvar must be dependent")
	}
	if !Dependent(1, take, 2, take) {
		t.Errorf("take/take of the same mvar must be dependent")
	}
	if Dependent(1, put, 2, putOther) {
		t.Errorf("put/put of different mvars must not be dependent")
	}
}

func TestDependentSpawnAndStop(t *testing.T) {
	spawn := Action{Kind: ActionSpawn, Child: 2}
	other := Action{Kind: ActionReadRef, RefID: 1}

	if !Dependent(1, spawn, 2, other) {
		t.Errorf("spawn of t is dependent with any action of t")
	}
	if Dependent(1, spawn, 3, other) {
		t.Errorf("spawn of t must not be dependent with actions of unrelated threads")
	}
	if Dependent(1, Action{Kind: ActionStop}, 2, other) {
		t.Errorf("a stop alone should not force re-ordering with an unrelated thread's action")
	}
}

func TestDependentSTM(t *testing.T) {
	a := Action{Kind: ActionSTM, TxRefs: []int{1, 2}}
	b := Action{Kind: ActionSTM, TxRefs: []int{2, 3}}
	c := Action{Kind: ActionSTM, TxRefs: []int{3, 4}}

	if !Dependent(1, a, 2, b) {
		t.Errorf("STM transactions touching overlapping refs must be dependent")
	}
	if Dependent(1, a, 2, c) {
		t.Errorf("STM transactions touching disjoint refs must not be dependent")
	}
}

func TestDependentUnrelatedKindsAreNotDependent(t *testing.T) {
	lift := Action{Kind: ActionLiftExternal}
	read := Action{Kind: ActionReadRef, RefID: 1}
	if Dependent(1, lift, 2, read) {
		t.Errorf("lift-external and read-ref should not be classified dependent by the default table")
	}
}

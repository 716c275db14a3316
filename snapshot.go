package sct

import "sort"

// Snapshot is Tree's serializable form: every node explored so far, with
// its runnable/todo/sleep/taken bookkeeping and the decision/action that
// reached it. It lets a long-running bounded search persist its frontier
// (via store.Store) and resume it in a fresh process — the core stays
// agnostic of the storage backend; store.Checkpoint.Snapshot carries this
// value as a plain interface{} so the store package never imports sct.
type Snapshot struct {
	Root *NodeSnapshot
}

// NodeSnapshot is one DPOR tree node's serializable form, mirroring node's
// fields exactly except for its parent back-edge (reconstructed by
// RestoreTree) and caching no derived data.
type NodeSnapshot struct {
	Runnable []ThreadID
	Todo     map[ThreadID]bool
	Sleep    map[ThreadID]Action
	Taken    map[ThreadID]Action
	Action   *Action
	Decision Decision
	ViaTid   ThreadID
	Done     map[ThreadID]*NodeSnapshot
}

// Snapshot captures t's current state for persistence.
func (t *Tree) Snapshot() Snapshot {
	return Snapshot{Root: snapshotNode(t.root)}
}

func snapshotNode(n *node) *NodeSnapshot {
	s := &NodeSnapshot{
		Runnable: sortedTids(n.runnable),
		Todo:     copyBoolMap(n.todo),
		Sleep:    copyActionMap(n.sleep),
		Taken:    copyActionMap(n.taken),
		Decision: n.decision,
		ViaTid:   n.viaTid,
		Done:     make(map[ThreadID]*NodeSnapshot, len(n.done)),
	}
	if n.action != nil {
		a := *n.action
		s.Action = &a
	}
	for tid, child := range n.done {
		s.Done[tid] = snapshotNode(child)
	}
	return s
}

// RestoreTree rebuilds a Tree from a Snapshot previously produced by
// Tree.Snapshot, for resuming a bounded search across a process restart
// (§E.3). A zero-value Snapshot restores to an empty root node (callers
// should prefer NewTree for a genuinely fresh search).
func RestoreTree(snap Snapshot) *Tree {
	if snap.Root == nil {
		return &Tree{root: newNode()}
	}
	return &Tree{root: restoreNode(snap.Root, nil)}
}

func restoreNode(s *NodeSnapshot, parent *node) *node {
	n := newNode()
	for _, tid := range s.Runnable {
		n.runnable[tid] = true
	}
	for tid, cons := range s.Todo {
		n.todo[tid] = cons
	}
	for tid, a := range s.Sleep {
		n.sleep[tid] = a
	}
	for tid, a := range s.Taken {
		n.taken[tid] = a
	}
	if s.Action != nil {
		a := *s.Action
		n.action = &a
	}
	n.decision = s.Decision
	n.viaTid = s.ViaTid
	n.parent = parent
	for tid, childSnap := range s.Done {
		n.done[tid] = restoreNode(childSnap, n)
	}
	return n
}

func sortedTids(m map[ThreadID]bool) []ThreadID {
	out := make([]ThreadID, 0, len(m))
	for tid := range m {
		out = append(out, tid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func copyBoolMap(m map[ThreadID]bool) map[ThreadID]bool {
	out := make(map[ThreadID]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyActionMap(m map[ThreadID]Action) map[ThreadID]Action {
	out := make(map[ThreadID]Action, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

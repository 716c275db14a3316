package sct

import "sort"

// node is one DPOR tree node, reached by a specific decision sequence from
// the root. See §3 for the invariants this type must maintain:
//
//  1. done ∩ todo = ∅ on the key set.
//  2. Every key in done, todo, sleep, taken is a member of runnable.
//  3. The root has action == nil; every other node has action != nil.
//  4. A fully explored node has empty todo.
//  5. sleep(child via t) = { (t', a') ∈ n.sleep ∪ n.taken | ¬dependent((t,a_t), (t',a')) }.
type node struct {
	runnable map[ThreadID]bool
	todo     map[ThreadID]bool  // tid -> conservative flag
	done     map[ThreadID]*node // tid -> child reached by scheduling tid
	sleep    map[ThreadID]Action // tid -> action it would have taken, suppressed
	taken    map[ThreadID]Action // tid -> action actually executed (non-conservative only)
	action   *Action             // action executed to reach this node; nil only at root
	decision Decision            // decision that reached this node; zero value at root
	parent   *node
	viaTid   ThreadID // tid scheduled from parent to reach this node (meaningless at root)
}

// decisionAt returns the Decision that reached n, as recorded by Graft.
func decisionAt(n *node) Decision { return n.decision }

func newNode() *node {
	return &node{
		runnable: map[ThreadID]bool{},
		todo:     map[ThreadID]bool{},
		done:     map[ThreadID]*node{},
		sleep:    map[ThreadID]Action{},
		taken:    map[ThreadID]Action{},
	}
}

// Tree is the DPOR exploration tree: a prefix tree of explored and pending
// decisions, carrying runnable/todo/done/sleep/taken bookkeeping per node
// (§3). It is created by NewTree and mutated only by Graft, InsertTodo,
// Next and Reinstate.
// The tree owns no back-edges and no shared structure; it is a plain
// recursively-owned tree, per the design notes in §9.
type Tree struct {
	root *node
}

// NewTree creates a fresh tree whose root is runnable only by rootTid and
// has a single todo entry for it (§4.2 initial).
func NewTree(rootTid ThreadID) *Tree {
	r := newNode()
	r.runnable[rootTid] = true
	r.todo[rootTid] = false
	return &Tree{root: r}
}

// Path is a decision sequence from the root identifying a node. An empty
// path identifies the root.
type Path []Decision

// walk follows path from the root, returning the node it reaches, or nil
// if path runs past a node with no matching child (a structural bug, since
// Graft is supposed to always have created the nodes a Path can name).
func (t *Tree) walk(path Path) *node {
	n := t.root
	var prior *ThreadID
	for _, d := range path {
		tid := TidOf(derefOr(prior, 0), d)
		child, ok := n.done[tid]
		if !ok {
			return nil
		}
		n = child
		p := tid
		prior = &p
	}
	return n
}

func derefOr(p *ThreadID, def ThreadID) ThreadID {
	if p == nil {
		return def
	}
	return *p
}

// decisionSequence reconstructs the Decision sequence from the root to n by
// walking parent pointers.
func decisionSequence(n *node) []Decision {
	var ds []Decision
	for cur := n; cur.parent != nil; cur = cur.parent {
		// Each node stores the Decision that reached it, recorded by Graft;
		// decisionAt reads it.
		ds = append(ds, decisionAt(cur))
	}
	// reverse
	for i, j := 0, len(ds)-1; i < j; i, j = i+1, j-1 {
		ds[i], ds[j] = ds[j], ds[i]
	}
	return ds
}

// Graft follows the tree along trace's decisions, creating any missing
// nodes. For each created child, the sleep set is computed per invariant 5.
// The taken tid is added to the parent's taken map iff conservative is
// false, and is always removed from the parent's todo map (a node that was
// actually explored, whether the todo entry was precise or conservative,
// is no longer pending).
func (t *Tree) Graft(conservative bool, trace Trace) {
	n := t.root
	var priorTid *ThreadID
	for _, step := range trace {
		tid := TidOf(derefOr(priorTid, 0), step.Decision)

		child, ok := n.done[tid]
		if !ok {
			child = newNode()
			child.parent = n
			child.viaTid = tid
			child.decision = step.Decision
			action := step.Action
			child.action = &action
			child.runnable = runnableFromStep(step)
			child.sleep = childSleepSet(n, tid, step.Action)
			n.done[tid] = child
		}

		if !conservative {
			n.taken[tid] = step.Action
		}
		delete(n.todo, tid)

		n = child
		p := tid
		priorTid = &p
	}
}

// runnableFromStep derives the runnable set observed at a step from its
// recorded alternatives plus the tid actually scheduled.
func runnableFromStep(step TraceStep) map[ThreadID]bool {
	r := map[ThreadID]bool{}
	for _, alt := range step.Alternatives {
		r[alt.Tid] = true
	}
	scheduledTid := TidOf(0, step.Decision)
	r[scheduledTid] = true
	return r
}

// childSleepSet implements invariant 5: the sleep set at a child c of node
// n via tid t equals { (t', a') ∈ n.sleep ∪ n.taken | ¬dependent((t,a_t), (t',a')) }
// where a_t is the action taken for t.
func childSleepSet(n *node, t ThreadID, aT Action) map[ThreadID]Action {
	out := map[ThreadID]Action{}
	consider := func(src map[ThreadID]Action) {
		for tid, a := range src {
			if tid == t {
				continue
			}
			if !Dependent(t, aT, tid, a) {
				out[tid] = a
			}
		}
	}
	consider(n.sleep)
	consider(n.taken)
	return out
}

// BacktrackRequest asks the tree to additionally explore tid from the node
// reached by path, optionally as a conservative (defensive) entry rather
// than one backed by a detected dependency.
type BacktrackRequest struct {
	Path        Path
	Tid         ThreadID
	Conservative bool
}

// InsertTodo applies each request: walk path to a node; if tid is not
// already done and not sleep-set suppressed there, and boundOK holds for
// the decision sequence at that node, insert or upgrade todo[tid] per the
// upgrade semantics of §4.2:
//   - present as Some(false) and new flag true  -> no change (precise dominates).
//   - present as Some(true) and new flag false   -> downgrade to Some(false).
//   - absent                                     -> insert.
//
// It returns the number of requests dropped because the tid was sleep-set
// suppressed at the target node, for callers that report it as a metric
// (RunConfigured); callers that don't care are free to ignore it.
func (t *Tree) InsertTodo(boundOK func([]Decision) bool, requests []BacktrackRequest) (sleepPrunes int) {
	for _, req := range requests {
		n := t.walk(req.Path)
		if n == nil {
			continue
		}
		if n.done[req.Tid] != nil {
			continue
		}
		if _, asleep := n.sleep[req.Tid]; asleep {
			sleepPrunes++
			continue
		}
		if !boundOK(decisionSequence(n)) {
			continue
		}
		cur, present := n.todo[req.Tid]
		switch {
		case !present:
			n.todo[req.Tid] = req.Conservative
		case cur && !req.Conservative:
			n.todo[req.Tid] = false
		default:
			// cur == false && req.Conservative: precise entry already
			// dominates, leave as-is.
		}
	}
	return sleepPrunes
}

// candidate pairs a node with the path that reaches it, used by Next to
// select the next prefix to explore.
type candidate struct {
	path Path
	n    *node
	tid  ThreadID
}

// Next selects a path from the root to a node with a non-empty todo,
// preferring deeper todos (depth-first, left-biased by tid order). It
// returns the prefix of decisions to replay, whether the claimed entry was
// conservative, and reports false if no node in the tree has a pending
// todo entry (the search has terminated).
//
// Claiming removes the entry from that node's todo map. The caller
// (RunBounded's driver loop) is responsible for reinstating the entry via
// Reinstate if the resulting replay does not actually schedule that tid
// (the scheduler may re-classify the decision at the final step, e.g. if
// the thread became non-runnable in the meantime).
func (t *Tree) Next() (prefix Path, conservative bool, tid ThreadID, ok bool) {
	best := deepestTodo(t.root, nil)
	if best == nil {
		return nil, false, 0, false
	}
	cons := best.n.todo[best.tid]
	delete(best.n.todo, best.tid)
	return best.path, cons, best.tid, true
}

// deepestTodo does a depth-first, left-biased search for the deepest node
// carrying a pending todo entry, returning the lowest tid there on ties so
// selection is deterministic.
func deepestTodo(n *node, path Path) *candidate {
	var deepest *candidate
	// Recurse into children first (depth-first preference for deeper todos).
	childTids := make([]ThreadID, 0, len(n.done))
	for tid := range n.done {
		childTids = append(childTids, tid)
	}
	sort.Slice(childTids, func(i, j int) bool { return childTids[i] < childTids[j] })
	for _, tid := range childTids {
		child := n.done[tid]
		childPath := append(append(Path{}, path...), decisionAt(child))
		if c := deepestTodo(child, childPath); c != nil {
			deepest = c // depth-first: a hit in any child supersedes this node's own todo
			break
		}
	}
	if deepest != nil {
		return deepest
	}
	if len(n.todo) == 0 {
		return nil
	}
	tids := make([]ThreadID, 0, len(n.todo))
	for tid := range n.todo {
		tids = append(tids, tid)
	}
	sort.Slice(tids, func(i, j int) bool { return tids[i] < tids[j] })
	return &candidate{path: path, n: n, tid: tids[0]}
}

// Reinstate re-adds a claimed todo entry, used when the replay scheduler
// determined at the final step that tid was not actually the thread to run
// (e.g. it had become non-runnable since the entry was inserted).
func (t *Tree) Reinstate(path Path, tid ThreadID, conservative bool) {
	n := t.walk(path)
	if n == nil {
		return
	}
	if n.done[tid] != nil {
		return
	}
	n.todo[tid] = conservative
}

// Done reports whether the tree has been fully explored: the root carries
// no todo entries and neither does any node reachable from it.
func (t *Tree) Done() bool {
	return deepestTodo(t.root, nil) == nil
}

// FrontierDepth reports the depth of the deepest node currently carrying a
// pending todo entry (the root is depth 0), or -1 if the tree carries none.
func (t *Tree) FrontierDepth() int {
	return frontierDepth(t.root, 0)
}

func frontierDepth(n *node, depth int) int {
	best := -1
	if len(n.todo) > 0 {
		best = depth
	}
	for _, child := range n.done {
		if d := frontierDepth(child, depth+1); d > best {
			best = d
		}
	}
	return best
}

package sct

// FindBacktrackPoints implements C4: it scans a completed trace, applies
// Dependent to locate pairs of events that cannot be commuted, and for each
// dependent pair emits a precise backtrack request naming the node at which
// scheduling the later thread instead would expose the reordered
// interleaving (§4.4). It does not consult the bound; a Bound's BacktrackFn
// amplifies these precise requests with whatever conservative entries its
// semantics additionally require (§4.6), a step the driver loop performs
// separately.
func FindBacktrackPoints(trace Trace) []BacktrackRequest {
	n := len(trace)
	tids := traceTids(trace)

	var requests []BacktrackRequest
	for i := 0; i < n; i++ {
		ti := tids[i]
		ai := trace[i].Action
		for j := i - 1; j >= 0; j-- {
			tj := tids[j]
			if tj == ti {
				continue
			}
			aj := trace[j].Action
			if !Dependent(ti, ai, tj, aj) {
				continue
			}
			k := findBacktrackIndex(trace, tids, ti, j)
			if k < 0 {
				continue
			}
			requests = append(requests, BacktrackRequest{
				Path:         decisionsToPath(trace[:k]),
				Tid:          ti,
				Conservative: false,
			})
		}
	}
	return requests
}

// findBacktrackIndex walks backward from j looking for the most recent step
// k at which ti was offered as an alternative (i.e. runnable but not
// chosen). It stops and fails as soon as it passes a step that ti itself
// ran, since that run already represents a scheduling of ti more recent
// than any candidate further back — inserting a backtrack there would not
// expose a new interleaving relative to the dependent pair at (i, j).
func findBacktrackIndex(trace Trace, tids []ThreadID, ti ThreadID, j int) int {
	for k := j; k >= 0; k-- {
		if tids[k] == ti {
			return -1
		}
		if stepOffersAlternative(trace[k], ti) {
			return k
		}
	}
	return -1
}

// stepOffersAlternative reports whether ti appeared among step's recorded
// alternatives, i.e. was runnable at that point but a different tid was
// scheduled.
func stepOffersAlternative(step TraceStep, ti ThreadID) bool {
	for _, alt := range step.Alternatives {
		if alt.Tid == ti {
			return true
		}
	}
	return false
}

// decisionsToPath extracts the Path (decision sequence) a trace prefix
// corresponds to, for use as a BacktrackRequest.Path or a Tree.walk target.
func decisionsToPath(prefix Trace) Path {
	path := make(Path, len(prefix))
	for i, step := range prefix {
		path[i] = step.Decision
	}
	return path
}

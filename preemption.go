package sct

import "sort"

// PreemptionBound is the bundled pre-emption-bounding Bound of §4.6: a
// budget K on the number of SwitchTo decisions a trace may contain. It is
// the canonical instance RunPreemptionBounded wires up, but nothing in the
// core privileges it over a caller-supplied Bound.
type PreemptionBound struct {
	K int
}

// NewPreemptionBound validates k and returns a ready PreemptionBound.
func NewPreemptionBound(k int) (PreemptionBound, error) {
	if k < 0 {
		return PreemptionBound{}, ErrInvalidBound
	}
	return PreemptionBound{K: k}, nil
}

// BoundOK reports whether decisions contains at most K SwitchTo steps.
func (b PreemptionBound) BoundOK(decisions []Decision) bool {
	return PreemptCount(decisions) <= b.K
}

// Initialise returns [prior] if prior is still runnable (hoping for a
// Continue, which costs no pre-emption budget), else every runnable tid in
// ascending order, per the canonical policy of §4.6.
func (b PreemptionBound) Initialise(prior *ThreadID, runnable []Alternative) []ThreadID {
	if prior != nil {
		for _, alt := range runnable {
			if alt.Tid == *prior {
				return []ThreadID{*prior}
			}
		}
	}
	tids := make([]ThreadID, len(runnable))
	for i, alt := range runnable {
		tids[i] = alt.Tid
	}
	sort.Slice(tids, func(i, j int) bool { return tids[i] < tids[j] })
	return tids
}

// BacktrackFn performs the two insertions of §4.6 for every precise
// request: the request itself, unchanged, plus a conservative insertion at
// the most recent earlier step where the executing thread changed. The
// conservative point compensates for the artificial dependency the budget
// may introduce — a reordering that would be legal without the bound can be
// forbidden by it, so a defensive branch is enumerated there too. The
// conservative entry names the request's thread and is made only where that
// thread was among the step's alternatives; otherwise none is added.
func (b PreemptionBound) BacktrackFn(scratch []BacktrackStep, requests []BacktrackRequest) []BacktrackRequest {
	out := append([]BacktrackRequest{}, requests...)
	for _, req := range requests {
		k := len(req.Path)
		idx := conservativePoint(scratch, k)
		if idx < 0 {
			continue
		}
		offered := false
		for _, alt := range scratch[idx].Runnable {
			offered = offered || alt.Tid == req.Tid
		}
		if !offered {
			continue
		}
		out = append(out, BacktrackRequest{
			Path:         scratch[idx].Path,
			Tid:          req.Tid,
			Conservative: true,
		})
	}
	return out
}

// conservativePoint finds the largest index strictly before k at which the
// scheduled thread differs from the step before it — the most recent
// thread-switch point prior to the precise request's target.
func conservativePoint(scratch []BacktrackStep, k int) int {
	for i := k - 1; i > 0; i-- {
		if scratch[i].Tid != scratch[i-1].Tid {
			return i
		}
	}
	return -1
}

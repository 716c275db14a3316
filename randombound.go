package sct

import "math/rand"

// RandomBound is a supplemental Bound useful for quick smoke exploration of
// a large state space rather than exhaustive search: it accepts any prefix
// up to a fixed step budget and, at each branching step, shuffles the
// runnable set with a caller-seeded source rather than always offering
// every choice in tid order. It performs no conservative amplification,
// since it makes no claim to partial-order completeness.
type RandomBound struct {
	MaxSteps int
	Rand     *rand.Rand
}

// NewRandomBound returns a RandomBound bounded to maxSteps decisions, using
// rnd as its source of shuffling. rnd must not be nil; callers that want
// deterministic runs should seed it explicitly (e.g. via a run identifier),
// mirroring how the replay scheduler itself is seeded.
func NewRandomBound(maxSteps int, rnd *rand.Rand) (RandomBound, error) {
	if maxSteps < 0 || rnd == nil {
		return RandomBound{}, ErrInvalidBound
	}
	return RandomBound{MaxSteps: maxSteps, Rand: rnd}, nil
}

// BoundOK accepts any prefix no longer than MaxSteps.
func (b RandomBound) BoundOK(decisions []Decision) bool {
	return len(decisions) <= b.MaxSteps
}

// Initialise returns every runnable tid, permuted by Rand, so repeated
// branching steps within one run do not bias toward the lowest tid.
func (b RandomBound) Initialise(prior *ThreadID, runnable []Alternative) []ThreadID {
	tids := make([]ThreadID, len(runnable))
	for i, alt := range runnable {
		tids[i] = alt.Tid
	}
	b.Rand.Shuffle(len(tids), func(i, j int) { tids[i], tids[j] = tids[j], tids[i] })
	return tids
}

// BacktrackFn passes precise requests through unchanged; RandomBound offers
// no additional coverage guarantee beyond what FindBacktrackPoints already
// detected.
func (b RandomBound) BacktrackFn(scratch []BacktrackStep, requests []BacktrackRequest) []BacktrackRequest {
	return requests
}

// Package sct implements a systematic concurrency testing engine based on
// bounded dynamic partial-order reduction (BPOR).
//
// The engine explores the space of thread interleavings for a concurrent
// computation by driving that computation repeatedly under a deterministic
// scheduler, each time along a different schedule, until every interesting
// schedule within a user-supplied bound has been enumerated. The output is
// the set of distinct terminal results (success value or failure) paired
// with the execution traces that produced them.
//
// This package owns the hard engineering: the DPOR exploration tree with
// its todo/done/sleep-set bookkeeping (Tree), the deterministic replay
// scheduler that walks the tree (ReplayScheduler), the backtrack-point
// discovery algorithm that examines a completed trace for dependent events
// (FindBacktrackPoints), and the bounding policy that prunes and
// conservatively augments the frontier (Bound). These compose into a
// fix-point loop, RunBounded, that terminates exactly when no schedule
// within the bound remains unexplored.
//
// Concurrency primitive semantics (thread creation, synchronising
// variables, software transactional memory, the shared-reference memory
// model) are deliberately out of scope: they live in an execution engine
// this package consumes through the RunOnce and Scheduler interfaces.
// Package exec provides one such engine. Side-effecting computations
// ground through an effect.Runner this package treats as opaque.
package sct

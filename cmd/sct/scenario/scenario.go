// Package scenario bundles small concurrent computations matching the
// end-to-end table of spec §8, run by cmd/sct. Every Scenario reports its
// result as a string so the CLI can dispatch across them without needing
// a type parameter of its own.
package scenario

import (
	"fmt"
	"strconv"

	"github.com/go-sct/sct/exec"
)

// Scenario names one of the bundled computations plus the bound budget
// the spec's end-to-end table pairs it with.
type Scenario struct {
	Name          string
	Summary       string
	PreemptBudget int
	Build         func() exec.Computation[string]
}

// Registry lists every bundled scenario, in the order of spec §8's table.
var Registry = []Scenario{
	{
		Name:          "racy-write",
		Summary:       "thread writes ref to 1; main reads ref; result is whichever happened first",
		PreemptBudget: 1,
		Build:         RacyWrite,
	},
	{
		Name:          "lost-update",
		Summary:       "two threads non-atomically increment a shared counter",
		PreemptBudget: 2,
		Build:         LostUpdate,
	},
	{
		Name:          "rendezvous",
		Summary:       "thread puts 42 into an mvar; main takes it",
		PreemptBudget: 1,
		Build:         Rendezvous,
	},
	{
		Name:          "deadlock",
		Summary:       "thread takes an mvar nothing ever fills",
		PreemptBudget: 1,
		Build:         Deadlock,
	},
	{
		Name:          "spawn-fanout",
		Summary:       "main spawns N threads, each immediately stopping",
		PreemptBudget: 0,
		Build:         func() exec.Computation[string] { return SpawnFanout(4) },
	},
	{
		Name:          "dining-philosophers",
		Summary:       "3 philosophers, 3 forks, classic deadlock-prone rendezvous",
		PreemptBudget: 2,
		Build:         DiningPhilosophers,
	},
}

// Find returns the scenario named name, or ok=false if none matches.
func Find(name string) (Scenario, bool) {
	for _, s := range Registry {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

// RacyWrite is end-to-end scenario 1: a forked thread writes 1 to a shared
// ref while main reads it; under a pre-emption bound of 1 both orderings
// are explored, producing results {"0", "1"}.
func RacyWrite() exec.Computation[string] {
	return func(h *exec.Handle) (string, error) {
		ref := exec.NewRef(h, 0)
		h.Fork(func(ch *exec.Handle) {
			ref.Write(ch, 1)
		})
		v := ref.Read(h)
		return strconv.Itoa(v), nil
	}
}

// LostUpdate is end-to-end scenario 2: two threads each perform a
// non-atomic read-modify-write on a shared counter started at 0. Depending
// on interleaving, the second thread's write may clobber the first's,
// producing a result of "1" (the lost update) or "2" (no loss).
func LostUpdate() exec.Computation[string] {
	return func(h *exec.Handle) (string, error) {
		counter := exec.NewRef(h, 0)
		done := exec.NewMVar[struct{}](h)

		increment := func(ch *exec.Handle) {
			v := counter.Read(ch)
			counter.Write(ch, v+1)
			done.Put(ch, struct{}{})
		}
		h.Fork(increment)
		h.Fork(increment)
		done.Take(h)
		done.Take(h)
		return strconv.Itoa(counter.Read(h)), nil
	}
}

// Rendezvous is end-to-end scenario 3: a forked thread puts 42 into an
// mvar; main takes it. Exactly one result ("42") is possible, and the
// emitted trace has zero pre-emptions regardless of budget.
func Rendezvous() exec.Computation[string] {
	return func(h *exec.Handle) (string, error) {
		v := exec.NewMVar[int](h)
		h.Fork(func(ch *exec.Handle) {
			v.Put(ch, 42)
		})
		return strconv.Itoa(v.Take(h)), nil
	}
}

// Deadlock is end-to-end scenario 4: a forked thread takes an mvar that
// main never fills. The only possible outcome is FailureDeadlock.
func Deadlock() exec.Computation[string] {
	return func(h *exec.Handle) (string, error) {
		v := exec.NewMVar[int](h)
		h.Fork(func(ch *exec.Handle) {
			v.Take(ch)
		})
		// Main returns immediately without ever putting to v; the forked
		// thread can never become runnable again, so the run deadlocks.
		return "", nil
	}
}

// SpawnFanout is end-to-end scenario 5: main spawns n threads, each of
// which immediately stops, then returns n. A bound of k=0 (no
// pre-emptions) still sees exactly one trace: spawning is not itself a
// choice point with more than one live alternative once nothing else is
// runnable between spawns.
func SpawnFanout(n int) exec.Computation[string] {
	return func(h *exec.Handle) (string, error) {
		for i := 0; i < n; i++ {
			h.Fork(func(ch *exec.Handle) {})
		}
		return strconv.Itoa(n), nil
	}
}

// DiningPhilosophers is end-to-end scenario 6: three philosophers each try
// to take their left fork then their right fork (mvars modelling a lock:
// full means available), eat, and put both forks back. Symmetric acquire
// order makes a circular-wait deadlock reachable under a wide enough
// pre-emption bound, alongside successful interleavings.
func DiningPhilosophers() exec.Computation[string] {
	const n = 3
	return func(h *exec.Handle) (string, error) {
		forks := make([]*exec.MVar[struct{}], n)
		for i := range forks {
			forks[i] = exec.NewMVar[struct{}](h)
			forks[i].Put(h, struct{}{}) // forks start on the table (mvar full = available)
		}
		done := exec.NewMVar[struct{}](h)

		philosopher := func(i int) func(ch *exec.Handle) {
			left, right := forks[i], forks[(i+1)%n]
			return func(ch *exec.Handle) {
				left.Take(ch)
				right.Take(ch)
				right.Put(ch, struct{}{})
				left.Put(ch, struct{}{})
				done.Put(ch, struct{}{})
			}
		}
		for i := 0; i < n; i++ {
			h.Fork(philosopher(i))
		}
		for i := 0; i < n; i++ {
			done.Take(h)
		}
		return fmt.Sprintf("%d philosophers ate", n), nil
	}
}

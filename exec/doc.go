// Package exec is the execution engine external collaborator of §6: a
// goroutine-driven interpreter of threads, shared references, synchronising
// variables and software transactional memory, run under a pluggable
// memory model (sequential consistency, total store order, partial store
// order).
//
// The package is opaque to sct: it is consumed only through the
// sct.Scheduler and sct.MemoryModel interfaces. A Machine drives one
// Computation at a time, reporting each thread's next primitive operation
// to the scheduler as a lookahead action before committing it, exactly as
// the replay scheduler of sct requires (§4.3).
package exec

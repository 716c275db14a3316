// Package effect grounds a Computation's Handle.Lift calls: the one place a
// concurrent program under test is allowed to touch the outside world (an
// HTTP call, a database query, a provider API) without that call itself
// becoming part of the explored interleaving space.
//
// A bounded search replays the same prefix of a schedule many times over;
// re-invoking a real external call on every replay would be slow, costly,
// and (for a non-idempotent call) actively wrong. Runner lets the engine
// record a call's result the first time it is made and replay that
// recording on every subsequent visit to the same (thread, call-site)
// pair, the same role graph.RecordedIO plays for LangGraph-Go's
// checkpoint/resume.
package effect

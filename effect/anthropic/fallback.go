package anthropic

import "github.com/go-sct/sct/exec"

// FallbackComputation builds a two-provider fallback dispatcher: primary
// and secondary each answer prompt concurrently, and both race to write
// their result into a single shared answer Ref. A correct dispatcher would
// keep the first success and cancel the loser; this one (deliberately, for
// the demo) lets whichever provider happens to finish last win, a classic
// concurrent-agent-orchestration bug. Run under sct.RunBounded, the engine
// finds both the "primary wins" and "secondary wins" outcomes without
// needing to get lucky on thread scheduling the way a plain `go test -race`
// loop would.
func FallbackComputation(primary, secondary *Adapter, prompt string) exec.Computation[string] {
	return func(h *exec.Handle) (string, error) {
		answer := exec.NewRef(h, "")
		done := exec.NewMVar[struct{}](h)

		race := func(a *Adapter) {
			h.Fork(func(ch *exec.Handle) {
				text, err := a.Complete(ch, prompt)
				if err == nil {
					answer.Write(ch, text)
				}
				done.Put(ch, struct{}{})
			})
		}
		race(primary)
		race(secondary)

		done.Take(h)
		done.Take(h)
		return answer.Read(h), nil
	}
}

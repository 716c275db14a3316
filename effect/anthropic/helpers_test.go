package anthropic

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-sct/sct"
	"github.com/go-sct/sct/effect"
	"github.com/go-sct/sct/exec"
)

// runSingleThreaded drives comp to completion with no interleaving choices
// to make (a zero-budget preemption bound), returning its result, its
// error (if the run failed), and the number of distinct traces RunBounded
// produced (1 for a program with nothing left to explore).
func runSingleThreaded(t *testing.T, comp exec.Computation[string]) (string, error, int) {
	t.Helper()
	run := exec.RunOnce(context.Background(), comp, exec.NewSequentialConsistency(), effect.NewNullRunner())
	results, err := sct.RunPreemptionBounded(0, sct.ThreadID(0), exec.NewSequentialConsistency(), run)
	if err != nil {
		t.Fatalf("RunPreemptionBounded: %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("RunPreemptionBounded produced no results")
	}
	res := results[0]
	if res.Outcome.Failed {
		return "", fmt.Errorf("run failed: %s", res.Outcome.Err), len(results)
	}
	return res.Outcome.Value, nil, len(results)
}

// Command sct runs a bundled concurrency-testing scenario under a chosen
// bound and prints every distinct (result, trace) pair the search finds.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/go-sct/sct"
	"github.com/go-sct/sct/cmd/sct/scenario"
	"github.com/go-sct/sct/emit"
	"github.com/go-sct/sct/exec"
)

// quiet is bound via addGlobalFlags, shared across every subcommand.
var quiet bool

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sct",
		Short:         "Bounded dynamic partial-order reduction concurrency tester",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	addGlobalFlags(root.PersistentFlags())
	root.AddCommand(newRunCmd())
	root.AddCommand(newListCmd())
	return root
}

// addGlobalFlags registers flags shared by every subcommand directly on a
// pflag.FlagSet, the same split cobra.Command.Flags() delegates to under
// the hood.
func addGlobalFlags(f *pflag.FlagSet) {
	f.BoolVar(&quiet, "quiet", false, "suppress the summary line, printing only per-trace results")
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bundled scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range scenario.Registry {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", s.Name, s.Summary)
			}
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	var (
		boundName string
		k         int
		maxSteps  int
		seed      int64
		verbose   bool
		jsonLog   bool
	)

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run a bundled scenario to exhaustion under the chosen bound",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, ok := scenario.Find(args[0])
			if !ok {
				names := make([]string, len(scenario.Registry))
				for i, s := range scenario.Registry {
					names[i] = s.Name
				}
				sort.Strings(names)
				return fmt.Errorf("unknown scenario %q (available: %s)", args[0], strings.Join(names, ", "))
			}

			bound, err := buildBound(boundName, k, maxSteps, seed, sc)
			if err != nil {
				return err
			}

			var emitter emit.Emitter = emit.NewNullEmitter()
			if verbose {
				emitter = emit.NewLogEmitter(cmd.OutOrStdout(), jsonLog)
			}

			cfg, err := sct.NewConfig(sct.WithBound(bound), sct.WithEmitter(emitter))
			if err != nil {
				return err
			}

			mem := exec.NewSequentialConsistency()
			run := exec.RunOnce(cmd.Context(), sc.Build(), mem, nil)
			results, err := sct.RunConfigured[string](cmd.Context(), cfg, sct.ThreadID(0), mem, run)
			if err != nil {
				return fmt.Errorf("sct run: %w", err)
			}

			printResults(cmd, sc.Name, results)
			return nil
		},
	}

	cmd.Flags().StringVar(&boundName, "bound", "preempt", "bounding policy: preempt or random")
	cmd.Flags().IntVar(&k, "k", -1, "pre-emption budget (preempt bound); defaults to the scenario's own")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 200, "step cap for the random bound")
	cmd.Flags().Int64Var(&seed, "seed", 1, "RNG seed for the random bound")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "emit a log line per search iteration")
	cmd.Flags().BoolVar(&jsonLog, "json", false, "emit verbose log lines as JSON instead of key=value text")
	return cmd
}

func buildBound(name string, k, maxSteps int, seed int64, sc scenario.Scenario) (sct.Bound, error) {
	switch name {
	case "preempt":
		if k < 0 {
			k = sc.PreemptBudget
		}
		return sct.NewPreemptionBound(k)
	case "random":
		return sct.NewRandomBound(maxSteps, rand.New(rand.NewSource(seed)))
	default:
		return nil, fmt.Errorf("unknown bound %q (want preempt or random)", name)
	}
}

func printResults(cmd *cobra.Command, name string, results []sct.Result[string]) {
	out := cmd.OutOrStdout()
	if !quiet {
		fmt.Fprintf(out, "%s: %d distinct (result, trace) pairs\n", name, len(results))
	}
	for i, r := range results {
		outcome := r.Outcome.Value
		if r.Outcome.Failed {
			outcome = r.Outcome.Err.String()
		}
		fmt.Fprintf(out, "  [%d] result=%q preempts=%d trace=%s\n",
			i, outcome, sct.PreemptCountTrace(r.Trace), r.Trace.String())
	}
}

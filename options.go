package sct

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/go-sct/sct/emit"
	"github.com/go-sct/sct/metrics"
	"github.com/go-sct/sct/store"
)

// Option is a functional option for configuring a search (§4.6, §7).
//
// Functional options keep Config's zero value usable while letting callers
// opt into a bound, an observability backend or persistence without a
// combinatorial set of constructors:
//
//	cfg, err := sct.NewConfig(
//	    sct.WithBound(bound),
//	    sct.WithMaxTraces(10000),
//	    sct.WithEmitter(emit.NewLogEmitter(os.Stderr, false)),
//	)
type Option func(*Config) error

// Config collects the options a bounded search runs with. The zero Config
// (no options applied) has no bound, no trace or step limit, a NullEmitter,
// no store and no metrics — equivalent to calling RunBounded directly.
type Config struct {
	Bound        Bound
	MaxTraces    int
	StepBudget   int
	Emitter      emit.Emitter
	Store        store.Store
	Metrics      *metrics.Recorder
	SearchID     string
}

// NewConfig applies opts in order to a zero Config and returns the result.
// An option returning an error aborts and is surfaced to the caller; no
// partial Config is returned on error. If a Store was configured (WithStore)
// but the caller never named a SearchID (WithSearchID), a fresh one is
// minted with uuid so RunConfigured always has a checkpoint key to save and
// load under.
func NewConfig(opts ...Option) (Config, error) {
	cfg := Config{Emitter: emit.NewNullEmitter()}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return Config{}, err
		}
	}
	if cfg.Store != nil && cfg.SearchID == "" {
		cfg.SearchID = uuid.NewString()
	}
	return cfg, nil
}

// WithBound sets the bounding policy the search enumerates under.
//
// Default: nil. RunBounded/RunConfigured requires a non-nil Bound; omitting
// this option is a configuration error surfaced at Run time.
func WithBound(bound Bound) Option {
	return func(cfg *Config) error {
		if bound == nil {
			return fmt.Errorf("sct: WithBound requires a non-nil Bound")
		}
		cfg.Bound = bound
		return nil
	}
}

// WithMaxTraces caps the number of traces a search will execute before
// stopping early, regardless of how much of the tree remains unexplored.
//
// Default: 0 (no limit — the search runs until the tree is exhausted or
// the bound rejects every remaining prefix).
func WithMaxTraces(n int) Option {
	return func(cfg *Config) error {
		if n < 0 {
			return fmt.Errorf("sct: WithMaxTraces requires n >= 0, got %d", n)
		}
		cfg.MaxTraces = n
		return nil
	}
}

// WithStepBudget sets Config.StepBudget, a cap on the number of scheduling
// decisions of a single trace. RunConfigured does not apply it: the value is
// only stored on the Config.
//
// Default: 0 (no per-trace limit).
func WithStepBudget(n int) Option {
	return func(cfg *Config) error {
		if n < 0 {
			return fmt.Errorf("sct: WithStepBudget requires n >= 0, got %d", n)
		}
		cfg.StepBudget = n
		return nil
	}
}

// WithEmitter sets the observability backend the search reports its start,
// per-iteration and completion events to. See the emit package for LogEmitter, OTelEmitter
// and BufferedEmitter implementations.
//
// Default: emit.NewNullEmitter() (events are discarded).
func WithEmitter(emitter emit.Emitter) Option {
	return func(cfg *Config) error {
		if emitter == nil {
			return fmt.Errorf("sct: WithEmitter requires a non-nil Emitter")
		}
		cfg.Emitter = emitter
		return nil
	}
}

// WithStore enables checkpointing: after every fix-point loop iteration,
// the search persists a resumable snapshot keyed by
// SearchID (see WithSearchID). See the store package for MemStore,
// SQLiteStore and MySQLStore implementations.
//
// Default: nil (no checkpointing).
func WithStore(s store.Store) Option {
	return func(cfg *Config) error {
		cfg.Store = s
		return nil
	}
}

// WithMetrics attaches a Prometheus recorder that tracks tree growth,
// frontier depth, backtrack-point insertions, sleep-set prunes, trace
// outcomes and per-iteration latency.
//
// Default: nil (metrics disabled).
func WithMetrics(rec *metrics.Recorder) Option {
	return func(cfg *Config) error {
		cfg.Metrics = rec
		return nil
	}
}

// WithSearchID sets the identifier checkpoints are saved and loaded under.
//
// Default: "" — if a Store is also configured and no SearchID is given,
// NewConfig mints one with uuid.NewString() so checkpointing still works;
// pass this option explicitly to resume a specific prior search.
func WithSearchID(id string) Option {
	return func(cfg *Config) error {
		cfg.SearchID = id
		return nil
	}
}

// Package metrics provides Prometheus metrics for a bounded search.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder collects Prometheus-compatible metrics for the search process:
// tree growth, frontier depth, backtrack-point insertions, sleep-set
// prunes, traces emitted and per-iteration wall-clock time.
//
// Metrics exposed, all namespaced "sct":
//
//  1. nodes_explored_total (counter): fix-point loop iterations (one per explored trace).
//  2. frontier_depth (gauge): current deepest pending todo entry's depth.
//  3. backtrack_points_total (counter): backtrack requests produced by the bound, before tree insertion, labelled conservative/precise.
//  4. sleep_prunes_total (counter): todo insertions rejected because the tid was sleep-set suppressed.
//  5. traces_total (counter): traces emitted, labelled by outcome.
//  6. iteration_latency_ms (histogram): wall-clock time per fix-point loop iteration.
//
// All methods are safe for concurrent use.
type Recorder struct {
	nodesExplored  prometheus.Counter
	frontierDepth  prometheus.Gauge
	backtrackTotal *prometheus.CounterVec
	sleepPrunes    prometheus.Counter
	tracesTotal    *prometheus.CounterVec
	iterLatency    prometheus.Histogram

	mu      sync.RWMutex
	enabled bool
}

// NewRecorder registers the sct metric family with registry (the default
// registerer if nil) and returns a ready-to-use Recorder.
func NewRecorder(registry prometheus.Registerer) *Recorder {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Recorder{
		enabled: true,
		nodesExplored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sct",
			Name:      "nodes_explored_total",
			Help:      "Fix-point loop iterations (explored traces) over the lifetime of the search",
		}),
		frontierDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "sct",
			Name:      "frontier_depth",
			Help:      "Depth of the deepest node currently carrying a pending todo entry",
		}),
		backtrackTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sct",
			Name:      "backtrack_points_total",
			Help:      "Backtrack requests produced by the bound, before tree insertion",
		}, []string{"kind"}), // kind: precise, conservative
		sleepPrunes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sct",
			Name:      "sleep_prunes_total",
			Help:      "Todo insertions rejected because the tid was sleep-set suppressed",
		}),
		tracesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sct",
			Name:      "traces_total",
			Help:      "Traces emitted by the search, labelled by outcome",
		}, []string{"outcome"}), // outcome: none (success), deadlock, stm-deadlock, uncaught-exception, abort
		iterLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sct",
			Name:      "iteration_latency_ms",
			Help:      "Wall-clock duration of one fix-point loop iteration, in milliseconds",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}),
	}
}

// RecordNodeExplored increments nodes_explored_total by one.
func (r *Recorder) RecordNodeExplored() {
	if !r.isEnabled() {
		return
	}
	r.nodesExplored.Inc()
}

// UpdateFrontierDepth sets the frontier_depth gauge.
func (r *Recorder) UpdateFrontierDepth(depth int) {
	if !r.isEnabled() {
		return
	}
	r.frontierDepth.Set(float64(depth))
}

// IncrementBacktrackPoints increments backtrack_points_total for the given
// kind ("precise" or "conservative").
func (r *Recorder) IncrementBacktrackPoints(kind string) {
	if !r.isEnabled() {
		return
	}
	r.backtrackTotal.WithLabelValues(kind).Inc()
}

// IncrementSleepPrunes increments sleep_prunes_total by one.
func (r *Recorder) IncrementSleepPrunes() {
	if !r.isEnabled() {
		return
	}
	r.sleepPrunes.Inc()
}

// RecordTrace increments traces_total for the given outcome label.
func (r *Recorder) RecordTrace(outcome string) {
	if !r.isEnabled() {
		return
	}
	r.tracesTotal.WithLabelValues(outcome).Inc()
}

// RecordIterationLatency observes one fix-point loop iteration's duration.
func (r *Recorder) RecordIterationLatency(d time.Duration) {
	if !r.isEnabled() {
		return
	}
	r.iterLatency.Observe(float64(d.Milliseconds()))
}

func (r *Recorder) isEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}

// Disable stops metric recording (useful in tests that reuse a registry).
func (r *Recorder) Disable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = false
}

// Enable resumes metric recording after Disable.
func (r *Recorder) Enable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = true
}

// Package metrics exposes Prometheus instrumentation for stats runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"raidstats/internal/aggregate"
)

// Outcome labels for a finished run.
const (
	OutcomeOK          = "ok"
	OutcomeNoRaids     = "no_raids"
	OutcomeBadRequest  = "bad_request"
	OutcomeUpstreamErr = "upstream_error"
)

// Recorder is the instrumentation surface the stats service and fetcher use.
type Recorder interface {
	RunFinished(command, outcome string, elapsed time.Duration)
	PageFetched(shape aggregate.Shape)
	PercentageClamped(n int)
}

// Prometheus implements Recorder with Prometheus collectors.
type Prometheus struct {
	runs       *prometheus.CounterVec
	runLatency *prometheus.HistogramVec
	pages      *prometheus.CounterVec
	clamped    prometheus.Counter
}

// NewPrometheus registers the collectors on reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	factory := promauto.With(reg)
	return &Prometheus{
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "raidstats_runs_total",
				Help: "Stats runs by command and outcome.",
			},
			[]string{"command", "outcome"},
		),
		runLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "raidstats_run_duration_seconds",
				Help:    "Wall time of a stats run including every page fetch.",
				Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"command"},
		),
		pages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "raidstats_pages_fetched_total",
				Help: "Analytics pages fetched by query shape.",
			},
			[]string{"shape"},
		),
		clamped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "raidstats_percentages_clamped_total",
				Help: "Attendance percentages clamped to 100.",
			},
		),
	}
}

func (p *Prometheus) RunFinished(command, outcome string, elapsed time.Duration) {
	p.runs.WithLabelValues(command, outcome).Inc()
	p.runLatency.WithLabelValues(command).Observe(elapsed.Seconds())
}

func (p *Prometheus) PageFetched(shape aggregate.Shape) {
	p.pages.WithLabelValues(shape.String()).Inc()
}

func (p *Prometheus) PercentageClamped(n int) {
	p.clamped.Add(float64(n))
}

// Nop discards everything.
type Nop struct{}

func (Nop) RunFinished(string, string, time.Duration) {}
func (Nop) PageFetched(aggregate.Shape) {}
func (Nop) PercentageClamped(int) {}

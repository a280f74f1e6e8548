// Package metrics exposes the Prometheus counters/gauges/histograms the
// orchestrator emits for each run: stage timing, sweep combination
// throughput, backtest trade counts, and risk-engine allocation events.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Registry holds every metric this module exposes.
type Registry struct {
	StepDuration *prometheus.HistogramVec
	StageSteps   *prometheus.CounterVec
	StageErrors  *prometheus.CounterVec

	SweepCombinations *prometheus.CounterVec
	BacktestTrades    *prometheus.HistogramVec

	ActiveRuns prometheus.Gauge
	RunsTotal  prometheus.Counter

	AllocationEvents *prometheus.CounterVec
}

// NewRegistry builds and registers every metric against reg.
func NewRegistry(reg *prometheus.Registry) *Registry {
	r := &Registry{
		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quantsweep_step_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"stage", "result"},
		),
		StageSteps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantsweep_stage_steps_total",
				Help: "Total number of pipeline stage executions",
			},
			[]string{"stage", "status"},
		),
		StageErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantsweep_stage_errors_total",
				Help: "Total number of stage errors by error kind",
			},
			[]string{"stage", "kind"},
		),
		SweepCombinations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantsweep_sweep_combinations_total",
				Help: "Total number of sweep combinations evaluated",
			},
			[]string{"ticker"},
		),
		BacktestTrades: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quantsweep_backtest_trades",
				Help:    "Trade count per completed backtest run",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100, 250},
			},
			[]string{"ticker"},
		),
		ActiveRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "quantsweep_active_runs",
				Help: "Number of currently executing orchestrator runs",
			},
		),
		RunsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "quantsweep_runs_total",
				Help: "Total number of orchestrator runs initiated",
			},
		),
		AllocationEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantsweep_allocation_events_total",
				Help: "Total number of risk-engine allocation computations by method",
			},
			[]string{"method"},
		),
	}

	reg.MustRegister(
		r.StepDuration,
		r.StageSteps,
		r.StageErrors,
		r.SweepCombinations,
		r.BacktestTrades,
		r.ActiveRuns,
		r.RunsTotal,
		r.AllocationEvents,
	)

	return r
}

// StepTimer tracks execution time for one pipeline stage.
type StepTimer struct {
	registry *Registry
	stage    string
	start    time.Time
	logger   zerolog.Logger
}

// StartStepTimer begins timing stage.
func (r *Registry) StartStepTimer(stage string, logger zerolog.Logger) *StepTimer {
	return &StepTimer{registry: r, stage: stage, start: time.Now(), logger: logger}
}

// Stop completes the stage timing and records the duration/step metrics.
func (st *StepTimer) Stop(result string) {
	duration := time.Since(st.start)
	st.registry.StepDuration.WithLabelValues(st.stage, result).Observe(duration.Seconds())
	st.registry.StageSteps.WithLabelValues(st.stage, result).Inc()

	st.logger.Debug().
		Str("stage", st.stage).
		Str("result", result).
		Dur("duration", duration).
		Msg("pipeline stage completed")
}

// RecordStageError increments the error counter for stage/kind.
func (r *Registry) RecordStageError(stage, kind string) {
	r.StageErrors.WithLabelValues(stage, kind).Inc()
}

// RecordSweepCombination increments the sweep combination counter for ticker.
func (r *Registry) RecordSweepCombination(ticker string) {
	r.SweepCombinations.WithLabelValues(ticker).Inc()
}

// ObserveBacktestTrades records a completed backtest's trade count.
func (r *Registry) ObserveBacktestTrades(ticker string, trades int) {
	r.BacktestTrades.WithLabelValues(ticker).Observe(float64(trades))
}

// RecordAllocationEvent increments the allocation-method counter.
func (r *Registry) RecordAllocationEvent(method string) {
	r.AllocationEvents.WithLabelValues(method).Inc()
}

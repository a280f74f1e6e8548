package orchestrator

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/quantsweep/internal/align"
	"github.com/sawpanic/quantsweep/internal/metrics"
	"github.com/sawpanic/quantsweep/internal/portfolio"
	"github.com/sawpanic/quantsweep/internal/priceframe"
	"github.com/sawpanic/quantsweep/internal/risk"
	"github.com/sawpanic/quantsweep/internal/signals"
	"github.com/sawpanic/quantsweep/internal/sweep"
	"github.com/sawpanic/quantsweep/internal/validate"
	"github.com/sawpanic/quantsweep/internal/worker"
)

// Orchestrator owns the worker pool, the cancellation/timeout surface,
// and the per-run manifest for all three tasks.
type Orchestrator struct {
	Logger          zerolog.Logger
	ValidationFatal bool             // if true, a failed Validator check fails the Concurrency run instead of recording a diagnostic
	Metrics         *metrics.Registry // nil disables metric recording
}

// New returns an Orchestrator. reg may be nil, in which case metric
// recording is a no-op.
func New(logger zerolog.Logger, reg *metrics.Registry) *Orchestrator {
	return &Orchestrator{Logger: logger, Metrics: reg}
}

// SweepTicker bundles one ticker symbol with the frame a sweep runs
// over; the strategy tag and side are passed to RunSweep separately.
type SweepTicker struct {
	Ticker string
	Frame  *priceframe.Frame
}

func (o *Orchestrator) startTimer(stage string) *metrics.StepTimer {
	if o.Metrics == nil {
		return nil
	}
	o.Metrics.ActiveRuns.Inc()
	o.Metrics.RunsTotal.Inc()
	return o.Metrics.StartStepTimer(stage, o.Logger)
}

func (o *Orchestrator) stopTimer(timer *metrics.StepTimer, result string) {
	if timer == nil {
		return
	}
	timer.Stop(result)
	o.Metrics.ActiveRuns.Dec()
}

// RunSweep dispatches one sweep.Run per ticker across a bounded pool,
// reassembling each ticker's unordered worker-completion results back
// into deterministic (fast, slow, signal) enumeration order before
// returning.
func (o *Orchestrator) RunSweep(ctx context.Context, tickers []SweepTicker, tag signals.Tag, side signals.Side, grid sweep.Grid, cfg sweep.Config, parallelism int) *Manifest {
	m := newManifest(StageSweep)
	timer := o.startTimer("sweep")
	start := time.Now()
	result := "ok"

	o.Logger.Info().
		Str("stage", "sweep").
		Str("run_id", m.RunID).
		Int("tickers", len(tickers)).
		Str("tag", string(tag)).
		Str("side", string(side)).
		Msg("sweep started")

	pool := worker.New(parallelism)
	type tickerResult struct {
		ticker  string
		rows    []portfolio.PortfolioRow
		partial bool
	}
	resultsCh := make(chan tickerResult, len(tickers))

	for _, tk := range tickers {
		tk := tk
		pool.Go(ctx, func() error {
			tickerStart := time.Now()
			sink := sweep.NewCollectorSink()
			partial, err := sweep.Run(ctx, tk.Frame, tk.Ticker, side, tag, grid, cfg, sink)
			if err != nil {
				o.Logger.Error().
					Str("stage", "sweep").
					Str("run_id", m.RunID).
					Str("ticker", tk.Ticker).
					Dur("duration", time.Since(tickerStart)).
					Err(err).
					Msg("ticker sweep failed")
				resultsCh <- tickerResult{ticker: tk.Ticker}
				return err
			}
			rows := append([]portfolio.PortfolioRow(nil), sink.Rows...)
			sort.Slice(rows, func(i, j int) bool { return rows[i].ID.Less(rows[j].ID) })
			if o.Metrics != nil {
				for _, row := range rows {
					o.Metrics.RecordSweepCombination(tk.Ticker)
					o.Metrics.ObserveBacktestTrades(tk.Ticker, row.Metrics.Trades)
				}
			}
			o.Logger.Info().
				Str("stage", "sweep").
				Str("run_id", m.RunID).
				Str("ticker", tk.Ticker).
				Int("rows", len(rows)).
				Bool("partial", partial).
				Dur("duration", time.Since(tickerStart)).
				Msg("ticker sweep completed")
			resultsCh <- tickerResult{ticker: tk.Ticker, rows: rows, partial: partial}
			return nil
		})
	}

	if err := pool.Wait(); err != nil {
		m.addDiagnostic("one or more ticker sweeps failed", map[string]any{"error": err.Error()})
		result = "error"
		o.Logger.Warn().
			Str("stage", "sweep").
			Str("run_id", m.RunID).
			Err(err).
			Msg("one or more ticker sweeps failed")
		if o.Metrics != nil {
			o.Metrics.RecordStageError("sweep", "combination")
		}
	}
	close(resultsCh)

	byTicker := make(map[string]tickerResult, len(tickers))
	for r := range resultsCh {
		byTicker[r.ticker] = r
	}
	for _, tk := range tickers {
		r := byTicker[tk.Ticker]
		m.Rows = append(m.Rows, r.rows...)
		if r.partial {
			m.Partial = true
		}
	}

	select {
	case <-ctx.Done():
		m.Cancelled = true
		result = "cancelled"
	default:
	}

	o.Logger.Info().
		Str("stage", "sweep").
		Str("run_id", m.RunID).
		Int("rows", len(m.Rows)).
		Bool("cancelled", m.Cancelled).
		Bool("partial", m.Partial).
		Dur("duration", time.Since(start)).
		Msg("sweep completed")

	o.stopTimer(timer, result)
	return m
}

// RunBest applies the minimum-criteria gate, scores each ticker+strategy
// family, produces the Most/Least/Mean/Median candidate set per family,
// and runs BestAggregator to dedup-and-concatenate into the final rows.
func (o *Orchestrator) RunBest(rows []portfolio.PortfolioRow, mc portfolio.MinimumCriteria, targetMetrics []portfolio.MetricAccessor) *Manifest {
	m := newManifest(StageBest)
	timer := o.startTimer("best")
	start := time.Now()
	if targetMetrics == nil {
		targetMetrics = portfolio.DefaultMetrics
	}

	o.Logger.Info().
		Str("stage", "best").
		Str("run_id", m.RunID).
		Int("input_rows", len(rows)).
		Msg("best started")

	survivors := mc.Apply(rows)
	if len(survivors) == 0 {
		m.addDiagnostic("no rows survived the minimum-criteria gate", nil)
		o.Logger.Warn().
			Str("stage", "best").
			Str("run_id", m.RunID).
			Dur("duration", time.Since(start)).
			Msg("no rows survived the minimum-criteria gate")
		if o.Metrics != nil {
			o.Metrics.RecordStageError("best", "empty_gate")
		}
		o.stopTimer(timer, "empty")
		return m
	}

	families := make(map[string][]portfolio.PortfolioRow)
	var order []string
	for _, r := range survivors {
		key := r.ID.Ticker + "|" + string(r.ID.Tag)
		if _, ok := families[key]; !ok {
			order = append(order, key)
		}
		families[key] = append(families[key], r)
	}

	var candidates []portfolio.PortfolioRow
	for _, key := range order {
		scored := portfolio.ScoreFamily(families[key])
		family := portfolio.MetricTypeCandidates(scored, targetMetrics)
		for _, row := range family {
			o.Logger.Debug().
				Str("stage", "best").
				Str("run_id", m.RunID).
				Str("ticker", row.ID.Ticker).
				Str("strategy_id", row.ID.Key()).
				Str("metric_type", row.MetricType).
				Msg("candidate selected")
		}
		candidates = append(candidates, family...)
	}

	m.Rows = portfolio.Aggregate(candidates)
	o.Logger.Info().
		Str("stage", "best").
		Str("run_id", m.RunID).
		Int("survivors", len(survivors)).
		Int("rows", len(m.Rows)).
		Dur("duration", time.Since(start)).
		Msg("best completed")
	o.stopTimer(timer, "ok")
	return m
}

// ConcurrencyInput bundles everything a Concurrency-analysis run needs.
type ConcurrencyInput struct {
	Streams      []align.Stream
	AlignPolicy  align.Policy
	Expectancy   []float64 // per-strategy, decimal scale, same order as Streams
	Method       risk.AllocationMethod
	Ratios       []float64
	Constituents []validate.ConstituentFact // same order as Streams
}

// RunConcurrency aligns the given strategies' equity curves, runs the
// risk engine, and validates the result, recording a validation failure
// as a diagnostic unless ValidationFatal is set.
func (o *Orchestrator) RunConcurrency(in ConcurrencyInput) (*Manifest, error) {
	m := newManifest(StageConcurrency)
	timer := o.startTimer("concurrency")
	start := time.Now()

	alignPolicy := "Intersection"
	if in.AlignPolicy == align.UnionForwardFill {
		alignPolicy = "UnionForwardFill"
	}

	o.Logger.Info().
		Str("stage", "concurrency").
		Str("run_id", m.RunID).
		Int("streams", len(in.Streams)).
		Str("align_policy", alignPolicy).
		Str("allocation_method", string(in.Method)).
		Msg("concurrency started")

	aligned, err := align.Align(in.Streams, in.AlignPolicy)
	if err != nil {
		o.Logger.Error().
			Str("stage", "concurrency").
			Str("run_id", m.RunID).
			Dur("duration", time.Since(start)).
			Err(err).
			Msg("alignment failed")
		if o.Metrics != nil {
			o.Metrics.RecordStageError("concurrency", "align")
		}
		o.stopTimer(timer, "error")
		return nil, err // InsufficientOverlap: fatal to the concurrency stage
	}
	for _, out := range aligned.Outliers {
		m.addDiagnostic("bar-level return outlier", map[string]any{
			"stream": out.StreamID, "timestamp": out.Timestamp, "return": out.Return,
		})
		o.Logger.Warn().
			Str("stage", "concurrency").
			Str("run_id", m.RunID).
			Str("strategy_id", out.StreamID).
			Time("timestamp", out.Timestamp).
			Float64("return", out.Return).
			Msg("bar-level return outlier")
	}

	equityCurves := rebaseToEquity(aligned.Returns)

	report, err := risk.Analyze(risk.Input{
		Returns:      aligned.Returns,
		EquityCurves: equityCurves,
		Expectancy:   in.Expectancy,
		Method:       in.Method,
		Ratios:       in.Ratios,
	})
	if err != nil {
		o.Logger.Error().
			Str("stage", "concurrency").
			Str("run_id", m.RunID).
			Dur("duration", time.Since(start)).
			Err(err).
			Msg("risk analysis failed")
		if o.Metrics != nil {
			o.Metrics.RecordStageError("concurrency", "risk_analyze")
		}
		o.stopTimer(timer, "error")
		return nil, err // CovarianceDegenerate / AllocationDivergent / InternalInvariant: fatal
	}
	if o.Metrics != nil {
		o.Metrics.RecordAllocationEvent(string(report.Method))
	}

	m.RiskReport = toRiskReportView(in.Streams, report)

	portfolioFact := validate.PortfolioFact{
		MaxDrawdown:  report.MaxDrawdown,
		Sharpe:       sharpeFromReturns(combinedReturns(equityCurves, report.Weights)),
		Correlations: correlationMatrix(report.Covariance),
	}
	if err := validate.All(in.Constituents, portfolioFact); err != nil {
		if o.Metrics != nil {
			o.Metrics.RecordStageError("concurrency", "validation")
		}
		if o.ValidationFatal {
			o.Logger.Error().
				Str("stage", "concurrency").
				Str("run_id", m.RunID).
				Dur("duration", time.Since(start)).
				Err(err).
				Msg("validation failed, aborting run")
			o.stopTimer(timer, "error")
			return nil, err
		}
		m.Validation = err.Error()
		m.addDiagnostic("validation check failed", map[string]any{"error": err.Error()})
		o.Logger.Warn().
			Str("stage", "concurrency").
			Str("run_id", m.RunID).
			Dur("duration", time.Since(start)).
			Err(err).
			Msg("validation failed, recording diagnostic")
		o.stopTimer(timer, "validation_failed")
		return m, nil
	}

	o.Logger.Info().
		Str("stage", "concurrency").
		Str("run_id", m.RunID).
		Dur("duration", time.Since(start)).
		Float64("max_drawdown", report.MaxDrawdown).
		Float64("volatility", report.Volatility).
		Msg("concurrency completed")
	o.stopTimer(timer, "ok")
	return m, nil
}

func rebaseToEquity(returns [][]float64) [][]float64 {
	curves := make([][]float64, len(returns))
	for i, r := range returns {
		curve := make([]float64, len(r))
		if len(curve) == 0 {
			curves[i] = curve
			continue
		}
		curve[0] = 1.0
		for t := 1; t < len(r); t++ {
			curve[t] = curve[t-1] * (1 + r[t])
		}
		curves[i] = curve
	}
	return curves
}

func combinedReturns(equityCurves [][]float64, w []float64) []float64 {
	combined := risk.CombinedEquityCurve(equityCurves, w)
	out := make([]float64, 0, len(combined))
	for t := 1; t < len(combined); t++ {
		if combined[t-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, combined[t]/combined[t-1]-1)
	}
	return out
}

func sharpeFromReturns(r []float64) float64 {
	if len(r) == 0 {
		return 0
	}
	var mean float64
	for _, v := range r {
		mean += v
	}
	mean /= float64(len(r))
	if len(r) < 2 {
		return 0
	}
	var ss float64
	for _, v := range r {
		d := v - mean
		ss += d * d
	}
	sd := math.Sqrt(ss / float64(len(r)-1))
	if sd == 0 {
		return 0
	}
	period := 252.0
	return mean * period / (sd * math.Sqrt(period))
}

func correlationMatrix(cov risk.Matrix) [][]float64 {
	n := len(cov)
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			denom := math.Sqrt(cov[i][i] * cov[j][j])
			if denom == 0 {
				continue
			}
			out[i][j] = cov[i][j] / denom
		}
	}
	return out
}

func toRiskReportView(streams []align.Stream, report risk.Report) *RiskReportView {
	allocation := make([]AllocationEntry, len(streams))
	contributions := make([]ContributionEntry, len(streams))
	for i, s := range streams {
		allocation[i] = AllocationEntry{ID: s.ID, Weight: report.Weights[i]}
		contributions[i] = ContributionEntry{ID: s.ID, Contribution: report.RiskContributions[i]}
	}
	return &RiskReportView{
		Covariance:        report.Covariance,
		Volatility:        report.Volatility,
		MaxDrawdown:       report.MaxDrawdown,
		Allocation:        allocation,
		RiskContributions: contributions,
		Method:            string(report.Method),
	}
}

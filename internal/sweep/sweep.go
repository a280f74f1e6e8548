package sweep

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sawpanic/quantsweep/internal/backtest"
	"github.com/sawpanic/quantsweep/internal/errs"
	"github.com/sawpanic/quantsweep/internal/portfolio"
	"github.com/sawpanic/quantsweep/internal/priceframe"
	"github.com/sawpanic/quantsweep/internal/signals"
)

// Sink receives one PortfolioRow per completed combination. Implementations
// must be safe for concurrent Emit calls.
type Sink interface {
	Emit(row portfolio.PortfolioRow) error
}

// CollectorSink is an in-memory Sink; suitable when the grid is small
// enough to hold entirely in memory.
type CollectorSink struct {
	mu   sync.Mutex
	Rows []portfolio.PortfolioRow
}

// NewCollectorSink returns an empty CollectorSink.
func NewCollectorSink() *CollectorSink { return &CollectorSink{} }

// Emit appends row under lock.
func (s *CollectorSink) Emit(row portfolio.PortfolioRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Rows = append(s.Rows, row)
	return nil
}

// Config bounds sweep dispatch parallelism and optionally attaches an
// RSI confirmation filter to every combination the grid enumerates.
type Config struct {
	MaxWorkers int // 0 means runtime.NumCPU()
	Rsi        *RsiFilter
}

// RsiFilter mirrors signals.RsiFilter's constructor arguments; attached
// to every Kind a sweep enumerates when non-nil.
type RsiFilter struct {
	Window    int
	Threshold float64
}

// Run dispatches one Backtester invocation per valid combination in grid
// across a bounded worker pool, streaming results to sink. Cancellation
// is cooperative: ctx is checked between job dispatches, never mid-job;
// a cancelled sweep returns partial=true with whatever rows already
// landed in sink.
//
// A per-combination InsufficientData failure (the grid's slow bound
// exceeding the frame length) is not a sweep-level error: that
// combination is silently skipped, matching the grid's own silent skip
// of invalid fast>=slow combinations.
func Run(ctx context.Context, frame *priceframe.Frame, ticker string, side signals.Side, tag signals.Tag, grid Grid, cfg Config, sink Sink) (partial bool, err error) {
	combos := grid.Combinations(tag)
	if cfg.Rsi != nil {
		for i, kind := range combos {
			combos[i] = kind.WithRsi(cfg.Rsi.Window, cfg.Rsi.Threshold)
		}
	}

	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}

	g := &errgroup.Group{}
	g.SetLimit(maxWorkers)

	for _, kind := range combos {
		select {
		case <-ctx.Done():
			partial = true
		default:
		}
		if partial {
			break
		}

		kind := kind
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row, skip, runErr := runOne(frame, ticker, side, kind)
			if runErr != nil {
				return runErr
			}
			if skip {
				return nil
			}
			return sink.Emit(row)
		})
	}

	err = g.Wait()
	if err != nil && ctx.Err() != nil {
		partial = true
	}
	return partial, err
}

func runOne(frame *priceframe.Frame, ticker string, side signals.Side, kind signals.Kind) (row portfolio.PortfolioRow, skip bool, err error) {
	stream, err := signals.Generate(frame, kind, side)
	if err != nil {
		return portfolio.PortfolioRow{}, false, err
	}

	result, err := backtest.Run(frame, stream, side, kind.Warmup())
	if err != nil {
		if errs.Is(err, errs.InsufficientData) {
			return portfolio.PortfolioRow{}, true, nil
		}
		return portfolio.PortfolioRow{}, false, err
	}

	tagv, fast, slow, signalWindow := kind.ID()
	row = portfolio.PortfolioRow{
		ID: portfolio.StrategyId{
			Ticker:       ticker,
			Tag:          tagv,
			Fast:         fast,
			Slow:         slow,
			SignalWindow: signalWindow,
		},
		Side:    side,
		Metrics: result.Metrics,
	}
	return row, false, nil
}

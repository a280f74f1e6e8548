// Package priceframe models the aligned, immutable OHLCV bar table that
// flows read-only through the rest of the pipeline.
package priceframe

import (
	"fmt"
	"math"
	"time"
)

// Timeframe is the bar cadence a PriceFrame was sampled at. It governs
// annualization (see AnnualizationPeriod) and warm-up accounting.
type Timeframe string

const (
	Daily  Timeframe = "daily"
	Hourly Timeframe = "hourly"
)

// AnnualizationPeriod returns the number of bars per year used to
// annualize Sharpe/Sortino/Omega: 252 for Daily, 252*6.5 for
// Hourly-regular-hours.
func (tf Timeframe) AnnualizationPeriod() float64 {
	switch tf {
	case Hourly:
		return 252 * 6.5
	default:
		return 252
	}
}

// Bar is a single OHLCV observation. Timestamps are UTC-normalized and
// monotonic within a Frame; the frame never introduces gaps that aren't
// already present in the source series.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Frame is an ordered, immutable sequence of bars for one ticker at one
// timeframe. Once constructed it is safe to share by reference across
// goroutines: nothing in this package mutates a Frame's bar slice.
type Frame struct {
	Ticker    string
	Timeframe Timeframe
	bars      []Bar
}

// New validates and constructs a Frame. Bars must already be sorted
// ascending by Timestamp with strictly increasing, unique timestamps and
// finite positive OHLC values; gaps in the source calendar are preserved
// as-is, not filled.
func New(ticker string, tf Timeframe, bars []Bar) (*Frame, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("priceframe: %s: no bars supplied", ticker)
	}
	for i, b := range bars {
		if !isFinitePositive(b.Open) || !isFinitePositive(b.High) ||
			!isFinitePositive(b.Low) || !isFinitePositive(b.Close) {
			return nil, fmt.Errorf("priceframe: %s: bar %d has non-finite or non-positive OHLC", ticker, i)
		}
		if b.Volume < 0 {
			return nil, fmt.Errorf("priceframe: %s: bar %d has negative volume", ticker, i)
		}
		if i > 0 && !b.Timestamp.After(bars[i-1].Timestamp) {
			return nil, fmt.Errorf("priceframe: %s: bar %d timestamp not strictly increasing", ticker, i)
		}
	}

	owned := make([]Bar, len(bars))
	copy(owned, bars)
	for i := range owned {
		owned[i].Timestamp = owned[i].Timestamp.UTC()
	}

	return &Frame{Ticker: ticker, Timeframe: tf, bars: owned}, nil
}

func isFinitePositive(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Len returns the number of bars.
func (f *Frame) Len() int { return len(f.bars) }

// At returns the bar at index i.
func (f *Frame) At(i int) Bar { return f.bars[i] }

// Bars returns a read-only view of the underlying bar slice. Callers must
// not mutate the returned slice's elements; this package relies on
// convention, not copy-on-read, for performance on large sweeps.
func (f *Frame) Bars() []Bar { return f.bars }

// Closes returns the close price column.
func (f *Frame) Closes() []float64 {
	out := make([]float64, len(f.bars))
	for i, b := range f.bars {
		out[i] = b.Close
	}
	return out
}

// HasWarmup reports whether the frame has more bars than the given
// warm-up requirement; len(frame) <= warmup is an InsufficientData
// condition for the caller.
func (f *Frame) HasWarmup(warmup int) bool {
	return len(f.bars) > warmup
}

// Slice returns the sub-frame [start:end) sharing the same underlying
// array (read-only, never mutated downstream).
func (f *Frame) Slice(start, end int) []Bar {
	return f.bars[start:end]
}

// Package backtest simulates position state, builds the trade list and
// equity curve, and computes the canonical PortfolioMetrics set for a
// single (ticker, strategy, side) combination.
package backtest

import (
	"time"

	"github.com/sawpanic/quantsweep/internal/signals"
)

// Trade is a single completed (or still-open, mark-to-last-close) position.
type Trade struct {
	EntryTime  time.Time
	EntryPrice float64
	ExitTime   time.Time
	ExitPrice  float64
	Side       signals.Side
	Return     float64 // decimal fraction, signed
	Duration   int      // bars held
	MFE        float64 // peak favorable excursion, decimal fraction
	MAE        float64 // peak adverse excursion, decimal fraction
	StillOpen  bool
}

// EquityCurve is a bar-indexed cumulative return multiplier series
// starting at 1.0 at the first bar after warm-up.
type EquityCurve struct {
	Timestamps []time.Time
	Values     []float64
}

// Last returns the final equity value, or 1.0 for an empty curve.
func (c EquityCurve) Last() float64 {
	if len(c.Values) == 0 {
		return 1.0
	}
	return c.Values[len(c.Values)-1]
}

// PortfolioMetrics is the canonical per-run metric set.
type PortfolioMetrics struct {
	Trades             int     `json:"trades"`
	WinRate            float64 `json:"win_rate"`
	TotalReturn        float64 `json:"total_return"`
	AvgWinningTrade    float64 `json:"avg_winning_trade"`
	AvgLosingTrade     float64 `json:"avg_losing_trade"`
	ProfitFactor       float64 `json:"profit_factor"` // may be +Inf (no losers) or NaN (no trades)
	ExpectancyPerTrade float64 `json:"expectancy_per_trade"`
	Sharpe             float64 `json:"sharpe"`
	Sortino            float64 `json:"sortino"`
	Omega              float64 `json:"omega"`
	MaxDrawdown        float64 `json:"max_drawdown"`
	Calmar             float64 `json:"calmar"` // NaN if max drawdown is 0
	BeatsBnH           bool    `json:"beats_bnh"`
	Score              float64 `json:"score"` // populated by internal/portfolio, 0 otherwise
}

// Result bundles everything the backtester produces for one run.
type Result struct {
	Trades  []Trade
	Equity  EquityCurve
	Metrics PortfolioMetrics
}

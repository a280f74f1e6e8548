// Package portfolio gates, scores and aggregates PortfolioRows produced
// by a sweep: the MinimumCriteria filter, the Most/Least/Mean/Median
// metric-type bucketing, and the BestAggregator dedup-and-concatenate
// pass.
package portfolio

import (
	"fmt"

	"github.com/sawpanic/quantsweep/internal/backtest"
	"github.com/sawpanic/quantsweep/internal/signals"
)

// StrategyId identifies one (ticker, strategy shape) combination.
type StrategyId struct {
	Ticker       string      `json:"ticker"`
	Tag          signals.Tag `json:"tag"`
	Fast         int         `json:"fast"`
	Slow         int         `json:"slow"`
	SignalWindow int         `json:"signal_window"`
}

// Key returns a stable, comparable string for use as a map key.
func (id StrategyId) Key() string {
	return fmt.Sprintf("%s|%s|%d|%d|%d", id.Ticker, id.Tag, id.Fast, id.Slow, id.SignalWindow)
}

// Less orders two StrategyIds lexicographically by (fast, slow, signal),
// the tie-break rule used throughout the filter/aggregator.
func (id StrategyId) Less(other StrategyId) bool {
	if id.Fast != other.Fast {
		return id.Fast < other.Fast
	}
	if id.Slow != other.Slow {
		return id.Slow < other.Slow
	}
	return id.SignalWindow < other.SignalWindow
}

// PortfolioRow is one sweep output: a strategy identity plus its run
// metrics, optionally carrying a metric-type label attached by the
// filter stage.
type PortfolioRow struct {
	ID         StrategyId                `json:"id"`
	Side       signals.Side              `json:"side"`
	Metrics    backtest.PortfolioMetrics `json:"metrics"`
	MetricType string                    `json:"metric_type,omitempty"` // empty until the filter stage attaches a label
}

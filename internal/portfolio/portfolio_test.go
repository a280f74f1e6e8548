package portfolio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/quantsweep/internal/backtest"
	"github.com/sawpanic/quantsweep/internal/signals"
)

func row(ticker string, fast, slow int, sharpe, totalReturn, avgWin float64, trades int, label string) PortfolioRow {
	return PortfolioRow{
		ID:   StrategyId{Ticker: ticker, Tag: signals.TagSmaCross, Fast: fast, Slow: slow},
		Side: signals.Long,
		Metrics: backtest.PortfolioMetrics{
			Sharpe:          sharpe,
			TotalReturn:     totalReturn,
			AvgWinningTrade: avgWin,
			Trades:          trades,
			Score:           sharpe, // scored input already assumed normalized for these tests
		},
		MetricType: label,
	}
}

// A filter output contains four rows all sharing StrategyId =
// (NDAQ, SMA, 57, 63), with labels Most Total Return, Median Total
// Trades, Mean Avg Winning Trade, Most Sharpe. BestAggregator output:
// exactly one row with that StrategyId; metric_type concatenates all
// four labels in bucket-priority-then-alpha order.
func TestScenarioBBestAggregatorConcatenatesLabels(t *testing.T) {
	id := StrategyId{Ticker: "NDAQ", Tag: signals.TagSmaCross, Fast: 57, Slow: 63}
	candidates := []PortfolioRow{
		{ID: id, MetricType: "Most Total Return", Metrics: backtest.PortfolioMetrics{Score: 0.4}},
		{ID: id, MetricType: "Median Total Trades", Metrics: backtest.PortfolioMetrics{Score: 0.9}},
		{ID: id, MetricType: "Mean Avg Winning Trade", Metrics: backtest.PortfolioMetrics{Score: 0.2}},
		{ID: id, MetricType: "Most Sharpe", Metrics: backtest.PortfolioMetrics{Score: 0.1}},
	}

	out := Aggregate(candidates)
	require.Len(t, out, 1)
	assert.Equal(t, id, out[0].ID)
	assert.Equal(t, "Most Sharpe, Most Total Return, Mean Avg Winning Trade, Median Total Trades", out[0].MetricType)
	assert.Equal(t, 0.9, out[0].Metrics.Score, "expected metrics taken from the highest-score member")
}

// Non-negotiable invariant: for any group of size k >= 1, the output row
// carries exactly k labels (after dedup of identical labels).
func TestAggregateNeverDropsLabels(t *testing.T) {
	id := StrategyId{Ticker: "AAPL", Tag: signals.TagSmaCross, Fast: 10, Slow: 20}

	sizes := []int{1, 2, 3, 4, 5, 6, 8}
	labelPool := []string{
		"Most Sharpe", "Least Sharpe", "Mean Sharpe", "Median Sharpe",
		"Most Total Return", "Least Total Return", "Mean Total Return", "Median Total Return",
	}

	for _, k := range sizes {
		var candidates []PortfolioRow
		for i := 0; i < k; i++ {
			candidates = append(candidates, PortfolioRow{
				ID:         id,
				MetricType: labelPool[i%len(labelPool)],
				Metrics:    backtest.PortfolioMetrics{Score: float64(i)},
			})
		}

		out := Aggregate(candidates)
		require.Len(t, out, 1)

		wantLabels := map[string]bool{}
		for i := 0; i < k; i++ {
			wantLabels[labelPool[i%len(labelPool)]] = true
		}
		gotLabels := strings.Split(out[0].MetricType, ", ")
		assert.Len(t, gotLabels, len(wantLabels), "group of size %d must not collapse to fewer labels than its distinct label count", k)
		for _, l := range gotLabels {
			assert.Contains(t, wantLabels, l)
		}
	}
}

func TestMinimumCriteriaFailsOnUndefinedProfitFactorWhenGated(t *testing.T) {
	pf := 1.0
	mc := MinimumCriteria{ProfitFactor: &pf}
	rows := []PortfolioRow{
		{Metrics: backtest.PortfolioMetrics{ProfitFactor: 1.5}},
		{Metrics: backtest.PortfolioMetrics{ProfitFactor: 0.5}},
		{Metrics: backtest.PortfolioMetrics{ProfitFactor: nan()}},
	}
	out := mc.Apply(rows)
	require.Len(t, out, 1)
	assert.Equal(t, 1.5, out[0].Metrics.ProfitFactor)
}

func TestMetricTypeCandidatesTieBreakIsLowestLexStrategyId(t *testing.T) {
	rows := []PortfolioRow{
		row("T", 5, 10, 1.0, 0, 0, 0, ""),
		row("T", 3, 10, 1.0, 0, 0, 0, ""), // same sharpe, lower fast wins the tie
	}
	candidates := MetricTypeCandidates(rows, []MetricAccessor{
		{"Sharpe", func(r PortfolioRow) float64 { return r.Metrics.Sharpe }},
	})
	var most PortfolioRow
	for _, c := range candidates {
		if c.MetricType == "Most Sharpe" {
			most = c
		}
	}
	assert.Equal(t, 3, most.ID.Fast)
}

func nan() float64 {
	var zero float64
	return zero / zero
}

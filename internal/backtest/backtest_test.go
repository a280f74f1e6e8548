package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/sawpanic/quantsweep/internal/priceframe"
	"github.com/sawpanic/quantsweep/internal/signals"
)

func rampFrame(t *testing.T, n int, start float64) *priceframe.Frame {
	t.Helper()
	bars := make([]priceframe.Bar, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		v := start + float64(i)
		bars[i] = priceframe.Bar{
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
			Open:      v, High: v + 1, Low: v - 1, Close: v,
			Volume: 1000,
		}
	}
	f, err := priceframe.New("RAMP", priceframe.Daily, bars)
	if err != nil {
		t.Fatalf("unexpected error building frame: %v", err)
	}
	return f
}

// closes [10..40], SmaCross{3,5}, Long: one open trade at the final bar,
// trades=1, total_return = 40/close_at_entry - 1, max_drawdown = 0,
// win_rate = 1.
func TestScenarioASmaCrossBacktest(t *testing.T) {
	f := rampFrame(t, 31, 10)
	kind := signals.SmaCross(3, 5)

	stream, err := signals.Generate(f, kind, signals.Long)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := Run(f, stream, signals.Long, kind.Warmup())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Trades) != 1 {
		t.Fatalf("expected exactly one trade, got %d", len(result.Trades))
	}
	trade := result.Trades[0]
	if !trade.StillOpen {
		t.Fatal("expected the trade to still be open at the final bar")
	}

	closeAtEntry := trade.EntryPrice
	wantReturn := 40/closeAtEntry - 1
	if math.Abs(trade.Return-wantReturn) > 1e-9 {
		t.Fatalf("expected trade return %v, got %v", wantReturn, trade.Return)
	}

	if result.Metrics.Trades != 1 {
		t.Fatalf("expected metrics.trades=1, got %d", result.Metrics.Trades)
	}
	if math.Abs(result.Metrics.TotalReturn-wantReturn) > 1e-9 {
		t.Fatalf("expected total_return %v, got %v", wantReturn, result.Metrics.TotalReturn)
	}
	if result.Metrics.MaxDrawdown != 0 {
		t.Fatalf("expected max_drawdown 0 on a monotonic ramp, got %v", result.Metrics.MaxDrawdown)
	}
	if result.Metrics.WinRate != 1 {
		t.Fatalf("expected win_rate 1, got %v", result.Metrics.WinRate)
	}
}

func TestInsufficientDataBelowWarmup(t *testing.T) {
	f := rampFrame(t, 5, 10)
	kind := signals.SmaCross(3, 5) // Warmup() == 6, frame has 5 bars

	stream, err := signals.Generate(f, kind, signals.Long)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = Run(f, stream, signals.Long, kind.Warmup())
	if err == nil {
		t.Fatal("expected an InsufficientData error")
	}
}

func TestNoTradesProducesZeroTradeMetrics(t *testing.T) {
	// A flat (constant-price) series never crosses, so no entries fire.
	n := 20
	bars := make([]priceframe.Bar, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		bars[i] = priceframe.Bar{
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
			Open:      100, High: 101, Low: 99, Close: 100,
			Volume: 1000,
		}
	}
	f, err := priceframe.New("FLAT", priceframe.Daily, bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kind := signals.SmaCross(3, 5)

	stream, err := signals.Generate(f, kind, signals.Long)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := Run(f, stream, signals.Long, kind.Warmup())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Trades) != 0 {
		t.Fatalf("expected zero trades, got %d", len(result.Trades))
	}
	if result.Metrics.WinRate != 0 {
		t.Fatalf("expected win_rate 0 with no trades, got %v", result.Metrics.WinRate)
	}
	if !math.IsNaN(result.Metrics.ProfitFactor) {
		t.Fatalf("expected profit_factor NaN with no trades, got %v", result.Metrics.ProfitFactor)
	}
}

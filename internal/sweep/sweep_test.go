package sweep

import (
	"context"
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

func TestGridCombinationsSkipsInvalidAndOrdersAscending(t *testing.T) {
	g := Grid{FastMin: 2, FastMax: 3, SlowMin: 2, SlowMax: 4}
	combos := g.Combinations(signals.TagSmaCross)

	for _, k := range combos {
		if k.Fast >= k.Slow {
			t.Fatalf("invalid combination leaked through: fast=%d slow=%d", k.Fast, k.Slow)
		}
	}

	for i := 1; i < len(combos); i++ {
		prev, cur := combos[i-1], combos[i]
		if cur.Fast < prev.Fast || (cur.Fast == prev.Fast && cur.Slow < prev.Slow) {
			t.Fatalf("combinations not in ascending (fast, slow) order at %d: %+v then %+v", i, prev, cur)
		}
	}
}

func TestGridCombinationsStepStridesBothAxes(t *testing.T) {
	g := Grid{FastMin: 2, FastMax: 8, SlowMin: 2, SlowMax: 8, Step: 3}
	combos := g.Combinations(signals.TagSmaCross)

	wantFast := map[int]bool{2: true, 5: true, 8: true}
	for _, k := range combos {
		if !wantFast[k.Fast] || !wantFast[k.Slow] {
			t.Fatalf("combination off the stride-3 grid: %+v", k)
		}
	}

	unstrided := Grid{FastMin: 2, FastMax: 8, SlowMin: 2, SlowMax: 8}
	if len(combos) >= len(unstrided.Combinations(signals.TagSmaCross)) {
		t.Fatalf("a step of 3 should enumerate fewer combinations than the unstrided grid")
	}
}

func TestRunEmitsOneRowPerValidCombination(t *testing.T) {
	f := rampFrame(t, 40, 10)
	g := Grid{FastMin: 3, FastMax: 4, SlowMin: 5, SlowMax: 6}
	sink := NewCollectorSink()

	partial, err := Run(context.Background(), f, "RAMP", signals.Long, signals.TagSmaCross, g, Config{MaxWorkers: 2}, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if partial {
		t.Fatal("expected a non-cancelled sweep to complete fully")
	}

	want := len(g.Combinations(signals.TagSmaCross))
	if len(sink.Rows) != want {
		t.Fatalf("expected %d rows, got %d", want, len(sink.Rows))
	}
}

func TestRunAttachesRsiFilterFromConfig(t *testing.T) {
	f := rampFrame(t, 40, 10) // strong monotonic rise keeps RSI pinned near 100
	g := Grid{FastMin: 3, FastMax: 4, SlowMin: 5, SlowMax: 6}

	plain := NewCollectorSink()
	_, err := Run(context.Background(), f, "RAMP", signals.Long, signals.TagSmaCross, g, Config{MaxWorkers: 2}, plain)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	filtered := NewCollectorSink()
	_, err = Run(context.Background(), f, "RAMP", signals.Long, signals.TagSmaCross, g,
		Config{MaxWorkers: 2, Rsi: &RsiFilter{Window: 5, Threshold: 50}}, filtered)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	plainByCombo := make(map[[2]int]int, len(plain.Rows))
	for _, row := range plain.Rows {
		plainByCombo[[2]int{row.ID.Fast, row.ID.Slow}] = row.Metrics.Trades
	}
	for _, row := range filtered.Rows {
		key := [2]int{row.ID.Fast, row.ID.Slow}
		if row.Metrics.Trades > plainByCombo[key] {
			t.Fatalf("overbought RSI gate should never produce more trades than the ungated run: combo %+v filtered=%d plain=%d",
				key, row.Metrics.Trades, plainByCombo[key])
		}
	}
}

func TestRunRespectsCooperativeCancellation(t *testing.T) {
	f := rampFrame(t, 40, 10)
	g := Grid{FastMin: 2, FastMax: 10, SlowMin: 11, SlowMax: 20}
	sink := NewCollectorSink()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	partial, err := Run(ctx, f, "RAMP", signals.Long, signals.TagSmaCross, g, Config{MaxWorkers: 1}, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !partial {
		t.Fatal("expected a pre-cancelled context to yield a partial sweep")
	}
}

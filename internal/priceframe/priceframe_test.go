package priceframe

import (
	"testing"
	"time"
)

func ramp(n int, start float64) []Bar {
	bars := make([]Bar, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		v := start + float64(i)
		bars[i] = Bar{
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
			Open:      v, High: v + 1, Low: v - 1, Close: v,
			Volume: 1000,
		}
	}
	return bars
}

func TestNewRejectsEmpty(t *testing.T) {
	if _, err := New("AAA", Daily, nil); err == nil {
		t.Fatal("expected error for empty bar slice")
	}
}

func TestNewRejectsNonMonotonicTimestamps(t *testing.T) {
	bars := ramp(3, 10)
	bars[2].Timestamp = bars[0].Timestamp
	if _, err := New("AAA", Daily, bars); err == nil {
		t.Fatal("expected error for non-monotonic timestamps")
	}
}

func TestNewRejectsNonPositiveClose(t *testing.T) {
	bars := ramp(3, 10)
	bars[1].Close = 0
	if _, err := New("AAA", Daily, bars); err == nil {
		t.Fatal("expected error for non-positive close")
	}
}

func TestFrameClosesAndWarmup(t *testing.T) {
	bars := ramp(10, 10)
	f, err := New("AAA", Daily, bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Len() != 10 {
		t.Fatalf("expected 10 bars, got %d", f.Len())
	}
	closes := f.Closes()
	if len(closes) != 10 || closes[0] != 10 || closes[9] != 19 {
		t.Fatalf("unexpected closes: %v", closes)
	}
	if !f.HasWarmup(9) {
		t.Fatal("expected warmup satisfied for 10 bars, warmup 9")
	}
	if f.HasWarmup(10) {
		t.Fatal("expected warmup NOT satisfied for 10 bars, warmup 10")
	}
}

func TestAnnualizationPeriod(t *testing.T) {
	if Daily.AnnualizationPeriod() != 252 {
		t.Fatalf("expected 252 for daily, got %v", Daily.AnnualizationPeriod())
	}
	if Hourly.AnnualizationPeriod() != 252*6.5 {
		t.Fatalf("expected 1638 for hourly, got %v", Hourly.AnnualizationPeriod())
	}
}

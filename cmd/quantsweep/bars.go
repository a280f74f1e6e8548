package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sawpanic/quantsweep/internal/align"
	"github.com/sawpanic/quantsweep/internal/priceframe"
)

// loadBarsCSV reads a local OHLCV CSV (timestamp,open,high,low,close,volume,
// RFC3339 timestamps) into a PriceFrame. No market-data fetch happens here:
// the bars are assumed already collected by an external, opaque PriceLoader.
func loadBarsCSV(path, ticker string, tf priceframe.Timeframe) (*priceframe.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) > 0 && records[0][0] == "timestamp" {
		records = records[1:]
	}

	bars := make([]priceframe.Bar, 0, len(records))
	for i, rec := range records {
		if len(rec) < 6 {
			return nil, fmt.Errorf("%s: row %d: expected 6 columns, got %d", path, i, len(rec))
		}
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: bad timestamp %q: %w", path, i, rec[0], err)
		}
		open, oErr := strconv.ParseFloat(rec[1], 64)
		high, hErr := strconv.ParseFloat(rec[2], 64)
		low, lErr := strconv.ParseFloat(rec[3], 64)
		closeV, cErr := strconv.ParseFloat(rec[4], 64)
		vol, vErr := strconv.ParseFloat(rec[5], 64)
		if err := firstErr(oErr, hErr, lErr, cErr, vErr); err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, i, err)
		}
		bars = append(bars, priceframe.Bar{
			Timestamp: ts, Open: open, High: high, Low: low, Close: closeV, Volume: vol,
		})
	}

	return priceframe.New(ticker, tf, bars)
}

// loadSeriesCSV reads a local timestamp,value CSV into an align.Stream, used
// to feed the concurrency-analysis command a strategy's own equity curve.
func loadSeriesCSV(path, id string) (align.Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return align.Stream{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return align.Stream{}, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) > 0 && records[0][0] == "timestamp" {
		records = records[1:]
	}

	ts := make([]time.Time, 0, len(records))
	vals := make([]float64, 0, len(records))
	for i, rec := range records {
		if len(rec) < 2 {
			return align.Stream{}, fmt.Errorf("%s: row %d: expected 2 columns, got %d", path, i, len(rec))
		}
		t, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return align.Stream{}, fmt.Errorf("%s: row %d: bad timestamp %q: %w", path, i, rec[0], err)
		}
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return align.Stream{}, fmt.Errorf("%s: row %d: bad value %q: %w", path, i, rec[1], err)
		}
		ts = append(ts, t)
		vals = append(vals, v)
	}

	return align.Stream{ID: id, Timestamps: ts, Values: vals}, nil
}

func firstErr(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

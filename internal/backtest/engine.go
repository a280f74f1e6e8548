package backtest

import (
	"time"

	"github.com/sawpanic/quantsweep/internal/errs"
	"github.com/sawpanic/quantsweep/internal/priceframe"
	"github.com/sawpanic/quantsweep/internal/signals"
)

// Run simulates stream over frame for side, producing the trade list,
// equity curve and PortfolioMetrics. warmup is the strategy's Warmup()
// bar count; len(frame) <= warmup is InsufficientData.
//
// Execution model: an entry/exit signal at bar t fills at bar t's own
// close. Fees and slippage are zero (gross returns only).
func Run(frame *priceframe.Frame, stream signals.Stream, side signals.Side, warmup int) (Result, error) {
	n := frame.Len()
	if n <= warmup {
		return Result{}, errs.New(errs.InsufficientData, "not enough bars to clear warm-up", map[string]any{
			"bars": n, "warmup": warmup,
		})
	}

	bars := frame.Bars()
	closes := frame.Closes()

	startIdx := warmup - 1
	if startIdx < 0 {
		startIdx = 0
	}

	equity := buildEquityCurve(bars, closes, stream, side, startIdx)
	trades := buildTrades(bars, closes, stream, side, startIdx)
	metrics := computeMetrics(trades, equity, closes, startIdx, frame.Timeframe)

	return Result{Trades: trades, Equity: equity, Metrics: metrics}, nil
}

// buildEquityCurve compounds bar-close returns while a position is held.
// A bar's return is attributed to the curve only if the position was
// already open coming into the bar (PositionIn[t-1]); the entry bar
// itself fills at the close and so carries no return, while the exit
// bar was held through its own close and so carries one.
func buildEquityCurve(bars []priceframe.Bar, closes []float64, stream signals.Stream, side signals.Side, startIdx int) EquityCurve {
	n := len(closes)
	curve := EquityCurve{
		Timestamps: make([]time.Time, n-startIdx),
		Values:     make([]float64, n-startIdx),
	}

	curve.Values[0] = 1.0
	curve.Timestamps[0] = bars[startIdx].Timestamp
	for t := startIdx + 1; t < n; t++ {
		idx := t - startIdx
		curve.Timestamps[idx] = bars[t].Timestamp

		mult := 1.0
		if t-1 >= 0 && stream.PositionIn[t-1] {
			periodReturn := closes[t]/closes[t-1] - 1
			if side == signals.Short {
				periodReturn = -periodReturn
			}
			mult = 1 + periodReturn
		}
		curve.Values[idx] = curve.Values[idx-1] * mult
	}
	return curve
}

// buildTrades walks the entry/exit stream and emits one Trade per
// open/close pair, closing a still-open position mark-to-last-close.
func buildTrades(bars []priceframe.Bar, closes []float64, stream signals.Stream, side signals.Side, startIdx int) []Trade {
	n := len(closes)
	var trades []Trade

	entryIdx := -1
	var mfe, mae float64

	closeTrade := func(exitIdx int, stillOpen bool) Trade {
		entryPrice := closes[entryIdx]
		exitPrice := closes[exitIdx]
		var ret float64
		if side == signals.Short {
			ret = 1 - exitPrice/entryPrice
		} else {
			ret = exitPrice/entryPrice - 1
		}
		return Trade{
			EntryTime:  bars[entryIdx].Timestamp,
			EntryPrice: entryPrice,
			ExitTime:   bars[exitIdx].Timestamp,
			ExitPrice:  exitPrice,
			Side:       side,
			Return:     ret,
			Duration:   exitIdx - entryIdx,
			MFE:        mfe,
			MAE:        mae,
			StillOpen:  stillOpen,
		}
	}

	for t := startIdx; t < n; t++ {
		if stream.Entry[t] && entryIdx < 0 {
			entryIdx = t
			mfe, mae = 0, 0
		}
		if entryIdx >= 0 {
			favorable, adverse := excursion(bars[t], closes[entryIdx], side)
			if favorable > mfe {
				mfe = favorable
			}
			if adverse < mae {
				mae = adverse
			}
		}
		if entryIdx >= 0 && stream.Exit[t] {
			trades = append(trades, closeTrade(t, false))
			entryIdx = -1
		}
	}
	if entryIdx >= 0 {
		trades = append(trades, closeTrade(n-1, true))
	}
	return trades
}

// excursion returns the signed favorable/adverse price excursion for bar
// b relative to entryPrice, oriented for side.
func excursion(b priceframe.Bar, entryPrice float64, side signals.Side) (favorable, adverse float64) {
	if side == signals.Short {
		return (entryPrice - b.Low) / entryPrice, (entryPrice - b.High) / entryPrice
	}
	return (b.High - entryPrice) / entryPrice, (b.Low - entryPrice) / entryPrice
}

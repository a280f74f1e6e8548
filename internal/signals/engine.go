package signals

import (
	"math"

	"github.com/sawpanic/quantsweep/internal/indicators"
	"github.com/sawpanic/quantsweep/internal/priceframe"
)

// Stream is a pair of aligned boolean arrays over a frame's bars, plus the
// position state after each bar.
type Stream struct {
	Entry      []bool
	Exit       []bool
	PositionIn []bool // true while a position (either side) is open
}

// state is the Flat/Long/Short position state machine.
type state int

const (
	stateFlat state = iota
	stateLong
	stateShort
)

// Generate produces the entry/exit signal stream for kind over frame,
// applying side polarity and an optional RSI confirmation filter.
// Deterministic; output length equals frame.Len().
func Generate(frame *priceframe.Frame, kind Kind, side Side) (Stream, error) {
	if err := kind.Validate(); err != nil {
		return Stream{}, err
	}

	closes := frame.Closes()
	n := len(closes)

	fastSeries, slowSeries := indicatorPair(closes, kind)

	var rsiSeries []float64
	if kind.Rsi.Attached {
		rsiSeries = indicators.RSI(closes, kind.Rsi.Window)
	}

	stream := Stream{
		Entry:      make([]bool, n),
		Exit:       make([]bool, n),
		PositionIn: make([]bool, n),
	}

	// Warmup() counts bars that must elapse before a signal may fire; the
	// first index with that many bars in its history (inclusive) is
	// Warmup()-1.
	firstEligible := kind.Warmup() - 1
	st := stateFlat

	for i := 1; i < n; i++ {
		if i < firstEligible {
			stream.PositionIn[i] = st != stateFlat
			continue
		}
		if math.IsNaN(fastSeries[i]) || math.IsNaN(slowSeries[i]) ||
			math.IsNaN(fastSeries[i-1]) || math.IsNaN(slowSeries[i-1]) {
			stream.PositionIn[i] = st != stateFlat
			continue
		}

		// At the very first warmup-eligible bar there is no meaningful
		// "prior" bar to compare against (anything before warmup is
		// forbidden from signaling regardless of indicator state), so the
		// raw indicator relation alone decides the first possible cross.
		// From the following bar onward, a genuine sign change is
		// required.
		var bullish, bearish bool
		if i == firstEligible {
			bullish = fastSeries[i] > slowSeries[i]
			bearish = fastSeries[i] < slowSeries[i]
		} else {
			bullish = fastSeries[i] > slowSeries[i] && fastSeries[i-1] <= slowSeries[i-1]
			bearish = fastSeries[i] < slowSeries[i] && fastSeries[i-1] >= slowSeries[i-1]
		}

		var longEntryRaw, shortEntryRaw, longExitRaw, shortExitRaw bool
		switch side {
		case Long:
			longEntryRaw = bullish
			longExitRaw = bearish
		case Short:
			shortEntryRaw = bearish
			shortExitRaw = bullish
		}

		if kind.Rsi.Attached && !math.IsNaN(rsiSeries[i]) {
			if side == Long && longEntryRaw && rsiSeries[i] > kind.Rsi.Threshold {
				longEntryRaw = false // overbought gate
			}
			if side == Short && shortEntryRaw && rsiSeries[i] < (100-kind.Rsi.Threshold) {
				shortEntryRaw = false // mirrored oversold gate
			}
		}

		switch st {
		case stateFlat:
			if side == Long && longEntryRaw {
				stream.Entry[i] = true
				st = stateLong
			} else if side == Short && shortEntryRaw {
				stream.Entry[i] = true
				st = stateShort
			}
		case stateLong:
			if longExitRaw {
				stream.Exit[i] = true
				st = stateFlat
			}
			// same-side re-entry while already long is ignored; there is
			// no opposite-side entry possible under a single-side engine
			// since entries/exits are defined relative to `side` only.
		case stateShort:
			if shortExitRaw {
				stream.Exit[i] = true
				st = stateFlat
			}
		}

		stream.PositionIn[i] = st != stateFlat
	}

	return stream, nil
}

// indicatorPair returns the two comparable series whose crossover defines
// entries/exits for kind: (fast,slow) SMA/EMA pairs, or (macd,signal) for
// MACD.
func indicatorPair(closes []float64, kind Kind) (fast, slow []float64) {
	switch kind.Tag {
	case TagEmaCross:
		return indicators.EMA(closes, kind.Fast), indicators.EMA(closes, kind.Slow)
	case TagMacd:
		res := indicators.MACD(closes, kind.Fast, kind.Slow, kind.SignalWindow)
		return res.Macd, res.Signal
	default: // TagSmaCross
		return indicators.SMA(closes, kind.Fast), indicators.SMA(closes, kind.Slow)
	}
}

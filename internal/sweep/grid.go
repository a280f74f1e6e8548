// Package sweep enumerates a StrategyKind parameter grid and dispatches
// one Backtester run per valid combination across a bounded worker pool.
package sweep

import "github.com/sawpanic/quantsweep/internal/signals"

// Grid bounds a Cartesian (fast, slow, signal) parameter sweep. Signal
// bounds are ignored for non-MACD tags. Step strides both the fast and
// slow axes; Step <= 0 is treated as 1.
type Grid struct {
	FastMin, FastMax     int
	SlowMin, SlowMax     int
	SignalMin, SignalMax int
	Step                 int
}

// Combinations enumerates every valid Kind in ascending (fast, slow,
// signal) order, silently skipping fast >= slow.
func (g Grid) Combinations(tag signals.Tag) []signals.Kind {
	step := g.Step
	if step <= 0 {
		step = 1
	}
	var out []signals.Kind
	for fast := g.FastMin; fast <= g.FastMax; fast += step {
		for slow := g.SlowMin; slow <= g.SlowMax; slow += step {
			if fast >= slow {
				continue
			}
			if tag != signals.TagMacd {
				out = append(out, kindFor(tag, fast, slow, 0))
				continue
			}
			signalMin, signalMax := g.SignalMin, g.SignalMax
			if signalMin == 0 && signalMax == 0 {
				signalMin, signalMax = 1, 1
			}
			for sig := signalMin; sig <= signalMax; sig++ {
				out = append(out, kindFor(tag, fast, slow, sig))
			}
		}
	}
	return out
}

func kindFor(tag signals.Tag, fast, slow, signal int) signals.Kind {
	switch tag {
	case signals.TagEmaCross:
		return signals.EmaCross(fast, slow)
	case signals.TagMacd:
		return signals.Macd(fast, slow, signal)
	default:
		return signals.SmaCross(fast, slow)
	}
}

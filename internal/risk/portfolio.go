package risk

import "math"

// CombinedEquityCurve blends per-strategy equity curves by weight w
// under a rebalanced-to-constant-weight assumption: at each bar, the
// portfolio's bar-level return is the weighted sum of each constituent's
// own bar-level return. curves[i] must all share the same length and
// timestamp alignment (the caller aligns them first, e.g. via
// internal/align).
func CombinedEquityCurve(curves [][]float64, w []float64) []float64 {
	n := len(curves)
	if n == 0 {
		return nil
	}
	t := len(curves[0])
	combined := make([]float64, t)
	if t == 0 {
		return combined
	}
	combined[0] = 1.0
	for k := 1; k < t; k++ {
		var portfolioReturn float64
		for i := 0; i < n; i++ {
			if curves[i][k-1] == 0 {
				continue
			}
			r := curves[i][k]/curves[i][k-1] - 1
			portfolioReturn += w[i] * r
		}
		combined[k] = combined[k-1] * (1 + portfolioReturn)
	}
	return combined
}

// MaxDrawdown is max_t(1 - equity[t]/running_max(equity)[0..t]), applied
// here to a combined portfolio equity curve (never a weighted average of
// individual constituent drawdowns).
func MaxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}
	runningMax := equity[0]
	maxDD := 0.0
	for _, v := range equity {
		if v > runningMax {
			runningMax = v
		}
		dd := 1 - v/runningMax
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// ExpectancyAggregate computes the weighted-mean portfolio expectancy
// per trade on the decimal scale: Sum_i w_i * expectancy_i. Every input
// expectancy must already be a decimal fraction, never a percentage —
// mixing scales here reproduces the CSV/JSON aggregation bug this
// package exists to avoid.
func ExpectancyAggregate(expectancy []float64, w []float64) float64 {
	var sum float64
	for i := range expectancy {
		sum += w[i] * expectancy[i]
	}
	return sum
}

// WithinTolerance reports whether value is within tolerance of target;
// shared by this package's own invariant checks and by internal/validate.
func WithinTolerance(value, target, tolerance float64) bool {
	return math.Abs(value-target) <= tolerance
}

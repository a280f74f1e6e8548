package backtest

import "math"

// computeMetrics derives the canonical PortfolioMetrics for one run. It
// guards every ratio against the zero-trade and zero-variance divide-by-
// zero cases rather than letting NaN/Inf propagate silently where the
// spec requires a specific sentinel.
func computeMetrics(trades []Trade, equity EquityCurve, closes []float64, startIdx int, tf annualizer) PortfolioMetrics {
	m := PortfolioMetrics{Trades: len(trades)}

	m.TotalReturn = equity.Last() - 1

	if len(trades) == 0 {
		m.WinRate = 0
		m.ProfitFactor = math.NaN()
		m.ExpectancyPerTrade = 0
	} else {
		wins, losses := 0, 0
		var sumWin, sumLoss, sumReturn float64
		for _, t := range trades {
			sumReturn += t.Return
			if t.Return > 0 {
				wins++
				sumWin += t.Return
			} else if t.Return < 0 {
				losses++
				sumLoss += -t.Return
			}
		}
		m.WinRate = float64(wins) / float64(len(trades))
		m.ExpectancyPerTrade = sumReturn / float64(len(trades))
		if wins > 0 {
			m.AvgWinningTrade = sumWin / float64(wins)
		}
		if losses > 0 {
			m.AvgLosingTrade = -sumLoss / float64(losses)
		}
		switch {
		case sumLoss == 0 && wins > 0:
			m.ProfitFactor = math.Inf(1)
		case sumLoss == 0:
			m.ProfitFactor = math.NaN()
		default:
			m.ProfitFactor = sumWin / sumLoss
		}
	}

	r := logReturns(equity.Values)
	m.Sharpe = sharpe(r, tf.AnnualizationPeriod())
	m.Sortino = sortino(r, tf.AnnualizationPeriod())
	m.Omega = omega(r)
	m.MaxDrawdown = maxDrawdown(equity.Values)

	if m.MaxDrawdown == 0 {
		m.Calmar = math.NaN()
	} else {
		years := float64(len(equity.Values)) / tf.AnnualizationPeriod()
		if years > 0 {
			cagr := math.Pow(equity.Last(), 1/years) - 1
			m.Calmar = cagr / m.MaxDrawdown
		} else {
			m.Calmar = math.NaN()
		}
	}

	if startIdx < len(closes) {
		bnh := closes[len(closes)-1]/closes[startIdx] - 1
		m.BeatsBnH = m.TotalReturn > bnh
	}

	return m
}

// annualizer is the subset of priceframe.Timeframe's behavior this
// package depends on.
type annualizer interface {
	AnnualizationPeriod() float64
}

// logReturns returns the first difference of log(equity), length
// len(values)-1 (empty if fewer than 2 points).
func logReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = math.Log(values[i]) - math.Log(values[i-1])
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

// stdev is the sample standard deviation (ddof=1); 0 for fewer than 2
// points.
func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mu := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - mu
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func sharpe(r []float64, period float64) float64 {
	sd := stdev(r)
	if sd == 0 {
		return 0
	}
	return mean(r) * period / (sd * math.Sqrt(period))
}

func sortino(r []float64, period float64) float64 {
	downside := make([]float64, len(r))
	for i, v := range r {
		if v < 0 {
			downside[i] = v
		}
	}
	sd := stdev(downside)
	if sd == 0 {
		return 0
	}
	return mean(r) * period / (sd * math.Sqrt(period))
}

func omega(r []float64) float64 {
	var up, down float64
	for _, v := range r {
		if v > 0 {
			up += v
		} else if v < 0 {
			down += -v
		}
	}
	if down == 0 {
		if up == 0 {
			return math.NaN()
		}
		return math.Inf(1)
	}
	return up / down
}

// maxDrawdown returns max_t(1 - equity[t]/running_max(equity)[0..t]).
func maxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	runningMax := values[0]
	maxDD := 0.0
	for _, v := range values {
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

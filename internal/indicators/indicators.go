// Package indicators computes SMA, EMA, MACD and RSI over a close-price
// column. NaN is the explicit "undefined" sentinel for the warm-up
// prefix of each series and is never coerced to zero downstream.
package indicators

import "math"

// SMA returns the arithmetic mean of the trailing n closes at each index,
// NaN for the first n-1 indices.
func SMA(closes []float64, n int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if n <= 0 || n > len(closes) {
		return out
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		sum += closes[i]
	}
	out[n-1] = sum / float64(n)

	for i := n; i < len(closes); i++ {
		sum += closes[i] - closes[i-n]
		out[i] = sum / float64(n)
	}
	return out
}

// EMA returns the standard exponential moving average with smoothing
// alpha = 2/(n+1), seeded from the arithmetic mean of the first n closes
// at index n-1. Values before n-1 are NaN.
func EMA(closes []float64, n int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if n <= 0 || n > len(closes) {
		return out
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		sum += closes[i]
	}
	seed := sum / float64(n)
	out[n-1] = seed

	alpha := 2.0 / float64(n+1)
	prev := seed
	for i := n; i < len(closes); i++ {
		prev = closes[i]*alpha + prev*(1-alpha)
		out[i] = prev
	}
	return out
}

// emaOf computes an EMA over an arbitrary (possibly NaN-prefixed) series,
// treating the first non-NaN value as where the n-bar warm-up begins. Used
// internally for MACD's signal line, which is an EMA of the macd line
// rather than of raw closes.
func emaOf(series []float64, n int) []float64 {
	out := make([]float64, len(series))
	for i := range out {
		out[i] = math.NaN()
	}
	if n <= 0 {
		return out
	}

	start := -1
	for i, v := range series {
		if !math.IsNaN(v) {
			start = i
			break
		}
	}
	if start < 0 || start+n > len(series) {
		return out
	}

	sum := 0.0
	for i := start; i < start+n; i++ {
		sum += series[i]
	}
	seed := sum / float64(n)
	seedIdx := start + n - 1
	out[seedIdx] = seed

	alpha := 2.0 / float64(n+1)
	prev := seed
	for i := seedIdx + 1; i < len(series); i++ {
		prev = series[i]*alpha + prev*(1-alpha)
		out[i] = prev
	}
	return out
}

// MACDResult holds the macd line, its signal line, and the histogram.
type MACDResult struct {
	Macd      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes macd_line = ema_fast - ema_slow, signal_line = EMA of
// macd_line over `signal` periods (seeded at the arithmetic mean of the
// first `signal` defined macd values), and histogram = macd_line -
// signal_line. Values are NaN wherever either input EMA is undefined.
func MACD(closes []float64, fast, slow, signal int) MACDResult {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)

	macdLine := make([]float64, len(closes))
	for i := range closes {
		if math.IsNaN(emaFast[i]) || math.IsNaN(emaSlow[i]) {
			macdLine[i] = math.NaN()
			continue
		}
		macdLine[i] = emaFast[i] - emaSlow[i]
	}

	signalLine := emaOf(macdLine, signal)

	histogram := make([]float64, len(closes))
	for i := range closes {
		if math.IsNaN(macdLine[i]) || math.IsNaN(signalLine[i]) {
			histogram[i] = math.NaN()
			continue
		}
		histogram[i] = macdLine[i] - signalLine[i]
	}

	return MACDResult{Macd: macdLine, Signal: signalLine, Histogram: histogram}
}

// RSI computes Wilder's RSI: gains = max(delta, 0), losses = max(-delta, 0),
// initial avg_gain/avg_loss are the arithmetic mean of the first n values,
// subsequent values use Wilder's recurrence (prev*(n-1)+current)/n.
// RSI is 100 when avg_loss is 0. Values before the warm-up are NaN.
func RSI(closes []float64, n int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if n <= 0 || len(closes) < n+1 {
		return out
	}

	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i-1] = delta
		} else {
			losses[i-1] = -delta
		}
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 0; i < n; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(n)
	avgLoss /= float64(n)

	out[n] = rsiFromAverages(avgGain, avgLoss)

	for i := n; i < len(gains); i++ {
		avgGain = (avgGain*float64(n-1) + gains[i]) / float64(n)
		avgLoss = (avgLoss*float64(n-1) + losses[i]) / float64(n)
		out[i+1] = rsiFromAverages(avgGain, avgLoss)
	}

	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

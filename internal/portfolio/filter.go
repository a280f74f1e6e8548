package portfolio

import (
	"math"
	"sort"
)

// MinimumCriteria carries optional lower bounds; a nil field means that
// metric is not gated. A row survives iff every configured bound holds
// (inclusive comparison). A row with an undefined (NaN) ProfitFactor
// fails the gate whenever ProfitFactor is configured.
type MinimumCriteria struct {
	Trades             *int
	WinRate            *float64
	ProfitFactor       *float64
	Sortino            *float64
	ExpectancyPerTrade *float64
	BeatsBnH           *bool
}

// Apply returns the rows that survive every configured minimum.
func (mc MinimumCriteria) Apply(rows []PortfolioRow) []PortfolioRow {
	out := make([]PortfolioRow, 0, len(rows))
	for _, r := range rows {
		if mc.survives(r) {
			out = append(out, r)
		}
	}
	return out
}

func (mc MinimumCriteria) survives(r PortfolioRow) bool {
	m := r.Metrics
	if mc.Trades != nil && m.Trades < *mc.Trades {
		return false
	}
	if mc.WinRate != nil && m.WinRate < *mc.WinRate {
		return false
	}
	if mc.ProfitFactor != nil {
		if math.IsNaN(m.ProfitFactor) || m.ProfitFactor < *mc.ProfitFactor {
			return false
		}
	}
	if mc.Sortino != nil && m.Sortino < *mc.Sortino {
		return false
	}
	if mc.ExpectancyPerTrade != nil && m.ExpectancyPerTrade < *mc.ExpectancyPerTrade {
		return false
	}
	if mc.BeatsBnH != nil && *mc.BeatsBnH && !m.BeatsBnH {
		return false
	}
	return true
}

// ScoreFamily computes the normalized composite score for every row in
// rows, where rows is the full surviving set for one ticker+strategy
// family (normalization is min-max across exactly this set). Returns a
// new slice; rows is not mutated.
//
// score = (2*n(win_rate) + n(trades) + n(sortino) + n(profit_factor)
//          + n(expectancy) + n(beats_bnh_int)) / 7
func ScoreFamily(rows []PortfolioRow) []PortfolioRow {
	n := len(rows)
	out := make([]PortfolioRow, n)
	copy(out, rows)
	if n == 0 {
		return out
	}

	winRate := make([]float64, n)
	trades := make([]float64, n)
	sortino := make([]float64, n)
	profitFactor := make([]float64, n)
	expectancy := make([]float64, n)
	beatsBnH := make([]float64, n)
	for i, r := range out {
		winRate[i] = r.Metrics.WinRate
		trades[i] = float64(r.Metrics.Trades)
		sortino[i] = r.Metrics.Sortino
		profitFactor[i] = sanitizeForNormalization(r.Metrics.ProfitFactor)
		expectancy[i] = r.Metrics.ExpectancyPerTrade
		if r.Metrics.BeatsBnH {
			beatsBnH[i] = 1
		}
	}

	nWinRate := normalize(winRate)
	nTrades := normalize(trades)
	nSortino := normalize(sortino)
	nProfitFactor := normalize(profitFactor)
	nExpectancy := normalize(expectancy)
	nBeatsBnH := normalize(beatsBnH)

	for i := range out {
		out[i].Metrics.Score = (2*nWinRate[i] + nTrades[i] + nSortino[i] + nProfitFactor[i] +
			nExpectancy[i] + nBeatsBnH[i]) / 7
	}
	return out
}

// sanitizeForNormalization maps a NaN profit factor (e.g. no trades) to
// -Inf and passes every other value through. normalize then resolves
// -Inf to one below the smallest finite value, so a NaN scores as the
// column minimum, and +Inf (no losing trades) to one above the largest
// finite value, so an uncapped winner scores as the unambiguous maximum
// without producing NaN in the min-max division.
func sanitizeForNormalization(v float64) float64 {
	if math.IsNaN(v) {
		return math.Inf(-1)
	}
	return v
}

// normalize performs min-max normalization: min -> 0, max -> 1, and an
// identical column -> 0.5 everywhere. +Inf / -Inf sentinels are resolved
// against the finite range before scaling.
func normalize(values []float64) []float64 {
	out := make([]float64, len(values))
	finiteMin, finiteMax := math.Inf(1), math.Inf(-1)
	hasFinite := false
	for _, v := range values {
		if math.IsInf(v, 0) {
			continue
		}
		hasFinite = true
		if v < finiteMin {
			finiteMin = v
		}
		if v > finiteMax {
			finiteMax = v
		}
	}
	if !hasFinite {
		finiteMin, finiteMax = 0, 0
	}

	resolved := make([]float64, len(values))
	lo, hi := finiteMin, finiteMax
	for i, v := range values {
		switch {
		case math.IsInf(v, 1):
			resolved[i] = finiteMax + 1
			if hi < resolved[i] {
				hi = resolved[i]
			}
		case math.IsInf(v, -1):
			resolved[i] = finiteMin - 1
			if lo > resolved[i] {
				lo = resolved[i]
			}
		default:
			resolved[i] = v
		}
	}

	if hi == lo {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i, v := range resolved {
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}

// Bucket is the metric-type aggregation bucket; ordering matches the
// label concatenation priority Most < Mean < Median < Least.
type Bucket int

const (
	BucketMost Bucket = iota
	BucketMean
	BucketMedian
	BucketLeast
)

func (b Bucket) String() string {
	switch b {
	case BucketMost:
		return "Most"
	case BucketMean:
		return "Mean"
	case BucketMedian:
		return "Median"
	default:
		return "Least"
	}
}

// MetricAccessor extracts one named metric column's value from a row.
type MetricAccessor struct {
	Name string
	Get  func(PortfolioRow) float64
}

// DefaultMetrics is the default target metric list for metric-type
// aggregation.
var DefaultMetrics = []MetricAccessor{
	{"Total Return", func(r PortfolioRow) float64 { return r.Metrics.TotalReturn }},
	{"Total Trades", func(r PortfolioRow) float64 { return float64(r.Metrics.Trades) }},
	{"Avg Winning Trade", func(r PortfolioRow) float64 { return r.Metrics.AvgWinningTrade }},
	{"Sharpe", func(r PortfolioRow) float64 { return r.Metrics.Sharpe }},
	{"Omega", func(r PortfolioRow) float64 { return r.Metrics.Omega }},
	{"Sortino", func(r PortfolioRow) float64 { return r.Metrics.Sortino }},
}

// MetricTypeCandidates produces the four Most/Least/Mean/Median
// candidate rows for each accessor in metrics, each carrying a single
// MetricType label ("<Bucket> <metric name>"). rows must be non-empty.
func MetricTypeCandidates(rows []PortfolioRow, metrics []MetricAccessor) []PortfolioRow {
	var out []PortfolioRow
	if len(rows) == 0 {
		return out
	}

	for _, acc := range metrics {
		values := make([]float64, len(rows))
		for i, r := range rows {
			values[i] = acc.Get(r)
		}

		most := pickExtreme(rows, values, true)
		least := pickExtreme(rows, values, false)
		meanRow := pickClosestTo(rows, values, mean(values))
		medianRow := pickClosestTo(rows, values, median(values))

		out = append(out,
			withLabel(rows[most], BucketMost.String()+" "+acc.Name),
			withLabel(rows[meanRow], BucketMean.String()+" "+acc.Name),
			withLabel(rows[medianRow], BucketMedian.String()+" "+acc.Name),
			withLabel(rows[least], BucketLeast.String()+" "+acc.Name),
		)
	}
	return out
}

func withLabel(r PortfolioRow, label string) PortfolioRow {
	r.MetricType = label
	return r
}

// pickExtreme returns the index of the highest (wantMax=true) or lowest
// value, ties broken by the lowest lex (fast, slow, signal) StrategyId.
func pickExtreme(rows []PortfolioRow, values []float64, wantMax bool) int {
	best := 0
	for i := 1; i < len(rows); i++ {
		better := false
		switch {
		case values[i] != values[best]:
			better = (values[i] > values[best]) == wantMax
		case rows[i].ID.Less(rows[best].ID):
			better = true
		}
		if better {
			best = i
		}
	}
	return best
}

// pickClosestTo returns the index of the value nearest target, ties
// broken by the lowest lex StrategyId.
func pickClosestTo(rows []PortfolioRow, values []float64, target float64) int {
	best := 0
	bestDist := math.Abs(values[0] - target)
	for i := 1; i < len(rows); i++ {
		dist := math.Abs(values[i] - target)
		if dist < bestDist || (dist == bestDist && rows[i].ID.Less(rows[best].ID)) {
			best = i
			bestDist = dist
		}
	}
	return best
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var s float64
	for _, v := range values {
		s += v
	}
	return s / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

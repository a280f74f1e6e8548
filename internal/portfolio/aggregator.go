package portfolio

import (
	"sort"
	"strings"
)

// Aggregate groups candidates (the filter's Most/Least/Mean/Median
// output) by StrategyId and emits exactly one row per group. The row's
// metrics are taken from the group's highest-score member (ties: lowest
// lex StrategyId); its MetricType field concatenates every label in the
// group, sorted by bucket priority (Most < Mean < Median < Least) then
// alphabetically within bucket, with duplicate labels collapsed.
//
// This must never collapse a group of size k to fewer than k labels
// (after dedup) — see the property test in portfolio_test.go.
func Aggregate(candidates []PortfolioRow) []PortfolioRow {
	groups := make(map[string][]PortfolioRow)
	var order []string
	for _, c := range candidates {
		key := c.ID.Key()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], c)
	}

	out := make([]PortfolioRow, 0, len(order))
	for _, key := range order {
		members := groups[key]
		out = append(out, aggregateGroup(members))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Metrics.Score != out[j].Metrics.Score {
			return out[i].Metrics.Score > out[j].Metrics.Score
		}
		return out[i].ID.Less(out[j].ID)
	})
	return out
}

func aggregateGroup(members []PortfolioRow) PortfolioRow {
	best := members[0]
	for _, m := range members[1:] {
		if m.Metrics.Score > best.Metrics.Score ||
			(m.Metrics.Score == best.Metrics.Score && m.ID.Less(best.ID)) {
			best = m
		}
	}

	seen := make(map[string]bool)
	var labels []string
	for _, m := range members {
		if m.MetricType == "" || seen[m.MetricType] {
			continue
		}
		seen[m.MetricType] = true
		labels = append(labels, m.MetricType)
	}
	sort.Slice(labels, func(i, j int) bool {
		pi, ni := bucketPriority(labels[i])
		pj, nj := bucketPriority(labels[j])
		if pi != pj {
			return pi < pj
		}
		return ni < nj
	})

	best.MetricType = strings.Join(labels, ", ")
	return best
}

// bucketPriority splits a "<Bucket> <name>" label into its bucket's sort
// priority and the remaining metric name.
func bucketPriority(label string) (priority int, name string) {
	parts := strings.SplitN(label, " ", 2)
	if len(parts) != 2 {
		return int(BucketLeast) + 1, label
	}
	switch parts[0] {
	case "Most":
		return int(BucketMost), parts[1]
	case "Mean":
		return int(BucketMean), parts[1]
	case "Median":
		return int(BucketMedian), parts[1]
	case "Least":
		return int(BucketLeast), parts[1]
	default:
		return int(BucketLeast) + 1, label
	}
}

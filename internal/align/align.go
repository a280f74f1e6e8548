// Package align builds a shared-timestamp return matrix from N
// independently timed equity curves.
package align

import (
	"math"
	"time"

	"github.com/sawpanic/quantsweep/internal/errs"
)

// Policy selects how the shared timestamp index T is built from N
// independently timed streams.
type Policy int

const (
	// Intersection keeps only timestamps common to every stream.
	Intersection Policy = iota
	// UnionForwardFill keeps the union of all timestamps, treating a
	// stream's missing bars as flat (zero return).
	UnionForwardFill
)

const minIntersectionBars = 30

// Stream is one strategy's equity curve input to alignment.
type Stream struct {
	ID         string
	Timestamps []time.Time
	Values     []float64
}

// Outlier flags a single bar-level return exceeding the 0.5 magnitude
// bound; the aligner records these instead of silently clipping them.
type Outlier struct {
	StreamID  string
	Timestamp time.Time
	Return    float64
}

// Result is the aligned (N x T) return matrix plus its shared timestamp
// index and any flagged outliers.
type Result struct {
	Timestamps []time.Time
	Returns    [][]float64 // Returns[i] is stream i's per-bar return series, length len(Timestamps)
	Outliers   []Outlier
}

// Align builds the shared return matrix for streams under policy.
func Align(streams []Stream, policy Policy) (Result, error) {
	switch policy {
	case UnionForwardFill:
		return alignUnion(streams)
	default:
		return alignIntersection(streams)
	}
}

func alignIntersection(streams []Stream) (Result, error) {
	shared := intersectTimestamps(streams)
	if len(shared) < minIntersectionBars {
		return Result{}, errs.New(errs.InsufficientOverlap, "intersection of stream timestamps is too short", map[string]any{
			"overlap_bars": len(shared), "minimum": minIntersectionBars,
		})
	}

	returns := make([][]float64, len(streams))
	var outliers []Outlier
	for i, s := range streams {
		idx := indexOf(s.Timestamps)
		series := make([]float64, len(shared))
		for t, ts := range shared {
			curPos, ok := idx[ts]
			if !ok {
				// unreachable given ts came from the intersection
				continue
			}
			prevPos := curPos - 1
			if t == 0 {
				prevPos = firstPrecedingIndex(s.Timestamps, ts)
			}
			r := returnBetween(s.Values, prevPos, curPos)
			series[t] = r
			if math.Abs(r) > 0.5 {
				outliers = append(outliers, Outlier{StreamID: s.ID, Timestamp: ts, Return: r})
			}
		}
		returns[i] = series
	}

	return Result{Timestamps: shared, Returns: returns, Outliers: outliers}, nil
}

func alignUnion(streams []Stream) (Result, error) {
	shared := unionTimestamps(streams)

	returns := make([][]float64, len(streams))
	var outliers []Outlier
	for i, s := range streams {
		idx := indexOf(s.Timestamps)
		series := make([]float64, len(shared))
		for t, ts := range shared {
			curPos, ok := idx[ts]
			if !ok {
				series[t] = 0 // missing bar treated as flat; caller should log this as potentially biased
				continue
			}
			prevPos := curPos - 1
			if prevPos < 0 {
				series[t] = 0
				continue
			}
			r := returnBetween(s.Values, prevPos, curPos)
			series[t] = r
			if math.Abs(r) > 0.5 {
				outliers = append(outliers, Outlier{StreamID: s.ID, Timestamp: ts, Return: r})
			}
		}
		returns[i] = series
	}

	return Result{Timestamps: shared, Returns: returns, Outliers: outliers}, nil
}

func returnBetween(values []float64, prev, cur int) float64 {
	if prev < 0 || cur < 0 || cur >= len(values) || prev >= len(values) {
		return 0
	}
	if values[prev] == 0 {
		return 0
	}
	return values[cur]/values[prev] - 1
}

func indexOf(ts []time.Time) map[time.Time]int {
	m := make(map[time.Time]int, len(ts))
	for i, t := range ts {
		m[t] = i
	}
	return m
}

// firstPrecedingIndex finds the position of the bar immediately before
// ts in series, so the first retained intersection bar never carries a
// leading NaN return.
func firstPrecedingIndex(series []time.Time, ts time.Time) int {
	for i, t := range series {
		if t.Equal(ts) {
			return i - 1
		}
	}
	return -1
}

func intersectTimestamps(streams []Stream) []time.Time {
	if len(streams) == 0 {
		return nil
	}
	counts := make(map[time.Time]int)
	for _, s := range streams {
		seen := make(map[time.Time]bool)
		for _, t := range s.Timestamps {
			if seen[t] {
				continue
			}
			seen[t] = true
			counts[t]++
		}
	}
	var shared []time.Time
	for _, t := range streams[0].Timestamps {
		if counts[t] == len(streams) {
			shared = append(shared, t)
		}
	}
	return shared
}

func unionTimestamps(streams []Stream) []time.Time {
	seen := make(map[time.Time]bool)
	var all []time.Time
	for _, s := range streams {
		for _, t := range s.Timestamps {
			if !seen[t] {
				seen[t] = true
				all = append(all, t)
			}
		}
	}
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j].Before(all[j-1]); j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}
	return all
}

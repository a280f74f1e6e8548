// Package validate asserts bounded discrepancies between an aggregated
// concurrency-analysis manifest and the per-strategy truth that fed it,
// raising ValidationFailed with the specific predicate that tripped.
package validate

import (
	"time"

	"github.com/sawpanic/quantsweep/internal/errs"
)

// ConstituentFact is the per-strategy truth a Report is validated
// against.
type ConstituentFact struct {
	MaxDrawdown    float64
	Sharpe         float64
	EntryTimestamps []time.Time
}

// PortfolioFact is the portfolio-level figure produced by the risk
// engine for the same run.
type PortfolioFact struct {
	MaxDrawdown float64
	Sharpe      float64
	Correlations [][]float64 // pairwise correlation matrix, same order as constituents
}

const drawdownSlack = 0.01 // +1 percentage point allowance for rebalancing effects

// DrawdownBound checks that the aggregate portfolio drawdown does not
// exceed the largest constituent drawdown by more than drawdownSlack.
func DrawdownBound(constituents []ConstituentFact, portfolio PortfolioFact) error {
	maxConstituent := 0.0
	for _, c := range constituents {
		if c.MaxDrawdown > maxConstituent {
			maxConstituent = c.MaxDrawdown
		}
	}
	if portfolio.MaxDrawdown > maxConstituent+drawdownSlack {
		return errs.New(errs.ValidationFailed, "portfolio drawdown exceeds constituent bound", map[string]any{
			"portfolio_max_drawdown": portfolio.MaxDrawdown,
			"constituent_bound":      maxConstituent + drawdownSlack,
		})
	}
	return nil
}

// SharpeSignPreservation checks that if every constituent Sharpe is
// positive and every pairwise correlation is non-negative, the portfolio
// Sharpe is also positive.
func SharpeSignPreservation(constituents []ConstituentFact, portfolio PortfolioFact) error {
	allPositive := true
	for _, c := range constituents {
		if c.Sharpe <= 0 {
			allPositive = false
			break
		}
	}
	if !allPositive {
		return nil
	}
	allNonNegativeCorr := true
	for _, row := range portfolio.Correlations {
		for _, v := range row {
			if v < 0 {
				allNonNegativeCorr = false
			}
		}
	}
	if !allNonNegativeCorr {
		return nil
	}
	if portfolio.Sharpe <= 0 {
		return errs.New(errs.ValidationFailed, "sign preservation violated: all-positive constituent Sharpes and non-negative correlations produced a non-positive portfolio Sharpe", map[string]any{
			"portfolio_sharpe": portfolio.Sharpe,
		})
	}
	return nil
}

// SignalCountSanity checks that the number of distinct trading bars
// (the union of entry timestamps across constituents) falls within
// [max_individual, sum_individual].
func SignalCountSanity(constituents []ConstituentFact) error {
	seen := make(map[time.Time]bool)
	maxIndividual := 0
	sumIndividual := 0
	for _, c := range constituents {
		if len(c.EntryTimestamps) > maxIndividual {
			maxIndividual = len(c.EntryTimestamps)
		}
		sumIndividual += len(c.EntryTimestamps)
		for _, ts := range c.EntryTimestamps {
			seen[ts] = true
		}
	}
	distinct := len(seen)
	if distinct < maxIndividual || distinct > sumIndividual {
		return errs.New(errs.ValidationFailed, "distinct trading bar count outside [max_individual, sum_individual]", map[string]any{
			"distinct": distinct, "max_individual": maxIndividual, "sum_individual": sumIndividual,
		})
	}
	return nil
}

// All runs every check, returning the first failure encountered.
func All(constituents []ConstituentFact, portfolio PortfolioFact) error {
	if err := DrawdownBound(constituents, portfolio); err != nil {
		return err
	}
	if err := SharpeSignPreservation(constituents, portfolio); err != nil {
		return err
	}
	if err := SignalCountSanity(constituents); err != nil {
		return err
	}
	return nil
}

package validate

import (
	"testing"
	"time"
)

// Constituents with individual max-drawdowns [0.30, 0.40]; a portfolio
// max-drawdown computed correctly (<= 0.41) passes, but a simulated bug
// that returns a weighted average of 0.25 is caught by this check.
func TestScenarioFValidatorCatchesUnderstatedDrawdown(t *testing.T) {
	constituents := []ConstituentFact{{MaxDrawdown: 0.30}, {MaxDrawdown: 0.40}}

	correct := PortfolioFact{MaxDrawdown: 0.38}
	if err := DrawdownBound(constituents, correct); err != nil {
		t.Fatalf("expected a plausible portfolio drawdown to pass, got %v", err)
	}

	buggy := PortfolioFact{MaxDrawdown: 0.25} // weighted-average-of-individual-MDDs bug
	if err := DrawdownBound(constituents, buggy); err == nil {
		t.Fatal("expected the understated drawdown bug to be caught")
	}
}

func TestDrawdownBoundAllowsOnePercentSlack(t *testing.T) {
	constituents := []ConstituentFact{{MaxDrawdown: 0.40}}
	within := PortfolioFact{MaxDrawdown: 0.41}
	if err := DrawdownBound(constituents, within); err != nil {
		t.Fatalf("expected the 1pp slack to be allowed, got %v", err)
	}
	beyond := PortfolioFact{MaxDrawdown: 0.42}
	if err := DrawdownBound(constituents, beyond); err == nil {
		t.Fatal("expected exceeding the 1pp slack to fail")
	}
}

func TestSharpeSignPreservationFlagsRegression(t *testing.T) {
	constituents := []ConstituentFact{{Sharpe: 1.2}, {Sharpe: 0.8}}
	portfolio := PortfolioFact{
		Sharpe:       -0.1,
		Correlations: [][]float64{{1, 0.3}, {0.3, 1}},
	}
	if err := SharpeSignPreservation(constituents, portfolio); err == nil {
		t.Fatal("expected a non-positive portfolio Sharpe to fail sign preservation")
	}
}

func TestSharpeSignPreservationSkipsWhenCorrelationNegative(t *testing.T) {
	constituents := []ConstituentFact{{Sharpe: 1.2}, {Sharpe: 0.8}}
	portfolio := PortfolioFact{
		Sharpe:       -0.1,
		Correlations: [][]float64{{1, -0.3}, {-0.3, 1}},
	}
	if err := SharpeSignPreservation(constituents, portfolio); err != nil {
		t.Fatalf("expected the check to not apply under negative correlation, got %v", err)
	}
}

func TestSignalCountSanityBounds(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := base
	b := base.Add(24 * time.Hour)
	c := base.Add(48 * time.Hour)

	constituents := []ConstituentFact{
		{EntryTimestamps: []time.Time{a, b}},
		{EntryTimestamps: []time.Time{b, c}},
	}
	if err := SignalCountSanity(constituents); err != nil {
		t.Fatalf("expected distinct count within bounds, got %v", err)
	}
}

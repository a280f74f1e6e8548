package risk

import (
	"math"
	"testing"
)

func TestSampleCovarianceSymmetricAndDiagonalPositive(t *testing.T) {
	r := [][]float64{
		{0.01, 0.02, -0.01, 0.03, 0.00},
		{0.02, 0.01, -0.02, 0.01, 0.01},
	}
	sigma := SampleCovariance(r)
	if sigma[0][1] != sigma[1][0] {
		t.Fatalf("expected symmetric covariance, got %v vs %v", sigma[0][1], sigma[1][0])
	}
	if sigma[0][0] <= 0 || sigma[1][1] <= 0 {
		t.Fatalf("expected positive variances, got %v %v", sigma[0][0], sigma[1][1])
	}
}

func TestCovarianceShrinksRankDeficientIdenticalStreams(t *testing.T) {
	// Two identical return streams produce a singular-but-PSD sample
	// covariance (eigenvalues {2v, 0}): min eigenvalue reads as ~0,
	// clearing eigenvalueFloor, but rank(sigma) is 1 < N=2.
	stream := []float64{0.01, 0.02, -0.01, 0.03, 0.00, 0.015, -0.02}
	r := [][]float64{stream, append([]float64(nil), stream...)}

	sigma := SampleCovariance(r)
	if rank(sigma) >= len(sigma) {
		t.Fatalf("expected the raw sample covariance to be rank-deficient, got rank %d", rank(sigma))
	}

	shrunk, err := Covariance(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rank(shrunk) < len(shrunk) {
		t.Fatalf("expected Ledoit-Wolf shrinkage to restore full rank, got rank %d", rank(shrunk))
	}
	if shrunk[0][1] == sigma[0][1] {
		t.Fatal("expected shrinkage to actually change the off-diagonal covariance")
	}
}

func TestRankCountsPivotsAboveTolerance(t *testing.T) {
	full := Matrix{{2, 0}, {0, 3}}
	if got := rank(full); got != 2 {
		t.Fatalf("expected a full-rank diagonal matrix to have rank 2, got %d", got)
	}

	deficient := Matrix{{1, 1}, {1, 1}}
	if got := rank(deficient); got != 1 {
		t.Fatalf("expected a rank-1 matrix to report rank 1, got %d", got)
	}

	zero := NewMatrix(3)
	if got := rank(zero); got != 0 {
		t.Fatalf("expected the zero matrix to report rank 0, got %d", got)
	}
}

func TestEqualWeightAllocation(t *testing.T) {
	sigma := NewMatrix(3)
	w, err := Allocate(sigma, EqualWeight, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sum float64
	for _, v := range w {
		sum += v
		if math.Abs(v-1.0/3) > 1e-9 {
			t.Fatalf("expected equal weights of 1/3, got %v", v)
		}
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("expected weights to sum to 1, got %v", sum)
	}
}

func TestInverseVolatilityAllocationFavorsLowerVol(t *testing.T) {
	sigma := NewMatrix(2)
	sigma[0][0] = 0.01 // low vol
	sigma[1][1] = 0.04 // high vol
	w, err := Allocate(sigma, InverseVolatility, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w[0] <= w[1] {
		t.Fatalf("expected the lower-volatility strategy to receive more weight, got %v vs %v", w[0], w[1])
	}
}

func TestRiskParityEqualizesContributions(t *testing.T) {
	sigma := NewMatrix(2)
	sigma[0][0] = 0.02
	sigma[1][1] = 0.08
	sigma[0][1] = 0.01
	sigma[1][0] = 0.01

	w, err := Allocate(sigma, RiskParity, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sigmaP := PortfolioVolatility(sigma, w)
	rc := RiskContribution(sigma, w, sigmaP)
	if math.Abs(rc[0]-rc[1]) > 1e-3*sigmaP {
		t.Fatalf("expected near-equal risk contributions, got %v vs %v", rc[0], rc[1])
	}
}

func TestRiskContributionSumsToPortfolioVolatility(t *testing.T) {
	sigma := NewMatrix(3)
	for i := 0; i < 3; i++ {
		sigma[i][i] = 0.01 * float64(i+1)
	}
	w := allocateEqualWeight(3)
	sigmaP := PortfolioVolatility(sigma, w)
	rc := RiskContribution(sigma, w, sigmaP)
	var sum float64
	for _, v := range rc {
		sum += v
	}
	if !WithinTolerance(sum, sigmaP, 0.1*sigmaP) {
		t.Fatalf("expected risk contributions to sum to sigma_p within tolerance, got %v vs %v", sum, sigmaP)
	}
}

func TestCombinedEquityCurveMaxDrawdownNotWeightedAverage(t *testing.T) {
	// constituent A never draws down, constituent B draws down 40%;
	// a naive weighted average of individual MDDs at 50/50 would give
	// 0.20, but the combined-curve drawdown can legitimately differ.
	curveA := []float64{1, 1.1, 1.2, 1.3, 1.4}
	curveB := []float64{1, 1.2, 0.9, 0.72, 0.9} // dips 40% from peak 1.2 to 0.72

	combined := CombinedEquityCurve([][]float64{curveA, curveB}, []float64{0.5, 0.5})
	mdd := MaxDrawdown(combined)

	naiveAverage := 0.5*0 + 0.5*0.4
	if math.Abs(mdd-naiveAverage) < 1e-6 {
		t.Fatalf("expected combined-curve drawdown to differ from the naive weighted average %v, got identical %v", naiveAverage, mdd)
	}
}

func TestExpectancyAggregateIsWeightedMean(t *testing.T) {
	got := ExpectancyAggregate([]float64{0.02, 0.04}, []float64{0.25, 0.75})
	want := 0.25*0.02 + 0.75*0.04
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	r := [][]float64{
		{0.01, -0.01, 0.02, 0.00, 0.015, -0.005, 0.01, 0.02, -0.01, 0.005},
		{0.015, -0.005, 0.01, 0.005, 0.02, -0.01, 0.005, 0.015, -0.015, 0.01},
	}
	curves := [][]float64{
		{1, 1.01, 1.0, 1.02, 1.02, 1.035, 1.030, 1.04, 1.06, 1.05},
		{1, 1.015, 1.01, 1.02, 1.025, 1.045, 1.034, 1.039, 1.054, 1.038},
	}
	report, err := Analyze(Input{
		Returns:      r,
		EquityCurves: curves,
		Expectancy:   []float64{0.01, 0.012},
		Method:       RiskParity,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sum float64
	for _, w := range report.Weights {
		sum += w
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("expected allocation weights to sum to 1, got %v", sum)
	}
}

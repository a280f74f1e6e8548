package risk

import "github.com/sawpanic/quantsweep/internal/errs"

// Report is the RiskReport derived structure: the covariance matrix,
// portfolio volatility, portfolio drawdown, per-strategy risk
// contributions, allocation weights and the method that produced them.
type Report struct {
	Covariance        Matrix
	Volatility        float64
	MaxDrawdown       float64
	RiskContributions []float64
	Weights           []float64
	Method            AllocationMethod
	ExpectancyPerTrade float64
}

// Input bundles everything Analyze needs for one concurrency-analysis
// run over N strategies already aligned onto a shared calendar.
type Input struct {
	Returns     [][]float64 // N x T aligned return matrix
	EquityCurves [][]float64 // N x T aligned equity curves, same calendar as Returns
	Expectancy  []float64   // per-strategy expectancy_per_trade, decimal scale
	Method      AllocationMethod
	Ratios      []float64 // only consulted for RatioBased
}

// Analyze runs the full RiskEngine contract: covariance (with shrinkage
// fallback), allocation weights, portfolio volatility and drawdown, risk
// contributions, and expectancy aggregation.
func Analyze(in Input) (Report, error) {
	sigma, err := Covariance(in.Returns)
	if err != nil {
		return Report{}, err
	}

	w, err := Allocate(sigma, in.Method, in.Ratios)
	if err != nil {
		return Report{}, err
	}

	sigmaP := PortfolioVolatility(sigma, w)
	rc := RiskContribution(sigma, w, sigmaP)

	var rcSum float64
	for _, v := range rc {
		rcSum += v
	}
	if sigmaP > 0 && !WithinTolerance(rcSum, sigmaP, 0.1*sigmaP) {
		return Report{}, errs.New(errs.InternalInvariant, "risk contributions do not sum to portfolio volatility within tolerance", map[string]any{
			"sum": rcSum, "sigma_p": sigmaP,
		})
	}

	combined := CombinedEquityCurve(in.EquityCurves, w)
	mdd := MaxDrawdown(combined)

	expectancy := ExpectancyAggregate(in.Expectancy, w)

	return Report{
		Covariance:         sigma,
		Volatility:         sigmaP,
		MaxDrawdown:        mdd,
		RiskContributions:  rc,
		Weights:            w,
		Method:             in.Method,
		ExpectancyPerTrade: expectancy,
	}, nil
}

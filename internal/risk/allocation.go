package risk

import (
	"math"

	"github.com/sawpanic/quantsweep/internal/errs"
)

// AllocationMethod selects how portfolio weights are derived.
type AllocationMethod string

const (
	EqualWeight       AllocationMethod = "EqualWeight"
	InverseVolatility AllocationMethod = "InverseVolatility"
	RiskParity        AllocationMethod = "RiskParity"
	RatioBased        AllocationMethod = "RatioBased"
)

const (
	riskParityTolerance  = 1e-6
	riskParityIterations = 500
)

// Allocate computes portfolio weights under method. ratios is only
// consulted for RatioBased and must be non-negative and not all zero.
func Allocate(sigma Matrix, method AllocationMethod, ratios []float64) ([]float64, error) {
	n := len(sigma)
	switch method {
	case InverseVolatility:
		return allocateInverseVolatility(sigma), nil
	case RiskParity:
		return allocateRiskParity(sigma)
	case RatioBased:
		return allocateRatioBased(ratios, n)
	default:
		return allocateEqualWeight(n), nil
	}
}

func allocateEqualWeight(n int) []float64 {
	w := make([]float64, n)
	if n == 0 {
		return w
	}
	for i := range w {
		w[i] = 1.0 / float64(n)
	}
	return w
}

func allocateInverseVolatility(sigma Matrix) []float64 {
	n := len(sigma)
	w := make([]float64, n)
	var sum float64
	for i := 0; i < n; i++ {
		vol := math.Sqrt(sigma[i][i])
		if vol == 0 {
			continue
		}
		w[i] = 1.0 / vol
		sum += w[i]
	}
	if sum == 0 {
		return allocateEqualWeight(n)
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

func allocateRatioBased(ratios []float64, n int) ([]float64, error) {
	if len(ratios) != n {
		return nil, errs.New(errs.ValidationFailed, "ratio-based allocation requires one ratio per strategy", map[string]any{
			"strategies": n, "ratios": len(ratios),
		})
	}
	var sum float64
	for _, r := range ratios {
		if r < 0 {
			return nil, errs.New(errs.ValidationFailed, "ratio-based allocation ratios must be non-negative", nil)
		}
		sum += r
	}
	if sum == 0 {
		return nil, errs.New(errs.ValidationFailed, "ratio-based allocation ratios cannot all be zero", nil)
	}
	w := make([]float64, n)
	for i, r := range ratios {
		w[i] = r / sum
	}
	return w, nil
}

// allocateRiskParity solves for weights with equal risk contribution via
// iterative scaling: each weight is nudged in proportion to the inverse
// of its current risk contribution, renormalized to sum to 1 each pass.
func allocateRiskParity(sigma Matrix) ([]float64, error) {
	n := len(sigma)
	w := allocateEqualWeight(n)
	if n == 0 {
		return w, nil
	}

	for iter := 0; iter < riskParityIterations; iter++ {
		sigmaP := portfolioVolatility(sigma, w)
		if sigmaP == 0 {
			return w, nil
		}
		rc := RiskContribution(sigma, w, sigmaP)

		maxRC, minRC := rc[0], rc[0]
		for _, v := range rc {
			if v > maxRC {
				maxRC = v
			}
			if v < minRC {
				minRC = v
			}
		}
		if maxRC-minRC < riskParityTolerance*sigmaP {
			return w, nil
		}

		next := make([]float64, n)
		var sum float64
		for i := range w {
			adj := w[i]
			if rc[i] > 0 {
				adj = w[i] * (sigmaP / float64(n)) / rc[i]
			}
			if adj <= 0 {
				adj = w[i]
			}
			next[i] = adj
			sum += adj
		}
		if sum == 0 {
			return w, nil
		}
		for i := range next {
			next[i] /= sum
		}
		w = next
	}

	return nil, errs.New(errs.AllocationDivergent, "risk parity iterative scaling did not converge", map[string]any{
		"iterations": riskParityIterations,
	})
}

// portfolioVolatility returns sqrt(w^T Sigma w).
func portfolioVolatility(sigma Matrix, w []float64) float64 {
	v := matVec(sigma, w)
	variance := dot(w, v)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// PortfolioVolatility is the exported form of portfolioVolatility.
func PortfolioVolatility(sigma Matrix, w []float64) float64 {
	return portfolioVolatility(sigma, w)
}

// RiskContribution returns RC_i = w_i * (Sigma w)_i / sigma_p for each
// strategy; sums to sigma_p within tolerance.
func RiskContribution(sigma Matrix, w []float64, sigmaP float64) []float64 {
	n := len(w)
	rc := make([]float64, n)
	if sigmaP == 0 {
		return rc
	}
	sw := matVec(sigma, w)
	for i := range w {
		rc[i] = w[i] * sw[i] / sigmaP
	}
	return rc
}

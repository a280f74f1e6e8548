// Package risk computes a sample covariance matrix (with Ledoit-Wolf
// shrinkage when needed), portfolio volatility and drawdown, per-strategy
// risk contribution, and allocation weights under several modes.
package risk

import (
	"math"

	"github.com/sawpanic/quantsweep/internal/errs"
)

// Matrix is a dense N x N row-major matrix.
type Matrix [][]float64

// NewMatrix allocates an n x n zero matrix.
func NewMatrix(n int) Matrix {
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

// SampleCovariance computes Σ (ddof=1) for an N x T return matrix R
// (one row per strategy).
func SampleCovariance(r [][]float64) Matrix {
	n := len(r)
	sigma := NewMatrix(n)
	if n == 0 {
		return sigma
	}
	t := len(r[0])
	means := make([]float64, n)
	for i := 0; i < n; i++ {
		var s float64
		for _, v := range r[i] {
			s += v
		}
		means[i] = s / float64(t)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			var s float64
			for k := 0; k < t; k++ {
				s += (r[i][k] - means[i]) * (r[j][k] - means[j])
			}
			cov := 0.0
			if t > 1 {
				cov = s / float64(t-1)
			}
			sigma[i][j] = cov
			sigma[j][i] = cov
		}
	}
	return sigma
}

// minEigenvalue estimates the smallest eigenvalue of a symmetric matrix
// via power iteration on the shifted matrix (maxEig*I - m), whose largest eigenvalue
// corresponds to m's smallest. maxEig is estimated first by plain power
// iteration on m itself.
func minEigenvalue(m Matrix) float64 {
	n := len(m)
	if n == 0 {
		return 0
	}
	maxEig := powerIterationMax(m, 200)
	shifted := NewMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			shifted[i][j] = -m[i][j]
			if i == j {
				shifted[i][j] += maxEig
			}
		}
	}
	shiftedMax := powerIterationMax(shifted, 200)
	return maxEig - shiftedMax
}

// powerIterationMax estimates the dominant eigenvalue magnitude of a
// symmetric matrix by repeated normalized matrix-vector multiplication.
func powerIterationMax(m Matrix, iterations int) float64 {
	n := len(m)
	if n == 0 {
		return 0
	}
	v := make([]float64, n)
	for i := range v {
		v[i] = 1.0
	}
	normalize(v)

	var lambda float64
	for iter := 0; iter < iterations; iter++ {
		mv := matVec(m, v)
		norm := vecNorm(mv)
		if norm < 1e-15 {
			return 0
		}
		for i := range mv {
			mv[i] /= norm
		}
		lambda = dot(v, matVec(m, v))
		v = mv
	}
	return lambda
}

func matVec(m Matrix, v []float64) []float64 {
	n := len(m)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var s float64
		for j := 0; j < n; j++ {
			s += m[i][j] * v[j]
		}
		out[i] = s
	}
	return out
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func vecNorm(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}

func normalize(v []float64) {
	n := vecNorm(v)
	if n == 0 {
		return
	}
	for i := range v {
		v[i] /= n
	}
}

// rank estimates the numerical rank of a symmetric matrix via Gaussian
// elimination with partial pivoting, counting pivots whose magnitude
// clears a tolerance scaled to the matrix's own diagonal scale. This is
// independent of minEigenvalue: a matrix can be singular (rank deficient)
// while its smallest eigenvalue still reads as >= eigenvalueFloor due to
// floating-point noise, and the reverse also happens near-degenerate
// matrices that are still technically full rank.
func rank(m Matrix) int {
	n := len(m)
	if n == 0 {
		return 0
	}

	maxDiag := 0.0
	for i := 0; i < n; i++ {
		if math.Abs(m[i][i]) > maxDiag {
			maxDiag = math.Abs(m[i][i])
		}
	}
	tol := maxDiag * 1e-9
	if tol < 1e-12 {
		tol = 1e-12
	}

	a := make(Matrix, n)
	for i := range m {
		a[i] = append([]float64(nil), m[i]...)
	}

	pivotRow := 0
	for col := 0; col < n && pivotRow < n; col++ {
		best := pivotRow
		bestVal := math.Abs(a[pivotRow][col])
		for r := pivotRow + 1; r < n; r++ {
			if math.Abs(a[r][col]) > bestVal {
				bestVal = math.Abs(a[r][col])
				best = r
			}
		}
		if bestVal < tol {
			continue
		}
		a[pivotRow], a[best] = a[best], a[pivotRow]
		for r := pivotRow + 1; r < n; r++ {
			factor := a[r][col] / a[pivotRow][col]
			for c := col; c < n; c++ {
				a[r][c] -= factor * a[pivotRow][c]
			}
		}
		pivotRow++
	}
	return pivotRow
}

const eigenvalueFloor = -1e-10

// ledoitWolfShrinkage shrinks sigma toward a scaled-identity target with
// a closed-form intensity estimate (Ledoit-Wolf), returning the shrunk
// matrix.
func ledoitWolfShrinkage(r [][]float64, sigma Matrix) Matrix {
	n := len(sigma)
	if n == 0 {
		return sigma
	}
	t := 0
	if n > 0 {
		t = len(r[0])
	}

	avgVar := 0.0
	for i := 0; i < n; i++ {
		avgVar += sigma[i][i]
	}
	avgVar /= float64(n)

	target := NewMatrix(n)
	for i := 0; i < n; i++ {
		target[i][i] = avgVar
	}

	if t < 2 {
		return target
	}

	// Closed-form shrinkage intensity: pi-hat estimates the asymptotic
	// variance of the sample covariance entries; gamma-hat is the
	// squared Frobenius distance between sample and target.
	means := make([]float64, n)
	for i := 0; i < n; i++ {
		var s float64
		for _, v := range r[i] {
			s += v
		}
		means[i] = s / float64(t)
	}

	piHat := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var s float64
			for k := 0; k < t; k++ {
				d := (r[i][k]-means[i])*(r[j][k]-means[j]) - sigma[i][j]
				s += d * d
			}
			piHat += s / float64(t)
		}
	}

	gammaHat := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d := sigma[i][j] - target[i][j]
			gammaHat += d * d
		}
	}

	intensity := 0.0
	if gammaHat > 0 {
		intensity = piHat / (float64(t) * gammaHat)
	}
	if intensity < 0 {
		intensity = 0
	}
	if intensity > 1 {
		intensity = 1
	}

	shrunk := NewMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			shrunk[i][j] = intensity*target[i][j] + (1-intensity)*sigma[i][j]
		}
	}
	return shrunk
}

// Covariance returns a valid covariance matrix for r, applying
// Ledoit-Wolf shrinkage when the sample covariance is rank-deficient
// (rank(sigma) < N) or ill-conditioned (any eigenvalue below
// eigenvalueFloor), and failing with CovarianceDegenerate if shrinkage
// does not restore positive semi-definiteness and full rank. Never
// falls back to a hardcoded default correlation.
func Covariance(r [][]float64) (Matrix, error) {
	sigma := SampleCovariance(r)
	n := len(sigma)
	if rank(sigma) >= n && minEigenvalue(sigma) >= eigenvalueFloor {
		return sigma, nil
	}

	shrunk := ledoitWolfShrinkage(r, sigma)
	if rank(shrunk) < n || minEigenvalue(shrunk) < eigenvalueFloor {
		return nil, errs.New(errs.CovarianceDegenerate, "covariance remains rank-deficient or ill-conditioned after Ledoit-Wolf shrinkage", map[string]any{
			"n":    n,
			"rank": rank(shrunk),
		})
	}
	return shrunk, nil
}

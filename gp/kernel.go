// Package gp implements the Gaussian Process surrogate and acquisition
// functions used by the Bayesian optimisation manager: a proper GP
// regressor backed by gonum's Cholesky factorisation, producing posterior
// mean/variance rather than a similarity score.
package gp

import "math"

// Kernel computes the covariance between two points in feature space.
type Kernel interface {
	Eval(x, y []float64) float64
}

// RBF is the squared-exponential kernel.
type RBF struct {
	LengthScale float64
	Variance    float64
}

func (k RBF) Eval(x, y []float64) float64 {
	ls := k.LengthScale
	if ls <= 0 {
		ls = 1
	}
	variance := k.Variance
	if variance <= 0 {
		variance = 1
	}
	sumSq := 0.0
	for i := range x {
		d := x[i] - y[i]
		sumSq += d * d
	}
	return variance * math.Exp(-sumSq/(2*ls*ls))
}

// Matern is the Matern kernel with smoothness nu in {0.5, 1.5, 2.5}.
// Other values of nu fall back to nu=1.5.
type Matern struct {
	LengthScale float64
	Variance    float64
	Nu          float64
}

func (k Matern) Eval(x, y []float64) float64 {
	ls := k.LengthScale
	if ls <= 0 {
		ls = 1
	}
	variance := k.Variance
	if variance <= 0 {
		variance = 1
	}
	sumSq := 0.0
	for i := range x {
		d := x[i] - y[i]
		sumSq += d * d
	}
	r := math.Sqrt(sumSq)

	switch k.Nu {
	case 0.5:
		return variance * math.Exp(-r/ls)
	case 2.5:
		t := math.Sqrt(5) * r / ls
		return variance * (1 + t + t*t/3) * math.Exp(-t)
	default:
		t := math.Sqrt(3) * r / ls
		return variance * (1 + t) * math.Exp(-t)
	}
}

// NewKernel builds a Kernel from a matrix.GaussianProcessSpec-style
// configuration. name is one of "rbf", "matern"; anything else selects
// matern. A zero nu defaults to 1.5, matching the domain default.
func NewKernel(name string, lengthScale, nu float64) Kernel {
	if name == "rbf" {
		return RBF{LengthScale: lengthScale, Variance: 1}
	}
	if nu == 0 {
		nu = 1.5
	}
	return Matern{LengthScale: lengthScale, Variance: 1, Nu: nu}
}

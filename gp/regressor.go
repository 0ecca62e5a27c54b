package gp

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/axonml/search-core/srcherr"
)

// Regressor is a Gaussian Process regressor: fit on observed (x, y) pairs
// via Cholesky factorisation of the kernel Gram matrix, then queried for
// posterior mean/variance at new points. Observations are centred on
// their mean before fitting, standard GP practice for a zero-mean prior,
// and the mean is added back at predict time.
type Regressor struct {
	kernel Kernel
	noise  float64

	x     [][]float64
	alpha []float64 // K^-1 (y - yMean), solved once at Fit time
	yMean float64
	chol  mat.Cholesky
}

// NewRegressor builds a Regressor with the given kernel and observation
// noise variance (added to the diagonal of the Gram matrix for numerical
// stability, following standard GP practice).
func NewRegressor(kernel Kernel, noise float64) *Regressor {
	if noise <= 0 {
		noise = 1e-6
	}
	return &Regressor{kernel: kernel, noise: noise}
}

// Fit computes the Cholesky factorisation of the Gram matrix and the
// weight vector alpha = K^-1 (y - mean(y)). Returns a NumericFailureError if the
// Gram matrix is not positive definite even after the noise jitter.
func (r *Regressor) Fit(x [][]float64, y []float64) error {
	n := len(x)
	if n == 0 {
		return srcherr.NewInvalidIterationError("cannot fit a GP with zero observations", nil)
	}

	gram := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := r.kernel.Eval(x[i], x[j])
			if i == j {
				v += r.noise
			}
			gram.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(gram); !ok {
		return srcherr.NewNumericFailureError("gram matrix is not positive definite", nil)
	}

	yMean := stat.Mean(y, nil)
	centered := make([]float64, n)
	for i, yi := range y {
		centered[i] = yi - yMean
	}

	yVec := mat.NewVecDense(n, centered)
	var alphaVec mat.VecDense
	if err := chol.SolveVecTo(&alphaVec, yVec); err != nil {
		return srcherr.NewNumericFailureError("failed to solve for GP weights", err)
	}

	r.x = x
	r.yMean = yMean
	r.alpha = make([]float64, n)
	for i := 0; i < n; i++ {
		r.alpha[i] = alphaVec.AtVec(i)
	}
	r.chol = chol
	return nil
}

// Predict returns the posterior mean and standard deviation at xStar.
func (r *Regressor) Predict(xStar []float64) (mean, std float64, err error) {
	if len(r.x) == 0 {
		return 0, 0, srcherr.NewInvalidIterationError("predict called before fit", nil)
	}

	n := len(r.x)
	kStar := make([]float64, n)
	mean = r.yMean
	for i, xi := range r.x {
		kStar[i] = r.kernel.Eval(xi, xStar)
		mean += r.alpha[i] * kStar[i]
	}

	kStarVec := mat.NewVecDense(n, kStar)
	var v mat.VecDense
	if err := r.chol.SolveVecTo(&v, kStarVec); err != nil {
		return 0, 0, srcherr.NewNumericFailureError("failed to solve for posterior variance", err)
	}

	kStarStar := r.kernel.Eval(xStar, xStar)
	variance := kStarStar - mat.Dot(kStarVec, &v)
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance), nil
}

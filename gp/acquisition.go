package gp

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// AcquisitionFunction identifies which acquisition rule to score candidate
// points with.
type AcquisitionFunction string

const (
	UCB AcquisitionFunction = "ucb"
	EI  AcquisitionFunction = "ei"
	POI AcquisitionFunction = "poi"
)

// Acquisition scores a candidate point given the surrogate's posterior
// mean/std at that point and the incumbent best observed value. Every
// acquisition function here assumes a maximisation convention; the
// minimize -> negation step happens at observation time (searchspace).
type Acquisition struct {
	Function AcquisitionFunction
	Kappa    float64 // UCB exploration weight
	Xi       float64 // EI/POI exploration margin
}

// Score evaluates the acquisition function at one candidate point.
func (a Acquisition) Score(mean, std, best float64) float64 {
	switch a.Function {
	case UCB:
		return mean + a.Kappa*std
	case POI:
		if std == 0 {
			return 0
		}
		z := (mean - best - a.Xi) / std
		return normCDF(z)
	default: // EI
		if std == 0 {
			return 0
		}
		z := (mean - best - a.Xi) / std
		return (mean-best-a.Xi)*normCDF(z) + std*normPDF(z)
	}
}

func normCDF(z float64) float64 {
	return 0.5 * (1 + math.Erf(z/math.Sqrt2))
}

func normPDF(z float64) float64 {
	return math.Exp(-z*z/2) / math.Sqrt(2*math.Pi)
}

// Predictor is the minimal surface Maximize needs from a surrogate model.
type Predictor interface {
	Predict(x []float64) (mean, std float64, err error)
}

// Maximize searches for the candidate point in bounds maximising the
// acquisition function, using random multi-start followed by a
// coordinate-ascent pattern search refinement from each start. Start
// points are drawn per-dimension from distuv.Uniform so the same *rand.Rand
// the rest of the core threads through sampling stays the sole source of
// randomness. The refinement step is hand-rolled coordinate ascent
// (pattern search); no package in this corpus offers bounded black-box
// maximisation over an arbitrary Predictor.
func (a Acquisition) Maximize(pred Predictor, bounds [][2]float64, best float64, rng *rand.Rand, restarts int) ([]float64, float64, error) {
	if restarts <= 0 {
		restarts = 10
	}
	dim := len(bounds)

	var bestPoint []float64
	bestScore := math.Inf(-1)

	for i := 0; i < restarts; i++ {
		point := make([]float64, dim)
		for d := 0; d < dim; d++ {
			u := distuv.Uniform{Min: bounds[d][0], Max: bounds[d][1], Src: rng}
			point[d] = u.Rand()
		}

		point, score, err := a.patternSearch(pred, bounds, best, point)
		if err != nil {
			return nil, 0, err
		}
		if score > bestScore {
			bestScore = score
			bestPoint = point
		}
	}
	return bestPoint, bestScore, nil
}

func (a Acquisition) patternSearch(pred Predictor, bounds [][2]float64, best float64, start []float64) ([]float64, float64, error) {
	point := append([]float64(nil), start...)
	mean, std, err := pred.Predict(point)
	if err != nil {
		return nil, 0, err
	}
	score := a.Score(mean, std, best)

	step := 0.25
	const minStep = 1e-4
	for step > minStep {
		improved := false
		for d := range point {
			for _, sign := range [2]float64{1, -1} {
				span := bounds[d][1] - bounds[d][0]
				candidate := append([]float64(nil), point...)
				candidate[d] += sign * step * span
				if candidate[d] < bounds[d][0] {
					candidate[d] = bounds[d][0]
				}
				if candidate[d] > bounds[d][1] {
					candidate[d] = bounds[d][1]
				}
				mean, std, err := pred.Predict(candidate)
				if err != nil {
					return nil, 0, err
				}
				candidateScore := a.Score(mean, std, best)
				if candidateScore > score {
					point = candidate
					score = candidateScore
					improved = true
				}
			}
		}
		if !improved {
			step /= 2
		}
	}
	return point, score, nil
}

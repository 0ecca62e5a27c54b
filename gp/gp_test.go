package gp

import (
	"math"
	"math/rand"
	"testing"
)

func TestRBFKernelSelfSimilarity(t *testing.T) {
	k := RBF{LengthScale: 1, Variance: 1}
	if v := k.Eval([]float64{1, 2}, []float64{1, 2}); math.Abs(v-1) > 1e-9 {
		t.Errorf("expected self-similarity 1, got %v", v)
	}
}

func TestMaternDefaultsToNu1_5(t *testing.T) {
	k := NewKernel("matern", 1, 0)
	m, ok := k.(Matern)
	if !ok || m.Nu != 1.5 {
		t.Fatalf("expected default nu=1.5, got %+v", k)
	}
}

func TestRegressorFitPredictRecoversObservation(t *testing.T) {
	kernel := RBF{LengthScale: 1, Variance: 1}
	reg := NewRegressor(kernel, 1e-6)

	x := [][]float64{{0}, {1}, {2}}
	y := []float64{0, 1, 0}
	if err := reg.Fit(x, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mean, std, err := reg.Predict([]float64{1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(mean-1) > 0.05 {
		t.Errorf("expected mean close to 1 at observed point, got %v", mean)
	}
	if std < 0 {
		t.Errorf("expected non-negative std, got %v", std)
	}
}

func TestRegressorPredictBeforeFitErrors(t *testing.T) {
	reg := NewRegressor(RBF{LengthScale: 1, Variance: 1}, 1e-6)
	if _, _, err := reg.Predict([]float64{0}); err == nil {
		t.Fatal("expected error predicting before fit")
	}
}

func TestAcquisitionUCBMonotonicInStd(t *testing.T) {
	a := Acquisition{Function: UCB, Kappa: 2}
	low := a.Score(1, 0, 0)
	high := a.Score(1, 1, 0)
	if high <= low {
		t.Errorf("expected UCB score to increase with std, got low=%v high=%v", low, high)
	}
}

func TestAcquisitionEIZeroAtZeroStd(t *testing.T) {
	a := Acquisition{Function: EI, Xi: 0.01}
	if v := a.Score(5, 0, 1); v != 0 {
		t.Errorf("expected EI=0 at std=0, got %v", v)
	}
}

type fakePredictor struct{}

func (fakePredictor) Predict(x []float64) (float64, float64, error) {
	// Peaks at x=[0.5, 0.5].
	d := (x[0]-0.5)*(x[0]-0.5) + (x[1]-0.5)*(x[1]-0.5)
	return -d, 0.1, nil
}

func TestAcquisitionMaximizeFindsPeak(t *testing.T) {
	a := Acquisition{Function: UCB, Kappa: 0}
	bounds := [][2]float64{{0, 1}, {0, 1}}
	rng := rand.New(rand.NewSource(7))

	point, _, err := a.Maximize(fakePredictor{}, bounds, 0, rng, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(point[0]-0.5) > 0.1 || math.Abs(point[1]-0.5) > 0.1 {
		t.Errorf("expected point near (0.5, 0.5), got %v", point)
	}
}

package managers

import (
	"math/rand"

	"github.com/axonml/search-core/gp"
	"github.com/axonml/search-core/matrix"
	"github.com/axonml/search-core/searchspace"
	"github.com/axonml/search-core/srcherr"
)

// BOManager implements sequential Bayesian optimisation with an
// injectable acquisition function over a gp.Regressor surrogate.
type BOManager struct {
	Spec *matrix.ParameterSpec
}

func (m *BOManager) block() *matrix.BOBlock {
	return m.Spec.BO
}

// GetSuggestions bootstraps with n_initial_trials random samples on the
// first call, then runs one acquisition-guided BO step per subsequent
// call.
func (m *BOManager) GetSuggestions(rng *rand.Rand, state interface{}) ([]matrix.Assignment, interface{}, error) {
	block := m.block()

	st, _ := state.(*BOIterationState)
	if st == nil {
		st = &BOIterationState{Iteration: 0}
	}

	if st.Iteration > block.NIterations {
		return nil, nil, srcherr.NewInvalidIterationError(
			"iteration exceeds n_iterations", map[string]interface{}{"iteration": st.Iteration, "n_iterations": block.NIterations})
	}

	if st.Iteration == 0 {
		out := make([]matrix.Assignment, 0, block.NInitialTrials)
		for i := 0; i < block.NInitialTrials; i++ {
			a, err := sampleAssignment(m.Spec, rng)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, a)
		}
		newState := &BOIterationState{Iteration: 1, Observations: st.Observations}
		return out, newState, nil
	}

	if len(st.Observations) == 0 {
		return nil, nil, srcherr.NewNoResultError(
			"bo manager requires prior observations before iteration 1")
	}

	space, err := searchspace.New(m.Spec, !block.Metric.Maximize())
	if err != nil {
		return nil, nil, err
	}

	configs := make([]matrix.Assignment, len(st.Observations))
	metrics := make([]float64, len(st.Observations))
	for i, obs := range st.Observations {
		configs[i] = obs.Config
		metrics[i] = obs.Metric
	}
	if err := space.AddObservations(configs, metrics); err != nil {
		return nil, nil, err
	}

	kernel := gp.NewKernel(block.UtilityFunction.GaussianProcess.Kernel,
		block.UtilityFunction.GaussianProcess.LengthScale,
		block.UtilityFunction.GaussianProcess.Nu)
	regressor := gp.NewRegressor(kernel, 1e-6)

	rows := make([][]float64, space.NumObservations())
	r, _ := space.X.Dims()
	for i := 0; i < r; i++ {
		row := make([]float64, space.Dim)
		for c := 0; c < space.Dim; c++ {
			row[c] = space.X.At(i, c)
		}
		rows[i] = row
	}
	if err := regressor.Fit(rows, space.Y); err != nil {
		return nil, nil, err
	}

	best := space.Y[0]
	for _, y := range space.Y {
		if y > best {
			best = y
		}
	}

	acq := gp.Acquisition{
		Function: gp.AcquisitionFunction(block.UtilityFunction.AcquisitionFunction),
		Kappa:    block.UtilityFunction.Kappa,
		Xi:       block.UtilityFunction.Xi,
	}
	restarts := block.UtilityFunction.GaussianProcess.NRestartsOptimizer

	point, _, err := acq.Maximize(regressor, space.Bounds, best, rng, restarts)
	if err != nil {
		return nil, nil, err
	}

	suggestion, err := space.GetSuggestion(point)
	if err != nil {
		return nil, nil, err
	}

	newState := &BOIterationState{Iteration: st.Iteration + 1, Observations: st.Observations}
	return []matrix.Assignment{suggestion}, newState, nil
}

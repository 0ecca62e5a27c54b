// Package managers implements the four search strategies (grid, random,
// Hyperband, Bayesian optimisation) and the dispatcher that selects among
// them from a matrix.ParameterSpec.
package managers

import (
	"math/rand"

	"github.com/axonml/search-core/matrix"
)

// Observation is one completed trial: the Assignment evaluated and the
// metric value it produced.
type Observation struct {
	Config matrix.Assignment
	Metric float64
}

// HyperbandIterationState tracks where a Hyperband run is: which iteration
// (bracket index, 0-based) and bracket_iteration (rung within the
// bracket) it is about to produce suggestions for. ActiveCount is the
// number of configs evaluated in the rung that just completed;
// Observations holds their results, supplied by the caller before the
// next GetSuggestions call so the Manager can rank and promote.
type HyperbandIterationState struct {
	Iteration        int
	BracketIteration int
	ActiveCount      int
	Observations     []Observation
}

// BOIterationState tracks a Bayesian optimisation run: the current
// iteration counter and every observation collected so far.
type BOIterationState struct {
	Iteration    int
	Observations []Observation
}

// Manager is satisfied by all four strategy implementations. state is nil
// on the first call; callers thread the returned/updated state back in on
// subsequent calls.
type Manager interface {
	GetSuggestions(rng *rand.Rand, state interface{}) ([]matrix.Assignment, interface{}, error)
}

// sampleAssignment draws one independent sample from every axis in spec,
// in stable order.
func sampleAssignment(spec *matrix.ParameterSpec, rng *rand.Rand) (matrix.Assignment, error) {
	out := make(matrix.Assignment, len(spec.Matrix))
	for _, na := range spec.Axes() {
		v, err := na.Axis.Sample(rng)
		if err != nil {
			return nil, err
		}
		out[na.Name] = v
	}
	return out, nil
}

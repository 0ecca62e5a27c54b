package managers

import (
	"math/rand"

	"github.com/axonml/search-core/matrix"
)

// RandomManager draws random_search.n_experiments independent samples,
// each value sampled independently per axis. Any axis kind is permitted
// and duplicates are allowed.
type RandomManager struct {
	Spec *matrix.ParameterSpec
}

// GetSuggestions returns exactly random_search.n_experiments Assignments.
// RandomManager is stateless: state is always nil in and out.
func (m *RandomManager) GetSuggestions(rng *rand.Rand, _ interface{}) ([]matrix.Assignment, interface{}, error) {
	n := m.Spec.RandomSearch.NExperiments
	out := make([]matrix.Assignment, 0, n)
	for i := 0; i < n; i++ {
		assignment, err := sampleAssignment(m.Spec, rng)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, assignment)
	}
	return out, nil, nil
}

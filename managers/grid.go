package managers

import (
	"math/rand"

	"github.com/axonml/search-core/matrix"
	"github.com/axonml/search-core/srcherr"
)

// GridManager enumerates the Cartesian product of each axis's
// materialised values, in the Parameter Spec's stable axis order,
// varying the last axis fastest.
type GridManager struct {
	Spec *matrix.ParameterSpec
}

// GetSuggestions returns the Cartesian product truncated to at most
// grid_search.n_experiments. GridManager is stateless: state is always
// nil in and out.
func (m *GridManager) GetSuggestions(rng *rand.Rand, _ interface{}) ([]matrix.Assignment, interface{}, error) {
	axes := m.Spec.Axes()
	values := make([][]interface{}, len(axes))
	for i, na := range axes {
		if !na.Axis.Materialisable() {
			return nil, nil, srcherr.NewInvalidSpecError(
				"grid search requires every axis to be materialisable", map[string]interface{}{"axis": na.Name})
		}
		vals, err := na.Axis.Materialise()
		if err != nil {
			return nil, nil, srcherr.NewInvalidSpecError(
				"failed to materialise axis "+na.Name, map[string]interface{}{"axis": na.Name})
		}
		values[i] = vals
	}

	limit := m.Spec.GridSearch.NExperiments
	var out []matrix.Assignment
	cartesianProduct(axes, values, matrix.Assignment{}, 0, limit, &out)
	return out, nil, nil
}

// cartesianProduct recursively builds assignments, varying the last axis
// fastest, stopping once limit assignments have been produced (limit <= 0
// means unbounded).
func cartesianProduct(axes []matrix.NamedAxis, values [][]interface{}, partial matrix.Assignment, depth int, limit int, out *[]matrix.Assignment) {
	if limit > 0 && len(*out) >= limit {
		return
	}
	if depth == len(axes) {
		assignment := make(matrix.Assignment, len(partial))
		for k, v := range partial {
			assignment[k] = v
		}
		*out = append(*out, assignment)
		return
	}
	for _, v := range values[depth] {
		if limit > 0 && len(*out) >= limit {
			return
		}
		partial[axes[depth].Name] = v
		cartesianProduct(axes, values, partial, depth+1, limit, out)
	}
	delete(partial, axes[depth].Name)
}

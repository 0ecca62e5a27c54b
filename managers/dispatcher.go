package managers

import (
	"github.com/axonml/search-core/matrix"
	"github.com/axonml/search-core/srcherr"
)

// Dispatch selects the Manager corresponding to the single strategy block
// declared on spec. matrix.ParseSpec already enforces exactly one strategy
// block, but matrix.NewParameterSpec does not, so Dispatch checks it again
// for specs built directly by a caller.
func Dispatch(spec *matrix.ParameterSpec) (Manager, error) {
	count := 0
	var manager Manager

	if spec.GridSearch != nil {
		count++
		manager = &GridManager{Spec: spec}
	}
	if spec.RandomSearch != nil {
		count++
		manager = &RandomManager{Spec: spec}
	}
	if spec.Hyperband != nil {
		count++
		manager = &HyperbandManager{Spec: spec}
	}
	if spec.BO != nil {
		count++
		manager = &BOManager{Spec: spec}
	}

	if count != 1 {
		return nil, srcherr.NewInvalidSpecError(
			"exactly one strategy block must be declared", map[string]interface{}{"count": count})
	}
	return manager, nil
}

package managers

import (
	"testing"

	"github.com/axonml/search-core/matrix"
)

func TestDispatchSelectsDeclaredStrategy(t *testing.T) {
	spec, _ := matrix.NewParameterSpec(map[string]matrix.Axis{"f": matrix.Values(1, 2)}, 1)
	spec.GridSearch = &matrix.GridSearchBlock{NExperiments: 5}

	m, err := Dispatch(spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.(*GridManager); !ok {
		t.Errorf("expected *GridManager, got %T", m)
	}
}

func TestDispatchFailsWithNoStrategy(t *testing.T) {
	spec, _ := matrix.NewParameterSpec(map[string]matrix.Axis{"f": matrix.Values(1, 2)}, 1)
	if _, err := Dispatch(spec); err == nil {
		t.Fatal("expected error: no strategy declared")
	}
}

func TestDispatchFailsWithMultipleStrategies(t *testing.T) {
	spec, _ := matrix.NewParameterSpec(map[string]matrix.Axis{"f": matrix.Values(1, 2)}, 1)
	spec.GridSearch = &matrix.GridSearchBlock{NExperiments: 5}
	spec.RandomSearch = &matrix.RandomSearchBlock{NExperiments: 5}
	if _, err := Dispatch(spec); err == nil {
		t.Fatal("expected error: multiple strategies declared")
	}
}

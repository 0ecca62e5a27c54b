package searchspace

import (
	"testing"

	"github.com/axonml/search-core/matrix"
)

func space1Spec() *matrix.ParameterSpec {
	spec, _ := matrix.NewParameterSpec(map[string]matrix.Axis{
		"feature1": matrix.Values(1, 2, 3),
		"feature2": matrix.Linspace(1, 2, 5),
		"feature3": matrix.Range(1, 5, 1),
	}, 2)
	return spec
}

func space2Spec() *matrix.ParameterSpec {
	spec, _ := matrix.NewParameterSpec(map[string]matrix.Axis{
		"feature1": matrix.Values(1, 2, 3, 4, 5),
		"feature2": matrix.Linspace(1, 5, 5),
		"feature3": matrix.Range(1, 6, 1),
		"feature4": matrix.Uniform(1, 5),
		"feature5": matrix.Values("a", "b", "c"),
	}, 2)
	return spec
}

func TestNewSpaceDimAndFeatureCounts(t *testing.T) {
	space, err := New(space1Spec(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if space.Dim != 3 {
		t.Fatalf("expected dim=3, got %d", space.Dim)
	}
	if len(space.DiscreteFeatures) != 3 {
		t.Errorf("expected 3 discrete features, got %d", len(space.DiscreteFeatures))
	}
	if len(space.CategoricalFeatures) != 0 {
		t.Errorf("expected 0 categorical features, got %d", len(space.CategoricalFeatures))
	}
}

func TestNewSpaceWithCategorical(t *testing.T) {
	space, err := New(space2Spec(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if space.Dim != 7 {
		t.Fatalf("expected dim=7, got %d", space.Dim)
	}
	if len(space.DiscreteFeatures) != 3 {
		t.Errorf("expected 3 discrete features, got %d", len(space.DiscreteFeatures))
	}
	cat, ok := space.CategoricalFeatures["feature5"]
	if !ok || cat.Number != 3 {
		t.Fatalf("expected feature5 categorical with 3 values, got %+v", cat)
	}
}

func TestAddObservationsNegatesForMinimize(t *testing.T) {
	space, _ := New(space1Spec(), true)
	configs := []matrix.Assignment{
		{"feature1": 1.0, "feature2": 1.0, "feature3": 1.0},
		{"feature1": 2.0, "feature2": 1.2, "feature3": 2.0},
		{"feature1": 3.0, "feature2": 1.3, "feature3": 3.0},
	}
	if err := space.AddObservations(configs, []float64{1, 2, 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{-1, -2, -3}
	for i, y := range space.Y {
		if y != want[i] {
			t.Errorf("index %d: expected %v, got %v", i, want[i], y)
		}
	}
}

func TestAddObservationsPassthroughForMaximize(t *testing.T) {
	space, _ := New(space2Spec(), false)
	configs := []matrix.Assignment{
		{"feature1": 1.0, "feature2": 1.0, "feature3": 1.0, "feature4": 1.0, "feature5": "a"},
		{"feature1": 2.0, "feature2": 1.2, "feature3": 2.0, "feature4": 4.0, "feature5": "b"},
		{"feature1": 3.0, "feature2": 1.3, "feature3": 3.0, "feature4": 3.0, "feature5": "a"},
	}
	if err := space.AddObservations(configs, []float64{1, 2, 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{1, 2, 3}
	for i, y := range space.Y {
		if y != want[i] {
			t.Errorf("index %d: expected %v, got %v", i, want[i], y)
		}
	}
}

func TestGetSuggestionSnapsToNearestDiscrete(t *testing.T) {
	space, _ := New(space1Spec(), true)

	cases := []struct {
		point []float64
		want  matrix.Assignment
	}{
		{[]float64{1, 1, 1}, matrix.Assignment{"feature1": 1.0, "feature2": 1.0, "feature3": 1.0}},
		{[]float64{1, 1.2, 2}, matrix.Assignment{"feature1": 1.0, "feature2": 1.25, "feature3": 2.0}},
		{[]float64{1, 1.5, 3}, matrix.Assignment{"feature1": 1.0, "feature2": 1.5, "feature3": 3.0}},
	}
	for _, c := range cases {
		got, err := space.GetSuggestion(c.point)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for k, v := range c.want {
			if got[k] != v {
				t.Errorf("point %v: key %s: expected %v, got %v", c.point, k, v, got[k])
			}
		}
	}
}

func TestGetSuggestionCategoricalArgmax(t *testing.T) {
	space, _ := New(space2Spec(), false)

	got, err := space.GetSuggestion([]float64{1, 1.2, 2, 3, 0, 0, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["feature5"] != "c" {
		t.Errorf("expected feature5=c, got %v", got["feature5"])
	}
	if got["feature3"] != 2.0 {
		t.Errorf("expected feature3=2, got %v", got["feature3"])
	}
}

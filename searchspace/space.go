// Package searchspace implements the numeric embedding of a
// matrix.ParameterSpec used by the Bayesian optimisation manager: one
// column per numeric axis, one-hot expansion per categorical axis.
package searchspace

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/axonml/search-core/matrix"
	"github.com/axonml/search-core/srcherr"
)

// DiscreteFeature records the exact set of permissible materialised values
// for a materialisable numeric axis.
type DiscreteFeature struct {
	Values []float64
}

// CategoricalFeature records a categorical axis's string values and count.
type CategoricalFeature struct {
	Values []string
	Number int
}

// column describes where one original axis lands in the numeric embedding.
type column struct {
	name          string
	axis          matrix.Axis
	start         int // first numeric-column index for this axis
	width         int // number of numeric columns (1 unless categorical)
	categoryNames []string
}

// SearchSpace is the numeric embedding of a matrix.ParameterSpec.
type SearchSpace struct {
	spec    *matrix.ParameterSpec
	columns []column

	Features            []string
	Bounds              [][2]float64
	DiscreteFeatures     map[string]DiscreteFeature
	CategoricalFeatures map[string]CategoricalFeature
	Dim                 int

	Minimize bool

	X *mat.Dense // n x Dim, built incrementally
	Y []float64  // length n
}

// New builds a SearchSpace from a validated ParameterSpec. minimize
// indicates the BO convention: when true, metric observations are negated
// at add-observation time so the surrogate can always maximise.
func New(spec *matrix.ParameterSpec, minimize bool) (*SearchSpace, error) {
	s := &SearchSpace{
		spec:                spec,
		DiscreteFeatures:    map[string]DiscreteFeature{},
		CategoricalFeatures: map[string]CategoricalFeature{},
		Minimize:            minimize,
	}

	for _, na := range spec.Axes() {
		name, axis := na.Name, na.Axis
		s.Features = append(s.Features, name)

		if axis.IsCategorical() {
			values, err := axis.Materialise()
			if err != nil {
				return nil, srcherr.NewInvalidSpecError(
					"categorical axis "+name+" must be materialisable", nil)
			}
			names := make([]string, len(values))
			for i, v := range values {
				names[i] = v.(string)
			}
			start := s.Dim
			for range names {
				s.Bounds = append(s.Bounds, [2]float64{0, 1})
			}
			s.Dim += len(names)
			s.CategoricalFeatures[name] = CategoricalFeature{Values: names, Number: len(names)}
			s.columns = append(s.columns, column{name: name, axis: axis, start: start, width: len(names), categoryNames: names})
			continue
		}

		lo, hi, ok := axis.Bounds()
		if !ok {
			return nil, srcherr.NewInvalidSpecError("axis "+name+" has no numeric bounds", nil)
		}
		start := s.Dim
		s.Bounds = append(s.Bounds, [2]float64{lo, hi})
		s.Dim++
		s.columns = append(s.columns, column{name: name, axis: axis, start: start, width: 1})

		if axis.Materialisable() {
			values, err := axis.Materialise()
			if err == nil {
				nums := make([]float64, len(values))
				for i, v := range values {
					nums[i] = toFloat64(v)
				}
				sort.Float64s(nums)
				s.DiscreteFeatures[name] = DiscreteFeature{Values: nums}
			}
		}
	}

	return s, nil
}

func toFloat64(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		return 0
	default:
		return 0
	}
}

// AddObservations appends configs/metrics to the internal x/y matrices,
// applying the minimize -> negation convention and one-hot-encoding
// categorical axes.
func (s *SearchSpace) AddObservations(configs []matrix.Assignment, metrics []float64) error {
	if len(configs) != len(metrics) {
		return srcherr.NewInvalidSpecError("configs and metrics must have equal length", nil)
	}

	newRows := make([][]float64, len(configs))
	for i, cfg := range configs {
		row := make([]float64, s.Dim)
		for _, col := range s.columns {
			v, ok := cfg[col.name]
			if !ok {
				return srcherr.NewInvalidSpecError("assignment missing axis "+col.name, nil)
			}
			if col.width == 1 {
				row[col.start] = toFloat64(v)
				continue
			}
			// One-hot encode a categorical value.
			str, _ := v.(string)
			for j, name := range col.categoryNames {
				if name == str {
					row[col.start+j] = 1
				}
			}
		}
		newRows[i] = row
	}

	existingRows := s.rows()
	allRows := append(existingRows, newRows...)
	data := make([]float64, 0, len(allRows)*s.Dim)
	for _, r := range allRows {
		data = append(data, r...)
	}
	s.X = mat.NewDense(len(allRows), s.Dim, data)

	for _, m := range metrics {
		y := m
		if s.Minimize {
			y = -m
		}
		s.Y = append(s.Y, y)
	}
	return nil
}

func (s *SearchSpace) rows() [][]float64 {
	if s.X == nil {
		return nil
	}
	r, c := s.X.Dims()
	out := make([][]float64, r)
	for i := 0; i < r; i++ {
		row := make([]float64, c)
		mat.Row(row, i, s.X)
		out[i] = row
	}
	return out
}

// NumObservations returns the number of observations added so far.
func (s *SearchSpace) NumObservations() int {
	if s.X == nil {
		return 0
	}
	r, _ := s.X.Dims()
	return r
}

// GetSuggestion inverse-projects a numeric point (length Dim) back onto an
// Assignment keyed by original axis names.
func (s *SearchSpace) GetSuggestion(point []float64) (matrix.Assignment, error) {
	if len(point) != s.Dim {
		return nil, srcherr.NewInvalidSpecError("point has wrong dimensionality", nil)
	}

	out := make(matrix.Assignment, len(s.columns))
	for _, col := range s.columns {
		if col.width > 1 {
			// Categorical: pick the category whose one-hot column is
			// largest in this axis's slice; ties broken by first index.
			best := 0
			bestVal := point[col.start]
			for j := 1; j < col.width; j++ {
				if point[col.start+j] > bestVal {
					bestVal = point[col.start+j]
					best = j
				}
			}
			out[col.name] = col.categoryNames[best]
			continue
		}

		v := point[col.start]
		if discrete, ok := s.DiscreteFeatures[col.name]; ok {
			out[col.name] = nearest(discrete.Values, v)
			continue
		}

		lo, hi, _ := col.axis.Bounds()
		if v < lo {
			v = lo
		}
		if v > hi {
			v = hi
		}
		out[col.name] = v
	}
	return out, nil
}

// nearest snaps v to the nearest element of values; ties break to the
// lower value.
func nearest(values []float64, v float64) float64 {
	best := values[0]
	bestDist := math.Abs(v - best)
	for _, w := range values[1:] {
		dist := math.Abs(v - w)
		if dist < bestDist || (dist == bestDist && w < best) {
			best = w
			bestDist = dist
		}
	}
	return best
}

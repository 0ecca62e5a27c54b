package matrix

import (
	"sort"

	"github.com/axonml/search-core/srcherr"
)

// ResourceSpec names the Hyperband resource axis and its emitted type.
type ResourceSpec struct {
	Name string
	Type string // "int" or "float"
}

// MetricSpec names the metric a manager optimises and its direction.
type MetricSpec struct {
	Name         string
	Optimization string // "minimize" or "maximize"
}

// Maximize reports whether this metric spec optimises for a larger value.
func (m MetricSpec) Maximize() bool {
	return m.Optimization == "maximize"
}

// GaussianProcessSpec configures the BO surrogate.
type GaussianProcessSpec struct {
	Kernel             string
	LengthScale        float64
	Nu                 float64
	NRestartsOptimizer int
}

// UtilityFunctionSpec configures the BO acquisition function.
type UtilityFunctionSpec struct {
	AcquisitionFunction string // "ucb", "ei", "poi"
	Kappa               float64
	Eps                 float64
	Xi                  float64
	GaussianProcess     GaussianProcessSpec
}

// GridSearchBlock is the grid_search strategy declaration.
type GridSearchBlock struct {
	NExperiments int
}

// RandomSearchBlock is the random_search strategy declaration.
type RandomSearchBlock struct {
	NExperiments int
}

// HyperbandBlock is the hyperband strategy declaration.
type HyperbandBlock struct {
	MaxIter  int
	Eta      float64
	Resource ResourceSpec
	Metric   MetricSpec
	Resume   bool
}

// BOBlock is the bo strategy declaration.
type BOBlock struct {
	NIterations     int
	NInitialTrials  int
	Metric          MetricSpec
	UtilityFunction UtilityFunctionSpec
}

// Assignment maps axis name to a materialised or sampled value for one
// trial configuration.
type Assignment map[string]interface{}

// NamedAxis pairs an axis with its declared name, in the Parameter Spec's
// stable (alphabetical) order.
type NamedAxis struct {
	Name string
	Axis Axis
}

// ParameterSpec is the validated mapping axis-name -> Axis Distribution,
// plus a declared strategy block and a concurrency hint.
type ParameterSpec struct {
	Concurrency int
	Matrix      map[string]Axis

	GridSearch   *GridSearchBlock
	RandomSearch *RandomSearchBlock
	Hyperband    *HyperbandBlock
	BO           *BOBlock
}

// NewParameterSpec validates axes and returns a ParameterSpec with no
// strategy block set, or an InvalidSpecError. The strategy block is not
// checked here; ParseSpec and Dispatch check it.
func NewParameterSpec(matrixAxes map[string]Axis, concurrency int) (*ParameterSpec, error) {
	if len(matrixAxes) == 0 {
		return nil, srcherr.NewInvalidSpecError("matrix must declare at least one axis", nil)
	}
	for name, axis := range matrixAxes {
		if err := axis.Validate(); err != nil {
			return nil, srcherr.NewInvalidSpecError(
				"axis "+name+" is invalid", map[string]interface{}{"axis": name, "cause": err.Error()})
		}
	}
	return &ParameterSpec{Concurrency: concurrency, Matrix: matrixAxes}, nil
}

// validateStrategy ensures exactly one strategy block is declared.
func (p *ParameterSpec) validateStrategy() error {
	count := 0
	if p.GridSearch != nil {
		count++
	}
	if p.RandomSearch != nil {
		count++
	}
	if p.Hyperband != nil {
		count++
	}
	if p.BO != nil {
		count++
	}
	if count != 1 {
		return srcherr.NewInvalidSpecError(
			"exactly one strategy block must be declared", map[string]interface{}{"count": count})
	}
	return nil
}

// Names returns the axis names in stable (alphabetical) order. This
// ordering is observable: it determines column layout in the BO search
// space (searchspace.New).
func (p *ParameterSpec) Names() []string {
	names := make([]string, 0, len(p.Matrix))
	for name := range p.Matrix {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Axes returns (name, axis) pairs in stable order.
func (p *ParameterSpec) Axes() []NamedAxis {
	names := p.Names()
	out := make([]NamedAxis, 0, len(names))
	for _, name := range names {
		out = append(out, NamedAxis{Name: name, Axis: p.Matrix[name]})
	}
	return out
}

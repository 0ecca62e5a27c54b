package matrix

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/axonml/search-core/srcherr"
)

// ParseSpec validates a generic map[string]any (the shape a YAML/JSON
// unmarshal into interface{} produces) into a ParameterSpec. The schema
// loader that produces this map is an external collaborator; this is the
// boundary where its result is accepted into the core.
func ParseSpec(raw map[string]interface{}) (*ParameterSpec, error) {
	matrixRaw, ok := raw["matrix"].(map[string]interface{})
	if !ok {
		return nil, srcherr.NewInvalidSpecError("matrix is required", nil)
	}

	axes := make(map[string]Axis, len(matrixRaw))
	for name, axisRaw := range matrixRaw {
		axisMap, ok := axisRaw.(map[string]interface{})
		if !ok {
			return nil, srcherr.NewInvalidSpecError(
				"axis must be a mapping", map[string]interface{}{"axis": name})
		}
		axis, err := parseAxis(axisMap)
		if err != nil {
			return nil, srcherr.NewInvalidSpecError(
				"axis "+name+" is invalid", map[string]interface{}{"axis": name, "cause": err.Error()})
		}
		axes[name] = axis
	}

	concurrency := 1
	if c, ok := raw["concurrency"]; ok {
		concurrency = toInt(c)
	}

	spec, err := NewParameterSpec(axes, concurrency)
	if err != nil {
		return nil, err
	}

	if err := parseStrategy(raw, spec); err != nil {
		return nil, err
	}
	if err := spec.validateStrategy(); err != nil {
		return nil, err
	}
	return spec, nil
}

// LoadSpecFile reads and parses a YAML parameter-spec file.
func LoadSpecFile(path string) (*ParameterSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec file: %w", err)
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse spec file: %w", err)
	}
	return ParseSpec(raw)
}

func parseAxis(m map[string]interface{}) (Axis, error) {
	for key, payload := range m {
		switch Kind(key) {
		case KindValues:
			list, ok := payload.([]interface{})
			if !ok {
				return Axis{}, fmt.Errorf("values must be a list")
			}
			return Values(list...), nil
		case KindPValues:
			list, ok := payload.([]interface{})
			if !ok {
				return Axis{}, fmt.Errorf("pvalues must be a list")
			}
			pairs := make([]WeightedValue, 0, len(list))
			for _, item := range list {
				pair, ok := item.([]interface{})
				if !ok || len(pair) != 2 {
					return Axis{}, fmt.Errorf("each pvalues entry must be a [value, probability] pair")
				}
				pairs = append(pairs, WeightedValue{Value: pair[0], Probability: toFloat64(pair[1])})
			}
			return PValuesAxis(pairs...), nil
		case KindRange:
			nums, err := toFloatTriple(payload)
			if err != nil {
				return Axis{}, fmt.Errorf("range: %w", err)
			}
			return Range(nums[0], nums[1], nums[2]), nil
		case KindLinspace:
			nums, err := toFloatTriple(payload)
			if err != nil {
				return Axis{}, fmt.Errorf("linspace: %w", err)
			}
			return Linspace(nums[0], nums[1], int(nums[2])), nil
		case KindLogspace:
			nums, err := toFloatTriple(payload)
			if err != nil {
				return Axis{}, fmt.Errorf("logspace: %w", err)
			}
			return Logspace(nums[0], nums[1], int(nums[2])), nil
		case KindGeomspace:
			nums, err := toFloatTriple(payload)
			if err != nil {
				return Axis{}, fmt.Errorf("geomspace: %w", err)
			}
			return Geomspace(nums[0], nums[1], int(nums[2])), nil
		case KindUniform:
			nums, err := toFloatPair(payload)
			if err != nil {
				return Axis{}, fmt.Errorf("uniform: %w", err)
			}
			return Uniform(nums[0], nums[1]), nil
		case KindQUniform:
			nums, err := toFloatTriple(payload)
			if err != nil {
				return Axis{}, fmt.Errorf("quniform: %w", err)
			}
			return QUniform(nums[0], nums[1], nums[2]), nil
		case KindLogUniform:
			nums, err := toFloatPair(payload)
			if err != nil {
				return Axis{}, fmt.Errorf("loguniform: %w", err)
			}
			return LogUniform(nums[0], nums[1]), nil
		case KindQLogUniform:
			nums, err := toFloatTriple(payload)
			if err != nil {
				return Axis{}, fmt.Errorf("qloguniform: %w", err)
			}
			return QLogUniform(nums[0], nums[1], nums[2]), nil
		case KindNormal:
			nums, err := toFloatPair(payload)
			if err != nil {
				return Axis{}, fmt.Errorf("normal: %w", err)
			}
			return Normal(nums[0], nums[1]), nil
		case KindQNormal:
			nums, err := toFloatTriple(payload)
			if err != nil {
				return Axis{}, fmt.Errorf("qnormal: %w", err)
			}
			return QNormal(nums[0], nums[1], nums[2]), nil
		case KindLogNormal:
			nums, err := toFloatPair(payload)
			if err != nil {
				return Axis{}, fmt.Errorf("lognormal: %w", err)
			}
			return LogNormal(nums[0], nums[1]), nil
		case KindQLogNormal:
			nums, err := toFloatTriple(payload)
			if err != nil {
				return Axis{}, fmt.Errorf("qlognormal: %w", err)
			}
			return QLogNormal(nums[0], nums[1], nums[2]), nil
		}
	}
	return Axis{}, fmt.Errorf("axis declares no recognised kind")
}

func parseStrategy(raw map[string]interface{}, spec *ParameterSpec) error {
	if g, ok := raw["grid_search"].(map[string]interface{}); ok {
		spec.GridSearch = &GridSearchBlock{NExperiments: toInt(g["n_experiments"])}
	}
	if r, ok := raw["random_search"].(map[string]interface{}); ok {
		spec.RandomSearch = &RandomSearchBlock{NExperiments: toInt(r["n_experiments"])}
	}
	if h, ok := raw["hyperband"].(map[string]interface{}); ok {
		block := &HyperbandBlock{
			MaxIter: toInt(h["max_iter"]),
			Eta:     toFloat64(h["eta"]),
			Resume:  toBool(h["resume"]),
		}
		if res, ok := h["resource"].(map[string]interface{}); ok {
			block.Resource = ResourceSpec{Name: toString(res["name"]), Type: toString(res["type"])}
		}
		if met, ok := h["metric"].(map[string]interface{}); ok {
			block.Metric = MetricSpec{Name: toString(met["name"]), Optimization: toString(met["optimization"])}
		}
		spec.Hyperband = block
	}
	if b, ok := raw["bo"].(map[string]interface{}); ok {
		block := &BOBlock{
			NIterations:    toInt(b["n_iterations"]),
			NInitialTrials: toInt(b["n_initial_trials"]),
		}
		if met, ok := b["metric"].(map[string]interface{}); ok {
			block.Metric = MetricSpec{Name: toString(met["name"]), Optimization: toString(met["optimization"])}
		}
		if uf, ok := b["utility_function"].(map[string]interface{}); ok {
			block.UtilityFunction = UtilityFunctionSpec{
				AcquisitionFunction: toString(uf["acquisition_function"]),
				Kappa:               toFloat64(uf["kappa"]),
				Eps:                 toFloat64(uf["eps"]),
				Xi:                  toFloat64(uf["xi"]),
			}
			if gp, ok := uf["gaussian_process"].(map[string]interface{}); ok {
				block.UtilityFunction.GaussianProcess = GaussianProcessSpec{
					Kernel:             toString(gp["kernel"]),
					LengthScale:        toFloat64(gp["length_scale"]),
					Nu:                 toFloat64(gp["nu"]),
					NRestartsOptimizer: toInt(gp["n_restarts_optimizer"]),
				}
			}
		}
		spec.BO = block
	}
	return nil
}

func toFloatPair(v interface{}) ([2]float64, error) {
	list, ok := v.([]interface{})
	if !ok || len(list) != 2 {
		return [2]float64{}, fmt.Errorf("expected a 2-element list")
	}
	return [2]float64{toFloat64(list[0]), toFloat64(list[1])}, nil
}

func toFloatTriple(v interface{}) ([3]float64, error) {
	list, ok := v.([]interface{})
	if !ok || len(list) != 3 {
		return [3]float64{}, fmt.Errorf("expected a 3-element list")
	}
	return [3]float64{toFloat64(list[0]), toFloat64(list[1]), toFloat64(list[2])}, nil
}

func toInt(v interface{}) int {
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	default:
		return 0
	}
}

func toBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}

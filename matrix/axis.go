// Package matrix implements the hyperparameter axis and parameter-spec
// model: one parametric declaration per named axis (enumerations,
// linear/log/geometric ranges, probability distributions), materialised
// into explicit value sequences or sampled from directly.
package matrix

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/axonml/search-core/srcherr"
)

// Kind identifies one of the supported axis distribution variants.
type Kind string

const (
	KindValues      Kind = "values"
	KindPValues     Kind = "pvalues"
	KindRange       Kind = "range"
	KindLinspace    Kind = "linspace"
	KindLogspace    Kind = "logspace"
	KindGeomspace   Kind = "geomspace"
	KindUniform     Kind = "uniform"
	KindQUniform    Kind = "quniform"
	KindLogUniform  Kind = "loguniform"
	KindQLogUniform Kind = "qloguniform"
	KindNormal      Kind = "normal"
	KindQNormal     Kind = "qnormal"
	KindLogNormal   Kind = "lognormal"
	KindQLogNormal  Kind = "qlognormal"
)

// WeightedValue is one (scalar, probability) pair of a pvalues axis.
type WeightedValue struct {
	Value       interface{}
	Probability float64
}

// Axis is the tagged-variant payload for one parameter axis. Exactly the
// fields relevant to Kind are populated; the rest are zero.
type Axis struct {
	Kind Kind

	// values / pvalues payload.
	Values  []interface{}
	PValues []WeightedValue

	// range payload (also reused as Low/High/Step naming would collide with
	// the distribution payload below, so range keeps its own fields).
	RangeStart float64
	RangeStop  float64
	RangeStep  float64

	// linspace / logspace / geomspace payload.
	Start float64
	Stop  float64
	Count int

	// uniform / quniform / loguniform / qloguniform payload.
	Low  float64
	High float64

	// normal / qnormal / lognormal / qlognormal payload.
	Mu    float64
	Sigma float64

	// quantisation step, shared by all q* kinds.
	Q float64
}

// Values constructs a finite enumeration axis.
func Values(values ...interface{}) Axis {
	return Axis{Kind: KindValues, Values: values}
}

// PValuesAxis constructs a weighted finite enumeration axis.
func PValuesAxis(pairs ...WeightedValue) Axis {
	return Axis{Kind: KindPValues, PValues: pairs}
}

// Range constructs a half-open arithmetic-progression axis of integers.
func Range(start, stop, step float64) Axis {
	return Axis{Kind: KindRange, RangeStart: start, RangeStop: stop, RangeStep: step}
}

// Linspace constructs an axis of count values evenly spaced over
// [start, stop] inclusive.
func Linspace(start, stop float64, count int) Axis {
	return Axis{Kind: KindLinspace, Start: start, Stop: stop, Count: count}
}

// Logspace is Linspace transformed by 10^x.
func Logspace(start, stop float64, count int) Axis {
	return Axis{Kind: KindLogspace, Start: start, Stop: stop, Count: count}
}

// Geomspace constructs a geometric progression of count values between
// start and stop (same sign, non-zero).
func Geomspace(start, stop float64, count int) Axis {
	return Axis{Kind: KindGeomspace, Start: start, Stop: stop, Count: count}
}

// Uniform constructs a continuous U(low, high) axis.
func Uniform(low, high float64) Axis {
	return Axis{Kind: KindUniform, Low: low, High: high}
}

// QUniform constructs a quantised uniform axis: round(U/q)*q.
func QUniform(low, high, q float64) Axis {
	return Axis{Kind: KindQUniform, Low: low, High: high, Q: q}
}

// LogUniform constructs an exp(U(log low, log high)) axis.
func LogUniform(low, high float64) Axis {
	return Axis{Kind: KindLogUniform, Low: low, High: high}
}

// QLogUniform constructs a quantised loguniform axis.
func QLogUniform(low, high, q float64) Axis {
	return Axis{Kind: KindQLogUniform, Low: low, High: high, Q: q}
}

// Normal constructs an N(mu, sigma) axis.
func Normal(mu, sigma float64) Axis {
	return Axis{Kind: KindNormal, Mu: mu, Sigma: sigma}
}

// QNormal constructs a quantised normal axis.
func QNormal(mu, sigma, q float64) Axis {
	return Axis{Kind: KindQNormal, Mu: mu, Sigma: sigma, Q: q}
}

// LogNormal constructs a lognormal axis.
func LogNormal(mu, sigma float64) Axis {
	return Axis{Kind: KindLogNormal, Mu: mu, Sigma: sigma}
}

// QLogNormal constructs a quantised lognormal axis.
func QLogNormal(mu, sigma, q float64) Axis {
	return Axis{Kind: KindQLogNormal, Mu: mu, Sigma: sigma, Q: q}
}

const probabilityTolerance = 1e-6

// Validate checks that the axis's declared parameters are internally
// consistent (enumerations non-empty, weights non-negative and summing to 1,
// range step non-zero and pointing towards stop, counts >= 1, q > 0, log
// kinds with low > 0). The order of low/high on uniform-style kinds is not
// checked.
func (a Axis) Validate() error {
	switch a.Kind {
	case KindValues:
		if len(a.Values) == 0 {
			return srcherr.NewInvalidSpecError("values axis must be non-empty", nil)
		}
	case KindPValues:
		if len(a.PValues) == 0 {
			return srcherr.NewInvalidSpecError("pvalues axis must be non-empty", nil)
		}
		sum := 0.0
		for _, pv := range a.PValues {
			if pv.Probability < 0 {
				return srcherr.NewInvalidSpecError("pvalues probabilities must be non-negative", nil)
			}
			sum += pv.Probability
		}
		if math.Abs(sum-1.0) > probabilityTolerance {
			return srcherr.NewInvalidSpecError(
				fmt.Sprintf("pvalues probabilities must sum to 1, got %g", sum), nil)
		}
	case KindRange:
		if a.RangeStep == 0 {
			return srcherr.NewInvalidSpecError("range step must be non-zero", nil)
		}
		direction := a.RangeStop - a.RangeStart
		if direction != 0 && (direction > 0) != (a.RangeStep > 0) {
			return srcherr.NewInvalidSpecError("range step direction must match (stop - start)", nil)
		}
	case KindLinspace, KindLogspace:
		if a.Count < 1 {
			return srcherr.NewInvalidSpecError("linspace/logspace count must be >= 1", nil)
		}
	case KindGeomspace:
		if a.Count < 1 {
			return srcherr.NewInvalidSpecError("geomspace count must be >= 1", nil)
		}
		if a.Start == 0 || a.Stop == 0 {
			return srcherr.NewInvalidSpecError("geomspace start/stop must be non-zero", nil)
		}
		if (a.Start > 0) != (a.Stop > 0) {
			return srcherr.NewInvalidSpecError("geomspace start/stop must share sign", nil)
		}
	case KindUniform:
	case KindQUniform:
		if a.Q <= 0 {
			return srcherr.NewInvalidSpecError("quniform q must be > 0", nil)
		}
	case KindLogUniform:
		if a.Low <= 0 {
			return srcherr.NewInvalidSpecError("loguniform low must be > 0", nil)
		}
	case KindQLogUniform:
		if a.Low <= 0 {
			return srcherr.NewInvalidSpecError("qloguniform low must be > 0", nil)
		}
		if a.Q <= 0 {
			return srcherr.NewInvalidSpecError("qloguniform q must be > 0", nil)
		}
	case KindNormal:
	case KindQNormal:
		if a.Q <= 0 {
			return srcherr.NewInvalidSpecError("qnormal q must be > 0", nil)
		}
	case KindLogNormal:
	case KindQLogNormal:
		if a.Q <= 0 {
			return srcherr.NewInvalidSpecError("qlognormal q must be > 0", nil)
		}
	default:
		return srcherr.NewInvalidSpecError(fmt.Sprintf("unknown axis kind %q", a.Kind), nil)
	}
	return nil
}

// Materialisable reports whether Materialise is valid for this axis.
func (a Axis) Materialisable() bool {
	switch a.Kind {
	case KindValues, KindPValues, KindRange, KindLinspace, KindLogspace, KindGeomspace:
		return true
	default:
		return false
	}
}

// Materialise expands the axis into its finite explicit list of values.
// Fails (via srcherr.InvalidSpecError) when the axis is not materialisable.
func (a Axis) Materialise() ([]interface{}, error) {
	switch a.Kind {
	case KindValues:
		out := make([]interface{}, len(a.Values))
		copy(out, a.Values)
		return out, nil
	case KindPValues:
		out := make([]interface{}, len(a.PValues))
		for i, pv := range a.PValues {
			out[i] = pv.Value
		}
		return out, nil
	case KindRange:
		return materialiseRange(a.RangeStart, a.RangeStop, a.RangeStep), nil
	case KindLinspace:
		return toInterfaces(linspace(a.Start, a.Stop, a.Count)), nil
	case KindLogspace:
		vals := linspace(a.Start, a.Stop, a.Count)
		for i, v := range vals {
			vals[i] = math.Pow(10, v)
		}
		return toInterfaces(vals), nil
	case KindGeomspace:
		return toInterfaces(geomspace(a.Start, a.Stop, a.Count)), nil
	default:
		return nil, srcherr.NewInvalidSpecError(
			fmt.Sprintf("axis kind %q is not materialisable", a.Kind), nil)
	}
}

func materialiseRange(start, stop, step float64) []interface{} {
	var out []interface{}
	if step > 0 {
		for v := start; v < stop; v += step {
			out = append(out, v)
		}
	} else {
		for v := start; v > stop; v += step {
			out = append(out, v)
		}
	}
	return out
}

func linspace(start, stop float64, count int) []float64 {
	if count == 1 {
		return []float64{start}
	}
	out := make([]float64, count)
	step := (stop - start) / float64(count-1)
	for i := 0; i < count; i++ {
		out[i] = start + step*float64(i)
	}
	out[count-1] = stop
	return out
}

func geomspace(start, stop float64, count int) []float64 {
	if count == 1 {
		return []float64{start}
	}
	logStart := math.Log(math.Abs(start))
	logStop := math.Log(math.Abs(stop))
	sign := 1.0
	if start < 0 {
		sign = -1.0
	}
	out := make([]float64, count)
	for i := 0; i < count; i++ {
		t := float64(i) / float64(count-1)
		out[i] = sign * math.Exp(logStart+t*(logStop-logStart))
	}
	return out
}

func toInterfaces(vals []float64) []interface{} {
	out := make([]interface{}, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

// Sample draws one value from the axis using rng. Sampling is available for
// every axis kind (materialisable or not).
func (a Axis) Sample(rng *rand.Rand) (interface{}, error) {
	switch a.Kind {
	case KindValues:
		if len(a.Values) == 0 {
			return nil, srcherr.NewInvalidSpecError("values axis must be non-empty", nil)
		}
		return a.Values[rng.Intn(len(a.Values))], nil
	case KindPValues:
		return samplePValues(a.PValues, rng), nil
	case KindRange, KindLinspace, KindLogspace, KindGeomspace:
		vals, err := a.Materialise()
		if err != nil {
			return nil, err
		}
		if len(vals) == 0 {
			return nil, srcherr.NewInvalidSpecError("materialised axis has no values to sample", nil)
		}
		return vals[rng.Intn(len(vals))], nil
	case KindUniform:
		return distuv.Uniform{Min: a.Low, Max: a.High, Src: rng}.Rand(), nil
	case KindQUniform:
		raw := distuv.Uniform{Min: a.Low, Max: a.High, Src: rng}.Rand()
		return quantise(raw, a.Q), nil
	case KindLogUniform:
		u := distuv.Uniform{Min: math.Log(a.Low), Max: math.Log(a.High), Src: rng}.Rand()
		return math.Exp(u), nil
	case KindQLogUniform:
		u := distuv.Uniform{Min: math.Log(a.Low), Max: math.Log(a.High), Src: rng}.Rand()
		return quantise(math.Exp(u), a.Q), nil
	case KindNormal:
		return distuv.Normal{Mu: a.Mu, Sigma: a.Sigma, Src: rng}.Rand(), nil
	case KindQNormal:
		raw := distuv.Normal{Mu: a.Mu, Sigma: a.Sigma, Src: rng}.Rand()
		return quantise(raw, a.Q), nil
	case KindLogNormal:
		return distuv.LogNormal{Mu: a.Mu, Sigma: a.Sigma, Src: rng}.Rand(), nil
	case KindQLogNormal:
		raw := distuv.LogNormal{Mu: a.Mu, Sigma: a.Sigma, Src: rng}.Rand()
		return quantise(raw, a.Q), nil
	default:
		return nil, srcherr.NewInvalidSpecError(fmt.Sprintf("unknown axis kind %q", a.Kind), nil)
	}
}

func quantise(raw, q float64) float64 {
	return math.Round(raw/q) * q
}

func samplePValues(pvalues []WeightedValue, rng *rand.Rand) interface{} {
	r := rng.Float64()
	cumulative := 0.0
	for _, pv := range pvalues {
		cumulative += pv.Probability
		if r < cumulative {
			return pv.Value
		}
	}
	// Floating point slack: fall back to the last value.
	return pvalues[len(pvalues)-1].Value
}

// IsCategorical reports whether the axis is a non-numeric finite
// enumeration (values with non-numeric payload, or pvalues).
func (a Axis) IsCategorical() bool {
	switch a.Kind {
	case KindPValues:
		return true
	case KindValues:
		for _, v := range a.Values {
			if !isNumeric(v) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func isNumeric(v interface{}) bool {
	switch v.(type) {
	case int, int32, int64, float32, float64:
		return true
	default:
		return false
	}
}

// Bounds returns the (lo, hi) bounds for numeric kinds. ok is false for
// categorical values axes (no numeric bounds).
func (a Axis) Bounds() (lo, hi float64, ok bool) {
	switch a.Kind {
	case KindValues:
		if a.IsCategorical() {
			return 0, 0, false
		}
		nums := make([]float64, 0, len(a.Values))
		for _, v := range a.Values {
			nums = append(nums, toFloat64(v))
		}
		sort.Float64s(nums)
		return nums[0], nums[len(nums)-1], true
	case KindPValues:
		return 0, 0, false
	case KindRange:
		if a.RangeStart <= a.RangeStop {
			return a.RangeStart, a.RangeStop, true
		}
		return a.RangeStop, a.RangeStart, true
	case KindLinspace, KindGeomspace:
		if a.Start <= a.Stop {
			return a.Start, a.Stop, true
		}
		return a.Stop, a.Start, true
	case KindLogspace:
		lo, hi := math.Pow(10, a.Start), math.Pow(10, a.Stop)
		if lo <= hi {
			return lo, hi, true
		}
		return hi, lo, true
	case KindUniform, KindQUniform, KindLogUniform, KindQLogUniform:
		return a.Low, a.High, true
	case KindNormal, KindQNormal, KindLogNormal, KindQLogNormal:
		// Unbounded distributions: report a +/- 4 sigma envelope (lognormal
		// envelope built in log-space) so BO's search space still has a
		// finite box to optimise over.
		if a.Kind == KindLogNormal || a.Kind == KindQLogNormal {
			lo := math.Exp(a.Mu - 4*a.Sigma)
			hi := math.Exp(a.Mu + 4*a.Sigma)
			return lo, hi, true
		}
		return a.Mu - 4*a.Sigma, a.Mu + 4*a.Sigma, true
	default:
		return 0, 0, false
	}
}

func toFloat64(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	default:
		return 0
	}
}

package managers

import (
	"math"
	"math/rand"
	"sort"

	"github.com/axonml/search-core/matrix"
	"github.com/axonml/search-core/srcherr"
)

// HyperbandManager implements the published Hyperband algorithm (Li et
// al.) for successive-halving resource allocation across brackets.
type HyperbandManager struct {
	Spec *matrix.ParameterSpec
}

func (m *HyperbandManager) block() *matrix.HyperbandBlock {
	return m.Spec.Hyperband
}

// SMax is floor(log_eta(R)).
func (m *HyperbandManager) SMax() int {
	b := m.block()
	return int(math.Floor(math.Log(float64(b.MaxIter)) / math.Log(b.Eta)))
}

// B is the total budget per Hyperband run, (s_max+1)*R.
func (m *HyperbandManager) B() float64 {
	return float64(m.SMax()+1) * float64(m.block().MaxIter)
}

// GetBracket maps a 0-based iteration to its bracket index s = s_max - iteration.
func (m *HyperbandManager) GetBracket(iteration int) int {
	return m.SMax() - iteration
}

// GetNConfigs returns n_configs(s) = ceil((s_max+1)/(s+1) * eta^s).
func (m *HyperbandManager) GetNConfigs(bracket int) int {
	sMax := m.SMax()
	eta := m.block().Eta
	v := float64(sMax+1) / float64(bracket+1) * math.Pow(eta, float64(bracket))
	return int(math.Ceil(v))
}

// GetNConfigsForIteration plugs GetBracket(iteration) into GetNConfigs.
func (m *HyperbandManager) GetNConfigsForIteration(iteration int) int {
	return m.GetNConfigs(m.GetBracket(iteration))
}

// GetResources returns r(s) = R * eta^-s, the initial resource allocation
// for a bracket.
func (m *HyperbandManager) GetResources(bracket int) float64 {
	return float64(m.block().MaxIter) * math.Pow(m.block().Eta, -float64(bracket))
}

// GetResourcesForIteration plugs GetBracket(iteration) into GetResources.
func (m *HyperbandManager) GetResourcesForIteration(iteration int) float64 {
	return m.GetResources(m.GetBracket(iteration))
}

// GetNConfigToKeep returns floor(n_suggestions * eta^-(bracket_iteration+1)).
func (m *HyperbandManager) GetNConfigToKeep(nSuggestions, bracketIteration int) int {
	eta := m.block().Eta
	v := float64(nSuggestions) * math.Pow(eta, -float64(bracketIteration+1))
	return int(math.Floor(v))
}

// GetNConfigToKeepForIteration plugs GetBracket(iteration) into GetNConfigs
// to derive n_suggestions, then applies GetNConfigToKeep.
func (m *HyperbandManager) GetNConfigToKeepForIteration(iteration, bracketIteration int) int {
	n := m.GetNConfigs(m.GetBracket(iteration))
	return m.GetNConfigToKeep(n, bracketIteration)
}

// GetNResources returns n_resources * eta^bracket_iteration.
func (m *HyperbandManager) GetNResources(nResources float64, bracketIteration int) float64 {
	return nResources * math.Pow(m.block().Eta, float64(bracketIteration))
}

// GetNResourcesForIteration plugs GetBracket(iteration) into GetResources
// to derive the bracket's initial resource, then applies GetNResources.
func (m *HyperbandManager) GetNResourcesForIteration(iteration, bracketIteration int) float64 {
	r := m.GetResources(m.GetBracket(iteration))
	return m.GetNResources(r, bracketIteration)
}

// ShouldReschedule is true iff bracket_iteration >= (s_max-iteration) and
// iteration <= s_max-1: the current bracket is exhausted and a new one begins.
func (m *HyperbandManager) ShouldReschedule(iteration, bracketIteration int) bool {
	sMax := m.SMax()
	return bracketIteration >= (sMax-iteration) && iteration <= sMax-1
}

// ShouldReduceConfigs is true iff bracket_iteration <= (s_max-iteration),
// iteration <= s_max, and not ShouldReschedule.
func (m *HyperbandManager) ShouldReduceConfigs(iteration, bracketIteration int) bool {
	sMax := m.SMax()
	return bracketIteration <= (sMax-iteration) && iteration <= sMax && !m.ShouldReschedule(iteration, bracketIteration)
}

func (m *HyperbandManager) emitResource(a matrix.Assignment, resource float64) {
	if m.block().Resource.Type == "int" {
		r := math.Round(resource)
		if r < 1 {
			r = 1
		}
		a[m.block().Resource.Name] = r
		return
	}
	a[m.block().Resource.Name] = resource
}

func (m *HyperbandManager) sampleBatch(rng *rand.Rand, n int, resource float64) ([]matrix.Assignment, error) {
	out := make([]matrix.Assignment, 0, n)
	for i := 0; i < n; i++ {
		a, err := sampleAssignment(m.Spec, rng)
		if err != nil {
			return nil, err
		}
		m.emitResource(a, resource)
		out = append(out, a)
	}
	return out, nil
}

// GetSuggestions implements the operation described in the component
// design: bootstraps the top bracket on first call, then reduces or
// reschedules depending on where HyperbandIterationState says the run is.
func (m *HyperbandManager) GetSuggestions(rng *rand.Rand, state interface{}) ([]matrix.Assignment, interface{}, error) {
	sMax := m.SMax()

	if state == nil {
		n := m.GetNConfigs(sMax)
		r := m.GetResources(sMax)
		configs, err := m.sampleBatch(rng, n, r)
		if err != nil {
			return nil, nil, err
		}
		newState := &HyperbandIterationState{Iteration: 0, BracketIteration: 0, ActiveCount: n}
		return configs, newState, nil
	}

	st, ok := state.(*HyperbandIterationState)
	if !ok {
		return nil, nil, srcherr.NewInvalidIterationError("unexpected state type for hyperband manager", nil)
	}

	iteration, bi := st.Iteration, st.BracketIteration
	if iteration > sMax || bi > sMax-iteration {
		return nil, nil, srcherr.NewInvalidIterationError(
			"iteration out of range", map[string]interface{}{"iteration": iteration, "bracket_iteration": bi, "s_max": sMax})
	}

	if m.ShouldReschedule(iteration, bi) {
		nextIteration := iteration + 1
		nextBracket := m.GetBracket(nextIteration)
		n := m.GetNConfigs(nextBracket)
		r := m.GetResources(nextBracket)
		configs, err := m.sampleBatch(rng, n, r)
		if err != nil {
			return nil, nil, err
		}
		newState := &HyperbandIterationState{Iteration: nextIteration, BracketIteration: 0, ActiveCount: n}
		return configs, newState, nil
	}

	if m.ShouldReduceConfigs(iteration, bi) {
		if len(st.Observations) != st.ActiveCount {
			return nil, nil, srcherr.NewInvalidIterationError(
				"observations must be supplied for every active config before reducing", nil)
		}
		k := m.GetNConfigToKeep(st.ActiveCount, bi)
		kept := rankByMetric(st.Observations, m.block().Metric.Maximize(), k)

		nextResource := m.GetNResources(m.GetResources(m.GetBracket(iteration)), bi+1)
		out := make([]matrix.Assignment, 0, len(kept))
		for _, obs := range kept {
			a := make(matrix.Assignment, len(obs.Config))
			for k, v := range obs.Config {
				a[k] = v
			}
			m.emitResource(a, nextResource)
			out = append(out, a)
		}

		newState := &HyperbandIterationState{Iteration: iteration, BracketIteration: bi + 1, ActiveCount: len(kept)}
		return out, newState, nil
	}

	return nil, nil, srcherr.NewInvalidIterationError("no applicable hyperband transition for this state", nil)
}

// rankByMetric sorts observations best-first per the metric direction and
// returns the top k.
func rankByMetric(observations []Observation, maximize bool, k int) []Observation {
	sorted := append([]Observation(nil), observations...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if maximize {
			return sorted[i].Metric > sorted[j].Metric
		}
		return sorted[i].Metric < sorted[j].Metric
	})
	if k > len(sorted) {
		k = len(sorted)
	}
	if k < 0 {
		k = 0
	}
	return sorted[:k]
}

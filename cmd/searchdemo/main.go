// Command searchdemo drives one experiment group end to end against a
// synthetic objective function, so the dispatcher, the four managers,
// and the observability/statestore layers can be exercised outside of
// an orchestrator.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/axonml/search-core/managers"
	"github.com/axonml/search-core/matrix"
	"github.com/axonml/search-core/observability"
	"github.com/axonml/search-core/statestore"
)

func main() {
	specPath := flag.String("spec", "", "path to a parameter spec YAML file")
	groupID := flag.String("group", "", "experiment group ID, used as the state store key (default: a generated UUID)")
	maxRounds := flag.Int("max-rounds", 20, "safety cap on GetSuggestions rounds")
	structuredLogs := flag.Bool("structured-logs", false, "emit JSON logs instead of text")
	consoleTrace := flag.Bool("console-trace", false, "export spans to stdout")
	flag.Parse()

	observability.ConfigureLogging(slog.LevelInfo, *structuredLogs, true)
	logger := observability.GetLoggerWithTrace()

	if *specPath == "" {
		fmt.Fprintln(os.Stderr, "usage: searchdemo -spec spec.yaml [-group group-id]")
		os.Exit(2)
	}
	if *groupID == "" {
		generated := uuid.NewString()
		groupID = &generated
	}

	ctx := context.Background()

	tp, err := observability.InitTracing("search-core-demo", "", *consoleTrace)
	if err != nil {
		logger.Error("init tracing failed", "error", err)
		os.Exit(1)
	}
	defer tp.Shutdown(ctx)

	mp, err := observability.InitMetrics("search-core-demo", 0)
	if err != nil {
		logger.Error("init metrics failed", "error", err)
		os.Exit(1)
	}
	defer mp.Shutdown(ctx)

	metrics, err := observability.NewManagerMetrics()
	if err != nil {
		logger.Error("init manager metrics failed", "error", err)
		os.Exit(1)
	}
	span := observability.NewSuggestionsSpan()
	auditor := observability.NewAuditLogger()

	spec, err := matrix.LoadSpecFile(*specPath)
	if err != nil {
		auditor.LogSpecRejected(*specPath, "failed to load or validate spec file", err)
		logger.Error("load spec failed", "error", err)
		os.Exit(1)
	}

	manager, err := managers.Dispatch(spec)
	if err != nil {
		auditor.LogSpecRejected(*specPath, "no strategy block dispatched", err)
		logger.Error("dispatch failed", "error", err)
		os.Exit(1)
	}
	strategy := strategyName(spec)

	store := statestore.NewInMemoryIterationStateStore()
	rng := rand.New(rand.NewSource(42))

	var state interface{}
	switch strategy {
	case "hyperband":
		var hs *managers.HyperbandIterationState
		if hs, err = store.LoadHyperband(ctx, *groupID); err == nil && hs != nil {
			state = hs
		}
	case "bo":
		var bs *managers.BOIterationState
		if bs, err = store.LoadBO(ctx, *groupID); err == nil && bs != nil {
			state = bs
		}
	}
	if err != nil {
		logger.Error("load iteration state failed", "error", err)
		os.Exit(1)
	}

	for round := 0; round < *maxRounds; round++ {
		var assignments []matrix.Assignment
		var nextState interface{}

		start := time.Now()
		runErr := span.Run(ctx, strategy, *groupID, func(ctx context.Context) (int, error) {
			assignments, nextState, err = manager.GetSuggestions(rng, state)
			if err != nil {
				return 0, err
			}
			return len(assignments), nil
		})
		metrics.Record(ctx, strategy, start, len(assignments), runErr)

		if runErr != nil {
			logger.Info("search terminated", "strategy", strategy, "round", round, "reason", runErr)
			break
		}

		observations := evaluate(assignments, spec)
		logger.Info("round completed", "strategy", strategy, "round", round, "n_suggestions", len(assignments))

		nextState = withObservations(nextState, observations)
		state = nextState

		switch strategy {
		case "hyperband":
			if hs, ok := state.(*managers.HyperbandIterationState); ok {
				if err := store.SaveHyperband(ctx, *groupID, hs); err != nil {
					logger.Error("save hyperband state failed", "error", err)
				}
			}
		case "bo":
			if bs, ok := state.(*managers.BOIterationState); ok {
				if err := store.SaveBO(ctx, *groupID, bs); err != nil {
					logger.Error("save bo state failed", "error", err)
				}
			}
		default:
			// grid/random return no iteration state; nothing to persist.
		}

		if strategy == "grid" || strategy == "random" {
			break
		}
	}
}

func strategyName(spec *matrix.ParameterSpec) string {
	switch {
	case spec.GridSearch != nil:
		return "grid"
	case spec.RandomSearch != nil:
		return "random"
	case spec.Hyperband != nil:
		return "hyperband"
	case spec.BO != nil:
		return "bo"
	}
	return "unknown"
}

// evaluate scores every assignment with a synthetic sphere-function
// objective so the demo has something to feed back into iteration state.
func evaluate(assignments []matrix.Assignment, spec *matrix.ParameterSpec) []managers.Observation {
	observations := make([]managers.Observation, 0, len(assignments))
	for _, a := range assignments {
		observations = append(observations, managers.Observation{Config: a, Metric: sphere(a, spec)})
	}
	return observations
}

func sphere(a matrix.Assignment, spec *matrix.ParameterSpec) float64 {
	sum := 0.0
	for name := range spec.Matrix {
		v, ok := a[name]
		if !ok {
			continue
		}
		f, ok := v.(float64)
		if !ok {
			if i, ok := v.(int); ok {
				f = float64(i)
			}
		}
		sum += f * f
	}
	return math.Sqrt(sum)
}

func withObservations(state interface{}, observations []managers.Observation) interface{} {
	switch s := state.(type) {
	case *managers.HyperbandIterationState:
		s.Observations = observations
		s.ActiveCount = len(observations)
		return s
	case *managers.BOIterationState:
		s.Observations = append(s.Observations, observations...)
		return s
	default:
		return state
	}
}

package statestore

import (
	"context"
	"testing"

	"github.com/axonml/search-core/managers"
)

func TestInMemoryStoreRoundTripsHyperbandState(t *testing.T) {
	store := NewInMemoryIterationStateStore()
	ctx := context.Background()

	state := &managers.HyperbandIterationState{Iteration: 1, BracketIteration: 2, ActiveCount: 5}
	if err := store.SaveHyperband(ctx, "group-1", state); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.LoadHyperband(ctx, "group-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Iteration != 1 || got.BracketIteration != 2 || got.ActiveCount != 5 {
		t.Errorf("unexpected state: %+v", got)
	}
}

func TestInMemoryStoreMissingGroupReturnsNil(t *testing.T) {
	store := NewInMemoryIterationStateStore()
	got, err := store.LoadBO(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing group, got %+v", got)
	}
}

func TestInMemoryStoreDeleteClearsBothStrategies(t *testing.T) {
	store := NewInMemoryIterationStateStore()
	ctx := context.Background()

	_ = store.SaveHyperband(ctx, "group-1", &managers.HyperbandIterationState{Iteration: 1})
	_ = store.SaveBO(ctx, "group-1", &managers.BOIterationState{Iteration: 1})

	if err := store.Delete(ctx, "group-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hb, _ := store.LoadHyperband(ctx, "group-1")
	bo, _ := store.LoadBO(ctx, "group-1")
	if hb != nil || bo != nil {
		t.Errorf("expected both states cleared, got hb=%+v bo=%+v", hb, bo)
	}
}

package sct

import (
	"testing"

	"github.com/google/uuid"

	"github.com/go-sct/sct/emit"
	"github.com/go-sct/sct/store"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig(): %v", err)
	}
	if cfg.Bound != nil {
		t.Errorf("expected no default Bound, got %v", cfg.Bound)
	}
	if cfg.MaxTraces != 0 || cfg.StepBudget != 0 {
		t.Errorf("expected zero default limits, got MaxTraces=%d StepBudget=%d", cfg.MaxTraces, cfg.StepBudget)
	}
	if cfg.Emitter == nil {
		t.Errorf("expected a default NullEmitter, got nil")
	}
}

func TestWithBoundRejectsNil(t *testing.T) {
	if _, err := NewConfig(WithBound(nil)); err == nil {
		t.Errorf("expected an error for a nil Bound")
	}
}

func TestWithMaxTracesRejectsNegative(t *testing.T) {
	if _, err := NewConfig(WithMaxTraces(-1)); err == nil {
		t.Errorf("expected an error for a negative MaxTraces")
	}
}

func TestWithStepBudgetRejectsNegative(t *testing.T) {
	if _, err := NewConfig(WithStepBudget(-1)); err == nil {
		t.Errorf("expected an error for a negative StepBudget")
	}
}

func TestWithEmitterRejectsNil(t *testing.T) {
	if _, err := NewConfig(WithEmitter(nil)); err == nil {
		t.Errorf("expected an error for a nil Emitter")
	}
}

func TestNewConfigMintsSearchIDWhenStoreSetWithoutOne(t *testing.T) {
	cfg, err := NewConfig(WithStore(store.NewMemStore()))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.SearchID == "" {
		t.Fatal("expected a generated SearchID when WithStore is set without WithSearchID")
	}
	if _, err := uuid.Parse(cfg.SearchID); err != nil {
		t.Errorf("generated SearchID %q is not a uuid: %v", cfg.SearchID, err)
	}
}

func TestNewConfigLeavesSearchIDEmptyWithoutStore(t *testing.T) {
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.SearchID != "" {
		t.Errorf("expected no generated SearchID without a Store, got %q", cfg.SearchID)
	}
}

func TestWithSearchIDOverridesGeneratedID(t *testing.T) {
	cfg, err := NewConfig(WithStore(store.NewMemStore()), WithSearchID("explicit-id"))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.SearchID != "explicit-id" {
		t.Errorf("SearchID = %q, want \"explicit-id\"", cfg.SearchID)
	}
}

func TestOptionsApplyInOrder(t *testing.T) {
	bound, err := NewPreemptionBound(2)
	if err != nil {
		t.Fatalf("NewPreemptionBound: %v", err)
	}
	cfg, err := NewConfig(
		WithBound(bound),
		WithMaxTraces(100),
		WithStepBudget(500),
		WithSearchID("search-1"),
		WithEmitter(emit.NewNullEmitter()),
	)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.Bound != bound {
		t.Errorf("Bound not applied")
	}
	if cfg.MaxTraces != 100 || cfg.StepBudget != 500 || cfg.SearchID != "search-1" {
		t.Errorf("options not applied: %+v", cfg)
	}
}

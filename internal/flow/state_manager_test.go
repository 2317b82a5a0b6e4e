package flow

import (
	"context"
	"testing"

	"github.com/naapim/naapim/internal/models"
)

func TestStateManager_CurrentState(t *testing.T) {
	sm := NewMockStateManager()
	ctx := context.Background()

	state, err := sm.GetCurrentState(ctx, "p1", models.FlowTypeDecision)
	if err != nil {
		t.Fatalf("GetCurrentState: %v", err)
	}
	if state != "" {
		t.Errorf("fresh participant should have empty state, got %q", state)
	}

	if err := sm.SetCurrentState(ctx, "p1", models.FlowTypeDecision, models.StateClassifying); err != nil {
		t.Fatalf("SetCurrentState: %v", err)
	}
	state, err = sm.GetCurrentState(ctx, "p1", models.FlowTypeDecision)
	if err != nil || state != models.StateClassifying {
		t.Errorf("state = %q, %v", state, err)
	}
}

func TestStateManager_StateData(t *testing.T) {
	sm := NewMockStateManager()
	ctx := context.Background()

	// Data can be written before any state exists.
	if err := sm.SetStateData(ctx, "p1", models.FlowTypeDecision, models.DataKeyUserInput, "spora başlasam mı"); err != nil {
		t.Fatalf("SetStateData: %v", err)
	}
	value, err := sm.GetStateData(ctx, "p1", models.FlowTypeDecision, models.DataKeyUserInput)
	if err != nil || value != "spora başlasam mı" {
		t.Errorf("value = %q, %v", value, err)
	}

	missing, err := sm.GetStateData(ctx, "p1", models.FlowTypeDecision, models.DataKeyArchetypeID)
	if err != nil || missing != "" {
		t.Errorf("missing key should be empty, got %q, %v", missing, err)
	}
}

func TestStateManager_TransitionState(t *testing.T) {
	sm := NewMockStateManager()
	ctx := context.Background()

	if err := sm.SetCurrentState(ctx, "p1", models.FlowTypeDecision, models.StateReady); err != nil {
		t.Fatalf("SetCurrentState: %v", err)
	}
	if err := sm.TransitionState(ctx, "p1", models.FlowTypeDecision, models.StateReady, models.StateAnswering); err != nil {
		t.Fatalf("TransitionState: %v", err)
	}
	if err := sm.TransitionState(ctx, "p1", models.FlowTypeDecision, models.StateReady, models.StateComplete); err == nil {
		t.Error("transition from a stale state should fail")
	}
	state, _ := sm.GetCurrentState(ctx, "p1", models.FlowTypeDecision)
	if state != models.StateAnswering {
		t.Errorf("failed transition must not change state, got %q", state)
	}
}

func TestStateManager_ResetState(t *testing.T) {
	sm := NewMockStateManager()
	ctx := context.Background()

	if err := sm.SetCurrentState(ctx, "p1", models.FlowTypeDecision, models.StateReady); err != nil {
		t.Fatalf("SetCurrentState: %v", err)
	}
	if err := sm.SetStateData(ctx, "p1", models.FlowTypeDecision, models.DataKeyUserInput, "soru"); err != nil {
		t.Fatalf("SetStateData: %v", err)
	}
	if err := sm.ResetState(ctx, "p1", models.FlowTypeDecision); err != nil {
		t.Fatalf("ResetState: %v", err)
	}

	state, _ := sm.GetCurrentState(ctx, "p1", models.FlowTypeDecision)
	value, _ := sm.GetStateData(ctx, "p1", models.FlowTypeDecision, models.DataKeyUserInput)
	if state != "" || value != "" {
		t.Errorf("reset left state %q and data %q behind", state, value)
	}
}

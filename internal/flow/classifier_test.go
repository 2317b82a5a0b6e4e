package flow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/naapim/naapim/internal/models"
)

func TestClassifier_NilClientFallsBack(t *testing.T) {
	reg := loadTestRegistry(t)
	c := NewClassifier(nil)

	result := c.Classify(context.Background(), "iş değiştirmeli miyim", reg.Archetypes(), nil)

	if result.ArchetypeID != reg.Archetypes()[0].ID {
		t.Errorf("fallback should use first archetype, got %q", result.ArchetypeID)
	}
	if result.Confidence != 0 {
		t.Errorf("fallback confidence should be 0, got %v", result.Confidence)
	}
	if !result.NeedsClarification {
		t.Error("fallback should need clarification")
	}
	if result.ClarificationPrompt != FallbackClarificationPrompt {
		t.Errorf("unexpected clarification prompt: %q", result.ClarificationPrompt)
	}
}

func TestClassifier_ModelErrorFallsBack(t *testing.T) {
	reg := loadTestRegistry(t)
	mock := &mockGenAIClient{structuredErr: errors.New("model unavailable")}
	c := NewClassifier(mock)

	result := c.Classify(context.Background(), "iş değiştirmeli miyim araba alsam mı", reg.Archetypes(), nil)

	if result.ArchetypeID != reg.Archetypes()[0].ID {
		t.Errorf("fallback should use first archetype, got %q", result.ArchetypeID)
	}
	if result.DecisionType != models.DecisionTypeExploration {
		t.Errorf("fallback decision type should be exploration, got %q", result.DecisionType)
	}
	if result.DecisionComplexity != models.ComplexityModerate {
		t.Errorf("fallback complexity should be moderate, got %q", result.DecisionComplexity)
	}
}

func TestClassifier_UnparseableOutputFallsBack(t *testing.T) {
	reg := loadTestRegistry(t)
	mock := &mockGenAIClient{structuredResponse: "not json at all"}
	c := NewClassifier(mock)

	result := c.Classify(context.Background(), "yeni işe geçsem mi kalmalı mıyım", reg.Archetypes(), nil)

	if !result.NeedsClarification || result.Confidence != 0 {
		t.Errorf("expected fallback result, got %+v", result)
	}
}

func TestClassifier_ValidResponsePassesThrough(t *testing.T) {
	reg := loadTestRegistry(t)
	mock := &mockGenAIClient{structuredResponse: `{
		"archetype_id": "career_decisions",
		"decision_type": "binary_decision",
		"decision_complexity": "complex",
		"confidence": 0.92,
		"needs_clarification": false,
		"is_unrealistic": false,
		"clarification_prompt": null,
		"interpreted_question": "Mevcut işinden ayrılıp ayrılmamayı düşünüyorsun.",
		"selected_simple_field_keys": null
	}`}
	c := NewClassifier(mock)

	result := c.Classify(context.Background(), "istifa etmeli miyim artık bilmiyorum", reg.Archetypes(), reg.SimplePools())

	if result.ArchetypeID != "career_decisions" {
		t.Errorf("archetype = %q, want career_decisions", result.ArchetypeID)
	}
	if result.DecisionType != models.DecisionTypeBinary {
		t.Errorf("decision type = %q, want binary_decision", result.DecisionType)
	}
	if result.Confidence != 0.92 {
		t.Errorf("confidence = %v, want 0.92", result.Confidence)
	}
	if result.NeedsClarification {
		t.Error("should not need clarification")
	}
	if mock.lastSchemaName != classificationSchemaName {
		t.Errorf("schema name = %q, want %q", mock.lastSchemaName, classificationSchemaName)
	}
	if !strings.Contains(mock.lastUserPrompt, "istifa etmeli miyim") {
		t.Error("user prompt should carry the user question")
	}
}

func TestClassifier_UnknownArchetypeSubstituted(t *testing.T) {
	reg := loadTestRegistry(t)
	mock := &mockGenAIClient{structuredResponse: `{
		"archetype_id": "nonexistent_archetype",
		"decision_type": "comparison",
		"decision_complexity": "moderate",
		"confidence": 0.5,
		"needs_clarification": false,
		"is_unrealistic": false,
		"clarification_prompt": null,
		"interpreted_question": "x",
		"selected_simple_field_keys": null
	}`}
	c := NewClassifier(mock)

	result := c.Classify(context.Background(), "hangisini seçsem bilemedim gerçekten", reg.Archetypes(), nil)

	if result.ArchetypeID != reg.Archetypes()[0].ID {
		t.Errorf("unknown archetype should be substituted with first, got %q", result.ArchetypeID)
	}
}

func TestClassifier_InvalidEnumsDefaulted(t *testing.T) {
	reg := loadTestRegistry(t)
	mock := &mockGenAIClient{structuredResponse: `{
		"archetype_id": "career_decisions",
		"decision_type": "galactic_decision",
		"decision_complexity": "impossible",
		"confidence": 7,
		"needs_clarification": false,
		"is_unrealistic": false,
		"clarification_prompt": null,
		"interpreted_question": "x",
		"selected_simple_field_keys": null
	}`}
	c := NewClassifier(mock)

	result := c.Classify(context.Background(), "kariyerimde ne yapsam acaba şimdi", reg.Archetypes(), nil)

	if result.DecisionType != models.DecisionTypeExploration {
		t.Errorf("invalid decision type should default to exploration, got %q", result.DecisionType)
	}
	if result.DecisionComplexity != models.ComplexityModerate {
		t.Errorf("invalid complexity should default to moderate, got %q", result.DecisionComplexity)
	}
	if result.Confidence != 1 {
		t.Errorf("confidence should clamp to 1, got %v", result.Confidence)
	}
}

func TestClassifier_UnrealisticForcedFromPromptText(t *testing.T) {
	reg := loadTestRegistry(t)
	mock := &mockGenAIClient{structuredResponse: `{
		"archetype_id": "lifestyle_decisions",
		"decision_type": "exploration",
		"decision_complexity": "simple",
		"confidence": 0.3,
		"needs_clarification": true,
		"is_unrealistic": false,
		"clarification_prompt": "Sana sadece gerçek hayat kararlarında yardımcı olabilirim.",
		"interpreted_question": null,
		"selected_simple_field_keys": null
	}`}
	c := NewClassifier(mock)

	result := c.Classify(context.Background(), "ejderhamı nerede otlatsam acaba bugün", reg.Archetypes(), nil)

	if !result.IsUnrealistic {
		t.Error("is_unrealistic should be forced from the clarification prompt text")
	}
}

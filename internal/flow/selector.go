// Package flow provides the adaptive question selector.
package flow

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/naapim/naapim/internal/genai"
	"github.com/naapim/naapim/internal/models"
	"github.com/naapim/naapim/internal/registry"
)

// Selection bounds. The validation step guarantees the selected set respects
// them regardless of what the external model returns.
const (
	// MinSelectedQuestions is the padding floor for moderate/complex flows.
	MinSelectedQuestions = 5
	// MaxSelectedQuestions is the truncation ceiling.
	MaxSelectedQuestions = 10
	// FallbackQuestionCount is the deterministic pick when the model is unreachable.
	FallbackQuestionCount = 7
)

// QuestionSelector chooses which subset of an archetype's question pool to
// present for a specific phrasing of a decision. Like the classifier it never
// returns an error: failures degrade to a deterministic catalog-order pick.
type QuestionSelector struct {
	genaiClient genai.ClientInterface
	registry    *registry.Registry
}

// NewQuestionSelector creates a question selector. A nil GenAI client is
// allowed and always yields the deterministic fallback.
func NewQuestionSelector(genaiClient genai.ClientInterface, reg *registry.Registry) *QuestionSelector {
	return &QuestionSelector{genaiClient: genaiClient, registry: reg}
}

// selectionRequest is the external call's request contract.
type selectionRequest struct {
	UserQuestion    string                  `json:"user_question"`
	ArchetypeLabel  string                  `json:"archetype_label"`
	AvailableFields []models.AvailableField `json:"available_fields"`
}

// SelectQuestions picks a bounded subset of the archetype's available fields
// for the given user text.
func (s *QuestionSelector) SelectQuestions(ctx context.Context, userText, archetypeID string) models.SelectionResult {
	available := s.registry.AvailableFields(archetypeID)
	if len(available) == 0 {
		slog.Warn("QuestionSelector.SelectQuestions: archetype has no available fields", "archetype", archetypeID)
		return models.SelectionResult{SelectedFieldKeys: []string{}}
	}

	// Small pools skip the external call entirely: everything is shown.
	if len(available) <= MaxSelectedQuestions {
		keys := make([]string, 0, len(available))
		for _, f := range available {
			keys = append(keys, f.Key)
		}
		slog.Debug("QuestionSelector.SelectQuestions: pool within bounds, selecting all",
			"archetype", archetypeID, "count", len(keys))
		return models.SelectionResult{SelectedFieldKeys: keys}
	}

	if s.genaiClient == nil {
		slog.Warn("QuestionSelector.SelectQuestions: no GenAI client configured, using fallback", "archetype", archetypeID)
		return fallbackSelection(available)
	}

	archetypeLabel := archetypeID
	if a, ok := s.registry.Archetype(archetypeID); ok {
		archetypeLabel = a.Label
	}

	payload, err := json.Marshal(selectionRequest{
		UserQuestion:    userText,
		ArchetypeLabel:  archetypeLabel,
		AvailableFields: available,
	})
	if err != nil {
		slog.Error("QuestionSelector.SelectQuestions: failed to marshal request", "error", err)
		return fallbackSelection(available)
	}

	raw, err := s.genaiClient.GenerateStructured(ctx, selectorSystemPrompt, string(payload), selectionSchemaName, selectionSchema())
	if err != nil {
		slog.Error("QuestionSelector.SelectQuestions: model call failed, using fallback", "error", err, "archetype", archetypeID)
		return fallbackSelection(available)
	}

	var result models.SelectionResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		slog.Error("QuestionSelector.SelectQuestions: failed to parse model output, using fallback", "error", err, "raw", raw)
		return fallbackSelection(available)
	}

	result.SelectedFieldKeys = validateSelection(result.SelectedFieldKeys, available)
	slog.Info("QuestionSelector.SelectQuestions: selected",
		"archetype", archetypeID, "count", len(result.SelectedFieldKeys))
	return result
}

// validateSelection enforces the selected-set invariant: discard unknown keys,
// pad with unselected fields in catalog order up to the floor, truncate at the
// ceiling.
func validateSelection(keys []string, available []models.AvailableField) []string {
	availableSet := make(map[string]bool, len(available))
	for _, f := range available {
		availableSet[f.Key] = true
	}

	valid := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if !availableSet[key] {
			slog.Debug("QuestionSelector.validateSelection: discarding unknown key", "key", key)
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		valid = append(valid, key)
	}

	if len(valid) < MinSelectedQuestions {
		for _, f := range available {
			if len(valid) >= MinSelectedQuestions {
				break
			}
			if seen[f.Key] {
				continue
			}
			seen[f.Key] = true
			valid = append(valid, f.Key)
		}
	}

	if len(valid) > MaxSelectedQuestions {
		valid = valid[:MaxSelectedQuestions]
	}
	return valid
}

// fallbackSelection is the deterministic degradation: the first fields in
// catalog order.
func fallbackSelection(available []models.AvailableField) models.SelectionResult {
	n := FallbackQuestionCount
	if n > len(available) {
		n = len(available)
	}
	keys := make([]string, 0, n)
	for _, f := range available[:n] {
		keys = append(keys, f.Key)
	}
	return models.SelectionResult{SelectedFieldKeys: keys}
}

// selectorSystemPrompt instructs the model to pick the most diagnostic
// questions for the user's specific phrasing.
const selectorSystemPrompt = `You select which questions to ask a user who is working through a personal decision. The user message is a JSON object with the user's question (in Turkish), the topic label, and every available question as a field with its key, label, and answer option labels.

Pick the 5-10 fields whose answers would be most diagnostic for THIS specific phrasing of the decision. Prefer questions that discriminate between the user's realistic options; skip questions whose answer is already implied by the text. Order the keys by relevance, most diagnostic first.

Return only field keys that appear in available_fields. Briefly explain your picks in reasoning.`

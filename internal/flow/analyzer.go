// Package flow provides recommendation generation for completed flows.
package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/naapim/naapim/internal/genai"
	"github.com/naapim/naapim/internal/models"
	"github.com/naapim/naapim/internal/registry"
)

// Analyzer generates a structured recommendation from a completed decision
// flow. Unlike the classifier and selector it runs after the user-facing flow
// has finished, so errors propagate instead of degrading silently.
type Analyzer struct {
	genaiClient genai.ClientInterface
	registry    *registry.Registry
}

// NewAnalyzer creates an analyzer backed by the given GenAI client.
func NewAnalyzer(genaiClient genai.ClientInterface, reg *registry.Registry) *Analyzer {
	return &Analyzer{genaiClient: genaiClient, registry: reg}
}

// analysisRequest is the external call's request contract.
type analysisRequest struct {
	UserQuestion  string              `json:"user_question"`
	ArchetypeID   string              `json:"archetype_id"`
	DecisionType  models.DecisionType `json:"decision_type"`
	AnswerSummary string              `json:"answer_summary"`
}

// GenerateRecommendation produces a recommendation for a completed session.
func (a *Analyzer) GenerateRecommendation(ctx context.Context, session models.Session) (models.Recommendation, error) {
	if a.genaiClient == nil {
		return models.Recommendation{}, genai.ErrAPIKeyNotSet
	}

	payload, err := json.Marshal(analysisRequest{
		UserQuestion:  session.UserQuestion,
		ArchetypeID:   session.ArchetypeID,
		DecisionType:  session.DecisionType,
		AnswerSummary: a.AnswerSummary(session.SelectedFieldKeys, session.Answers),
	})
	if err != nil {
		return models.Recommendation{}, fmt.Errorf("failed to marshal analysis request: %w", err)
	}

	raw, err := a.genaiClient.GenerateStructured(ctx, analyzerSystemPrompt, string(payload), analysisSchemaName, analysisSchema())
	if err != nil {
		slog.Error("Analyzer.GenerateRecommendation: model call failed", "error", err, "sessionID", session.ID)
		return models.Recommendation{}, fmt.Errorf("analysis generation failed: %w", err)
	}

	var rec models.Recommendation
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return models.Recommendation{}, fmt.Errorf("failed to parse analysis output: %w", err)
	}
	slog.Info("Analyzer.GenerateRecommendation: generated", "sessionID", session.ID, "confidence", rec.Confidence)
	return rec, nil
}

// AnswerSummary renders answers as human-readable "question: answer" lines
// using registry labels, in question order. Answers under keys not listed in
// fieldKeys follow in sorted order, and unresolvable keys fall back to the
// raw ids.
func (a *Analyzer) AnswerSummary(fieldKeys []string, answers map[string]string) string {
	ordered := make([]string, 0, len(answers))
	seen := make(map[string]bool, len(answers))
	for _, key := range fieldKeys {
		if _, ok := answers[key]; ok && !seen[key] {
			ordered = append(ordered, key)
			seen[key] = true
		}
	}
	var rest []string
	for key := range answers {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	ordered = append(ordered, rest...)

	var lines []string
	for _, key := range ordered {
		optionID := answers[key]
		questionText := key
		optionLabel := optionID
		if field, ok := a.registry.Field(key); ok {
			questionText = field.Label
			if optionSet, ok := a.registry.OptionSet(field.OptionSetID); ok {
				for _, opt := range optionSet.Options {
					if opt.ID == optionID {
						optionLabel = opt.Label
						break
					}
				}
			}
		}
		lines = append(lines, fmt.Sprintf("%s: %s", questionText, optionLabel))
	}
	return strings.Join(lines, "\n")
}

// analyzerSystemPrompt frames the recommendation request.
const analyzerSystemPrompt = `You help a user reach a personal decision. The user message is a JSON object with the user's original question (in Turkish), the topic archetype, the decision type, and a summary of the user's answers to diagnostic questions.

Write a recommendation in warm, direct Turkish, addressed to the user ("sen"). Ground every point in the user's own answers; do not invent facts. Be decisive when the answers point one way, and honest about the trade-off when they do not. Keep the recommendation under 150 words, the reasoning under 100, and list at most 4 considerations. Never give financial, medical, or legal advice.`

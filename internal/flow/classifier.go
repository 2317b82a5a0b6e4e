// Package flow provides the decision classifier.
package flow

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/naapim/naapim/internal/genai"
	"github.com/naapim/naapim/internal/models"
)

// FallbackClarificationPrompt is the generic Turkish prompt returned when the
// classifier cannot reach or parse the external model. It keeps the flow
// moving instead of surfacing a technical error.
const FallbackClarificationPrompt = "Sorunu biraz daha açar mısın? Hangi konuda karar vermeye çalışıyorsun ve seni en çok ne zorluyor?"

// unrealisticMarkers are phrases a clarification prompt uses when the model
// judged the premise fictional but forgot to set is_unrealistic. Matching any
// of them forces the flag.
var unrealisticMarkers = []string{"gerçek bir karar", "gerçek hayat", "gerçek bir soru"}

// Classifier turns free-form user text into a ClassificationResult by
// delegating to an external reasoning model with a schema-constrained output.
// It never returns an error: every failure mode degrades to a deterministic
// fallback result.
type Classifier struct {
	genaiClient genai.ClientInterface
}

// NewClassifier creates a classifier backed by the given GenAI client. A nil
// client is allowed and always yields the fallback result.
func NewClassifier(genaiClient genai.ClientInterface) *Classifier {
	return &Classifier{genaiClient: genaiClient}
}

// classificationRequest is the external call's request contract.
type classificationRequest struct {
	UserQuestion        string                          `json:"user_question"`
	Archetypes          []classifierArchetype           `json:"archetypes"`
	SimpleQuestionPools map[string][]models.SimpleField `json:"simple_question_pools,omitempty"`
}

// classifierArchetype is the archetype context supplied to the model.
type classifierArchetype struct {
	ID           string              `json:"id"`
	Label        string              `json:"label"`
	RoutingHints models.RoutingHints `json:"routing_hints"`
}

// Classify classifies user text against the supplied archetype catalog.
// simplePools optionally supplies per-archetype candidate field keys for the
// simple-complexity branch.
func (c *Classifier) Classify(ctx context.Context, userText string, archetypes []models.Archetype, simplePools map[string][]models.SimpleField) models.ClassificationResult {
	if len(archetypes) == 0 {
		slog.Error("Classifier.Classify: called with empty archetype catalog")
		return models.ClassificationResult{
			DecisionType:        models.DecisionTypeExploration,
			DecisionComplexity:  models.ComplexityModerate,
			NeedsClarification:  true,
			ClarificationPrompt: FallbackClarificationPrompt,
		}
	}
	if c.genaiClient == nil {
		slog.Warn("Classifier.Classify: no GenAI client configured, using fallback")
		return fallbackClassification(archetypes)
	}

	request := classificationRequest{
		UserQuestion:        userText,
		SimpleQuestionPools: simplePools,
		Archetypes:          make([]classifierArchetype, 0, len(archetypes)),
	}
	archetypeIDs := make([]string, 0, len(archetypes))
	for _, a := range archetypes {
		archetypeIDs = append(archetypeIDs, a.ID)
		request.Archetypes = append(request.Archetypes, classifierArchetype{
			ID:           a.ID,
			Label:        a.Label,
			RoutingHints: a.RoutingHints,
		})
	}

	payload, err := json.Marshal(request)
	if err != nil {
		slog.Error("Classifier.Classify: failed to marshal request", "error", err)
		return fallbackClassification(archetypes)
	}

	raw, err := c.genaiClient.GenerateStructured(ctx, classifierSystemPrompt, string(payload), classificationSchemaName, classificationSchema(archetypeIDs))
	if err != nil {
		slog.Error("Classifier.Classify: model call failed, using fallback", "error", err)
		return fallbackClassification(archetypes)
	}

	var result models.ClassificationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		slog.Error("Classifier.Classify: failed to parse model output, using fallback", "error", err, "raw", raw)
		return fallbackClassification(archetypes)
	}

	return c.normalize(result, archetypes)
}

// normalize enforces the post-processing invariants on a parsed result.
func (c *Classifier) normalize(result models.ClassificationResult, archetypes []models.Archetype) models.ClassificationResult {
	// Unknown archetype ids are substituted with the first archetype in the
	// catalog: fail-open, not fail-closed.
	known := false
	for _, a := range archetypes {
		if a.ID == result.ArchetypeID {
			known = true
			break
		}
	}
	if !known {
		slog.Warn("Classifier.normalize: model returned unknown archetype, substituting default",
			"returned", result.ArchetypeID, "default", archetypes[0].ID)
		result.ArchetypeID = archetypes[0].ID
	}

	if !models.IsValidDecisionType(result.DecisionType) {
		slog.Warn("Classifier.normalize: invalid decision type, defaulting", "returned", result.DecisionType)
		result.DecisionType = models.DecisionTypeExploration
	}
	if !models.IsValidComplexity(result.DecisionComplexity) {
		slog.Warn("Classifier.normalize: invalid complexity, defaulting", "returned", result.DecisionComplexity)
		result.DecisionComplexity = models.ComplexityModerate
	}
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}

	// Safety net: when the clarification prompt textually says the question is
	// not a real decision, force the unrealistic flag even if the model did
	// not set it.
	if result.NeedsClarification && !result.IsUnrealistic {
		prompt := strings.ToLower(result.ClarificationPrompt)
		for _, marker := range unrealisticMarkers {
			if strings.Contains(prompt, marker) {
				slog.Debug("Classifier.normalize: forcing is_unrealistic from prompt text")
				result.IsUnrealistic = true
				break
			}
		}
	}

	slog.Info("Classifier.Classify: classified",
		"archetype", result.ArchetypeID,
		"decisionType", result.DecisionType,
		"complexity", result.DecisionComplexity,
		"confidence", result.Confidence,
		"needsClarification", result.NeedsClarification,
		"isUnrealistic", result.IsUnrealistic)
	return result
}

// fallbackClassification is the deterministic safe degradation used whenever
// the external model is unavailable or returns something unusable.
func fallbackClassification(archetypes []models.Archetype) models.ClassificationResult {
	return models.ClassificationResult{
		ArchetypeID:         archetypes[0].ID,
		DecisionType:        models.DecisionTypeExploration,
		DecisionComplexity:  models.ComplexityModerate,
		Confidence:          0,
		NeedsClarification:  true,
		IsUnrealistic:       false,
		ClarificationPrompt: FallbackClarificationPrompt,
	}
}

// classifierSystemPrompt instructs the model on archetype routing, decision
// typing, complexity grading, and clarification policy. The worked examples
// anchor the complexity tiers.
const classifierSystemPrompt = `You classify a user's personal decision question, written in informal Turkish, into exactly one topic archetype. The user message is a JSON object with the user's question, the archetype catalog (each with routing hints), and optionally per-archetype pools of simple candidate question keys.

Rules:

1. Infer intent even from very short or informal text. "iş değiştirsem mi" is a career decision; a single emoji is not classifiable.

2. Pick exactly one archetype_id from the catalog. Use the routing hints: keywords and positive examples attract, negative examples and exclusions repel. Topics listed under the blocked archetype's definition (financial investment, medical, legal advice) belong to that archetype.

3. Assign exactly one decision_type:
   - binary_decision: yes/no on one option ("istifa etmeli miyim")
   - comparison: choosing among named alternatives ("A şirketi mi B şirketi mi")
   - timing: the what is settled, the when is not ("ne zaman taşınmalıyım")
   - method: the goal is settled, the how is not ("nasıl tasarruf etmeliyim")
   - validation: a decision already made, seeking confirmation ("istifa ettim, doğru mu yaptım")
   - emotional_support: the need is processing feelings more than deciding
   - exploration: open-ended option discovery ("bu yaz ne yapsam")

4. Assign decision_complexity:
   - simple: low stakes, easily reversible, few factors ("bu akşam ne pişirsem")
   - moderate: meaningful stakes, some factors ("spor salonuna mı yazılsam eve mi ekipman alsam")
   - complex: life-changing, many interacting factors ("ikinci çocuk yapmalı mıyız", "yurtdışına taşınmalı mıyım")

5. needs_clarification is true ONLY for genuinely unintelligible input (random characters, a lone word with no decision reading) or fantastical premises. Exploration-style questions like "akşama ne yapsam" are real decisions: never flag them. When true, write a short, warm clarification_prompt in Turkish.

6. If the premise is fictional or impossible (superpowers, talking animals, time travel), set is_unrealistic=true AND needs_clarification=true, and say in the clarification_prompt that you can only help with real-life decisions (gerçek hayat kararları).

7. When decision_complexity is simple, you MUST fill selected_simple_field_keys with 2-5 keys chosen from the matching archetype's pool in simple_question_pools. This is mandatory, not optional. For moderate and complex decisions set it to null.

8. Always set interpreted_question to a one-sentence Turkish paraphrase of the decision as you understood it (null only when needs_clarification is true).

Respond only with the JSON object required by the schema.`

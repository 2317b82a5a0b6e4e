// Package flow defines the JSON schemas constraining external model output.
//
// The property names and enum values in these schemas are the external model
// contract. The web client and any other orchestration layer depend on them;
// changing a name or enum value changes product behavior, not implementation.
package flow

import "github.com/naapim/naapim/internal/models"

// Schema names registered with the structured-output API.
const (
	classificationSchemaName = "decision_classification"
	selectionSchemaName      = "question_selection"
	analysisSchemaName       = "decision_analysis"
)

// classificationSchema builds the strict response schema for a classification
// round. The archetype_id enum is constrained to the caller-supplied catalog,
// so the model cannot invent an id the registry does not know.
func classificationSchema(archetypeIDs []string) map[string]interface{} {
	decisionTypes := make([]string, len(models.DecisionTypes))
	for i, dt := range models.DecisionTypes {
		decisionTypes[i] = string(dt)
	}

	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"archetype_id": map[string]interface{}{
				"type":        "string",
				"enum":        archetypeIDs,
				"description": "The single best matching topic archetype for the user's decision.",
			},
			"decision_type": map[string]interface{}{
				"type":        "string",
				"enum":        decisionTypes,
				"description": "What kind of decision the user is facing.",
			},
			"decision_complexity": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"simple", "moderate", "complex"},
				"description": "How involved the question flow should be.",
			},
			"confidence": map[string]interface{}{
				"type":        "number",
				"description": "Classification confidence between 0 and 1.",
			},
			"needs_clarification": map[string]interface{}{
				"type":        "boolean",
				"description": "True only when the input is genuinely unintelligible or fantastical.",
			},
			"is_unrealistic": map[string]interface{}{
				"type":        "boolean",
				"description": "True when the premise is fictional or impossible. Only meaningful together with needs_clarification.",
			},
			"clarification_prompt": map[string]interface{}{
				"type":        []string{"string", "null"},
				"description": "A short Turkish prompt asking the user to elaborate. Null when no clarification is needed.",
			},
			"interpreted_question": map[string]interface{}{
				"type":        []string{"string", "null"},
				"description": "A one-sentence Turkish paraphrase of the decision as understood.",
			},
			"selected_simple_field_keys": map[string]interface{}{
				"type":        []string{"array", "null"},
				"items":       map[string]interface{}{"type": "string"},
				"description": "Mandatory when decision_complexity is simple: 2-5 field keys drawn from the supplied pool. Null otherwise.",
			},
		},
		"required": []string{
			"archetype_id",
			"decision_type",
			"decision_complexity",
			"confidence",
			"needs_clarification",
			"is_unrealistic",
			"clarification_prompt",
			"interpreted_question",
			"selected_simple_field_keys",
		},
		"additionalProperties": false,
	}
}

// selectionSchema is the strict response schema for a question-selection round.
func selectionSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"selectedFieldKeys": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Field keys of the questions most diagnostic for this decision, ordered by relevance.",
			},
			"reasoning": map[string]interface{}{
				"type":        []string{"string", "null"},
				"description": "Brief explanation of why these questions were chosen.",
			},
		},
		"required":             []string{"selectedFieldKeys", "reasoning"},
		"additionalProperties": false,
	}
}

// analysisSchema is the strict response schema for recommendation generation.
func analysisSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"recommendation": map[string]interface{}{
				"type":        "string",
				"description": "The recommendation itself, in Turkish, addressed directly to the user.",
			},
			"reasoning": map[string]interface{}{
				"type":        "string",
				"description": "Why this recommendation follows from the user's answers.",
			},
			"confidence": map[string]interface{}{
				"type":        "number",
				"description": "Recommendation confidence between 0 and 1.",
			},
			"considerations": map[string]interface{}{
				"type":        []string{"array", "null"},
				"items":       map[string]interface{}{"type": "string"},
				"description": "Points worth weighing before acting, in Turkish.",
			},
		},
		"required":             []string{"recommendation", "reasoning", "confidence", "considerations"},
		"additionalProperties": false,
	}
}

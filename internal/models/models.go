// Package models defines the core data structures for naapim.
//
// It includes the registry reference types, classification and question
// selection contracts, and persistence records shared across modules.
package models

import (
	"errors"
	"time"
)

// DecisionType categorizes what kind of decision the user is facing.
type DecisionType string

const (
	DecisionTypeBinary           DecisionType = "binary_decision"
	DecisionTypeComparison       DecisionType = "comparison"
	DecisionTypeTiming           DecisionType = "timing"
	DecisionTypeMethod           DecisionType = "method"
	DecisionTypeValidation       DecisionType = "validation"
	DecisionTypeEmotionalSupport DecisionType = "emotional_support"
	DecisionTypeExploration      DecisionType = "exploration"
)

// DecisionTypes lists every valid decision type, in the order the external
// model contract declares them.
var DecisionTypes = []DecisionType{
	DecisionTypeBinary,
	DecisionTypeComparison,
	DecisionTypeTiming,
	DecisionTypeMethod,
	DecisionTypeValidation,
	DecisionTypeEmotionalSupport,
	DecisionTypeExploration,
}

// IsValidDecisionType checks if the given decision type is supported.
func IsValidDecisionType(dt DecisionType) bool {
	for _, t := range DecisionTypes {
		if t == dt {
			return true
		}
	}
	return false
}

// DecisionComplexity grades how involved the question flow should be.
type DecisionComplexity string

const (
	ComplexitySimple   DecisionComplexity = "simple"
	ComplexityModerate DecisionComplexity = "moderate"
	ComplexityComplex  DecisionComplexity = "complex"
)

// IsValidComplexity checks if the given complexity tier is supported.
func IsValidComplexity(dc DecisionComplexity) bool {
	switch dc {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex:
		return true
	}
	return false
}

// Validation constants for user input.
const (
	// MinInputWords is the minimum word count required before classification.
	MinInputWords = 3
	// MaxInputLength caps the accumulated user input in characters.
	MaxInputLength = 4096
	// MaxOutcomeLength caps community outcome stories in characters.
	MaxOutcomeLength = 2000
)

// Error variables for better error handling and testability.
var (
	ErrEmptyInput       = errors.New("user input cannot be empty")
	ErrInputTooShort    = errors.New("user input is too short")
	ErrInputTooLong     = errors.New("user input exceeds maximum length")
	ErrEmptyParticipant = errors.New("participant id cannot be empty")
	ErrUnknownArchetype = errors.New("unknown archetype id")
	ErrOutcomeTooLong   = errors.New("outcome story exceeds maximum length")
	ErrContentFlagged   = errors.New("content rejected by moderation")
)

// RoutingHints is classifier-only context attached to an archetype. It never
// affects resolver traversal.
type RoutingHints struct {
	Definition       string   `json:"definition"`
	Keywords         []string `json:"keywords,omitempty"`
	PositiveExamples []string `json:"positive_examples,omitempty"`
	NegativeExamples []string `json:"negative_examples,omitempty"`
	Exclusions       []string `json:"exclusions,omitempty"`
}

// Archetype is a topic bucket for user decisions. Immutable reference data.
type Archetype struct {
	ID             string       `json:"id"`
	Label          string       `json:"label"`
	FollowUpDays   int          `json:"follow_up_days"`
	CategorySetIDs []string     `json:"category_set_ids"`
	RoutingHints   RoutingHints `json:"routing_hints"`
}

// CategorySet groups categories under an archetype.
type CategorySet struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	CategoryIDs []string `json:"category_ids"`
}

// Category groups field keys. The order of FieldKeys is a binding contract:
// question display order follows this list.
type Category struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	FieldKeys []string `json:"field_keys"`
}

// FieldType distinguishes how a field is rendered and answered.
type FieldType string

const (
	// FieldTypeSingleSelect is the only field type the question UI consumes.
	FieldTypeSingleSelect FieldType = "single_select"
)

// Field is a single answerable question definition.
type Field struct {
	Key         string    `json:"key"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	OptionSetID string    `json:"option_set_id"`
}

// Option is a single selectable answer.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// OptionSet is an ordered list of options referenced by fields.
type OptionSet struct {
	ID      string   `json:"id"`
	Options []Option `json:"options"`
}

// Question is a fully resolved question ready for display.
type Question struct {
	FieldKey      string   `json:"field_key"`
	Text          string   `json:"text"`
	Options       []Option `json:"options"`
	CategoryLabel string   `json:"category_label,omitempty"`
}

// SimpleField is a key+label pair offered to the classifier as a candidate
// for the simple-complexity branch.
type SimpleField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// AvailableField describes a selectable field for the question selector:
// key, label, and the labels of its options.
type AvailableField struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Options []string `json:"options"`
}

// ClassificationResult is the classifier's output contract. Field names and
// enums mirror the external model's JSON schema exactly.
type ClassificationResult struct {
	ArchetypeID             string             `json:"archetype_id"`
	DecisionType            DecisionType       `json:"decision_type"`
	DecisionComplexity      DecisionComplexity `json:"decision_complexity"`
	Confidence              float64            `json:"confidence"`
	NeedsClarification      bool               `json:"needs_clarification"`
	IsUnrealistic           bool               `json:"is_unrealistic"`
	ClarificationPrompt     string             `json:"clarification_prompt,omitempty"`
	InterpretedQuestion     string             `json:"interpreted_question,omitempty"`
	SelectedSimpleFieldKeys []string           `json:"selected_simple_field_keys,omitempty"`
}

// SelectionResult is the question selector's output contract.
type SelectionResult struct {
	SelectedFieldKeys []string `json:"selectedFieldKeys"`
	Reasoning         string   `json:"reasoning,omitempty"`
}

// Recommendation is the structured analysis generated after a completed flow.
type Recommendation struct {
	Recommendation string   `json:"recommendation"`
	Reasoning      string   `json:"reasoning"`
	Confidence     float64  `json:"confidence"`
	Considerations []string `json:"considerations,omitempty"`
}

// Session is a completed decision flow persisted for sharing and community
// stories.
type Session struct {
	ID                string            `json:"id"`
	Code              string            `json:"code"`
	UserQuestion      string            `json:"user_question"`
	ArchetypeID       string            `json:"archetype_id"`
	DecisionType      DecisionType      `json:"decision_type"`
	SelectedFieldKeys []string          `json:"selected_field_keys"`
	Answers           map[string]string `json:"answers"`
	CreatedAt         time.Time         `json:"created_at"`
}

// Outcome is a community story: what the user ultimately did and how it went.
type Outcome struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Story     string    `json:"story"`
	Upvotes   int       `json:"upvotes"`
	Downvotes int       `json:"downvotes"`
	CreatedAt time.Time `json:"created_at"`
}

// VoteDirection is an up or down vote on an outcome story.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// IsValidVoteDirection checks if the given direction is supported.
func IsValidVoteDirection(d VoteDirection) bool {
	return d == VoteUp || d == VoteDown
}

// Reminder is a scheduled follow-up email for a completed session.
type Reminder struct {
	ID        string     `json:"id"`
	SessionID string     `json:"session_id"`
	Email     string     `json:"email"`
	DueAt     time.Time  `json:"due_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// API Response types for consistent JSON responses

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
	// APIStatusRecorded indicates data was successfully recorded via API.
	APIStatusRecorded APIStatus = "recorded"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message and result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}

// Recorded creates a recorded API response with optional result data.
func Recorded(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusRecorded), Result: result}
}

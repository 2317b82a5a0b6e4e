// Package models defines flow type definitions to avoid circular imports.
package models

// FlowType represents a specific type of decision flow
type FlowType string

// StateType represents a specific state within a flow
type StateType string

// DataKey represents a key for storing state-specific data
type DataKey string

// Flow type constants.
const (
	FlowTypeDecision FlowType = "decision"
)

// State constants for the decision flow.
const (
	StateIdle        StateType = "IDLE"
	StateClassifying StateType = "CLASSIFYING"
	StateClarifying  StateType = "CLARIFYING"
	StateUnrealistic StateType = "UNREALISTIC" // Clarifying variant: only a restart is offered
	StateBlocked     StateType = "BLOCKED"     // Terminal: excluded topic (financial/medical/legal)
	StateReady       StateType = "READY"
	StateAnswering   StateType = "ANSWERING"
	StateComplete    StateType = "COMPLETE"
)

// Data key constants for the decision flow.
const (
	DataKeyUserInput           DataKey = "userInput"           // Accumulated user input across clarification rounds
	DataKeyLastClassifiedInput DataKey = "lastClassifiedInput" // Duplicate-classification guard (exact string match)
	DataKeyArchetypeID         DataKey = "archetypeId"
	DataKeyDecisionType        DataKey = "decisionType"
	DataKeyDecisionComplexity  DataKey = "decisionComplexity"
	DataKeySelectedFieldKeys   DataKey = "selectedFieldKeys" // JSON array of chosen field keys
	DataKeyAnswers             DataKey = "answers"      // JSON map of field key -> option id
	DataKeyCurrentIndex        DataKey = "currentIndex" // Zero-based question index
	DataKeyClarificationPrompt DataKey = "clarificationPrompt"
	DataKeyInterpretedQuestion DataKey = "interpretedQuestion"
	DataKeyReadyAt             DataKey = "readyAt" // RFC3339Nano timestamp for the minimum-dwell gate
)

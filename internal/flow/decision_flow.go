// Package flow provides the decision flow state machine.
package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/naapim/naapim/internal/models"
	"github.com/naapim/naapim/internal/registry"
	"github.com/naapim/naapim/internal/util"
)

// InputSeparator joins accumulated clarification fragments. Classification
// always sees the full em-dash-joined text, never a fragment alone.
const InputSeparator = " — "

// DefaultMinDwell is the minimum time the flow stays in READY before
// answering may begin. The selection reveal should never feel instantaneous,
// even when the external calls return quickly.
const DefaultMinDwell = 3500 * time.Millisecond

// Bounds for the simple-complexity branch.
const (
	// SimpleMaxQuestions caps the classifier-picked simple question set.
	SimpleMaxQuestions = 5
	// SimpleFallbackCount is the random draw size when the classifier
	// returned no usable simple keys.
	SimpleFallbackCount = 3
)

// Sentinel errors for flow operations.
var (
	ErrNoClarificationPending = errors.New("no clarification pending")
	ErrNotReady               = errors.New("flow is not in the ready state")
	ErrDwellNotElapsed        = errors.New("minimum dwell time has not elapsed")
	ErrNotAnswering           = errors.New("flow is not in the answering state")
	ErrInvalidOption          = errors.New("option id not valid for current question")
)

// DecisionFlow orchestrates Classifier -> (clarification loop) ->
// QuestionSelector -> answering for one participant at a time, persisting all
// state through the StateManager so a reload resumes mid-flow.
type DecisionFlow struct {
	stateManager StateManager
	classifier   *Classifier
	selector     *QuestionSelector
	registry     *registry.Registry
	sampler      *util.Sampler
	minDwell     time.Duration
	now          func() time.Time
}

// FlowOption configures a DecisionFlow.
type FlowOption func(*DecisionFlow)

// WithMinDwell overrides the READY minimum dwell time.
func WithMinDwell(d time.Duration) FlowOption {
	return func(f *DecisionFlow) { f.minDwell = d }
}

// WithSampler injects a sampler, letting tests make the simple-branch random
// draw deterministic.
func WithSampler(s *util.Sampler) FlowOption {
	return func(f *DecisionFlow) { f.sampler = s }
}

// WithClock injects a time source for dwell-gate tests.
func WithClock(now func() time.Time) FlowOption {
	return func(f *DecisionFlow) { f.now = now }
}

// NewDecisionFlow creates a decision flow with dependencies.
func NewDecisionFlow(stateManager StateManager, classifier *Classifier, selector *QuestionSelector, reg *registry.Registry, opts ...FlowOption) *DecisionFlow {
	f := &DecisionFlow{
		stateManager: stateManager,
		classifier:   classifier,
		selector:     selector,
		registry:     reg,
		sampler:      util.NewSampler(),
		minDwell:     DefaultMinDwell,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Snapshot is the externally visible view of a participant's flow.
type Snapshot struct {
	State               models.StateType          `json:"state"`
	UserInput           string                    `json:"user_input,omitempty"`
	ArchetypeID         string                    `json:"archetype_id,omitempty"`
	DecisionType        models.DecisionType       `json:"decision_type,omitempty"`
	DecisionComplexity  models.DecisionComplexity `json:"decision_complexity,omitempty"`
	ClarificationPrompt string                    `json:"clarification_prompt,omitempty"`
	InterpretedQuestion string                    `json:"interpreted_question,omitempty"`
	SelectedFieldKeys   []string                  `json:"selected_field_keys,omitempty"`
	Answers             map[string]string         `json:"answers,omitempty"`
	CurrentIndex        int                       `json:"current_index"`
	CanProceed          bool                      `json:"can_proceed"`
}

// CompletionResult is handed to downstream collaborators (session
// persistence, analysis generation) once the flow reaches COMPLETE.
type CompletionResult struct {
	UserQuestion      string              `json:"user_question"`
	ArchetypeID       string              `json:"archetype_id"`
	DecisionType      models.DecisionType `json:"decision_type"`
	SelectedFieldKeys []string            `json:"selected_field_keys"`
	Answers           map[string]string   `json:"answers"`
}

// SubmitInput starts (or restarts) a flow from free-form user text.
// Re-submitting the exact text already classified is a no-op returning the
// current snapshot: the last-classified-input marker suppresses duplicate
// external calls from re-renders.
func (f *DecisionFlow) SubmitInput(ctx context.Context, participantID, text string) (Snapshot, error) {
	if participantID == "" {
		return Snapshot{}, models.ErrEmptyParticipant
	}
	if text == "" {
		return Snapshot{}, models.ErrEmptyInput
	}
	if len(text) > models.MaxInputLength {
		return Snapshot{}, models.ErrInputTooLong
	}

	lastClassified, err := f.stateManager.GetStateData(ctx, participantID, models.FlowTypeDecision, models.DataKeyLastClassifiedInput)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read last classified input: %w", err)
	}
	if lastClassified == text {
		slog.Debug("DecisionFlow.SubmitInput: input already classified, skipping", "participantID", participantID)
		return f.Snapshot(ctx, participantID)
	}

	// Fresh input replaces any prior flow for this participant.
	if err := f.stateManager.ResetState(ctx, participantID, models.FlowTypeDecision); err != nil {
		return Snapshot{}, fmt.Errorf("failed to reset flow state: %w", err)
	}
	if err := f.stateManager.SetStateData(ctx, participantID, models.FlowTypeDecision, models.DataKeyUserInput, text); err != nil {
		return Snapshot{}, fmt.Errorf("failed to store user input: %w", err)
	}
	return f.classifyRound(ctx, participantID, text)
}

// SubmitClarification merges a clarification fragment into the accumulated
// input and reclassifies. There is no round cap: the loop is unbounded.
func (f *DecisionFlow) SubmitClarification(ctx context.Context, participantID, fragment string) (Snapshot, error) {
	if fragment == "" {
		return Snapshot{}, models.ErrEmptyInput
	}
	state, err := f.stateManager.GetCurrentState(ctx, participantID, models.FlowTypeDecision)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read flow state: %w", err)
	}
	if state != models.StateClarifying {
		return Snapshot{}, ErrNoClarificationPending
	}

	accumulated, err := f.stateManager.GetStateData(ctx, participantID, models.FlowTypeDecision, models.DataKeyUserInput)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read accumulated input: %w", err)
	}
	merged := accumulated + InputSeparator + fragment
	if len(merged) > models.MaxInputLength {
		return Snapshot{}, models.ErrInputTooLong
	}
	if err := f.stateManager.SetStateData(ctx, participantID, models.FlowTypeDecision, models.DataKeyUserInput, merged); err != nil {
		return Snapshot{}, fmt.Errorf("failed to store merged input: %w", err)
	}
	return f.classifyRound(ctx, participantID, merged)
}

// classifyRound runs one classification round over the full accumulated
// input and advances the state machine from the result.
func (f *DecisionFlow) classifyRound(ctx context.Context, participantID, input string) (Snapshot, error) {
	// The duplicate-call guard is written before the external call starts, so
	// a concurrent re-submission of the same input sees it immediately.
	if err := f.stateManager.SetStateData(ctx, participantID, models.FlowTypeDecision, models.DataKeyLastClassifiedInput, input); err != nil {
		return Snapshot{}, fmt.Errorf("failed to set classification marker: %w", err)
	}
	if err := f.stateManager.SetCurrentState(ctx, participantID, models.FlowTypeDecision, models.StateClassifying); err != nil {
		return Snapshot{}, fmt.Errorf("failed to enter classifying state: %w", err)
	}

	result := f.classifier.Classify(ctx, input, f.registry.Archetypes(), f.registry.SimplePools())

	sets := map[models.DataKey]string{
		models.DataKeyArchetypeID:         result.ArchetypeID,
		models.DataKeyDecisionType:        string(result.DecisionType),
		models.DataKeyDecisionComplexity:  string(result.DecisionComplexity),
		models.DataKeyInterpretedQuestion: result.InterpretedQuestion,
	}
	for key, value := range sets {
		if err := f.stateManager.SetStateData(ctx, participantID, models.FlowTypeDecision, key, value); err != nil {
			return Snapshot{}, fmt.Errorf("failed to store classification data: %w", err)
		}
	}

	// Excluded topics dead-end immediately, skipping the READY dwell gate.
	if result.ArchetypeID == registry.BlockedArchetypeID {
		slog.Info("DecisionFlow.classifyRound: blocked topic", "participantID", participantID)
		if err := f.stateManager.SetCurrentState(ctx, participantID, models.FlowTypeDecision, models.StateBlocked); err != nil {
			return Snapshot{}, fmt.Errorf("failed to enter blocked state: %w", err)
		}
		return f.Snapshot(ctx, participantID)
	}

	if result.NeedsClarification {
		if err := f.stateManager.SetStateData(ctx, participantID, models.FlowTypeDecision, models.DataKeyClarificationPrompt, result.ClarificationPrompt); err != nil {
			return Snapshot{}, fmt.Errorf("failed to store clarification prompt: %w", err)
		}
		next := models.StateClarifying
		if result.IsUnrealistic {
			next = models.StateUnrealistic
		}
		if err := f.stateManager.SetCurrentState(ctx, participantID, models.FlowTypeDecision, next); err != nil {
			return Snapshot{}, fmt.Errorf("failed to enter clarification state: %w", err)
		}
		return f.Snapshot(ctx, participantID)
	}

	keys := f.chooseFieldKeys(ctx, input, result)
	if len(keys) == 0 {
		// Catch-all: a classification round must never dead-end the flow.
		// Substitute the default archetype and its catalog-order questions.
		fallback := f.registry.DefaultArchetype()
		slog.Error("DecisionFlow.classifyRound: no questions resolvable, substituting default archetype",
			"participantID", participantID, "archetype", result.ArchetypeID, "default", fallback.ID)
		keys = fallbackSelection(f.registry.AvailableFields(fallback.ID)).SelectedFieldKeys
		if err := f.stateManager.SetStateData(ctx, participantID, models.FlowTypeDecision, models.DataKeyArchetypeID, fallback.ID); err != nil {
			return Snapshot{}, fmt.Errorf("failed to store fallback archetype: %w", err)
		}
	}

	if err := f.setStringSlice(ctx, participantID, models.DataKeySelectedFieldKeys, keys); err != nil {
		return Snapshot{}, err
	}
	if err := f.setAnswers(ctx, participantID, map[string]string{}); err != nil {
		return Snapshot{}, err
	}
	if err := f.stateManager.SetStateData(ctx, participantID, models.FlowTypeDecision, models.DataKeyCurrentIndex, "0"); err != nil {
		return Snapshot{}, fmt.Errorf("failed to reset question index: %w", err)
	}
	if err := f.stateManager.SetStateData(ctx, participantID, models.FlowTypeDecision, models.DataKeyReadyAt, f.now().Format(time.RFC3339Nano)); err != nil {
		return Snapshot{}, fmt.Errorf("failed to store ready timestamp: %w", err)
	}
	if err := f.stateManager.SetCurrentState(ctx, participantID, models.FlowTypeDecision, models.StateReady); err != nil {
		return Snapshot{}, fmt.Errorf("failed to enter ready state: %w", err)
	}
	return f.Snapshot(ctx, participantID)
}

// chooseFieldKeys picks the question set for a classification result: the
// classifier's own simple keys for simple decisions, the question selector
// otherwise.
func (f *DecisionFlow) chooseFieldKeys(ctx context.Context, input string, result models.ClassificationResult) []string {
	if result.DecisionComplexity == models.ComplexitySimple {
		pool := f.registry.SimplePool(result.ArchetypeID)
		poolSet := make(map[string]bool, len(pool))
		poolKeys := make([]string, 0, len(pool))
		for _, sf := range pool {
			poolSet[sf.Key] = true
			poolKeys = append(poolKeys, sf.Key)
		}

		valid := make([]string, 0, len(result.SelectedSimpleFieldKeys))
		for _, key := range result.SelectedSimpleFieldKeys {
			if poolSet[key] {
				valid = append(valid, key)
			} else {
				slog.Debug("DecisionFlow.chooseFieldKeys: discarding simple key outside pool", "key", key)
			}
		}
		if len(valid) == 0 {
			valid = f.sampler.Sample(poolKeys, SimpleFallbackCount)
			slog.Debug("DecisionFlow.chooseFieldKeys: classifier gave no simple keys, sampled from pool",
				"archetype", result.ArchetypeID, "count", len(valid))
		}
		if len(valid) > SimpleMaxQuestions {
			valid = valid[:SimpleMaxQuestions]
		}
		return valid
	}

	selection := f.selector.SelectQuestions(ctx, input, result.ArchetypeID)
	return selection.SelectedFieldKeys
}

// BeginAnswering passes the READY gate: the selection must be complete and
// the minimum dwell time elapsed.
func (f *DecisionFlow) BeginAnswering(ctx context.Context, participantID string) (Snapshot, error) {
	state, err := f.stateManager.GetCurrentState(ctx, participantID, models.FlowTypeDecision)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read flow state: %w", err)
	}
	if state != models.StateReady {
		return Snapshot{}, ErrNotReady
	}
	if !f.dwellElapsed(ctx, participantID) {
		return Snapshot{}, ErrDwellNotElapsed
	}
	if err := f.stateManager.TransitionState(ctx, participantID, models.FlowTypeDecision, models.StateReady, models.StateAnswering); err != nil {
		return Snapshot{}, fmt.Errorf("failed to begin answering: %w", err)
	}
	return f.Snapshot(ctx, participantID)
}

// dwellElapsed reports whether the READY minimum dwell time has passed.
func (f *DecisionFlow) dwellElapsed(ctx context.Context, participantID string) bool {
	readyAtRaw, err := f.stateManager.GetStateData(ctx, participantID, models.FlowTypeDecision, models.DataKeyReadyAt)
	if err != nil || readyAtRaw == "" {
		return false
	}
	readyAt, err := time.Parse(time.RFC3339Nano, readyAtRaw)
	if err != nil {
		slog.Warn("DecisionFlow.dwellElapsed: unparseable ready timestamp", "value", readyAtRaw, "error", err)
		return true
	}
	return f.now().Sub(readyAt) >= f.minDwell
}

// Questions resolves the participant's selected field keys to full question
// definitions in display order.
func (f *DecisionFlow) Questions(ctx context.Context, participantID string) ([]models.Question, error) {
	keys, err := f.getStringSlice(ctx, participantID, models.DataKeySelectedFieldKeys)
	if err != nil {
		return nil, err
	}
	return f.registry.QuestionsForFieldKeys(keys), nil
}

// SubmitAnswer records the answer to the current question and advances the
// index. Answering the final question completes the flow.
func (f *DecisionFlow) SubmitAnswer(ctx context.Context, participantID, optionID string) (Snapshot, error) {
	state, err := f.stateManager.GetCurrentState(ctx, participantID, models.FlowTypeDecision)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read flow state: %w", err)
	}
	if state != models.StateAnswering {
		return Snapshot{}, ErrNotAnswering
	}

	keys, err := f.getStringSlice(ctx, participantID, models.DataKeySelectedFieldKeys)
	if err != nil {
		return Snapshot{}, err
	}
	index, err := f.getIndex(ctx, participantID)
	if err != nil {
		return Snapshot{}, err
	}
	if index < 0 || index >= len(keys) {
		return Snapshot{}, fmt.Errorf("question index %d out of range for %d questions", index, len(keys))
	}

	key := keys[index]
	if !f.optionValidForField(key, optionID) {
		return Snapshot{}, ErrInvalidOption
	}

	answers, err := f.getAnswers(ctx, participantID)
	if err != nil {
		return Snapshot{}, err
	}
	answers[key] = optionID
	if err := f.setAnswers(ctx, participantID, answers); err != nil {
		return Snapshot{}, err
	}

	index++
	if err := f.stateManager.SetStateData(ctx, participantID, models.FlowTypeDecision, models.DataKeyCurrentIndex, strconv.Itoa(index)); err != nil {
		return Snapshot{}, fmt.Errorf("failed to advance question index: %w", err)
	}

	if index >= len(keys) {
		slog.Info("DecisionFlow.SubmitAnswer: flow complete", "participantID", participantID, "answers", len(answers))
		if err := f.stateManager.TransitionState(ctx, participantID, models.FlowTypeDecision, models.StateAnswering, models.StateComplete); err != nil {
			return Snapshot{}, fmt.Errorf("failed to complete flow: %w", err)
		}
	}
	return f.Snapshot(ctx, participantID)
}

// optionValidForField checks the option id against the field's option set.
func (f *DecisionFlow) optionValidForField(fieldKey, optionID string) bool {
	field, ok := f.registry.Field(fieldKey)
	if !ok {
		return false
	}
	optionSet, ok := f.registry.OptionSet(field.OptionSetID)
	if !ok {
		return false
	}
	for _, opt := range optionSet.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

// Back steps backward. In ANSWERING above index 0 it decrements the index,
// leaving the prior answer in place for re-selection. Anywhere else,
// including ANSWERING at index 0, it exits the flow back to IDLE.
func (f *DecisionFlow) Back(ctx context.Context, participantID string) (Snapshot, error) {
	state, err := f.stateManager.GetCurrentState(ctx, participantID, models.FlowTypeDecision)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read flow state: %w", err)
	}

	if state == models.StateAnswering {
		index, err := f.getIndex(ctx, participantID)
		if err != nil {
			return Snapshot{}, err
		}
		if index > 0 {
			index--
			if err := f.stateManager.SetStateData(ctx, participantID, models.FlowTypeDecision, models.DataKeyCurrentIndex, strconv.Itoa(index)); err != nil {
				return Snapshot{}, fmt.Errorf("failed to step question index back: %w", err)
			}
			return f.Snapshot(ctx, participantID)
		}
	}

	if err := f.Reset(ctx, participantID); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{State: models.StateIdle}, nil
}

// Reset discards all flow state for a participant.
func (f *DecisionFlow) Reset(ctx context.Context, participantID string) error {
	return f.stateManager.ResetState(ctx, participantID, models.FlowTypeDecision)
}

// Completion returns the completed flow's payload for downstream
// collaborators. It errors unless the flow has reached COMPLETE.
func (f *DecisionFlow) Completion(ctx context.Context, participantID string) (CompletionResult, error) {
	state, err := f.stateManager.GetCurrentState(ctx, participantID, models.FlowTypeDecision)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("failed to read flow state: %w", err)
	}
	if state != models.StateComplete {
		return CompletionResult{}, fmt.Errorf("flow is not complete: current state %s", state)
	}

	userInput, err := f.stateManager.GetStateData(ctx, participantID, models.FlowTypeDecision, models.DataKeyUserInput)
	if err != nil {
		return CompletionResult{}, err
	}
	archetypeID, err := f.stateManager.GetStateData(ctx, participantID, models.FlowTypeDecision, models.DataKeyArchetypeID)
	if err != nil {
		return CompletionResult{}, err
	}
	decisionType, err := f.stateManager.GetStateData(ctx, participantID, models.FlowTypeDecision, models.DataKeyDecisionType)
	if err != nil {
		return CompletionResult{}, err
	}
	keys, err := f.getStringSlice(ctx, participantID, models.DataKeySelectedFieldKeys)
	if err != nil {
		return CompletionResult{}, err
	}
	answers, err := f.getAnswers(ctx, participantID)
	if err != nil {
		return CompletionResult{}, err
	}

	return CompletionResult{
		UserQuestion:      userInput,
		ArchetypeID:       archetypeID,
		DecisionType:      models.DecisionType(decisionType),
		SelectedFieldKeys: keys,
		Answers:           answers,
	}, nil
}

// Snapshot assembles the externally visible flow view for a participant.
// A participant with no stored state is IDLE.
func (f *DecisionFlow) Snapshot(ctx context.Context, participantID string) (Snapshot, error) {
	state, err := f.stateManager.GetCurrentState(ctx, participantID, models.FlowTypeDecision)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read flow state: %w", err)
	}
	if state == "" {
		return Snapshot{State: models.StateIdle}, nil
	}

	snap := Snapshot{State: state}
	snap.UserInput, _ = f.stateManager.GetStateData(ctx, participantID, models.FlowTypeDecision, models.DataKeyUserInput)
	snap.ArchetypeID, _ = f.stateManager.GetStateData(ctx, participantID, models.FlowTypeDecision, models.DataKeyArchetypeID)
	if dt, _ := f.stateManager.GetStateData(ctx, participantID, models.FlowTypeDecision, models.DataKeyDecisionType); dt != "" {
		snap.DecisionType = models.DecisionType(dt)
	}
	if dc, _ := f.stateManager.GetStateData(ctx, participantID, models.FlowTypeDecision, models.DataKeyDecisionComplexity); dc != "" {
		snap.DecisionComplexity = models.DecisionComplexity(dc)
	}
	snap.ClarificationPrompt, _ = f.stateManager.GetStateData(ctx, participantID, models.FlowTypeDecision, models.DataKeyClarificationPrompt)
	snap.InterpretedQuestion, _ = f.stateManager.GetStateData(ctx, participantID, models.FlowTypeDecision, models.DataKeyInterpretedQuestion)
	snap.SelectedFieldKeys, _ = f.getStringSlice(ctx, participantID, models.DataKeySelectedFieldKeys)
	snap.Answers, _ = f.getAnswers(ctx, participantID)
	snap.CurrentIndex, _ = f.getIndex(ctx, participantID)
	if state == models.StateReady {
		snap.CanProceed = f.dwellElapsed(ctx, participantID)
	}
	return snap, nil
}

// State data helpers.

func (f *DecisionFlow) getStringSlice(ctx context.Context, participantID string, key models.DataKey) ([]string, error) {
	raw, err := f.stateManager.GetStateData(ctx, participantID, models.FlowTypeDecision, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if raw == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return out, nil
}

func (f *DecisionFlow) setStringSlice(ctx context.Context, participantID string, key models.DataKey, values []string) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", key, err)
	}
	if err := f.stateManager.SetStateData(ctx, participantID, models.FlowTypeDecision, key, string(raw)); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

func (f *DecisionFlow) getAnswers(ctx context.Context, participantID string) (map[string]string, error) {
	raw, err := f.stateManager.GetStateData(ctx, participantID, models.FlowTypeDecision, models.DataKeyAnswers)
	if err != nil {
		return nil, fmt.Errorf("failed to read answers: %w", err)
	}
	answers := make(map[string]string)
	if raw == "" {
		return answers, nil
	}
	if err := json.Unmarshal([]byte(raw), &answers); err != nil {
		return nil, fmt.Errorf("failed to parse answers: %w", err)
	}
	return answers, nil
}

func (f *DecisionFlow) setAnswers(ctx context.Context, participantID string, answers map[string]string) error {
	raw, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("failed to serialize answers: %w", err)
	}
	if err := f.stateManager.SetStateData(ctx, participantID, models.FlowTypeDecision, models.DataKeyAnswers, string(raw)); err != nil {
		return fmt.Errorf("failed to store answers: %w", err)
	}
	return nil
}

func (f *DecisionFlow) getIndex(ctx context.Context, participantID string) (int, error) {
	raw, err := f.stateManager.GetStateData(ctx, participantID, models.FlowTypeDecision, models.DataKeyCurrentIndex)
	if err != nil {
		return 0, fmt.Errorf("failed to read question index: %w", err)
	}
	if raw == "" {
		return 0, nil
	}
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("failed to parse question index: %w", err)
	}
	return index, nil
}

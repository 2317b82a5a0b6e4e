package flow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/naapim/naapim/internal/models"
	"github.com/naapim/naapim/internal/registry"
	"github.com/naapim/naapim/internal/util"
)

// testClock is a controllable time source for dwell-gate tests.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestFlow(t *testing.T, mock *mockGenAIClient, opts ...FlowOption) *DecisionFlow {
	t.Helper()
	reg := loadTestRegistry(t)
	return NewDecisionFlow(NewMockStateManager(), NewClassifier(mock), NewQuestionSelector(mock, reg), reg, opts...)
}

// classificationJSON builds a minimal valid classifier response.
func classificationJSON(archetypeID string, complexity models.DecisionComplexity) string {
	return `{
		"archetype_id": "` + archetypeID + `",
		"decision_type": "binary_decision",
		"decision_complexity": "` + string(complexity) + `",
		"confidence": 0.9,
		"needs_clarification": false,
		"is_unrealistic": false,
		"clarification_prompt": null,
		"interpreted_question": "soru",
		"selected_simple_field_keys": null
	}`
}

func TestDecisionFlow_SubmitInputValidation(t *testing.T) {
	f := newTestFlow(t, &mockGenAIClient{})
	ctx := context.Background()

	if _, err := f.SubmitInput(ctx, "", "soru"); !errors.Is(err, models.ErrEmptyParticipant) {
		t.Errorf("empty participant: got %v", err)
	}
	if _, err := f.SubmitInput(ctx, "p1", ""); !errors.Is(err, models.ErrEmptyInput) {
		t.Errorf("empty input: got %v", err)
	}
	long := strings.Repeat("a", models.MaxInputLength+1)
	if _, err := f.SubmitInput(ctx, "p1", long); !errors.Is(err, models.ErrInputTooLong) {
		t.Errorf("too long input: got %v", err)
	}
}

func TestDecisionFlow_ClassificationToReady(t *testing.T) {
	mock := &mockGenAIClient{structuredResponse: classificationJSON("lifestyle_decisions", models.ComplexityModerate)}
	f := newTestFlow(t, mock)
	ctx := context.Background()

	snap, err := f.SubmitInput(ctx, "p1", "spora başlasam mı başlamasam mı")
	if err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}
	if snap.State != models.StateReady {
		t.Fatalf("state = %s, want %s", snap.State, models.StateReady)
	}
	if snap.ArchetypeID != "lifestyle_decisions" {
		t.Errorf("archetype = %q", snap.ArchetypeID)
	}
	// lifestyle has 4 fields, all selected without a selector call.
	if len(snap.SelectedFieldKeys) != 4 {
		t.Errorf("selected keys = %v", snap.SelectedFieldKeys)
	}
	if snap.CanProceed {
		t.Error("dwell gate should still be closed immediately after READY")
	}
}

func TestDecisionFlow_IdempotentResubmission(t *testing.T) {
	mock := &mockGenAIClient{structuredResponse: classificationJSON("lifestyle_decisions", models.ComplexityModerate)}
	f := newTestFlow(t, mock)
	ctx := context.Background()

	if _, err := f.SubmitInput(ctx, "p1", "spora başlasam mı"); err != nil {
		t.Fatalf("first SubmitInput: %v", err)
	}
	calls := mock.structuredCalls

	snap, err := f.SubmitInput(ctx, "p1", "spora başlasam mı")
	if err != nil {
		t.Fatalf("second SubmitInput: %v", err)
	}
	if mock.structuredCalls != calls {
		t.Errorf("identical input should not reclassify: %d -> %d calls", calls, mock.structuredCalls)
	}
	if snap.State != models.StateReady {
		t.Errorf("resubmission should return the current snapshot, state = %s", snap.State)
	}

	// Different input restarts the flow and classifies again.
	if _, err := f.SubmitInput(ctx, "p1", "yoga mı pilates mi yapsam"); err != nil {
		t.Fatalf("third SubmitInput: %v", err)
	}
	if mock.structuredCalls != calls+1 {
		t.Errorf("new input should reclassify, calls = %d", mock.structuredCalls)
	}
}

func TestDecisionFlow_ClarificationAccumulates(t *testing.T) {
	mock := &mockGenAIClient{structuredResponse: `{
		"archetype_id": "career_decisions",
		"decision_type": "exploration",
		"decision_complexity": "moderate",
		"confidence": 0.2,
		"needs_clarification": true,
		"is_unrealistic": false,
		"clarification_prompt": "Hangi konuda karar vermeye çalışıyorsun?",
		"interpreted_question": null,
		"selected_simple_field_keys": null
	}`}
	f := newTestFlow(t, mock)
	ctx := context.Background()

	snap, err := f.SubmitInput(ctx, "p1", "iş")
	if err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}
	if snap.State != models.StateClarifying {
		t.Fatalf("state = %s, want %s", snap.State, models.StateClarifying)
	}
	if snap.ClarificationPrompt == "" {
		t.Error("clarifying snapshot should carry the prompt")
	}

	mock.structuredResponse = classificationJSON("career_decisions", models.ComplexityComplex)
	snap, err = f.SubmitClarification(ctx, "p1", "değiştirmeli miyim")
	if err != nil {
		t.Fatalf("SubmitClarification: %v", err)
	}
	if !strings.Contains(mock.lastUserPrompt, "iş — değiştirmeli miyim") {
		t.Errorf("classifier should see the merged input, got %q", mock.lastUserPrompt)
	}
	if snap.UserInput != "iş — değiştirmeli miyim" {
		t.Errorf("accumulated input = %q", snap.UserInput)
	}
	if snap.State != models.StateReady {
		t.Errorf("state after clarification = %s", snap.State)
	}
}

func TestDecisionFlow_ClarificationWithoutPending(t *testing.T) {
	f := newTestFlow(t, &mockGenAIClient{structuredResponse: classificationJSON("lifestyle_decisions", models.ComplexityModerate)})
	ctx := context.Background()

	if _, err := f.SubmitClarification(ctx, "p1", "ek bilgi"); !errors.Is(err, ErrNoClarificationPending) {
		t.Errorf("clarifying an idle flow: got %v", err)
	}

	if _, err := f.SubmitInput(ctx, "p1", "spora başlasam mı"); err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}
	if _, err := f.SubmitClarification(ctx, "p1", "ek bilgi"); !errors.Is(err, ErrNoClarificationPending) {
		t.Errorf("clarifying a ready flow: got %v", err)
	}
}

func TestDecisionFlow_BlockedSkipsDwell(t *testing.T) {
	mock := &mockGenAIClient{structuredResponse: classificationJSON(registry.BlockedArchetypeID, models.ComplexityModerate)}
	f := newTestFlow(t, mock)
	ctx := context.Background()

	snap, err := f.SubmitInput(ctx, "p1", "hangi hisseyi almalıyım acaba")
	if err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}
	if snap.State != models.StateBlocked {
		t.Fatalf("state = %s, want %s", snap.State, models.StateBlocked)
	}
	if len(snap.SelectedFieldKeys) != 0 {
		t.Errorf("blocked flow should select no questions, got %v", snap.SelectedFieldKeys)
	}
	if _, err := f.BeginAnswering(ctx, "p1"); !errors.Is(err, ErrNotReady) {
		t.Errorf("blocked flow should not begin answering: got %v", err)
	}
}

func TestDecisionFlow_UnrealisticState(t *testing.T) {
	mock := &mockGenAIClient{structuredResponse: `{
		"archetype_id": "lifestyle_decisions",
		"decision_type": "exploration",
		"decision_complexity": "simple",
		"confidence": 0.1,
		"needs_clarification": true,
		"is_unrealistic": true,
		"clarification_prompt": "Sana sadece gerçek hayat kararlarında yardımcı olabilirim.",
		"interpreted_question": null,
		"selected_simple_field_keys": null
	}`}
	f := newTestFlow(t, mock)

	snap, err := f.SubmitInput(context.Background(), "p1", "ejderhamı nereye park etsem")
	if err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}
	if snap.State != models.StateUnrealistic {
		t.Errorf("state = %s, want %s", snap.State, models.StateUnrealistic)
	}
}

func TestDecisionFlow_DwellGate(t *testing.T) {
	clock := &testClock{now: time.Now()}
	mock := &mockGenAIClient{structuredResponse: classificationJSON("lifestyle_decisions", models.ComplexityModerate)}
	f := newTestFlow(t, mock, WithClock(clock.Now), WithMinDwell(3500*time.Millisecond))
	ctx := context.Background()

	if _, err := f.SubmitInput(ctx, "p1", "spora başlasam mı"); err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}
	if _, err := f.BeginAnswering(ctx, "p1"); !errors.Is(err, ErrDwellNotElapsed) {
		t.Fatalf("before dwell: got %v", err)
	}

	clock.Advance(3 * time.Second)
	if _, err := f.BeginAnswering(ctx, "p1"); !errors.Is(err, ErrDwellNotElapsed) {
		t.Fatalf("at 3s: got %v", err)
	}

	clock.Advance(time.Second)
	snap, err := f.BeginAnswering(ctx, "p1")
	if err != nil {
		t.Fatalf("after dwell: %v", err)
	}
	if snap.State != models.StateAnswering {
		t.Errorf("state = %s, want %s", snap.State, models.StateAnswering)
	}
}

func TestDecisionFlow_AnsweringToComplete(t *testing.T) {
	clock := &testClock{now: time.Now()}
	mock := &mockGenAIClient{structuredResponse: classificationJSON("lifestyle_decisions", models.ComplexityModerate)}
	f := newTestFlow(t, mock, WithClock(clock.Now), WithMinDwell(time.Millisecond))
	ctx := context.Background()

	if _, err := f.SubmitInput(ctx, "p1", "spora başlasam mı"); err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}
	clock.Advance(time.Second)
	if _, err := f.BeginAnswering(ctx, "p1"); err != nil {
		t.Fatalf("BeginAnswering: %v", err)
	}

	questions, err := f.Questions(ctx, "p1")
	if err != nil {
		t.Fatalf("Questions: %v", err)
	}
	if len(questions) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(questions))
	}

	// Answer a prefix, step back, change the answer, then finish.
	answers := []string{"yes", "agree", "yes", "yes"}
	snap, err := f.SubmitAnswer(ctx, "p1", answers[0])
	if err != nil {
		t.Fatalf("answer 0: %v", err)
	}
	if snap.CurrentIndex != 1 {
		t.Errorf("index after first answer = %d", snap.CurrentIndex)
	}

	snap, err = f.Back(ctx, "p1")
	if err != nil {
		t.Fatalf("Back: %v", err)
	}
	if snap.CurrentIndex != 0 {
		t.Errorf("index after back = %d", snap.CurrentIndex)
	}
	if snap.Answers[questions[0].FieldKey] != "yes" {
		t.Error("stepping back should leave the prior answer in place")
	}

	snap, err = f.SubmitAnswer(ctx, "p1", "no")
	if err != nil {
		t.Fatalf("re-answer 0: %v", err)
	}
	if snap.Answers[questions[0].FieldKey] != "no" {
		t.Errorf("re-answer should overwrite, got %q", snap.Answers[questions[0].FieldKey])
	}

	for _, optionID := range answers[1:] {
		snap, err = f.SubmitAnswer(ctx, "p1", optionID)
		if err != nil {
			t.Fatalf("answer %q: %v", optionID, err)
		}
	}
	if snap.State != models.StateComplete {
		t.Fatalf("state = %s, want %s", snap.State, models.StateComplete)
	}

	completion, err := f.Completion(ctx, "p1")
	if err != nil {
		t.Fatalf("Completion: %v", err)
	}
	if completion.ArchetypeID != "lifestyle_decisions" {
		t.Errorf("completion archetype = %q", completion.ArchetypeID)
	}
	if len(completion.Answers) != 4 {
		t.Errorf("completion answers = %v", completion.Answers)
	}

	if _, err := f.SubmitAnswer(ctx, "p1", "yes"); !errors.Is(err, ErrNotAnswering) {
		t.Errorf("answering a complete flow: got %v", err)
	}
}

func TestDecisionFlow_InvalidOptionRejected(t *testing.T) {
	clock := &testClock{now: time.Now()}
	mock := &mockGenAIClient{structuredResponse: classificationJSON("lifestyle_decisions", models.ComplexityModerate)}
	f := newTestFlow(t, mock, WithClock(clock.Now), WithMinDwell(time.Millisecond))
	ctx := context.Background()

	if _, err := f.SubmitInput(ctx, "p1", "spora başlasam mı"); err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}
	clock.Advance(time.Second)
	if _, err := f.BeginAnswering(ctx, "p1"); err != nil {
		t.Fatalf("BeginAnswering: %v", err)
	}

	if _, err := f.SubmitAnswer(ctx, "p1", "definitely_not_an_option"); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("invalid option: got %v", err)
	}
}

func TestDecisionFlow_BackFromNonAnsweringResets(t *testing.T) {
	mock := &mockGenAIClient{structuredResponse: classificationJSON("lifestyle_decisions", models.ComplexityModerate)}
	f := newTestFlow(t, mock)
	ctx := context.Background()

	if _, err := f.SubmitInput(ctx, "p1", "spora başlasam mı"); err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}

	snap, err := f.Back(ctx, "p1")
	if err != nil {
		t.Fatalf("Back: %v", err)
	}
	if snap.State != models.StateIdle {
		t.Errorf("state = %s, want %s", snap.State, models.StateIdle)
	}

	snap, err = f.Snapshot(ctx, "p1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.State != models.StateIdle || snap.UserInput != "" {
		t.Errorf("flow state should be gone after back-out, got %+v", snap)
	}
}

func TestDecisionFlow_SimpleBranchUsesClassifierKeys(t *testing.T) {
	mock := &mockGenAIClient{structuredResponse: `{
		"archetype_id": "career_decisions",
		"decision_type": "binary_decision",
		"decision_complexity": "simple",
		"confidence": 0.8,
		"needs_clarification": false,
		"is_unrealistic": false,
		"clarification_prompt": null,
		"interpreted_question": "soru",
		"selected_simple_field_keys": ["current_satisfaction", "offer_in_hand", "no_such_key"]
	}`}
	f := newTestFlow(t, mock)

	snap, err := f.SubmitInput(context.Background(), "p1", "bugün izin istesem mi")
	if err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}
	if snap.State != models.StateReady {
		t.Fatalf("state = %s", snap.State)
	}
	want := []string{"current_satisfaction", "offer_in_hand"}
	if len(snap.SelectedFieldKeys) != len(want) {
		t.Fatalf("selected keys = %v, want %v", snap.SelectedFieldKeys, want)
	}
	for i := range want {
		if snap.SelectedFieldKeys[i] != want[i] {
			t.Fatalf("selected keys = %v, want %v", snap.SelectedFieldKeys, want)
		}
	}
}

func TestDecisionFlow_SimpleBranchSamplesWhenEmpty(t *testing.T) {
	mock := &mockGenAIClient{structuredResponse: `{
		"archetype_id": "career_decisions",
		"decision_type": "binary_decision",
		"decision_complexity": "simple",
		"confidence": 0.8,
		"needs_clarification": false,
		"is_unrealistic": false,
		"clarification_prompt": null,
		"interpreted_question": "soru",
		"selected_simple_field_keys": null
	}`}
	reg := loadTestRegistry(t)
	f := newTestFlow(t, mock, WithSampler(util.NewSeededSampler(42)))

	snap, err := f.SubmitInput(context.Background(), "p1", "bugün izin istesem mi")
	if err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}
	if len(snap.SelectedFieldKeys) != SimpleFallbackCount {
		t.Fatalf("expected a draw of %d, got %v", SimpleFallbackCount, snap.SelectedFieldKeys)
	}

	pool := make(map[string]bool)
	for _, sf := range reg.SimplePool("career_decisions") {
		pool[sf.Key] = true
	}
	for _, key := range snap.SelectedFieldKeys {
		if !pool[key] {
			t.Errorf("sampled key %q not in the simple pool", key)
		}
	}
}

func TestDecisionFlow_CatchAllSubstitutesDefault(t *testing.T) {
	// An archetype with no resolvable questions must not dead-end the flow.
	dir := t.TempDir()
	overrides := `[
		{"id": "career_decisions", "label": "Kariyer", "follow_up_days": 14,
		 "category_set_ids": ["cs_career"],
		 "routing_hints": {"definition": "iş kararları", "keywords": ["iş"],
		  "positive_examples": [], "negative_examples": [], "exclusions": []}},
		{"id": "hollow_topics", "label": "Boş", "follow_up_days": 0,
		 "category_set_ids": [],
		 "routing_hints": {"definition": "", "keywords": [],
		  "positive_examples": [], "negative_examples": [], "exclusions": []}}
	]`
	if err := os.WriteFile(filepath.Join(dir, "archetypes.json"), []byte(overrides), 0644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	reg, err := registry.Load(dir)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}

	mock := &mockGenAIClient{structuredResponse: classificationJSON("hollow_topics", models.ComplexityModerate)}
	f := NewDecisionFlow(NewMockStateManager(), NewClassifier(mock), NewQuestionSelector(mock, reg), reg)

	snap, err := f.SubmitInput(context.Background(), "p1", "bir konuda kararsızım")
	if err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}
	if snap.State != models.StateReady {
		t.Fatalf("state = %s, want %s", snap.State, models.StateReady)
	}
	if snap.ArchetypeID != "career_decisions" {
		t.Errorf("catch-all should substitute the default archetype, got %q", snap.ArchetypeID)
	}
	if len(snap.SelectedFieldKeys) == 0 {
		t.Error("catch-all should still select questions")
	}
}

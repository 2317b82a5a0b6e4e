package store

import (
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/naapim/naapim/internal/models"
)

func TestInMemoryStore(t *testing.T) {
	exerciseStore(t, NewInMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "naapim-test.db")
	s, err := NewSQLiteStore(WithDSN(dsn))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestPostgresStore(t *testing.T) {
	// Requires a running PostgreSQL instance; set DATABASE_URL to enable.
	connStr := getenvOrSkip(t, "DATABASE_URL")
	pg, err := NewPostgresStore(WithDSN(connStr))
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}
	defer pg.Close()
	pg.db.Exec("DELETE FROM reminders")
	pg.db.Exec("DELETE FROM outcomes")
	pg.db.Exec("DELETE FROM sessions")
	pg.db.Exec("DELETE FROM flow_states")
	exerciseStore(t, pg)
}

func TestDetectDSNType(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@localhost/naapim":   "postgres",
		"postgresql://u:p@localhost/naapim": "postgres",
		"host=localhost dbname=naapim":      "postgres",
		"/var/lib/naapim/naapim.db":         "sqlite",
		"naapim.db":                         "sqlite",
	}
	for dsn, want := range cases {
		if got := DetectDSNType(dsn); got != want {
			t.Errorf("DetectDSNType(%q) = %q, want %q", dsn, got, want)
		}
	}
}

func TestNewStoreDefaultsToMemory(t *testing.T) {
	s, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*InMemoryStore); !ok {
		t.Errorf("empty DSN should yield an in-memory store, got %T", s)
	}
}

// exerciseStore runs the shared behavioral checks against any backend.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)

	// Flow state round trip and overwrite.
	state := models.FlowState{
		ParticipantID: "p1",
		FlowType:      models.FlowTypeDecision,
		CurrentState:  models.StateClassifying,
		StateData:     map[models.DataKey]string{models.DataKeyUserInput: "spora başlasam mı"},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.SaveFlowState(state); err != nil {
		t.Fatalf("SaveFlowState: %v", err)
	}
	state.CurrentState = models.StateReady
	if err := s.SaveFlowState(state); err != nil {
		t.Fatalf("SaveFlowState overwrite: %v", err)
	}
	got, err := s.GetFlowState("p1", string(models.FlowTypeDecision))
	if err != nil {
		t.Fatalf("GetFlowState: %v", err)
	}
	if got == nil || got.CurrentState != models.StateReady {
		t.Fatalf("GetFlowState = %+v, want READY", got)
	}
	if got.StateData[models.DataKeyUserInput] != "spora başlasam mı" {
		t.Errorf("state data not preserved: %v", got.StateData)
	}
	if err := s.DeleteFlowState("p1", string(models.FlowTypeDecision)); err != nil {
		t.Fatalf("DeleteFlowState: %v", err)
	}
	if got, err = s.GetFlowState("p1", string(models.FlowTypeDecision)); err != nil || got != nil {
		t.Fatalf("deleted flow state should be absent, got %+v, %v", got, err)
	}

	// Sessions by id, code, and archetype listing order.
	older := models.Session{
		ID: "sess-1", Code: "ABC123", UserQuestion: "işimden istifa etmeli miyim",
		ArchetypeID: "career_decisions", DecisionType: models.DecisionTypeBinary,
		SelectedFieldKeys: []string{"current_satisfaction", "offer_in_hand"},
		Answers:           map[string]string{"current_satisfaction": "no"}, CreatedAt: now.Add(-time.Hour),
	}
	newer := models.Session{
		ID: "sess-2", Code: "DEF456", UserQuestion: "bu teklifi kabul etsem mi",
		ArchetypeID: "career_decisions", DecisionType: models.DecisionTypeBinary,
		Answers: map[string]string{}, CreatedAt: now,
	}
	for _, sess := range []models.Session{older, newer} {
		if err := s.SaveSession(sess); err != nil {
			t.Fatalf("SaveSession: %v", err)
		}
	}
	byID, err := s.GetSession("sess-1")
	if err != nil || byID == nil || byID.Code != "ABC123" {
		t.Fatalf("GetSession = %+v, %v", byID, err)
	}
	if byID.Answers["current_satisfaction"] != "no" {
		t.Errorf("session answers not preserved: %v", byID.Answers)
	}
	if len(byID.SelectedFieldKeys) != 2 || byID.SelectedFieldKeys[0] != "current_satisfaction" || byID.SelectedFieldKeys[1] != "offer_in_hand" {
		t.Errorf("selected field keys not preserved in order: %v", byID.SelectedFieldKeys)
	}
	byCode, err := s.GetSessionByCode("DEF456")
	if err != nil || byCode == nil || byCode.ID != "sess-2" {
		t.Fatalf("GetSessionByCode = %+v, %v", byCode, err)
	}
	if missing, err := s.GetSession("sess-none"); err != nil || missing != nil {
		t.Fatalf("missing session should be nil, got %+v, %v", missing, err)
	}
	sessions, err := s.ListSessionsByArchetype("career_decisions", 10)
	if err != nil {
		t.Fatalf("ListSessionsByArchetype: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != "sess-2" {
		t.Errorf("sessions should list newest first, got %+v", sessions)
	}
	if limited, _ := s.ListSessionsByArchetype("career_decisions", 1); len(limited) != 1 {
		t.Errorf("limit not applied: %d sessions", len(limited))
	}

	// Outcomes join their session's archetype; votes accumulate.
	outcome := models.Outcome{ID: "out-1", SessionID: "sess-1", Story: "İstifa ettim, iyi ki etmişim.", CreatedAt: now}
	if err := s.SaveOutcome(outcome); err != nil {
		t.Fatalf("SaveOutcome: %v", err)
	}
	if err := s.AddVote("out-1", models.VoteUp); err != nil {
		t.Fatalf("AddVote up: %v", err)
	}
	if err := s.AddVote("out-1", models.VoteUp); err != nil {
		t.Fatalf("AddVote up: %v", err)
	}
	if err := s.AddVote("out-1", models.VoteDown); err != nil {
		t.Fatalf("AddVote down: %v", err)
	}
	if err := s.AddVote("out-none", models.VoteUp); err == nil {
		t.Error("voting on a missing outcome should error")
	}
	outcomes, err := s.ListOutcomesByArchetype("career_decisions", 10)
	if err != nil {
		t.Fatalf("ListOutcomesByArchetype: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Upvotes != 2 || outcomes[0].Downvotes != 1 {
		t.Errorf("outcomes = %+v", outcomes)
	}
	if other, _ := s.ListOutcomesByArchetype("purchase_decisions", 10); len(other) != 0 {
		t.Errorf("outcome leaked into another archetype: %+v", other)
	}

	// Reminders: due listing excludes future and sent ones.
	due := models.Reminder{ID: "rem-1", SessionID: "sess-1", Email: "user@example.com", DueAt: now.Add(-time.Minute), CreatedAt: now}
	future := models.Reminder{ID: "rem-2", SessionID: "sess-1", Email: "user@example.com", DueAt: now.Add(time.Hour), CreatedAt: now}
	for _, rem := range []models.Reminder{due, future} {
		if err := s.SaveReminder(rem); err != nil {
			t.Fatalf("SaveReminder: %v", err)
		}
	}
	dueList, err := s.ListDueReminders(now)
	if err != nil {
		t.Fatalf("ListDueReminders: %v", err)
	}
	if len(dueList) != 1 || dueList[0].ID != "rem-1" {
		t.Fatalf("due reminders = %+v", dueList)
	}
	if err := s.MarkReminderSent("rem-1", now); err != nil {
		t.Fatalf("MarkReminderSent: %v", err)
	}
	if dueList, _ = s.ListDueReminders(now); len(dueList) != 0 {
		t.Errorf("sent reminder still listed as due: %+v", dueList)
	}
}

func getenvOrSkip(t *testing.T, key string) string {
	v := ""
	if val, ok := syscall.Getenv(key); ok {
		v = val
	}
	if v == "" {
		t.Skipf("env %s not set", key)
	}
	return v
}

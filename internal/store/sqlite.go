package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/naapim/naapim/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore is a Store backed by a local SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN (a file path).
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(cfg.DSN)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("SQLite ping failed: %w", err)
	}
	if _, err := db.Exec(sqliteMigrations); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("SQLiteStore initialized", "path", cfg.DSN)
	return &SQLiteStore{db: db}, nil
}

// SaveFlowState stores or updates flow state for a participant.
func (s *SQLiteStore) SaveFlowState(state models.FlowState) error {
	stateDataJSON, err := marshalStateData(state.StateData)
	if err != nil {
		slog.Error("SQLiteStore SaveFlowState marshal failed", "error", err, "participantID", state.ParticipantID)
		return err
	}

	query := `
		INSERT INTO flow_states (participant_id, flow_type, current_state, state_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (participant_id, flow_type)
		DO UPDATE SET
			current_state = excluded.current_state,
			state_data = excluded.state_data,
			updated_at = excluded.updated_at`

	_, err = s.db.Exec(query, state.ParticipantID, state.FlowType, state.CurrentState,
		stateDataJSON, state.CreatedAt, state.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveFlowState failed", "error", err, "participantID", state.ParticipantID, "flowType", state.FlowType)
		return err
	}
	return nil
}

// GetFlowState retrieves flow state for a participant, nil when absent.
func (s *SQLiteStore) GetFlowState(participantID, flowType string) (*models.FlowState, error) {
	query := `SELECT participant_id, flow_type, current_state, state_data, created_at, updated_at
			  FROM flow_states WHERE participant_id = ? AND flow_type = ?`

	var state models.FlowState
	var stateDataJSON []byte
	err := s.db.QueryRow(query, participantID, flowType).Scan(
		&state.ParticipantID, &state.FlowType, &state.CurrentState,
		&stateDataJSON, &state.CreatedAt, &state.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetFlowState failed", "error", err, "participantID", participantID, "flowType", flowType)
		return nil, err
	}

	state.StateData = unmarshalStateData(stateDataJSON, participantID)
	return &state, nil
}

// DeleteFlowState removes flow state for a participant.
func (s *SQLiteStore) DeleteFlowState(participantID, flowType string) error {
	_, err := s.db.Exec(`DELETE FROM flow_states WHERE participant_id = ? AND flow_type = ?`, participantID, flowType)
	if err != nil {
		slog.Error("SQLiteStore DeleteFlowState failed", "error", err, "participantID", participantID, "flowType", flowType)
		return err
	}
	return nil
}

// SaveSession stores a completed session.
func (s *SQLiteStore) SaveSession(session models.Session) error {
	keysJSON, err := marshalFieldKeys(session.SelectedFieldKeys)
	if err != nil {
		return fmt.Errorf("failed to marshal selected field keys: %w", err)
	}
	answersJSON, err := json.Marshal(session.Answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO sessions (id, code, user_question, archetype_id, decision_type, selected_field_keys, answers, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.Code, session.UserQuestion, session.ArchetypeID,
		session.DecisionType, string(keysJSON), string(answersJSON), session.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveSession failed", "error", err, "sessionID", session.ID)
		return err
	}
	return nil
}

// GetSession looks up a session by id, nil when absent.
func (s *SQLiteStore) GetSession(id string) (*models.Session, error) {
	row := s.db.QueryRow(`
		SELECT id, code, user_question, archetype_id, decision_type, selected_field_keys, answers, created_at
		FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSession failed", "error", err, "sessionID", id)
		return nil, err
	}
	return session, nil
}

// GetSessionByCode looks up a session by share code, nil when absent.
func (s *SQLiteStore) GetSessionByCode(code string) (*models.Session, error) {
	row := s.db.QueryRow(`
		SELECT id, code, user_question, archetype_id, decision_type, selected_field_keys, answers, created_at
		FROM sessions WHERE code = ?`, code)
	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSessionByCode failed", "error", err, "code", code)
		return nil, err
	}
	return session, nil
}

// ListSessionsByArchetype returns sessions for an archetype, newest first.
func (s *SQLiteStore) ListSessionsByArchetype(archetypeID string, limit int) ([]models.Session, error) {
	rows, err := s.db.Query(`
		SELECT id, code, user_question, archetype_id, decision_type, selected_field_keys, answers, created_at
		FROM sessions WHERE archetype_id = ? ORDER BY created_at DESC LIMIT ?`, archetypeID, limit)
	if err != nil {
		slog.Error("SQLiteStore ListSessionsByArchetype failed", "error", err, "archetype", archetypeID)
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// SaveOutcome stores a community outcome story.
func (s *SQLiteStore) SaveOutcome(outcome models.Outcome) error {
	_, err := s.db.Exec(`
		INSERT INTO outcomes (id, session_id, story, upvotes, downvotes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		outcome.ID, outcome.SessionID, outcome.Story, outcome.Upvotes, outcome.Downvotes, outcome.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveOutcome failed", "error", err, "outcomeID", outcome.ID)
		return err
	}
	return nil
}

// ListOutcomesByArchetype returns outcomes whose session matches the
// archetype, newest first.
func (s *SQLiteStore) ListOutcomesByArchetype(archetypeID string, limit int) ([]models.Outcome, error) {
	rows, err := s.db.Query(`
		SELECT o.id, o.session_id, o.story, o.upvotes, o.downvotes, o.created_at
		FROM outcomes o JOIN sessions s ON s.id = o.session_id
		WHERE s.archetype_id = ? ORDER BY o.created_at DESC LIMIT ?`, archetypeID, limit)
	if err != nil {
		slog.Error("SQLiteStore ListOutcomesByArchetype failed", "error", err, "archetype", archetypeID)
		return nil, err
	}
	defer rows.Close()

	var outcomes []models.Outcome
	for rows.Next() {
		var o models.Outcome
		if err := rows.Scan(&o.ID, &o.SessionID, &o.Story, &o.Upvotes, &o.Downvotes, &o.CreatedAt); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// AddVote increments the vote counter on an outcome.
func (s *SQLiteStore) AddVote(outcomeID string, direction models.VoteDirection) error {
	column := "upvotes"
	if direction == models.VoteDown {
		column = "downvotes"
	} else if direction != models.VoteUp {
		return fmt.Errorf("invalid vote direction %q", direction)
	}

	result, err := s.db.Exec(`UPDATE outcomes SET `+column+` = `+column+` + 1 WHERE id = ?`, outcomeID)
	if err != nil {
		slog.Error("SQLiteStore AddVote failed", "error", err, "outcomeID", outcomeID)
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("outcome %s not found", outcomeID)
	}
	return nil
}

// SaveReminder stores a scheduled reminder.
func (s *SQLiteStore) SaveReminder(reminder models.Reminder) error {
	_, err := s.db.Exec(`
		INSERT INTO reminders (id, session_id, email, due_at, sent_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		reminder.ID, reminder.SessionID, reminder.Email, reminder.DueAt, reminder.SentAt, reminder.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveReminder failed", "error", err, "reminderID", reminder.ID)
		return err
	}
	return nil
}

// ListDueReminders returns unsent reminders due at or before now.
func (s *SQLiteStore) ListDueReminders(now time.Time) ([]models.Reminder, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, email, due_at, sent_at, created_at
		FROM reminders WHERE sent_at IS NULL AND due_at <= ? ORDER BY due_at`, now)
	if err != nil {
		slog.Error("SQLiteStore ListDueReminders failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	var reminders []models.Reminder
	for rows.Next() {
		var r models.Reminder
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Email, &r.DueAt, &r.SentAt, &r.CreatedAt); err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// MarkReminderSent records the delivery time of a reminder.
func (s *SQLiteStore) MarkReminderSent(reminderID string, sentAt time.Time) error {
	_, err := s.db.Exec(`UPDATE reminders SET sent_at = ? WHERE id = ?`, sentAt, reminderID)
	if err != nil {
		slog.Error("SQLiteStore MarkReminderSent failed", "error", err, "reminderID", reminderID)
		return err
	}
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

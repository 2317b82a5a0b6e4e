package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/naapim/naapim/internal/models"
	_ "github.com/lib/pq"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore is a Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL store with the given DSN.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("PostgreSQL ping failed: %w", err)
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("PostgresStore initialized")
	return &PostgresStore{db: db}, nil
}

// SaveFlowState stores or updates flow state for a participant.
func (s *PostgresStore) SaveFlowState(state models.FlowState) error {
	stateDataJSON, err := marshalStateData(state.StateData)
	if err != nil {
		slog.Error("PostgresStore SaveFlowState marshal failed", "error", err, "participantID", state.ParticipantID)
		return err
	}

	query := `
		INSERT INTO flow_states (participant_id, flow_type, current_state, state_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (participant_id, flow_type)
		DO UPDATE SET
			current_state = EXCLUDED.current_state,
			state_data = EXCLUDED.state_data,
			updated_at = EXCLUDED.updated_at`

	_, err = s.db.Exec(query, state.ParticipantID, state.FlowType, state.CurrentState,
		stateDataJSON, state.CreatedAt, state.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveFlowState failed", "error", err, "participantID", state.ParticipantID, "flowType", state.FlowType)
		return err
	}
	return nil
}

// GetFlowState retrieves flow state for a participant, nil when absent.
func (s *PostgresStore) GetFlowState(participantID, flowType string) (*models.FlowState, error) {
	query := `SELECT participant_id, flow_type, current_state, state_data, created_at, updated_at
			  FROM flow_states WHERE participant_id = $1 AND flow_type = $2`

	var state models.FlowState
	var stateDataJSON []byte
	err := s.db.QueryRow(query, participantID, flowType).Scan(
		&state.ParticipantID, &state.FlowType, &state.CurrentState,
		&stateDataJSON, &state.CreatedAt, &state.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetFlowState failed", "error", err, "participantID", participantID, "flowType", flowType)
		return nil, err
	}

	state.StateData = unmarshalStateData(stateDataJSON, participantID)
	return &state, nil
}

// DeleteFlowState removes flow state for a participant.
func (s *PostgresStore) DeleteFlowState(participantID, flowType string) error {
	_, err := s.db.Exec(`DELETE FROM flow_states WHERE participant_id = $1 AND flow_type = $2`, participantID, flowType)
	if err != nil {
		slog.Error("PostgresStore DeleteFlowState failed", "error", err, "participantID", participantID, "flowType", flowType)
		return err
	}
	return nil
}

// SaveSession stores a completed session.
func (s *PostgresStore) SaveSession(session models.Session) error {
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		session.ID, session.Code, session.UserQuestion, session.ArchetypeID,
		session.DecisionType, keysJSON, answersJSON, session.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveSession failed", "error", err, "sessionID", session.ID)
		return err
	}
	return nil
}

// GetSession looks up a session by id, nil when absent.
func (s *PostgresStore) GetSession(id string) (*models.Session, error) {
	row := s.db.QueryRow(`
		SELECT id, code, user_question, archetype_id, decision_type, selected_field_keys, answers, created_at
		FROM sessions WHERE id = $1`, id)
	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSession failed", "error", err, "sessionID", id)
		return nil, err
	}
	return session, nil
}

// GetSessionByCode looks up a session by share code, nil when absent.
func (s *PostgresStore) GetSessionByCode(code string) (*models.Session, error) {
	row := s.db.QueryRow(`
		SELECT id, code, user_question, archetype_id, decision_type, selected_field_keys, answers, created_at
		FROM sessions WHERE code = $1`, code)
	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSessionByCode failed", "error", err, "code", code)
		return nil, err
	}
	return session, nil
}

// ListSessionsByArchetype returns sessions for an archetype, newest first.
func (s *PostgresStore) ListSessionsByArchetype(archetypeID string, limit int) ([]models.Session, error) {
	rows, err := s.db.Query(`
		SELECT id, code, user_question, archetype_id, decision_type, selected_field_keys, answers, created_at
		FROM sessions WHERE archetype_id = $1 ORDER BY created_at DESC LIMIT $2`, archetypeID, limit)
	if err != nil {
		slog.Error("PostgresStore ListSessionsByArchetype failed", "error", err, "archetype", archetypeID)
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
func (s *PostgresStore) SaveOutcome(outcome models.Outcome) error {
	_, err := s.db.Exec(`
		INSERT INTO outcomes (id, session_id, story, upvotes, downvotes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		outcome.ID, outcome.SessionID, outcome.Story, outcome.Upvotes, outcome.Downvotes, outcome.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveOutcome failed", "error", err, "outcomeID", outcome.ID)
		return err
	}
	return nil
}

// ListOutcomesByArchetype returns outcomes whose session matches the
// archetype, newest first.
func (s *PostgresStore) ListOutcomesByArchetype(archetypeID string, limit int) ([]models.Outcome, error) {
	rows, err := s.db.Query(`
		SELECT o.id, o.session_id, o.story, o.upvotes, o.downvotes, o.created_at
		FROM outcomes o JOIN sessions s ON s.id = o.session_id
		WHERE s.archetype_id = $1 ORDER BY o.created_at DESC LIMIT $2`, archetypeID, limit)
	if err != nil {
		slog.Error("PostgresStore ListOutcomesByArchetype failed", "error", err, "archetype", archetypeID)
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
func (s *PostgresStore) AddVote(outcomeID string, direction models.VoteDirection) error {
	column := "upvotes"
	if direction == models.VoteDown {
		column = "downvotes"
	} else if direction != models.VoteUp {
		return fmt.Errorf("invalid vote direction %q", direction)
	}

	result, err := s.db.Exec(`UPDATE outcomes SET `+column+` = `+column+` + 1 WHERE id = $1`, outcomeID)
	if err != nil {
		slog.Error("PostgresStore AddVote failed", "error", err, "outcomeID", outcomeID)
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
func (s *PostgresStore) SaveReminder(reminder models.Reminder) error {
	_, err := s.db.Exec(`
		INSERT INTO reminders (id, session_id, email, due_at, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		reminder.ID, reminder.SessionID, reminder.Email, reminder.DueAt, reminder.SentAt, reminder.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveReminder failed", "error", err, "reminderID", reminder.ID)
		return err
	}
	return nil
}

// ListDueReminders returns unsent reminders due at or before now.
func (s *PostgresStore) ListDueReminders(now time.Time) ([]models.Reminder, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, email, due_at, sent_at, created_at
		FROM reminders WHERE sent_at IS NULL AND due_at <= $1 ORDER BY due_at`, now)
	if err != nil {
		slog.Error("PostgresStore ListDueReminders failed", "error", err)
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
func (s *PostgresStore) MarkReminderSent(reminderID string, sentAt time.Time) error {
	_, err := s.db.Exec(`UPDATE reminders SET sent_at = $1 WHERE id = $2`, sentAt, reminderID)
	if err != nil {
		slog.Error("PostgresStore MarkReminderSent failed", "error", err, "reminderID", reminderID)
		return err
	}
	return nil
}

// Close closes the PostgreSQL database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Package store provides storage backends for naapim.
//
// It persists flow state, completed sessions, community outcomes, and email
// reminders. Three implementations share one interface: an in-memory store
// for tests, SQLite for single-node deployments, and PostgreSQL for hosted
// ones.
package store

import (
	"strings"
	"time"

	"github.com/naapim/naapim/internal/models"
)

// Store defines the persistence operations used across naapim.
type Store interface {
	// Flow state
	SaveFlowState(state models.FlowState) error
	GetFlowState(participantID, flowType string) (*models.FlowState, error)
	DeleteFlowState(participantID, flowType string) error

	// Sessions
	SaveSession(session models.Session) error
	GetSession(id string) (*models.Session, error)
	GetSessionByCode(code string) (*models.Session, error)
	ListSessionsByArchetype(archetypeID string, limit int) ([]models.Session, error)

	// Community outcomes
	SaveOutcome(outcome models.Outcome) error
	ListOutcomesByArchetype(archetypeID string, limit int) ([]models.Outcome, error)
	AddVote(outcomeID string, direction models.VoteDirection) error

	// Email reminders
	SaveReminder(reminder models.Reminder) error
	ListDueReminders(now time.Time) ([]models.Reminder, error)
	MarkReminderSent(reminderID string, sentAt time.Time) error

	Close() error
}

// Opts holds configuration for store backends.
type Opts struct {
	DSN string
}

// Option configures a store backend.
type Option func(*Opts)

// WithDSN sets the database connection string (file path for SQLite,
// connection URL for PostgreSQL).
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType reports "postgres" for PostgreSQL connection strings and
// "sqlite" for anything else (treated as a file path).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// NewStore builds a store from the configured DSN: PostgreSQL for connection
// URLs, SQLite for file paths, and in-memory when no DSN is set.
func NewStore(opts ...Option) (Store, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		return NewInMemoryStore(), nil
	}
	if DetectDSNType(cfg.DSN) == "postgres" {
		return NewPostgresStore(opts...)
	}
	return NewSQLiteStore(opts...)
}

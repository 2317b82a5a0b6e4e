package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/naapim/naapim/internal/models"
)

// InMemoryStore is a mutex-guarded in-memory Store implementation.
type InMemoryStore struct {
	mu         sync.RWMutex
	flowStates map[string]models.FlowState // key: participantID|flowType
	sessions   map[string]models.Session   // key: session id
	outcomes   map[string]models.Outcome   // key: outcome id
	reminders  map[string]models.Reminder  // key: reminder id
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		flowStates: make(map[string]models.FlowState),
		sessions:   make(map[string]models.Session),
		outcomes:   make(map[string]models.Outcome),
		reminders:  make(map[string]models.Reminder),
	}
}

func flowStateKey(participantID, flowType string) string {
	return participantID + "|" + flowType
}

// SaveFlowState stores or updates flow state for a participant.
func (s *InMemoryStore) SaveFlowState(state models.FlowState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Copy the data map so callers cannot mutate stored state.
	if state.StateData != nil {
		data := make(map[models.DataKey]string, len(state.StateData))
		for k, v := range state.StateData {
			data[k] = v
		}
		state.StateData = data
	}
	s.flowStates[flowStateKey(state.ParticipantID, string(state.FlowType))] = state
	return nil
}

// GetFlowState retrieves flow state for a participant, nil when absent.
func (s *InMemoryStore) GetFlowState(participantID, flowType string) (*models.FlowState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.flowStates[flowStateKey(participantID, flowType)]
	if !ok {
		return nil, nil
	}
	if state.StateData != nil {
		data := make(map[models.DataKey]string, len(state.StateData))
		for k, v := range state.StateData {
			data[k] = v
		}
		state.StateData = data
	}
	return &state, nil
}

// DeleteFlowState removes flow state for a participant.
func (s *InMemoryStore) DeleteFlowState(participantID, flowType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flowStates, flowStateKey(participantID, flowType))
	return nil
}

// SaveSession stores a completed session.
func (s *InMemoryStore) SaveSession(session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

// GetSession looks up a session by id, nil when absent.
func (s *InMemoryStore) GetSession(id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

// GetSessionByCode looks up a session by its share code, nil when absent.
func (s *InMemoryStore) GetSessionByCode(code string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, session := range s.sessions {
		if session.Code == code {
			out := session
			return &out, nil
		}
	}
	return nil, nil
}

// ListSessionsByArchetype returns sessions for an archetype, newest first.
func (s *InMemoryStore) ListSessionsByArchetype(archetypeID string, limit int) ([]models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Session
	for _, session := range s.sessions {
		if session.ArchetypeID == archetypeID {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SaveOutcome stores a community outcome story.
func (s *InMemoryStore) SaveOutcome(outcome models.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[outcome.ID] = outcome
	return nil
}

// ListOutcomesByArchetype returns outcomes whose session matches the
// archetype, newest first.
func (s *InMemoryStore) ListOutcomesByArchetype(archetypeID string, limit int) ([]models.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Outcome
	for _, outcome := range s.outcomes {
		session, ok := s.sessions[outcome.SessionID]
		if !ok || session.ArchetypeID != archetypeID {
			continue
		}
		out = append(out, outcome)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AddVote increments the vote counter on an outcome.
func (s *InMemoryStore) AddVote(outcomeID string, direction models.VoteDirection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	outcome, ok := s.outcomes[outcomeID]
	if !ok {
		return fmt.Errorf("outcome %s not found", outcomeID)
	}
	switch direction {
	case models.VoteUp:
		outcome.Upvotes++
	case models.VoteDown:
		outcome.Downvotes++
	default:
		return fmt.Errorf("invalid vote direction %q", direction)
	}
	s.outcomes[outcomeID] = outcome
	return nil
}

// SaveReminder stores a scheduled reminder.
func (s *InMemoryStore) SaveReminder(reminder models.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reminders[reminder.ID] = reminder
	return nil
}

// ListDueReminders returns unsent reminders due at or before now.
func (s *InMemoryStore) ListDueReminders(now time.Time) ([]models.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Reminder
	for _, reminder := range s.reminders {
		if reminder.SentAt == nil && !reminder.DueAt.After(now) {
			out = append(out, reminder)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueAt.Before(out[j].DueAt) })
	return out, nil
}

// MarkReminderSent records the delivery time of a reminder.
func (s *InMemoryStore) MarkReminderSent(reminderID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reminder, ok := s.reminders[reminderID]
	if !ok {
		return fmt.Errorf("reminder %s not found", reminderID)
	}
	reminder.SentAt = &sentAt
	s.reminders[reminderID] = reminder
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}

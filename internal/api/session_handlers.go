// Package api provides session sharing, community outcome, and reminder handlers.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/naapim/naapim/internal/models"
	"github.com/naapim/naapim/internal/util"
)

// DefaultFollowUpDays is used when an archetype carries no follow-up window.
const DefaultFollowUpDays = 30

// sessionCodeAttempts bounds the retry loop on share code collisions.
const sessionCodeAttempts = 5

var errSessionCodeExhausted = errors.New("could not find an unused session code")

type createSessionRequest struct {
	ParticipantID string `json:"participant_id"`
}

type createOutcomeRequest struct {
	Story string `json:"story"`
}

type voteRequest struct {
	Direction models.VoteDirection `json:"direction"`
}

type createReminderRequest struct {
	Email string `json:"email"`
}

// createSessionHandler handles POST /api/sessions. It snapshots a completed
// flow into a shareable session with a short code.
func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.createSessionHandler: processing request", "method", r.Method, "path", r.URL.Path)

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.createSessionHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.ParticipantID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required field: participant_id"))
		return
	}

	completion, err := s.decisionFlow.Completion(r.Context(), req.ParticipantID)
	if err != nil {
		slog.Warn("Server.createSessionHandler: flow not complete", "error", err, "participantID", req.ParticipantID)
		writeJSONResponse(w, http.StatusConflict, models.Error("Flow is not complete"))
		return
	}

	code, err := s.uniqueSessionCode()
	if err != nil {
		slog.Error("Server.createSessionHandler: code generation failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to generate session code"))
		return
	}

	session := models.Session{
		ID:                uuid.NewString(),
		Code:              code,
		UserQuestion:      completion.UserQuestion,
		ArchetypeID:       completion.ArchetypeID,
		DecisionType:      completion.DecisionType,
		SelectedFieldKeys: completion.SelectedFieldKeys,
		Answers:           completion.Answers,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.st.SaveSession(session); err != nil {
		slog.Error("Server.createSessionHandler: save failed", "error", err, "sessionID", session.ID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save session"))
		return
	}

	slog.Info("Server.createSessionHandler: session created", "sessionID", session.ID, "code", session.Code)
	writeJSONResponse(w, http.StatusCreated, models.SuccessWithMessage("Session created successfully", session))
}

// uniqueSessionCode draws short codes until one is unused.
func (s *Server) uniqueSessionCode() (string, error) {
	for i := 0; i < sessionCodeAttempts; i++ {
		code := util.GenerateSessionCode()
		existing, err := s.st.GetSessionByCode(code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", errSessionCodeExhausted
}

// getSessionHandler handles GET /api/sessions/{code}
func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))

	session, err := s.st.GetSessionByCode(code)
	if err != nil {
		slog.Error("Server.getSessionHandler: lookup failed", "error", err, "code", code)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to look up session"))
		return
	}
	if session == nil {
		slog.Debug("Server.getSessionHandler: not found", "code", code)
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(session))
}

// analyzeSessionHandler handles POST /api/sessions/{code}/analyze
func (s *Server) analyzeSessionHandler(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	slog.Debug("Server.analyzeSessionHandler: processing request", "code", code)

	if s.gaClient == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Analysis is not available"))
		return
	}

	session, err := s.st.GetSessionByCode(code)
	if err != nil {
		slog.Error("Server.analyzeSessionHandler: lookup failed", "error", err, "code", code)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to look up session"))
		return
	}
	if session == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}

	recommendation, err := s.analyzer.GenerateRecommendation(r.Context(), *session)
	if err != nil {
		slog.Error("Server.analyzeSessionHandler: analysis failed", "error", err, "sessionID", session.ID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to generate recommendation"))
		return
	}

	slog.Info("Server.analyzeSessionHandler: recommendation generated", "sessionID", session.ID)
	writeJSONResponse(w, http.StatusOK, models.Success(recommendation))
}

// createOutcomeHandler handles POST /api/sessions/{code}/outcomes. Stories
// pass content moderation before they are stored.
func (s *Server) createOutcomeHandler(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	slog.Debug("Server.createOutcomeHandler: processing request", "code", code)

	var req createOutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.createOutcomeHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	story := strings.TrimSpace(req.Story)
	if story == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required field: story"))
		return
	}
	if len(story) > models.MaxOutcomeLength {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(models.ErrOutcomeTooLong.Error()))
		return
	}

	session, err := s.st.GetSessionByCode(code)
	if err != nil {
		slog.Error("Server.createOutcomeHandler: lookup failed", "error", err, "code", code)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to look up session"))
		return
	}
	if session == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}

	if s.gaClient != nil {
		flagged, err := s.gaClient.ModerateContent(r.Context(), story)
		if err != nil {
			slog.Error("Server.createOutcomeHandler: moderation failed", "error", err, "sessionID", session.ID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to moderate story"))
			return
		}
		if flagged {
			slog.Warn("Server.createOutcomeHandler: story flagged by moderation", "sessionID", session.ID)
			writeJSONResponse(w, http.StatusBadRequest, models.Error(models.ErrContentFlagged.Error()))
			return
		}
	}

	outcome := models.Outcome{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Story:     story,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.st.SaveOutcome(outcome); err != nil {
		slog.Error("Server.createOutcomeHandler: save failed", "error", err, "outcomeID", outcome.ID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save outcome"))
		return
	}

	slog.Info("Server.createOutcomeHandler: outcome recorded", "outcomeID", outcome.ID, "sessionID", session.ID)
	writeJSONResponse(w, http.StatusCreated, models.Recorded(outcome))
}

// listStoriesHandler handles GET /api/archetypes/{archetypeID}/stories
func (s *Server) listStoriesHandler(w http.ResponseWriter, r *http.Request) {
	archetypeID := chi.URLParam(r, "archetypeID")
	if _, ok := s.reg.Archetype(archetypeID); !ok {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Archetype not found"))
		return
	}

	limit := DefaultStoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid limit parameter"))
			return
		}
		limit = parsed
	}
	if limit > MaxStoryLimit {
		limit = MaxStoryLimit
	}

	outcomes, err := s.st.ListOutcomesByArchetype(archetypeID, limit)
	if err != nil {
		slog.Error("Server.listStoriesHandler: listing failed", "error", err, "archetypeID", archetypeID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list stories"))
		return
	}
	slog.Debug("Server.listStoriesHandler: stories fetched", "archetypeID", archetypeID, "count", len(outcomes))
	writeJSONResponse(w, http.StatusOK, models.Success(outcomes))
}

// voteOutcomeHandler handles POST /api/outcomes/{outcomeID}/votes
func (s *Server) voteOutcomeHandler(w http.ResponseWriter, r *http.Request) {
	outcomeID := chi.URLParam(r, "outcomeID")

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.voteOutcomeHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if !models.IsValidVoteDirection(req.Direction) {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid vote direction"))
		return
	}

	if err := s.st.AddVote(outcomeID, req.Direction); err != nil {
		slog.Warn("Server.voteOutcomeHandler: vote failed", "error", err, "outcomeID", outcomeID)
		writeJSONResponse(w, http.StatusNotFound, models.Error("Outcome not found"))
		return
	}

	slog.Debug("Server.voteOutcomeHandler: vote recorded", "outcomeID", outcomeID, "direction", req.Direction)
	writeJSONResponse(w, http.StatusOK, models.Recorded(nil))
}

// createReminderHandler handles POST /api/sessions/{code}/reminders. The
// follow-up window comes from the session's archetype.
func (s *Server) createReminderHandler(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	slog.Debug("Server.createReminderHandler: processing request", "code", code)

	var req createReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.createReminderHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid email address"))
		return
	}

	session, err := s.st.GetSessionByCode(code)
	if err != nil {
		slog.Error("Server.createReminderHandler: lookup failed", "error", err, "code", code)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to look up session"))
		return
	}
	if session == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}

	followUpDays := DefaultFollowUpDays
	if archetype, ok := s.reg.Archetype(session.ArchetypeID); ok && archetype.FollowUpDays > 0 {
		followUpDays = archetype.FollowUpDays
	}

	now := time.Now().UTC()
	reminder := models.Reminder{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Email:     email,
		DueAt:     now.AddDate(0, 0, followUpDays),
		CreatedAt: now,
	}
	if err := s.st.SaveReminder(reminder); err != nil {
		slog.Error("Server.createReminderHandler: save failed", "error", err, "reminderID", reminder.ID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save reminder"))
		return
	}

	slog.Info("Server.createReminderHandler: reminder scheduled", "reminderID", reminder.ID, "dueAt", reminder.DueAt)
	writeJSONResponse(w, http.StatusCreated, models.SuccessWithMessage("Reminder scheduled successfully", reminder))
}

// Package api provides the per-participant decision flow handlers.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/naapim/naapim/internal/flow"
	"github.com/naapim/naapim/internal/models"
)

type flowTextRequest struct {
	Text string `json:"text"`
}

type flowAnswerRequest struct {
	OptionID string `json:"option_id"`
}

// flowErrorStatus maps flow sentinel errors to HTTP status codes. Anything
// unrecognized is treated as an internal error.
func flowErrorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrEmptyInput),
		errors.Is(err, models.ErrInputTooLong),
		errors.Is(err, models.ErrEmptyParticipant),
		errors.Is(err, flow.ErrInvalidOption):
		return http.StatusBadRequest
	case errors.Is(err, flow.ErrNoClarificationPending),
		errors.Is(err, flow.ErrNotReady),
		errors.Is(err, flow.ErrNotAnswering),
		errors.Is(err, flow.ErrDwellNotElapsed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeFlowError(w http.ResponseWriter, handler string, err error) {
	status := flowErrorStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("Server."+handler+": flow operation failed", "error", err)
		writeJSONResponse(w, status, models.Error("Flow operation failed"))
		return
	}
	slog.Warn("Server."+handler+": flow operation rejected", "error", err)
	writeJSONResponse(w, status, models.Error(err.Error()))
}

// flowInputHandler handles POST /api/flow/{participantID}/input
func (s *Server) flowInputHandler(w http.ResponseWriter, r *http.Request) {
	participantID := chi.URLParam(r, "participantID")
	slog.Debug("Server.flowInputHandler: processing input", "participantID", participantID)

	var req flowTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.flowInputHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	snapshot, err := s.decisionFlow.SubmitInput(r.Context(), participantID, req.Text)
	if err != nil {
		writeFlowError(w, "flowInputHandler", err)
		return
	}
	slog.Debug("Server.flowInputHandler: input processed", "participantID", participantID, "state", snapshot.State)
	writeJSONResponse(w, http.StatusOK, models.Success(snapshot))
}

// flowClarifyHandler handles POST /api/flow/{participantID}/clarify
func (s *Server) flowClarifyHandler(w http.ResponseWriter, r *http.Request) {
	participantID := chi.URLParam(r, "participantID")
	slog.Debug("Server.flowClarifyHandler: processing clarification", "participantID", participantID)

	var req flowTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.flowClarifyHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	snapshot, err := s.decisionFlow.SubmitClarification(r.Context(), participantID, req.Text)
	if err != nil {
		writeFlowError(w, "flowClarifyHandler", err)
		return
	}
	slog.Debug("Server.flowClarifyHandler: clarification processed", "participantID", participantID, "state", snapshot.State)
	writeJSONResponse(w, http.StatusOK, models.Success(snapshot))
}

// flowBeginHandler handles POST /api/flow/{participantID}/begin
func (s *Server) flowBeginHandler(w http.ResponseWriter, r *http.Request) {
	participantID := chi.URLParam(r, "participantID")
	slog.Debug("Server.flowBeginHandler: begin answering", "participantID", participantID)

	snapshot, err := s.decisionFlow.BeginAnswering(r.Context(), participantID)
	if err != nil {
		writeFlowError(w, "flowBeginHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(snapshot))
}

// flowQuestionsHandler handles GET /api/flow/{participantID}/questions
func (s *Server) flowQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	participantID := chi.URLParam(r, "participantID")

	questions, err := s.decisionFlow.Questions(r.Context(), participantID)
	if err != nil {
		writeFlowError(w, "flowQuestionsHandler", err)
		return
	}
	slog.Debug("Server.flowQuestionsHandler: questions resolved", "participantID", participantID, "count", len(questions))
	writeJSONResponse(w, http.StatusOK, models.Success(questions))
}

// flowAnswerHandler handles POST /api/flow/{participantID}/answer
func (s *Server) flowAnswerHandler(w http.ResponseWriter, r *http.Request) {
	participantID := chi.URLParam(r, "participantID")
	slog.Debug("Server.flowAnswerHandler: processing answer", "participantID", participantID)

	var req flowAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.flowAnswerHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.OptionID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required field: option_id"))
		return
	}

	snapshot, err := s.decisionFlow.SubmitAnswer(r.Context(), participantID, req.OptionID)
	if err != nil {
		writeFlowError(w, "flowAnswerHandler", err)
		return
	}
	slog.Debug("Server.flowAnswerHandler: answer recorded", "participantID", participantID, "state", snapshot.State, "index", snapshot.CurrentIndex)
	writeJSONResponse(w, http.StatusOK, models.Success(snapshot))
}

// flowBackHandler handles POST /api/flow/{participantID}/back
func (s *Server) flowBackHandler(w http.ResponseWriter, r *http.Request) {
	participantID := chi.URLParam(r, "participantID")
	slog.Debug("Server.flowBackHandler: stepping back", "participantID", participantID)

	snapshot, err := s.decisionFlow.Back(r.Context(), participantID)
	if err != nil {
		writeFlowError(w, "flowBackHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(snapshot))
}

// flowResetHandler handles POST /api/flow/{participantID}/reset
func (s *Server) flowResetHandler(w http.ResponseWriter, r *http.Request) {
	participantID := chi.URLParam(r, "participantID")
	slog.Debug("Server.flowResetHandler: resetting flow", "participantID", participantID)

	if err := s.decisionFlow.Reset(r.Context(), participantID); err != nil {
		writeFlowError(w, "flowResetHandler", err)
		return
	}
	slog.Info("Server.flowResetHandler: flow reset", "participantID", participantID)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Flow reset successfully", nil))
}

// flowStateHandler handles GET /api/flow/{participantID}/state
func (s *Server) flowStateHandler(w http.ResponseWriter, r *http.Request) {
	participantID := chi.URLParam(r, "participantID")

	snapshot, err := s.decisionFlow.Snapshot(r.Context(), participantID)
	if err != nil {
		writeFlowError(w, "flowStateHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(snapshot))
}

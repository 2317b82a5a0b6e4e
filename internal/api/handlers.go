// Package api provides the stateless classification and catalog endpoints.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/naapim/naapim/internal/models"
)

type classifyRequest struct {
	Text string `json:"text"`
}

type selectQuestionsRequest struct {
	Text        string `json:"text"`
	ArchetypeID string `json:"archetype_id"`
}

// validateInputText applies the shared validation rules for free-form user
// text arriving at the stateless endpoints.
func validateInputText(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return models.ErrEmptyInput
	}
	if len(text) > models.MaxInputLength {
		return models.ErrInputTooLong
	}
	if len(strings.Fields(trimmed)) < models.MinInputWords {
		return models.ErrInputTooShort
	}
	return nil
}

// classifyHandler handles POST /api/classify
func (s *Server) classifyHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.classifyHandler: processing classify request", "method", r.Method, "path", r.URL.Path)

	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.classifyHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := validateInputText(req.Text); err != nil {
		slog.Warn("Server.classifyHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	result := s.classifier.Classify(r.Context(), req.Text, s.reg.Archetypes(), s.reg.SimplePools())
	slog.Debug("Server.classifyHandler: classified", "archetype", result.ArchetypeID, "confidence", result.Confidence)
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

// selectQuestionsHandler handles POST /api/select-questions
func (s *Server) selectQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.selectQuestionsHandler: processing request", "method", r.Method, "path", r.URL.Path)

	var req selectQuestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.selectQuestionsHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := validateInputText(req.Text); err != nil {
		slog.Warn("Server.selectQuestionsHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}
	if _, ok := s.reg.Archetype(req.ArchetypeID); !ok {
		slog.Warn("Server.selectQuestionsHandler: unknown archetype", "archetypeID", req.ArchetypeID)
		writeJSONResponse(w, http.StatusNotFound, models.Error("Archetype not found"))
		return
	}

	result := s.selector.SelectQuestions(r.Context(), req.Text, req.ArchetypeID)
	slog.Debug("Server.selectQuestionsHandler: selected", "archetype", req.ArchetypeID, "count", len(result.SelectedFieldKeys))
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

// listArchetypesHandler handles GET /api/archetypes
func (s *Server) listArchetypesHandler(w http.ResponseWriter, r *http.Request) {
	archetypes := s.reg.Archetypes()
	slog.Debug("Server.listArchetypesHandler: archetypes fetched", "count", len(archetypes))
	writeJSONResponse(w, http.StatusOK, models.Success(archetypes))
}

// archetypeQuestionsHandler handles GET /api/archetypes/{archetypeID}/questions
func (s *Server) archetypeQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	archetypeID := chi.URLParam(r, "archetypeID")
	if _, ok := s.reg.Archetype(archetypeID); !ok {
		slog.Debug("Server.archetypeQuestionsHandler: not found", "archetypeID", archetypeID)
		writeJSONResponse(w, http.StatusNotFound, models.Error("Archetype not found"))
		return
	}

	questions := s.reg.QuestionsForArchetype(archetypeID)
	slog.Debug("Server.archetypeQuestionsHandler: questions resolved", "archetypeID", archetypeID, "count", len(questions))
	writeJSONResponse(w, http.StatusOK, models.Success(questions))
}

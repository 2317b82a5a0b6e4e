// Package api provides HTTP handlers and the main API server logic for naapim.
//
// It exposes RESTful endpoints for decision classification, question
// selection, the per-participant decision flow, shared sessions, community
// outcomes, and follow-up reminders.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/naapim/naapim/internal/flow"
	"github.com/naapim/naapim/internal/genai"
	"github.com/naapim/naapim/internal/registry"
	"github.com/naapim/naapim/internal/store"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// DefaultStoryLimit bounds community story listings when no limit is given.
const DefaultStoryLimit = 20

// MaxStoryLimit caps the limit query parameter on listings.
const MaxStoryLimit = 100

// Opts holds configuration for the API server.
type Opts struct {
	Addr     string
	MinDwell time.Duration
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithMinDwell overrides the minimum time a participant spends on the
// readiness screen before answering may begin.
func WithMinDwell(d time.Duration) Option {
	return func(o *Opts) { o.MinDwell = d }
}

// Server wires the decision flow, registry, and store behind HTTP endpoints.
type Server struct {
	addr         string
	reg          *registry.Registry
	st           store.Store
	gaClient     genai.ClientInterface
	classifier   *flow.Classifier
	selector     *flow.QuestionSelector
	analyzer     *flow.Analyzer
	decisionFlow *flow.DecisionFlow
	router       *chi.Mux
	httpServer   *http.Server
}

// NewServer creates an API server over the given registry, store, and GenAI
// client. The GenAI client may be nil; classification and selection then run
// in fallback mode and analysis endpoints report unavailability.
func NewServer(reg *registry.Registry, st store.Store, gaClient genai.ClientInterface, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr}
	for _, opt := range opts {
		opt(&cfg)
	}

	classifier := flow.NewClassifier(gaClient)
	selector := flow.NewQuestionSelector(gaClient, reg)
	var flowOpts []flow.FlowOption
	if cfg.MinDwell > 0 {
		flowOpts = append(flowOpts, flow.WithMinDwell(cfg.MinDwell))
	}
	decisionFlow := flow.NewDecisionFlow(flow.NewStoreBasedStateManager(st), classifier, selector, reg, flowOpts...)

	s := &Server{
		addr:         cfg.Addr,
		reg:          reg,
		st:           st,
		gaClient:     gaClient,
		classifier:   classifier,
		selector:     selector,
		analyzer:     flow.NewAnalyzer(gaClient, reg),
		decisionFlow: decisionFlow,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/classify", s.classifyHandler)
		r.Post("/select-questions", s.selectQuestionsHandler)

		r.Get("/archetypes", s.listArchetypesHandler)
		r.Get("/archetypes/{archetypeID}/questions", s.archetypeQuestionsHandler)
		r.Get("/archetypes/{archetypeID}/stories", s.listStoriesHandler)

		r.Route("/flow/{participantID}", func(r chi.Router) {
			r.Get("/state", s.flowStateHandler)
			r.Get("/questions", s.flowQuestionsHandler)
			r.Post("/input", s.flowInputHandler)
			r.Post("/clarify", s.flowClarifyHandler)
			r.Post("/begin", s.flowBeginHandler)
			r.Post("/answer", s.flowAnswerHandler)
			r.Post("/back", s.flowBackHandler)
			r.Post("/reset", s.flowResetHandler)
		})

		r.Post("/sessions", s.createSessionHandler)
		r.Get("/sessions/{code}", s.getSessionHandler)
		r.Post("/sessions/{code}/analyze", s.analyzeSessionHandler)
		r.Post("/sessions/{code}/outcomes", s.createOutcomeHandler)
		r.Post("/sessions/{code}/reminders", s.createReminderHandler)

		r.Post("/outcomes/{outcomeID}/votes", s.voteOutcomeHandler)
	})

	return r
}

// Router exposes the HTTP handler, primarily for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("API server starting", "addr", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	slog.Info("API server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// healthHandler provides a health check endpoint for monitoring and load balancing
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]interface{}{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"archetypes": len(s.reg.Archetypes()),
	}
	if s.gaClient == nil {
		healthData["genai"] = "disabled"
	}
	writeJSONResponse(w, http.StatusOK, healthData)
}

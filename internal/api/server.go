package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/docuproof/internal/analyzer"
	"github.com/dgallion1/docuproof/internal/config"
	"github.com/dgallion1/docuproof/internal/pipeline"
	"github.com/dgallion1/docuproof/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for docuproof.
type Server struct {
	router       chi.Router
	store        store.Store
	ingester     *pipeline.Ingester
	orchestrator *pipeline.Orchestrator
	llm          *analyzer.Client
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. llm may be nil, in
// which case generator stats are unavailable.
func NewServer(st store.Store, in *pipeline.Ingester, orch *pipeline.Orchestrator, llm *analyzer.Client, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		store:        st,
		ingester:     in,
		orchestrator: orch,
		llm:          llm,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(JWTAuth(s.cfg.AuthJWTSecret, s.log))

		r.Post("/api/documents", s.handleUpload)
		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{docID}", s.handleGetDocument)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)

		r.Post("/api/documents/{docID}/analyze", s.handleAnalyzeStream)
		r.Post("/api/documents/{docID}/analyze/async", s.handleAnalyzeAsync)
		r.Get("/api/runs/{runID}", s.handleRunStatus)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}

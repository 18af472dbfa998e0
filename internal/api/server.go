package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/docxer/docxer/internal/config"
	"github.com/docxer/docxer/internal/llm"
	"github.com/docxer/docxer/internal/pipeline"
	"github.com/docxer/docxer/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// StatsSource reports LLM call statistics.
type StatsSource interface {
	Stats() llm.StatsSnapshot
}

// Server is the HTTP API server for docxer.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	sessions     *session.Store
	stats        StatsSource
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. stats may be nil.
func NewServer(orch *pipeline.Orchestrator, sessions *session.Store, stats StatsSource, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		sessions:     sessions,
		stats:        stats,
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

	// Authenticated endpoints, open when no API key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/upload", s.handleUpload)
		r.Get("/status/{taskID}", s.handleStatus)
		r.Get("/download/{taskID}", s.handleDownload)
		r.Get("/preview/{taskID}", s.handlePreview)
		r.Get("/outline/{taskID}", s.handleOutline)

		r.Get("/documents", s.handleListDocuments)
		r.Delete("/documents/{taskID}", s.handleDeleteDocument)

		r.Route("/project", func(r chi.Router) {
			r.Post("/start", s.handleSessionStart(session.KindReact))
			r.Post("/{sessionID}/package-json", s.handlePackageJSON(session.KindReact))
			r.Post("/{sessionID}/component", s.handleComponent)
			r.Post("/{sessionID}/generate", s.handleSessionGenerate(session.KindReact))
		})
		r.Route("/node-project", func(r chi.Router) {
			r.Post("/start", s.handleSessionStart(session.KindNode))
			r.Post("/{sessionID}/package-json", s.handlePackageJSON(session.KindNode))
			r.Post("/{sessionID}/server", s.handleServerFile)
			r.Post("/{sessionID}/additional-files", s.handleAdditionalFiles)
			r.Post("/{sessionID}/generate", s.handleSessionGenerate(session.KindNode))
		})

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

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

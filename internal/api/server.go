// Package api implements the promptdesk HTTP API consumed by the chat UI.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nugget/promptdesk/internal/buildinfo"
	"github.com/nugget/promptdesk/internal/prompts"
	"github.com/nugget/promptdesk/internal/settings"
)

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response,
// which is not actionable but worth tracking for debugging.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// Config holds the collaborators and listen settings for a [Server].
type Config struct {
	Address        string
	Port           int
	AllowedOrigins []string

	Library   *prompts.Library
	Overrides *prompts.Overrides
	Settings  *settings.Service

	// Defaults fill any render option a request leaves blank.
	Defaults prompts.Options

	Logger *slog.Logger
}

// Server is the HTTP API server.
type Server struct {
	address        string
	port           int
	allowedOrigins []string
	library        *prompts.Library
	overrides      *prompts.Overrides
	settings       *settings.Service
	defaults       prompts.Options
	logger         *slog.Logger
	server         *http.Server
}

// NewServer creates a new API server.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		address:        cfg.Address,
		port:           cfg.Port,
		allowedOrigins: cfg.AllowedOrigins,
		library:        cfg.Library,
		overrides:      cfg.Overrides,
		settings:       cfg.Settings,
		defaults:       cfg.Defaults.WithDefaults(),
		logger:         logger,
	}
}

// Handler builds the routed HTTP handler. Exposed separately from
// [Server.Start] so tests can drive it with httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.withLogging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/v1/version", s.handleVersion)

	r.Route("/v1/prompts", func(r chi.Router) {
		r.Get("/", s.handleListPrompts)
		r.Get("/examples", s.handleExamples)

		r.Get("/custom", s.handleCustomGet)
		r.Put("/custom", s.handleCustomSave)
		r.Delete("/custom", s.handleCustomReset)

		r.Post("/{id}/render", s.handleRender)
	})

	// What the chat collaborator fetches before each conversation.
	r.Get("/v1/system-prompt", s.handleSystemPrompt)

	r.Route("/v1/settings", func(r chi.Router) {
		r.Get("/prompt", s.handleSelectedPromptGet)
		r.Put("/prompt", s.handleSelectedPromptPut)
		r.Get("/database", s.handleDatabaseGet)
		r.Put("/database", s.handleDatabasePut)
	})

	return r
}

// Start begins serving HTTP requests. It blocks until the server stops.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.address, s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.logger.Info("starting API server", "address", addr, "port", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) errorResponse(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    code,
		},
	}, s.logger)
}

// errorStatus maps the prompts error taxonomy onto HTTP status codes.
// Persistence failures and anything unexpected are server errors.
func errorStatus(err error) int {
	if errors.Is(err, prompts.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := errorStatus(err)
	if code >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	s.errorResponse(w, code, err.Error())
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{
		"name":    "promptdesk",
		"version": buildinfo.Version,
		"status":  "ok",
	}, s.logger)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, buildinfo.RuntimeInfo(), s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "healthy"}, s.logger)
}

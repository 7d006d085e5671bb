// Package server provides the HTTP control surface of the collector.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/landmarkscollector/internal/platform/logger"
	"github.com/ayusman/landmarkscollector/internal/platform/metrics"
	"github.com/ayusman/landmarkscollector/internal/session"
	"github.com/ayusman/landmarkscollector/internal/store"
)

// Session is the recording session as seen by the HTTP handlers.
type Session interface {
	Dispatch(e session.Event) bool
	State() session.State
	Subscribe() (<-chan session.State, func())
}

// FrameSource yields the latest encoded camera frame, its sequence number and a
// channel closed when a newer frame arrives.
type FrameSource interface {
	Latest() ([]byte, uint64, <-chan struct{})
}

// CaptureLister lists journaled captures, newest first.
type CaptureLister interface {
	Captures(limit int) ([]*store.Capture, error)
}

// Config holds the server configuration. Every collaborator is optional; routes
// whose collaborator is missing are not registered.
type Config struct {
	StaticDir     string
	Session       Session
	TotalGestures int
	Frames        FrameSource
	Captures      CaptureLister
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
}

// Server represents the HTTP server.
type Server struct {
	config Config
	router chi.Router
	log    *slog.Logger
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = logger.Discard()
	}
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		log:    config.Logger,
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.router
	r.Use(logger.RequestLogger(s.log))
	r.Use(metrics.RequestMiddleware(s.config.Metrics))

	r.Get("/api/health", s.handleHealth)

	if s.config.Metrics != nil {
		r.Get("/metrics", s.config.Metrics.Handler().ServeHTTP)
	}

	if s.config.Session != nil {
		h := newSessionHandler(s.config.Session, s.config.TotalGestures, s.log)
		r.Get("/api/state", h.getState)
		r.Route("/api/session", func(r chi.Router) {
			r.Post("/directory", h.setDirectory)
			r.Post("/gesture", h.setGesture)
			r.Post("/start", h.send(session.StartPressed{}))
			r.Post("/pause", h.send(session.PausePressed{}))
			r.Post("/resume", h.send(session.ResumePressed{}))
			r.Post("/stop", h.send(session.StopPressed{}))
			r.Post("/retry", h.send(session.RetryPressed{}))
			r.Post("/camera/toggle", h.send(session.ToggleCamera{}))
		})
		r.Get("/api/events", NewStateFeed(s.config.Session, s.config.TotalGestures, s.log).ServeHTTP)
	}

	if s.config.Frames != nil {
		r.Get("/api/stream", NewStreamHandler(s.config.Frames).ServeHTTP)
	}

	if s.config.Captures != nil {
		r.Get("/api/captures", s.handleCaptures)
	}

	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Session != nil {
		response["phase"] = s.config.Session.State().Phase()
	}
	writeJSON(w, http.StatusOK, response)
}

// handleCaptures handles GET /api/captures?limit=N.
func (s *Server) handleCaptures(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := parsePositive(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	captures, err := s.config.Captures.Captures(limit)
	if err != nil {
		s.log.Error("list captures failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list captures")
		return
	}
	if captures == nil {
		captures = []*store.Capture{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"captures": captures})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Package http exposes the interpretation service over HTTP: the
// /v1/interpret endpoint, memory inspection and administration, and
// the usual health, readiness, and metrics routes.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flightpath-labs/notam-interp/internal/domain"
	"github.com/flightpath-labs/notam-interp/internal/memory"
	"github.com/flightpath-labs/notam-interp/internal/pipeline"
)

const maxRequestBody = 1 << 20 // 1 MiB

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ReadinessFunc adapts a function to the ReadinessChecker interface.
type ReadinessFunc func(ctx context.Context) error

func (f ReadinessFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }

// Purger invalidates cached corrections, typically after the memory
// store is cleared or written out of band.
type Purger interface {
	Purge()
}

// Server exposes the interpretation API plus health, readiness, and
// metrics endpoints.
type Server struct {
	httpServer  *http.Server
	interpreter *pipeline.Interpreter
	store       *memory.Store
	cache       Purger
	logger      *slog.Logger
}

// NewServer creates the HTTP server and registers all routes. cache
// may be nil when correction caching is disabled.
func NewServer(addr string, interpreter *pipeline.Interpreter, store *memory.Store, cache Purger, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		interpreter: interpreter,
		store:       store,
		cache:       cache,
		logger:      logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/interpret", s.handleInterpret)
	mux.HandleFunc("GET /v1/memory", s.handleMemoryList)
	mux.HandleFunc("POST /v1/memory", s.handleMemorySave)
	mux.HandleFunc("DELETE /v1/memory", s.handleMemoryClear)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// interpretRequest is the POST /v1/interpret body. The candidate block
// is optional and carries an external (typically AI-generated)
// interpretation to arbitrate against.
type interpretRequest struct {
	Message   string `json:"message"`
	Candidate *struct {
		Text     string           `json:"text"`
		Segments []domain.Segment `json:"segments"`
		Source   string           `json:"source"`
	} `json:"candidate,omitempty"`
}

func (s *Server) handleInterpret(w http.ResponseWriter, r *http.Request) {
	var req interpretRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var candidate domain.Candidate
	if req.Candidate != nil {
		candidate = domain.Candidate{
			Text:     req.Candidate.Text,
			Segments: req.Candidate.Segments,
			Source:   req.Candidate.Source,
		}
	}

	result := s.interpreter.Interpret(req.Message, candidate)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMemoryList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"entries": s.store.All()})
}

// memorySaveRequest seeds the corrective memory directly, bypassing
// the confidence gate. Operators use this to teach known fix
// corrections.
type memorySaveRequest struct {
	Message        string            `json:"message"`
	Interpretation string            `json:"interpretation"`
	Segments       []domain.Segment  `json:"segments,omitempty"`
	Fixes          map[string]string `json:"fixes,omitempty"`
}

func (s *Server) handleMemorySave(w http.ResponseWriter, r *http.Request) {
	var req memorySaveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	entry, err := s.store.Append(req.Message, memory.Interpretation{
		Text:     req.Interpretation,
		Segments: req.Segments,
		Fixes:    req.Fixes,
	})
	if err != nil {
		s.logger.Error("memory save failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to persist entry"})
		return
	}
	if s.cache != nil {
		s.cache.Purge()
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleMemoryClear(w http.ResponseWriter, _ *http.Request) {
	if err := s.store.Clear(); err != nil {
		s.logger.Error("memory clear failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to clear memory"})
		return
	}
	if s.cache != nil {
		s.cache.Purge()
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

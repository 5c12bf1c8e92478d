// Package server exposes the tool registry over a small HTTP API.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/omnihq/omnicrm/internal/apperr"
	"github.com/omnihq/omnicrm/internal/logger"
	"github.com/omnihq/omnicrm/internal/tools"
)

// Caller identity headers. Permission defaults to read when absent.
const (
	HeaderUser       = "X-Omni-User"
	HeaderPermission = "X-Omni-Permission"
)

const maxBodyBytes = 1 << 20

// Server wraps the registry with HTTP transport.
type Server struct {
	registry *tools.Registry
	http     *http.Server
	log      *logger.Entry
	started  time.Time
}

// New builds a server listening on addr.
func New(addr string, registry *tools.Registry) *Server {
	s := &Server{
		registry: registry,
		log:      logger.Named("server"),
		started:  time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/tools", s.handleListTools)
	mux.HandleFunc("POST /api/tools/{name}", s.handleInvoke)
	mux.HandleFunc("GET /api/credits", s.handleCredits)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.log.WithFields(logger.Fields{"addr": s.http.Addr}).Info("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) caller(r *http.Request) tools.Caller {
	id := r.Header.Get(HeaderUser)
	if id == "" {
		id = "anonymous"
	}
	return tools.Caller{
		ID:         id,
		Permission: tools.ParsePermission(r.Header.Get(HeaderPermission)),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"tools":          len(s.registry.Definitions()),
	})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.registry.Definitions()})
}

func (s *Server) handleCredits(w http.ResponseWriter, r *http.Request) {
	caller := s.caller(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"caller":  caller.ID,
		"balance": s.registry.Balance(caller),
	})
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, apperr.Invalid("INVALID_PARAMS", "read body: %v", err))
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		writeError(w, apperr.Invalid("INVALID_PARAMS", "body is not valid JSON"))
		return
	}

	payload, err := s.registry.Invoke(r.Context(), s.caller(r), name, body)
	if err != nil {
		ae, ok := apperr.As(err)
		if !ok {
			ae = apperr.Internal("TOOL_FAILED", err)
		}
		s.log.WithFields(logger.Fields{"tool": name, "code": ae.Code}).Warn("tool invocation failed")
		writeError(w, ae)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"result":`))
	_, _ = w.Write(payload)
	_, _ = w.Write([]byte(`}`))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, ae *apperr.AppError) {
	status := ae.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]any{"error": ae})
}

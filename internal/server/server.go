// Package server is the development server for a mesh app: it serves the
// generated page, applies edits through the propagation engine, and
// pushes settled value sets to live websocket sessions.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i2mint/rh/internal/ctxlog"
	"github.com/i2mint/rh/internal/engine"
	"github.com/i2mint/rh/internal/schema"
	"github.com/i2mint/rh/internal/value"
)

// Config collects what the server needs to run one app.
type Config struct {
	Page     []byte // rendered index.html
	Schema   *schema.Document
	UISchema map[string]schema.Hints
	Presets  map[string]value.Set
}

// Server wires the HTTP surface around a Store.
type Server struct {
	cfg   Config
	store *Store
	hub   *hub
}

// New creates a server for the given store and page configuration.
func New(store *Store, cfg Config) *Server {
	return &Server{cfg: cfg, store: store, hub: newHub()}
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/api/config", s.handleConfig)
	r.Post("/api/edit", s.handleEdit)
	r.Get("/ws", s.handleWS)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// ListenAndServe runs the server until the context is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	logger := ctxlog.FromContext(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Dev server listening.", "addr", addr)
		errChan <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(s.cfg.Page)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"schema":   s.cfg.Schema,
		"uiSchema": s.cfg.UISchema,
		"values":   s.store.Values(),
		"presets":  s.cfg.Presets,
	})
}

// editRequest is one edit from a client: variable name plus its new value
// as plain JSON.
type editRequest struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(r.Context())

	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid edit request: %w", err))
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, errors.New("edit request has no variable name"))
		return
	}

	v, err := decodeValue(req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid value for %q: %w", req.Name, err))
		return
	}

	next, err := s.store.Apply(r.Context(), req.Name, v)
	if err != nil {
		var cyc *engine.CyclicError
		if errors.As(err, &cyc) {
			logger.Warn("Edit rejected by cycle detection.", "variable", cyc.Variable, "origin", cyc.Origin)
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.hub.broadcast(r.Context(), next)
	writeJSON(w, http.StatusOK, map[string]any{"values": next})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

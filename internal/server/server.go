// Package server exposes the code index over a small read-only HTTP API,
// for editors and dashboards that cannot speak MCP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mkarrett/codescope/internal/retrieve"
	"github.com/mkarrett/codescope/internal/syncer"
	"github.com/mkarrett/codescope/internal/vectordb"
)

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Server serves query and status requests over HTTP. It never mutates
// the index.
type Server struct {
	cfg        Config
	pipeline   *retrieve.Pipeline
	syncer     *syncer.Syncer
	store      vectordb.Store
	router     chi.Router
	httpServer *http.Server
}

// New creates a server with all dependencies.
func New(cfg Config, pipeline *retrieve.Pipeline, sync *syncer.Syncer, store vectordb.Store) *Server {
	s := &Server{
		cfg:      cfg,
		pipeline: pipeline,
		syncer:   sync,
		store:    store,
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/api/query", s.handleQuery)
	r.Get("/api/status", s.handleStatus)

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

type queryRequest struct {
	Query string `json:"query"`
}

// handleQuery runs the retrieval pipeline for a posted query.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := s.pipeline.Query(r.Context(), req.Query)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

type statusResponse struct {
	Indexed  int  `json:"indexed"`
	Files    int  `json:"files"`
	Segments int  `json:"segments"`
	Added    int  `json:"pending_adds"`
	Updated  int  `json:"pending_updates"`
	Deleted  int  `json:"pending_deletes"`
	UpToDate bool `json:"up_to_date"`
}

// handleStatus reports how far the index lags the working tree.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	result, err := s.syncer.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Indexed:  s.store.Count(),
		Files:    result.Files,
		Segments: result.Segments,
		Added:    result.Added,
		Updated:  result.Updated,
		Deleted:  result.Deleted,
		UpToDate: result.UpToDate,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("codescope server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

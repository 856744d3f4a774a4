// Package api serves completed analysis runs over HTTP: raw results as
// JSON, rendered reports as HTML.
package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"wavelytics/domain/core"
	"wavelytics/internal"
	"wavelytics/internal/research"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Server exposes completed runs. Runs are held in memory; persistence is
// left to the export layer.
type Server struct {
	router *chi.Mux
	log    *internal.Logger

	mu   sync.RWMutex
	runs map[core.RunID]*research.RunResult
}

// NewServer creates a server with an empty run store.
func NewServer(log *internal.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    log,
		runs:   make(map[core.RunID]*research.RunResult),
	}
	s.setupRoutes()
	return s
}

// AddRun registers a completed run for serving.
func (s *Server) AddRun(result *research.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[result.ID] = result
}

// Handler returns the HTTP handler for mounting or serving.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks serving on the given address.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Info("api: listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/runs", s.handleListRuns)
	s.router.Get("/runs/{runID}", s.handleGetRun)
	s.router.Get("/runs/{runID}/report", s.handleGetReport)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.runs))
	for id := range s.runs {
		ids = append(ids, id.String())
	}
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": ids})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.CompletePage})
	page := markdown.ToHTML([]byte(BuildReport(run)), p, renderer)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page)
}

func (s *Server) lookupRun(r *http.Request) (*research.RunResult, bool) {
	id := core.RunID(chi.URLParam(r, "runID"))
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	return run, ok
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

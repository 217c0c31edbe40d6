// ABOUTME: JSON HTTP API over the metrics pipeline, routed with chi.
// ABOUTME: Everything under /api except login sits behind session auth.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/harperreed/oura/internal/auth"
	"github.com/harperreed/oura/internal/logging"
	"github.com/harperreed/oura/internal/models"
	"github.com/harperreed/oura/internal/pipeline"
)

// RunLister lists ingestion runs, newest first.
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]*models.RunRecord, error)
}

// Server wires the handlers to their collaborators.
type Server struct {
	data  pipeline.Source
	auth  auth.Authenticator
	runs  RunLister
	log   *logging.Logger
	now   func() time.Time
	start time.Time
}

// NewServer creates a Server. now may be nil.
func NewServer(data pipeline.Source, authn auth.Authenticator, runs RunLister, log *logging.Logger, now func() time.Time) *Server {
	if log == nil {
		log = logging.Nop()
	}
	if now == nil {
		now = time.Now
	}
	return &Server{data: data, auth: authn, runs: runs, log: log, now: now, start: now()}
}

// Routes returns the root router.
//
//   - GET  /healthz
//   - POST /api/login
//   - POST /api/logout
//   - GET  /api/data
//   - GET  /api/summary
//   - GET  /api/charts/{kind}
//   - GET  /api/stats
//   - GET  /api/runs
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)

		r.Group(func(pr chi.Router) {
			pr.Use(s.requireSession)
			pr.Post("/logout", s.handleLogout)
			pr.Get("/data", s.handleData)
			pr.Get("/summary", s.handleSummary)
			pr.Get("/charts/{kind}", s.handleChart)
			pr.Get("/stats", s.handleStats)
			pr.Get("/runs", s.handleRuns)
		})
	})

	return r
}

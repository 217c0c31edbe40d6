// ABOUTME: HTTP handlers for login, data views, charts, stats, and runs.
// ABOUTME: Handlers only shape pipeline output; no metric logic lives here.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/harperreed/oura/internal/auth"
	"github.com/harperreed/oura/internal/models"
	"github.com/harperreed/oura/internal/pipeline"
)

// DefaultChartPoints is how many trailing points a chart returns by default.
const DefaultChartPoints = 14

// SummaryResponse is the body of GET /api/summary.
type SummaryResponse struct {
	Range      models.DateRange         `json:"dateRange"`
	Summary    models.DashboardSummary  `json:"summary"`
	Ratings    map[string]models.Rating `json:"ratings"`
	Highlights pipeline.Highlights      `json:"highlights"`
	Stats      models.Stats             `json:"stats"`
	Error      *string                  `json:"error"`
}

// ChartResponse is the body of GET /api/charts/{kind}.
type ChartResponse struct {
	Kind          pipeline.ChartKind      `json:"kind"`
	Range         models.DateRange        `json:"dateRange"`
	Points        []models.ChartDataPoint `json:"points"`
	MovingAverage []float64               `json:"movingAverage"`
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	models.Stats
	Rejected    int               `json:"rejected"`
	LastUpdated *string           `json:"lastUpdated"`
	DataRange   models.DataWindow `json:"dataRange"`
}

type loginRequest struct {
	Password string `json:"password"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": s.now().Sub(s.start).Round(time.Second).String(),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeError(w, http.StatusServiceUnavailable, "authentication is not configured")
		return
	}
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := s.auth.Verify(r.Context(), req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredential) {
			writeError(w, http.StatusUnauthorized, "invalid password")
			return
		}
		s.log.Error("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFrom(r.Context())
	if err := s.auth.Revoke(r.Context(), session.Token); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// view resolves the request's range and builds the pipeline view.
func (s *Server) view(r *http.Request) (pipeline.View, error) {
	q := r.URL.Query()
	rng, err := models.ResolveRange(q.Get("range"), q.Get("start"), q.Get("end"), s.now())
	if err != nil {
		return pipeline.View{}, err
	}
	return s.data.Dataset().View(rng), nil
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	v, err := s.view(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	v, err := s.view(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sum := v.Summary()
	writeJSON(w, http.StatusOK, SummaryResponse{
		Range:      v.Range,
		Summary:    sum,
		Ratings:    sum.Ratings(),
		Highlights: s.data.Dataset().Highlights(v),
		Stats:      v.Stats,
		Error:      v.Error,
	})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	kind := pipeline.ChartKind(chi.URLParam(r, "kind"))

	last := DefaultChartPoints
	if raw := r.URL.Query().Get("last"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "last must be a non-negative integer")
			return
		}
		last = n
	}

	v, err := s.view(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	points, err := pipeline.ChartPoints(v, kind)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	points = pipeline.LastN(points, last)
	writeJSON(w, http.StatusOK, ChartResponse{
		Kind:          kind,
		Range:         v.Range,
		Points:        points,
		MovingAverage: pipeline.MovingAverage(pipeline.PointValues(points), pipeline.DefaultMovingWindow),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	v, err := s.view(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ds := s.data.Dataset()
	writeJSON(w, http.StatusOK, StatsResponse{
		Stats:       v.Stats,
		Rejected:    len(ds.Rejected),
		LastUpdated: v.LastUpdated,
		DataRange:   ds.DataRange,
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeJSON(w, http.StatusOK, []*models.RunRecord{})
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		s.log.Error("list runs failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list runs")
		return
	}
	if runs == nil {
		runs = []*models.RunRecord{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// ABOUTME: MCP tool implementations for the Oura dashboard.
// ABOUTME: Summary, chart series, dataset stats, and ingestion run history.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/oura/internal/models"
	"github.com/harperreed/oura/internal/pipeline"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_summary",
		Description: "Average sleep, readiness and activity figures for a date range",
	}, s.handleGetSummary)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_chart",
		Description: "Daily chart points (sleep, readiness, activity, temperature) for a date range",
	}, s.handleGetChart)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_stats",
		Description: "Record counts for a date range plus dataset freshness",
	}, s.handleGetStats)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_runs",
		Description: "List recent ingestion runs, newest first",
	}, s.handleListRuns)
}

// Tool input/output types

type rangeInput struct {
	Range string `json:"range,omitempty" jsonschema:"Range preset such as last-7-days or this-month (default last-30-days)"`
	From  string `json:"from,omitempty" jsonschema:"Start day YYYY-MM-DD; requires to"`
	To    string `json:"to,omitempty" jsonschema:"End day YYYY-MM-DD; requires from"`
}

type summaryOutput struct {
	Range      string                   `json:"range"`
	Summary    models.DashboardSummary  `json:"summary"`
	Ratings    map[string]models.Rating `json:"ratings"`
	Highlights highlightsOutput         `json:"highlights"`
	Stats      models.Stats             `json:"stats"`
	Error      string                   `json:"error,omitempty"`
}

type highlightsOutput struct {
	SleepStages   []models.SleepStage     `json:"sleepStages"`
	AvgDuration   string                  `json:"avgDuration"`
	AvgEfficiency string                  `json:"avgEfficiency"`
	PreviousRange string                  `json:"previousRange,omitempty"`
	Trends        map[string]models.Trend `json:"trends"`
}

func toHighlightsOutput(h pipeline.Highlights) highlightsOutput {
	out := highlightsOutput{
		SleepStages:   h.SleepStages,
		AvgDuration:   h.AvgDuration,
		AvgEfficiency: h.AvgEfficiency,
		Trends:        h.Trends,
	}
	if h.Previous.Valid() {
		out.PreviousRange = h.Previous.String()
	}
	return out
}

type chartInput struct {
	Kind  string `json:"kind" jsonschema:"Chart kind: sleep, readiness, activity or temperature"`
	Range string `json:"range,omitempty" jsonschema:"Range preset (default last-30-days)"`
	From  string `json:"from,omitempty" jsonschema:"Start day YYYY-MM-DD; requires to"`
	To    string `json:"to,omitempty" jsonschema:"End day YYYY-MM-DD; requires from"`
	Last  int    `json:"last,omitempty" jsonschema:"Keep only the most recent N points (default 14)"`
}

type chartOutput struct {
	Kind          string                  `json:"kind"`
	Range         string                  `json:"range"`
	Points        []models.ChartDataPoint `json:"points"`
	MovingAverage []float64               `json:"movingAverage"`
}

type statsOutput struct {
	Range       string            `json:"range"`
	Stats       models.Stats      `json:"stats"`
	Rejected    int               `json:"rejected"`
	LastUpdated string            `json:"last_updated,omitempty"`
	DataRange   models.DataWindow `json:"data_range"`
}

type listRunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Max results (default 10)"`
}

// runOutput flattens a RunRecord into schema-friendly strings.
type runOutput struct {
	ID          string         `json:"id"`
	Status      string         `json:"status"`
	StartedAt   string         `json:"started_at"`
	FinishedAt  string         `json:"finished_at,omitempty"`
	StartDate   string         `json:"start_date"`
	EndDate     string         `json:"end_date"`
	Error       string         `json:"error,omitempty"`
	FailureKind string         `json:"failure_kind,omitempty"`
	Counts      map[string]int `json:"counts,omitempty"`
}

type runsOutput struct {
	Runs []runOutput `json:"runs"`
}

func toRunOutput(r *models.RunRecord) runOutput {
	out := runOutput{
		ID:        r.ID.String(),
		Status:    string(r.Status),
		StartedAt: r.StartedAt.Format(time.RFC3339),
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Counts:    r.Counts,
	}
	if r.FinishedAt != nil {
		out.FinishedAt = r.FinishedAt.Format(time.RFC3339)
	}
	if r.Error != nil {
		out.Error = *r.Error
	}
	if r.FailureKind != nil {
		out.FailureKind = *r.FailureKind
	}
	return out
}

// defaultChartPoints matches the dashboard's two-week chart window.
const defaultChartPoints = 14

// Tool handlers

func (s *Server) handleGetSummary(ctx context.Context, req *mcp.CallToolRequest, input rangeInput) (*mcp.CallToolResult, summaryOutput, error) {
	v, err := s.view(input.Range, input.From, input.To)
	if err != nil {
		return nil, summaryOutput{}, err
	}

	sum := v.Summary()
	out := summaryOutput{
		Range:      v.Range.String(),
		Summary:    sum,
		Ratings:    sum.Ratings(),
		Highlights: toHighlightsOutput(s.data.Dataset().Highlights(v)),
		Stats:      v.Stats,
	}
	if v.Error != nil {
		out.Error = *v.Error
	}
	return nil, out, nil
}

func (s *Server) handleGetChart(ctx context.Context, req *mcp.CallToolRequest, input chartInput) (*mcp.CallToolResult, chartOutput, error) {
	v, err := s.view(input.Range, input.From, input.To)
	if err != nil {
		return nil, chartOutput{}, err
	}

	kind := pipeline.ChartKind(input.Kind)
	points, err := pipeline.ChartPoints(v, kind)
	if err != nil {
		return nil, chartOutput{}, err
	}

	last := input.Last
	if last <= 0 {
		last = defaultChartPoints
	}
	points = pipeline.LastN(points, last)
	if points == nil {
		points = []models.ChartDataPoint{}
	}

	return nil, chartOutput{
		Kind:          string(kind),
		Range:         v.Range.String(),
		Points:        points,
		MovingAverage: pipeline.MovingAverage(pipeline.PointValues(points), pipeline.DefaultMovingWindow),
	}, nil
}

func (s *Server) handleGetStats(ctx context.Context, req *mcp.CallToolRequest, input rangeInput) (*mcp.CallToolResult, statsOutput, error) {
	v, err := s.view(input.Range, input.From, input.To)
	if err != nil {
		return nil, statsOutput{}, err
	}

	ds := s.data.Dataset()
	out := statsOutput{
		Range:     v.Range.String(),
		Stats:     v.Stats,
		Rejected:  len(ds.Rejected),
		DataRange: ds.DataRange,
	}
	if v.LastUpdated != nil {
		out.LastUpdated = *v.LastUpdated
	}
	return nil, out, nil
}

func (s *Server) handleListRuns(ctx context.Context, req *mcp.CallToolRequest, input listRunsInput) (*mcp.CallToolResult, runsOutput, error) {
	out := runsOutput{Runs: []runOutput{}}
	if s.runs == nil {
		return nil, out, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	runs, err := s.runs.ListRuns(ctx, limit)
	if err != nil {
		return nil, runsOutput{}, fmt.Errorf("failed to list runs: %w", err)
	}
	for _, r := range runs {
		out.Runs = append(out.Runs, toRunOutput(r))
	}
	return nil, out, nil
}

// ABOUTME: Tests for MCP server, tools, and resources.
// ABOUTME: Covers NewServer, tool handlers, and resource handlers.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/oura/internal/models"
	"github.com/harperreed/oura/internal/pipeline"
	"github.com/harperreed/oura/internal/storage"
)

var testNow = time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)

const testBundle = `{
	"sleep": {"data": [
		{"day": "2025-06-16", "score": 80},
		{"day": "2025-06-17", "score": 90},
		{"day": "2025-01-01", "score": 10}
	]},
	"readiness": {"data": [{"day": "2025-06-17", "score": 70, "temperature_deviation": 0.2}]},
	"activity": {"data": [{"day": "2025-06-17", "score": 60, "steps": 7000, "active_calories": 350}, {"day": "oops"}]},
	"lastUpdated": "2025-06-18T06:00:00.000Z",
	"dataRange": {"startDate": "2024-01-01", "endDate": "2025-06-18"}
}`

// setupTestDB creates a test database in a temp directory.
func setupTestDB(t *testing.T) *storage.DB {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "oura.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func setupServer(t *testing.T, runs RunLister) *Server {
	t.Helper()

	ds, err := pipeline.LoadBytes([]byte(testBundle))
	if err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}

	server, err := NewServer(pipeline.Static{DS: ds}, runs, nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	server.now = func() time.Time { return testNow }
	return server
}

func TestNewServer(t *testing.T) {
	server := setupServer(t, nil)

	if server.mcpServer == nil {
		t.Error("Expected non-nil mcpServer")
	}
	if server.data == nil {
		t.Error("Expected non-nil data source")
	}
	if server.log == nil {
		t.Error("Expected a default logger")
	}
}

func TestHandleGetSummary(t *testing.T) {
	server := setupServer(t, nil)
	ctx := context.Background()

	_, out, err := server.handleGetSummary(ctx, nil, rangeInput{})
	if err != nil {
		t.Fatalf("handleGetSummary failed: %v", err)
	}

	if out.Summary.SleepScore != 85 {
		t.Errorf("Expected sleep score 85, got %v", out.Summary.SleepScore)
	}
	if out.Summary.ReadinessScore != 70 || out.Summary.ActivityScore != 60 {
		t.Errorf("Unexpected summary: %+v", out.Summary)
	}
	if out.Stats.TotalDays != 2 {
		t.Errorf("Expected 2 total days, got %d", out.Stats.TotalDays)
	}
	if !strings.HasPrefix(out.Range, "Last 30 days") {
		t.Errorf("Expected default range label, got %q", out.Range)
	}
	if got := out.Ratings["sleep"]; got.Color != models.ScoreColor(85) || got.Status != models.ScoreStatus(85) {
		t.Errorf("Unexpected sleep rating: %+v", got)
	}
	if len(out.Highlights.SleepStages) != 3 || out.Highlights.AvgDuration != "0h 0m" {
		t.Errorf("Unexpected highlights: %+v", out.Highlights)
	}
	if !strings.HasPrefix(out.Highlights.PreviousRange, "Previous 31 days") {
		t.Errorf("Unexpected previous range %q", out.Highlights.PreviousRange)
	}
	if out.Highlights.Trends["sleep"].Direction != models.TrendNeutral {
		t.Errorf("Expected neutral trend without earlier data, got %+v", out.Highlights.Trends["sleep"])
	}
}

func TestHandleGetSummaryCustomRange(t *testing.T) {
	server := setupServer(t, nil)
	ctx := context.Background()

	_, out, err := server.handleGetSummary(ctx, nil, rangeInput{From: "2025-01-01", To: "2025-01-31"})
	if err != nil {
		t.Fatalf("handleGetSummary failed: %v", err)
	}
	if out.Summary.SleepScore != 10 {
		t.Errorf("Expected sleep score 10, got %v", out.Summary.SleepScore)
	}

	if _, _, err := server.handleGetSummary(ctx, nil, rangeInput{From: "2025-01-01"}); err == nil {
		t.Error("Expected error when only from is given")
	}
	if _, _, err := server.handleGetSummary(ctx, nil, rangeInput{Range: "fortnight"}); err == nil {
		t.Error("Expected error for unknown preset")
	}
}

func TestHandleGetChart(t *testing.T) {
	server := setupServer(t, nil)
	ctx := context.Background()

	_, out, err := server.handleGetChart(ctx, nil, chartInput{Kind: "sleep"})
	if err != nil {
		t.Fatalf("handleGetChart failed: %v", err)
	}
	if len(out.Points) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(out.Points))
	}
	if out.Points[0].Date != "Jun 16" || out.Points[1].Label != "Sleep Score: 90" {
		t.Errorf("Unexpected points: %+v", out.Points)
	}

	_, out, err = server.handleGetChart(ctx, nil, chartInput{Kind: "sleep", Last: 1})
	if err != nil {
		t.Fatalf("handleGetChart failed: %v", err)
	}
	if len(out.Points) != 1 || out.Points[0].Value != 90 {
		t.Errorf("Expected only the last point, got %+v", out.Points)
	}

	_, out, err = server.handleGetChart(ctx, nil, chartInput{Kind: "temperature"})
	if err != nil {
		t.Fatalf("handleGetChart failed: %v", err)
	}
	if len(out.Points) != 1 || out.Points[0].Label != "Temperature Deviation: 0.2°C" {
		t.Errorf("Unexpected temperature points: %+v", out.Points)
	}
}

func TestHandleGetChartMovingAverage(t *testing.T) {
	var sleep []models.SleepRecord
	for i := 1; i <= 8; i++ {
		sleep = append(sleep, models.SleepRecord{Day: fmt.Sprintf("2025-06-%02d", i), Score: models.Float(float64(70 + i))})
	}
	server, err := NewServer(pipeline.Static{DS: &pipeline.Dataset{Sleep: sleep}}, nil, nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	server.now = func() time.Time { return testNow }

	_, out, err := server.handleGetChart(context.Background(), nil, chartInput{Kind: "sleep"})
	if err != nil {
		t.Fatalf("handleGetChart failed: %v", err)
	}
	if len(out.MovingAverage) != 2 || out.MovingAverage[0] != 74 || out.MovingAverage[1] != 75 {
		t.Errorf("Unexpected moving average: %v", out.MovingAverage)
	}
}

func TestHandleGetChartEmptyAndInvalid(t *testing.T) {
	server := setupServer(t, nil)
	ctx := context.Background()

	_, out, err := server.handleGetChart(ctx, nil, chartInput{Kind: "activity", From: "2023-01-01", To: "2023-01-31"})
	if err != nil {
		t.Fatalf("handleGetChart failed: %v", err)
	}
	if out.Points == nil || len(out.Points) != 0 {
		t.Errorf("Expected empty non-nil points, got %#v", out.Points)
	}

	if _, _, err := server.handleGetChart(ctx, nil, chartInput{Kind: "steps"}); err == nil {
		t.Error("Expected error for unknown chart kind")
	}
}

func TestHandleGetStats(t *testing.T) {
	server := setupServer(t, nil)
	ctx := context.Background()

	_, out, err := server.handleGetStats(ctx, nil, rangeInput{Range: "year-to-date"})
	if err != nil {
		t.Fatalf("handleGetStats failed: %v", err)
	}
	if out.Stats.SleepDays != 3 {
		t.Errorf("Expected 3 sleep days, got %d", out.Stats.SleepDays)
	}
	if out.Rejected != 1 {
		t.Errorf("Expected 1 rejected record, got %d", out.Rejected)
	}
	if out.LastUpdated != "2025-06-18T06:00:00.000Z" {
		t.Errorf("Unexpected last updated %q", out.LastUpdated)
	}
	if out.DataRange.StartDate != "2024-01-01" {
		t.Errorf("Unexpected data range %+v", out.DataRange)
	}
}

func TestHandleListRuns(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		run := models.NewRunRecord("2024-01-01", "2025-06-18")
		run.StartedAt = testNow.Add(time.Duration(i) * time.Hour)
		if err := db.CreateRun(ctx, run); err != nil {
			t.Fatalf("CreateRun failed: %v", err)
		}
	}

	server := setupServer(t, db)
	_, out, err := server.handleListRuns(ctx, nil, listRunsInput{Limit: 2})
	if err != nil {
		t.Fatalf("handleListRuns failed: %v", err)
	}
	if len(out.Runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(out.Runs))
	}
	if out.Runs[0].StartedAt <= out.Runs[1].StartedAt {
		t.Error("Expected newest run first")
	}
	if out.Runs[0].Status != "running" {
		t.Errorf("Expected running status, got %q", out.Runs[0].Status)
	}

	_, out, err = server.handleListRuns(ctx, nil, listRunsInput{})
	if err != nil {
		t.Fatalf("handleListRuns failed: %v", err)
	}
	if len(out.Runs) != 3 {
		t.Errorf("Expected 3 runs with default limit, got %d", len(out.Runs))
	}
}

func TestHandleListRunsWithoutHistory(t *testing.T) {
	server := setupServer(t, nil)

	_, out, err := server.handleListRuns(context.Background(), nil, listRunsInput{})
	if err != nil {
		t.Fatalf("handleListRuns failed: %v", err)
	}
	if out.Runs == nil || len(out.Runs) != 0 {
		t.Errorf("Expected empty runs, got %#v", out.Runs)
	}
}

func readResource(t *testing.T, result *mcp.ReadResourceResult, uri string) map[string]json.RawMessage {
	t.Helper()

	if len(result.Contents) != 1 {
		t.Fatalf("Expected 1 content, got %d", len(result.Contents))
	}
	if result.Contents[0].URI != uri {
		t.Errorf("Expected URI %s, got %s", uri, result.Contents[0].URI)
	}
	if result.Contents[0].MIMEType != "application/json" {
		t.Errorf("Expected application/json, got %s", result.Contents[0].MIMEType)
	}

	var out map[string]json.RawMessage
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &out); err != nil {
		t.Fatalf("Resource is not JSON: %v", err)
	}
	return out
}

func TestHandleSummaryResource(t *testing.T) {
	server := setupServer(t, nil)

	result, err := server.handleSummaryResource(context.Background(), nil)
	if err != nil {
		t.Fatalf("handleSummaryResource failed: %v", err)
	}

	out := readResource(t, result, summaryURI)
	for _, key := range []string{"range", "summary", "ratings", "highlights", "stats", "lastUpdated", "error"} {
		if _, ok := out[key]; !ok {
			t.Errorf("Expected key %q in summary resource", key)
		}
	}

	var summary models.DashboardSummary
	if err := json.Unmarshal(out["summary"], &summary); err != nil {
		t.Fatalf("Failed to decode summary: %v", err)
	}
	if summary.SleepScore != 85 {
		t.Errorf("Expected sleep score 85, got %v", summary.SleepScore)
	}
}

func TestHandleLatestResource(t *testing.T) {
	server := setupServer(t, nil)

	result, err := server.handleLatestResource(context.Background(), nil)
	if err != nil {
		t.Fatalf("handleLatestResource failed: %v", err)
	}

	out := readResource(t, result, latestURI)
	var sleep models.SleepRecord
	if err := json.Unmarshal(out["sleep"], &sleep); err != nil {
		t.Fatalf("Failed to decode sleep: %v", err)
	}
	if sleep.Day != "2025-06-17" {
		t.Errorf("Expected latest sleep day 2025-06-17, got %s", sleep.Day)
	}
	if _, ok := out["activity"]; !ok {
		t.Error("Expected latest activity record")
	}
}

func TestHandleRejectedResource(t *testing.T) {
	server := setupServer(t, nil)

	result, err := server.handleRejectedResource(context.Background(), nil)
	if err != nil {
		t.Fatalf("handleRejectedResource failed: %v", err)
	}

	out := readResource(t, result, rejectedURI)
	var rejected []pipeline.Rejection
	if err := json.Unmarshal(out["rejected"], &rejected); err != nil {
		t.Fatalf("Failed to decode rejections: %v", err)
	}
	if len(rejected) != 1 || rejected[0].Collection != models.CollectionActivity {
		t.Errorf("Unexpected rejections: %+v", rejected)
	}
}

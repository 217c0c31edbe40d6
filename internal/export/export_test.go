// ABOUTME: Tests for export formats.
// ABOUTME: Verifies JSON, YAML, Markdown, and Parquet output from a view.
package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/reader"
	"gopkg.in/yaml.v3"

	"github.com/harperreed/oura/internal/models"
	"github.com/harperreed/oura/internal/pipeline"
)

var exportNow = time.Date(2025, 6, 18, 15, 0, 0, 0, time.UTC)

func testView(t *testing.T) pipeline.View {
	t.Helper()
	bundle := `{
		"sleep": {"data": [
			{"day": "2025-06-17", "score": 88, "contributors": {"efficiency": 92, "total_sleep": 81}},
			{"day": "2025-06-16", "score": 74}
		]},
		"readiness": {"data": [
			{"day": "2025-06-17", "score": 79, "temperature_deviation": -0.3, "contributors": {"resting_heart_rate": 64, "hrv_balance": 70}}
		]},
		"activity": {"data": [
			{"day": "2025-06-15", "score": 66, "steps": 10500, "active_calories": 520}
		]}
	}`
	ds, err := pipeline.LoadBytes([]byte(bundle))
	if err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}
	r := models.CustomRange(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC))
	return ds.View(r)
}

func TestRowsJoinByDay(t *testing.T) {
	rows := Rows(testView(t))
	if len(rows) != 3 {
		t.Fatalf("expected 3 day rows, got %d", len(rows))
	}
	if rows[0].Day != "2025-06-15" || rows[2].Day != "2025-06-17" {
		t.Errorf("rows should be oldest first: %v, %v", rows[0].Day, rows[2].Day)
	}
	last := rows[2]
	if last.SleepScore == nil || *last.SleepScore != 88 {
		t.Errorf("SleepScore = %v", last.SleepScore)
	}
	if last.HRVBalance == nil || *last.HRVBalance != 70 {
		t.Errorf("HRVBalance = %v", last.HRVBalance)
	}
	if last.Steps != nil {
		t.Errorf("no activity on 06-17, got steps %v", *last.Steps)
	}
}

func TestExportJSON(t *testing.T) {
	data, err := Export(testView(t), FormatJSON, exportNow)
	if err != nil {
		t.Fatalf("Export json failed: %v", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if doc.Version != Version || doc.Tool != "oura" {
		t.Errorf("header = %s/%s", doc.Version, doc.Tool)
	}
	if doc.Range.Start != "2025-06-01" || doc.Range.End != "2025-06-18" {
		t.Errorf("Range = %+v", doc.Range)
	}
	if doc.Summary.SleepScore != 81 {
		t.Errorf("SleepScore = %v, want 81", doc.Summary.SleepScore)
	}
	if len(doc.Days) != 3 {
		t.Errorf("expected 3 days, got %d", len(doc.Days))
	}
}

func TestExportYAML(t *testing.T) {
	data, err := Export(testView(t), FormatYAML, exportNow)
	if err != nil {
		t.Fatalf("Export yaml failed: %v", err)
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Failed to parse YAML: %v", err)
	}
	if parsed["tool"] != "oura" {
		t.Errorf("tool = %v", parsed["tool"])
	}
	summary, ok := parsed["summary"].(map[string]any)
	if !ok {
		t.Fatalf("summary missing: %v", parsed)
	}
	if summary["readiness_score"] != 79 {
		t.Errorf("readiness_score = %v", summary["readiness_score"])
	}
	if !strings.Contains(string(data), "temperature_deviation: -0.3") {
		t.Errorf("per-day temperature missing:\n%s", data)
	}
}

func TestExportMarkdown(t *testing.T) {
	data, err := Export(testView(t), FormatMarkdown, exportNow)
	if err != nil {
		t.Fatalf("Export markdown failed: %v", err)
	}
	md := string(data)

	for _, want := range []string{
		"# Oura Export - 2025-06-18",
		"Range: Jun 1 - Jun 18 (2025-06-01 to 2025-06-18)",
		"| Sleep Score | 81 | Good |",
		"| Temperature Deviation | -0.3°C | success |",
		"| 2025-06-17 | 88 | 79 |  |  | -0.3 |",
		"| 2025-06-15 |  |  | 66 | 10500 |  |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestExportMarkdownEmpty(t *testing.T) {
	doc := NewDocument(pipeline.View{}, exportNow)
	md := Markdown(doc)
	if !strings.Contains(md, "No data in range.") {
		t.Errorf("expected empty notice:\n%s", md)
	}
}

func TestExportParquet(t *testing.T) {
	data, err := Export(testView(t), FormatParquet, exportNow)
	if err != nil {
		t.Fatalf("Export parquet failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PAR1")) || !bytes.HasSuffix(data, []byte("PAR1")) {
		t.Fatal("output is not a parquet file")
	}

	pr, err := reader.NewParquetReader(parquetbuffer.NewBufferFileFromBytes(data), new(parquetRow), 1)
	if err != nil {
		t.Fatalf("open parquet: %v", err)
	}
	defer pr.ReadStop()
	if n := pr.GetNumRows(); n != 3 {
		t.Errorf("expected 3 rows, got %d", n)
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"json": FormatJSON, "yaml": FormatYAML, "yml": FormatYAML,
		"markdown": FormatMarkdown, "md": FormatMarkdown, "parquet": FormatParquet,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Error("expected error for csv")
	}
	if FormatParquet.Extension() != ".parquet" || FormatMarkdown.Extension() != ".md" {
		t.Error("unexpected extensions")
	}
}

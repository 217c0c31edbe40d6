// ABOUTME: Tests for CLI commands against a temp XDG tree and a fake Oura API.
// ABOUTME: Covers fetch, the view commands, export, runs, and auth/login/logout.
package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/oura/internal/auth"
	"github.com/harperreed/oura/internal/config"
	"github.com/harperreed/oura/internal/models"
)

var fixedNow = time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)

const testBundle = `{
	"sleep": {"data": [
		{"day": "2025-06-16", "score": 80, "contributors": {"efficiency": 90, "total_sleep": 85}},
		{"day": "2025-06-17", "score": 90}
	]},
	"readiness": {"data": [{"day": "2025-06-17", "score": 70, "temperature_deviation": 0.2}]},
	"activity": {"data": [{"day": "2025-06-17", "score": 60, "steps": 7000, "active_calories": 350}, {"day": "oops"}]},
	"lastUpdated": "2025-06-18T06:00:00.000Z",
	"dataRange": {"startDate": "2024-01-01", "endDate": "2025-06-18"}
}`

// setupTestCLI points the CLI at a temp XDG tree and resets command state.
func setupTestCLI(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmpDir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(tmpDir, "state"))
	for _, key := range []string{
		config.EnvToken, config.EnvBaseURL, config.EnvDataDir,
		config.EnvPasswordHash, config.EnvSessionSecret, config.EnvLogMode,
	} {
		t.Setenv(key, "")
	}

	now = func() time.Time { return fixedNow }
	logMode = "quiet"
	fetchStart = ""
	chartLast = 14
	exportOutput = ""
	runsLimit = 10
	for _, r := range []*rangeFlags{&summaryRange, &chartRange, &statsRange, &exportRange} {
		r.reset()
	}

	t.Cleanup(func() {
		_ = closeResources()
		now = time.Now
		logMode = ""
	})
	return tmpDir
}

func writeBundle(t *testing.T) {
	t.Helper()
	dir := config.DataDir()
	if err := os.MkdirAll(dir, 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, models.BundleFile), []byte(testBundle), 0600); err != nil {
		t.Fatal(err)
	}
}

// execute runs the root command and returns everything it printed.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func fakeOura(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"day":"2025-06-17","score":80}],"next_token":null}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRangeFlagHelpListsPresets(t *testing.T) {
	flag := summaryCmd.Flags().Lookup("range")
	if flag == nil {
		t.Fatal("summary should have a --range flag")
	}
	for _, p := range models.Presets() {
		if !strings.Contains(flag.Usage, string(p)) {
			t.Errorf("--range help %q missing %s", flag.Usage, p)
		}
	}
}

func TestRootCmdSubcommands(t *testing.T) {
	if rootCmd.Use != "oura" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "oura")
	}

	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"fetch", "summary", "chart", "stats", "export", "runs", "serve", "mcp", "auth", "login", "logout"} {
		if !names[want] {
			t.Errorf("Expected subcommand %q", want)
		}
	}
}

func TestCmdFlags(t *testing.T) {
	tests := []struct {
		cmd  string
		flag string
		def  string
	}{
		{"summary", "range", "last-30-days"},
		{"summary", "from", ""},
		{"chart", "last", "14"},
		{"export", "output", ""},
		{"runs", "limit", "10"},
		{"serve", "addr", ":8080"},
		{"fetch", "start", ""},
	}
	for _, tt := range tests {
		cmd, _, err := rootCmd.Find([]string{tt.cmd})
		if err != nil {
			t.Fatalf("Find(%s): %v", tt.cmd, err)
		}
		f := cmd.Flags().Lookup(tt.flag)
		if f == nil {
			t.Errorf("Expected --%s on %s", tt.flag, tt.cmd)
			continue
		}
		if f.DefValue != tt.def {
			t.Errorf("%s --%s default = %q, want %q", tt.cmd, tt.flag, f.DefValue, tt.def)
		}
	}
}

func TestFetchCmd(t *testing.T) {
	setupTestCLI(t)
	srv := fakeOura(t, http.StatusOK)
	t.Setenv(config.EnvToken, "test-token")
	t.Setenv(config.EnvBaseURL, srv.URL+"/v2/usercollection")

	out, err := execute(t, "", "fetch")
	if err != nil {
		t.Fatalf("fetch failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Fetching 2024-01-01 to 2025-06-18") {
		t.Errorf("missing window line:\n%s", out)
	}
	if !strings.Contains(out, "Bundle written") {
		t.Errorf("missing bundle line:\n%s", out)
	}
	for _, f := range []string{"sleep_data.json", "daily_sleep_data.json", models.BundleFile} {
		if _, err := os.Stat(filepath.Join(config.DataDir(), f)); err != nil {
			t.Errorf("expected %s: %v", f, err)
		}
	}

	out, err = execute(t, "", "runs")
	if err != nil {
		t.Fatalf("runs failed: %v", err)
	}
	if !strings.Contains(out, "success") || !strings.Contains(out, "2024-01-01..2025-06-18") {
		t.Errorf("unexpected runs output:\n%s", out)
	}
}

func TestFetchCmdRequiresToken(t *testing.T) {
	setupTestCLI(t)

	_, err := execute(t, "", "fetch")
	if err == nil || !strings.Contains(err.Error(), "no API token") {
		t.Errorf("expected missing token error, got %v", err)
	}
}

func TestFetchCmdUnauthorized(t *testing.T) {
	setupTestCLI(t)
	srv := fakeOura(t, http.StatusUnauthorized)
	t.Setenv(config.EnvToken, "bad-token")
	t.Setenv(config.EnvBaseURL, srv.URL)

	out, err := execute(t, "", "fetch")
	if err == nil {
		t.Fatal("expected fetch to fail")
	}
	if !strings.Contains(err.Error(), "unauthorized") {
		t.Errorf("error should name the failure kind: %v", err)
	}
	if !strings.Contains(out, "API token") {
		t.Errorf("expected token hint in output:\n%s", out)
	}

	out, err = execute(t, "", "runs")
	if err != nil {
		t.Fatalf("runs failed: %v", err)
	}
	if !strings.Contains(out, "failed") || !strings.Contains(out, "(unauthorized)") {
		t.Errorf("unexpected runs output:\n%s", out)
	}
}

func TestRunsCmdEmpty(t *testing.T) {
	setupTestCLI(t)

	out, err := execute(t, "", "runs")
	if err != nil {
		t.Fatalf("runs failed: %v", err)
	}
	if !strings.Contains(out, "No runs recorded.") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestSummaryCmd(t *testing.T) {
	setupTestCLI(t)
	writeBundle(t)

	out, err := execute(t, "", "summary")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	for _, want := range []string{
		"Last 30 days", "Sleep", " 85", "Excellent", "Readiness", " 70", "+0.2°C", "7000",
		"90%", "1h 25m", "Light sleep", "100%", "vs Previous 31 days", "steady",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary output missing %q:\n%s", want, out)
		}
	}
}

func TestSummaryCmdEmptyRange(t *testing.T) {
	setupTestCLI(t)
	writeBundle(t)

	out, err := execute(t, "", "summary", "--from", "2023-01-01", "--to", "2023-01-31")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if !strings.Contains(out, "No data in range.") {
		t.Errorf("expected empty notice:\n%s", out)
	}
}

func TestSummaryCmdErrors(t *testing.T) {
	setupTestCLI(t)

	_, err := execute(t, "", "summary")
	if err == nil || !strings.Contains(err.Error(), "oura fetch") {
		t.Errorf("expected missing data error, got %v", err)
	}

	writeBundle(t)
	if _, err := execute(t, "", "summary", "--from", "2025-01-01"); err == nil {
		t.Error("expected error for --from without --to")
	}
	summaryRange.reset()
	if _, err := execute(t, "", "summary", "--range", "forever"); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestChartCmd(t *testing.T) {
	setupTestCLI(t)
	writeBundle(t)

	out, err := execute(t, "", "chart", "sleep")
	if err != nil {
		t.Fatalf("chart failed: %v", err)
	}
	if !strings.Contains(out, "Jun 16") || !strings.Contains(out, "Sleep Score: 90") {
		t.Errorf("unexpected chart output:\n%s", out)
	}
	if strings.Contains(out, "7-day average") {
		t.Errorf("two points should not produce a moving average:\n%s", out)
	}

	out, err = execute(t, "", "chart", "sleep", "--last", "1")
	if err != nil {
		t.Fatalf("chart failed: %v", err)
	}
	if strings.Contains(out, "Sleep Score: 80") || !strings.Contains(out, "Sleep Score: 90") {
		t.Errorf("--last 1 should keep only the newest point:\n%s", out)
	}

	out, err = execute(t, "", "chart", "temperature")
	if err != nil {
		t.Fatalf("chart failed: %v", err)
	}
	if !strings.Contains(out, "Temperature Deviation: 0.2°C") {
		t.Errorf("unexpected temperature output:\n%s", out)
	}

	if _, err := execute(t, "", "chart", "steps"); err == nil {
		t.Error("expected error for unknown chart kind")
	}
}

func TestStatsCmd(t *testing.T) {
	setupTestCLI(t)
	writeBundle(t)

	out, err := execute(t, "", "stats")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	for _, want := range []string{"Total days", "Rejected         1", "2025-06-18T06:00:00.000Z", "2024-01-01..2025-06-18"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestExportCmd(t *testing.T) {
	tmpDir := setupTestCLI(t)
	writeBundle(t)

	out, err := execute(t, "", "export", "json")
	if err != nil {
		t.Fatalf("export json failed: %v", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("export json is not JSON: %v\n%s", err, out)
	}
	if _, ok := doc["days"]; !ok {
		t.Errorf("export json missing days: %s", out)
	}

	yamlPath := filepath.Join(tmpDir, "oura.yaml")
	out, err = execute(t, "", "export", "yaml", "-o", yamlPath)
	if err != nil {
		t.Fatalf("export yaml failed: %v", err)
	}
	if !strings.Contains(out, "Exported to") {
		t.Errorf("unexpected output: %s", out)
	}
	data, err := os.ReadFile(yamlPath)
	if err != nil {
		t.Fatalf("read yaml: %v", err)
	}
	if !strings.Contains(string(data), "tool: oura") {
		t.Errorf("unexpected yaml:\n%s", data)
	}

	parquetPath := filepath.Join(tmpDir, "oura.parquet")
	if _, err := execute(t, "", "export", "parquet", "-o", parquetPath); err != nil {
		t.Fatalf("export parquet failed: %v", err)
	}
	if info, err := os.Stat(parquetPath); err != nil || info.Size() == 0 {
		t.Errorf("expected non-empty parquet file: %v", err)
	}

	exportOutput = ""
	if _, err := execute(t, "", "export", "csv"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestDefaultExportName(t *testing.T) {
	setupTestCLI(t)
	if got := defaultExportName("parquet"); got != "oura-2025-06-18.parquet" {
		t.Errorf("defaultExportName = %q", got)
	}
}

func TestAuthHashCmd(t *testing.T) {
	setupTestCLI(t)

	out, err := execute(t, "correct horse battery\n", "auth", "hash")
	if err != nil {
		t.Fatalf("auth hash failed: %v", err)
	}
	if !strings.HasPrefix(out, "$2a$") {
		t.Errorf("expected bcrypt hash, got %q", out)
	}

	if _, err := execute(t, "short\n", "auth", "hash"); err == nil {
		t.Error("expected error for short password")
	}
	if _, err := execute(t, "", "auth", "hash"); err == nil {
		t.Error("expected error for empty stdin")
	}
}

func TestAuthSecretCmd(t *testing.T) {
	setupTestCLI(t)

	out, err := execute(t, "", "auth", "secret")
	if err != nil {
		t.Fatalf("auth secret failed: %v", err)
	}
	if got := strings.TrimSpace(out); len(got) != 64 {
		t.Errorf("expected 64 hex chars, got %q", got)
	}
}

func TestLoginLogout(t *testing.T) {
	setupTestCLI(t)

	hash, err := auth.HashPassword("correct horse battery")
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvPasswordHash, hash)
	t.Setenv(config.EnvSessionSecret, "0123456789abcdef0123456789abcdef")

	if _, err := execute(t, "wrong password\n", "login"); err == nil {
		t.Fatal("expected login with wrong password to fail")
	}
	_ = closeResources()

	out, err := execute(t, "correct horse battery\n", "login")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !strings.Contains(out, "Logged in until") {
		t.Errorf("unexpected login output: %s", out)
	}
	token, err := auth.LoadToken(config.TokenPath())
	if err != nil || token == "" {
		t.Fatalf("expected saved token: %v", err)
	}

	out, err = execute(t, "", "logout")
	if err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if !strings.Contains(out, "Logged out") {
		t.Errorf("unexpected logout output: %s", out)
	}
	if _, err := os.Stat(config.TokenPath()); !os.IsNotExist(err) {
		t.Error("expected token file to be removed")
	}

	out, err = execute(t, "", "logout")
	if err != nil {
		t.Fatalf("second logout failed: %v", err)
	}
	if !strings.Contains(out, "Not logged in.") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestLoginRequiresPasswordHash(t *testing.T) {
	setupTestCLI(t)

	_, err := execute(t, "whatever123\n", "login")
	if err == nil || !strings.Contains(err.Error(), "no password configured") {
		t.Errorf("expected missing hash error, got %v", err)
	}
}

// ABOUTME: Tests for the SQLite state store.
// ABOUTME: Verifies run records and session persistence.
package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/oura/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "state", "oura.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func TestOpenCreatesPrivateFile(t *testing.T) {
	db := setupTestDB(t)

	info, err := os.Stat(db.Path())
	if err != nil {
		t.Fatalf("stat database: %v", err)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		t.Errorf("database should not be group/world accessible, got %v", perm)
	}
}

func TestDefaultDBPathUsesXDGState(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/xdg-state")
	if got := DefaultDBPath(); got != "/tmp/xdg-state/oura/oura.db" {
		t.Errorf("DefaultDBPath() = %q", got)
	}
}

func TestRunLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	run := models.NewRunRecord("2024-01-01", "2025-06-18")
	if err := db.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	got, err := db.GetRun(ctx, run.ID.String())
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Status != models.RunRunning || got.FinishedAt != nil {
		t.Errorf("new run should be running and unfinished: %+v", got)
	}

	run.Counts["sleep"] = 12
	run.Fail(run.StartedAt.Add(3*time.Second), errors.New("fetch /daily_readiness: HTTP 401"), "unauthorized")
	if err := db.FinishRun(ctx, run); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	got, err = db.GetRun(ctx, run.ID.String()[:8])
	if err != nil {
		t.Fatalf("GetRun by prefix failed: %v", err)
	}
	if got.Status != models.RunFailed {
		t.Errorf("Status = %s, want failed", got.Status)
	}
	if got.FailureKind == nil || *got.FailureKind != "unauthorized" {
		t.Errorf("FailureKind = %v", got.FailureKind)
	}
	if got.Error == nil || *got.Error != "fetch /daily_readiness: HTTP 401" {
		t.Errorf("Error = %v", got.Error)
	}
	if got.Counts["sleep"] != 12 {
		t.Errorf("Counts = %v", got.Counts)
	}
	if got.Duration() != 3*time.Second {
		t.Errorf("Duration = %v, want 3s", got.Duration())
	}
}

func TestFinishUnknownRun(t *testing.T) {
	db := setupTestDB(t)

	run := models.NewRunRecord("2024-01-01", "2025-06-18")
	run.Succeed(time.Now())
	err := db.FinishRun(context.Background(), run)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListAndLatestRuns(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		run := models.NewRunRecord("2024-01-01", "2025-06-18")
		run.StartedAt = base.Add(time.Duration(i) * time.Hour)
		if err := db.CreateRun(ctx, run); err != nil {
			t.Fatalf("CreateRun failed: %v", err)
		}
		if i < 2 {
			run.Succeed(run.StartedAt.Add(time.Minute))
		} else {
			run.Fail(run.StartedAt.Add(time.Minute), errors.New("boom"), "transport")
		}
		if err := db.FinishRun(ctx, run); err != nil {
			t.Fatalf("FinishRun failed: %v", err)
		}
	}

	runs, err := db.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if !runs[0].StartedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("runs should be newest first, got %v", runs[0].StartedAt)
	}

	limited, err := db.ListRuns(ctx, 2)
	if err != nil || len(limited) != 2 {
		t.Errorf("ListRuns(2) = %d runs, %v", len(limited), err)
	}

	latest, err := db.LatestRun(ctx, nil)
	if err != nil || latest.Status != models.RunFailed {
		t.Errorf("LatestRun = %+v, %v", latest, err)
	}

	success := models.RunSuccess
	lastOK, err := db.LatestRun(ctx, &success)
	if err != nil {
		t.Fatalf("LatestRun(success) failed: %v", err)
	}
	if !lastOK.StartedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("last success started at %v", lastOK.StartedAt)
	}
}

func TestLatestRunEmpty(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.LatestRun(context.Background(), nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	issued := time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)

	s := &models.Session{ID: "01J0SESSION", IssuedAt: issued, ExpiresAt: issued.Add(24 * time.Hour)}
	if err := db.CreateSession(ctx, s); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	got, err := db.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if !got.ExpiresAt.Equal(s.ExpiresAt) || got.RevokedAt != nil {
		t.Errorf("GetSession = %+v", got)
	}
	if !got.Active(issued.Add(time.Hour)) {
		t.Error("session should be active within its TTL")
	}

	revokedAt := issued.Add(2 * time.Hour)
	if err := db.RevokeSession(ctx, s.ID, revokedAt); err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if err := db.RevokeSession(ctx, s.ID, revokedAt.Add(time.Hour)); err != nil {
		t.Fatalf("second RevokeSession failed: %v", err)
	}
	got, _ = db.GetSession(ctx, s.ID)
	if got.RevokedAt == nil || !got.RevokedAt.Equal(revokedAt) {
		t.Errorf("RevokedAt = %v, want %v", got.RevokedAt, revokedAt)
	}
	if got.Active(issued.Add(3 * time.Hour)) {
		t.Error("revoked session should not be active")
	}

	if err := db.RevokeSession(ctx, "missing", revokedAt); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := db.GetSession(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPurgeSessions(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)

	sessions := []*models.Session{
		{ID: "expired", IssuedAt: now.Add(-48 * time.Hour), ExpiresAt: now.Add(-24 * time.Hour)},
		{ID: "live", IssuedAt: now, ExpiresAt: now.Add(24 * time.Hour)},
	}
	for _, s := range sessions {
		if err := db.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
	}

	n, err := db.PurgeSessions(ctx, now)
	if err != nil {
		t.Fatalf("PurgeSessions failed: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d sessions, want 1", n)
	}
	if _, err := db.GetSession(ctx, "live"); err != nil {
		t.Errorf("live session should remain: %v", err)
	}
}

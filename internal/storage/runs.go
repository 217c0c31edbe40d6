// ABOUTME: Ingestion run records in SQLite.
// ABOUTME: Satisfies the ingest job's run recorder and backs `oura runs`.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/oura/internal/models"
)

const runColumns = `id, status, start_date, end_date, started_at, finished_at, error, failure_kind, counts`

// CreateRun stores a new run, normally in the running state.
func (d *DB) CreateRun(ctx context.Context, r *models.RunRecord) error {
	counts, err := encodeCounts(r.Counts)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	query := `
		INSERT INTO runs (` + runColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = d.db.ExecContext(ctx, query,
		r.ID.String(),
		string(r.Status),
		r.StartDate,
		r.EndDate,
		r.StartedAt.UTC().Format(timeLayout),
		formatTimePtr(r.FinishedAt),
		r.Error,
		r.FailureKind,
		counts,
	)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a run.
func (d *DB) FinishRun(ctx context.Context, r *models.RunRecord) error {
	counts, err := encodeCounts(r.Counts)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	query := `
		UPDATE runs
		SET status = ?, finished_at = ?, error = ?, failure_kind = ?, counts = ?
		WHERE id = ?
	`
	result, err := d.db.ExecContext(ctx, query,
		string(r.Status),
		formatTimePtr(r.FinishedAt),
		r.Error,
		r.FailureKind,
		counts,
		r.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("finish run %s: %w", r.ID, ErrNotFound)
	}
	return nil
}

// GetRun retrieves a run by ID or ID prefix.
func (d *DB) GetRun(ctx context.Context, idOrPrefix string) (*models.RunRecord, error) {
	id, err := d.resolveRunID(ctx, idOrPrefix)
	if err != nil {
		return nil, err
	}
	row := d.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns runs, most recent first. limit <= 0 returns all.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LatestRun returns the most recent run, optionally limited to one status.
func (d *DB) LatestRun(ctx context.Context, status *models.RunStatus) (*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if status != nil {
		query += " WHERE status = ?"
		args = append(args, string(*status))
	}
	query += " ORDER BY started_at DESC LIMIT 1"

	r, err := scanRun(d.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("no runs recorded: %w", ErrNotFound)
		}
		return nil, err
	}
	return r, nil
}

// resolveRunID finds the full ID from a prefix.
func (d *DB) resolveRunID(ctx context.Context, idOrPrefix string) (string, error) {
	if len(idOrPrefix) == 36 && strings.Count(idOrPrefix, "-") == 4 {
		return idOrPrefix, nil
	}

	rows, err := d.db.QueryContext(ctx, `SELECT id FROM runs WHERE id LIKE ? || '%'`, idOrPrefix)
	if err != nil {
		return "", fmt.Errorf("resolve run ID: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan run ID: %w", err)
		}
		matches = append(matches, id)
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("run %s: %w", idOrPrefix, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("ambiguous prefix %s: matches multiple runs", idOrPrefix)
	}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.RunRecord, error) {
	var r models.RunRecord
	var idStr, status, startedAt, counts string
	var finishedAt, errMsg, kind sql.NullString

	err := row.Scan(&idStr, &status, &r.StartDate, &r.EndDate, &startedAt, &finishedAt, &errMsg, &kind, &counts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}

	r.ID, _ = uuid.Parse(idStr)
	r.Status = models.RunStatus(status)
	r.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	if finishedAt.Valid {
		t, _ := time.Parse(time.RFC3339Nano, finishedAt.String)
		r.FinishedAt = &t
	}
	if errMsg.Valid {
		r.Error = &errMsg.String
	}
	if kind.Valid {
		r.FailureKind = &kind.String
	}
	r.Counts = make(map[string]int)
	if err := json.Unmarshal([]byte(counts), &r.Counts); err != nil {
		return nil, fmt.Errorf("decode run counts: %w", err)
	}
	return &r, nil
}

func encodeCounts(counts map[string]int) (string, error) {
	if counts == nil {
		return "{}", nil
	}
	data, err := json.Marshal(counts)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(timeLayout)
	return &s
}

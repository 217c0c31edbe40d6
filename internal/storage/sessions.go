// ABOUTME: Login session persistence in SQLite.
// ABOUTME: Lets logout revoke a token before it expires.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/oura/internal/models"
)

// CreateSession stores a newly issued session.
func (d *DB) CreateSession(ctx context.Context, s *models.Session) error {
	query := `INSERT INTO sessions (id, issued_at, expires_at, revoked_at) VALUES (?, ?, ?, ?)`
	_, err := d.db.ExecContext(ctx, query,
		s.ID,
		s.IssuedAt.UTC().Format(timeLayout),
		s.ExpiresAt.UTC().Format(timeLayout),
		formatTimePtr(s.RevokedAt),
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession looks a session up by its exact ID.
func (d *DB) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	var issuedAt, expiresAt string
	var revokedAt sql.NullString

	row := d.db.QueryRowContext(ctx, `SELECT id, issued_at, expires_at, revoked_at FROM sessions WHERE id = ?`, id)
	if err := row.Scan(&s.ID, &issuedAt, &expiresAt, &revokedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	s.IssuedAt, _ = time.Parse(time.RFC3339Nano, issuedAt)
	s.ExpiresAt, _ = time.Parse(time.RFC3339Nano, expiresAt)
	if revokedAt.Valid {
		t, _ := time.Parse(time.RFC3339Nano, revokedAt.String)
		s.RevokedAt = &t
	}
	return &s, nil
}

// RevokeSession marks a session revoked. Revoking twice keeps the first time.
func (d *DB) RevokeSession(ctx context.Context, id string, at time.Time) error {
	result, err := d.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = COALESCE(revoked_at, ?) WHERE id = ?`,
		at.UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

// PurgeSessions deletes sessions that expired or were revoked before now.
func (d *DB) PurgeSessions(ctx context.Context, now time.Time) (int64, error) {
	ts := now.UTC().Format(timeLayout)
	result, err := d.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)`, ts, ts)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return result.RowsAffected()
}

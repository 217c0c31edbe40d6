// ABOUTME: Repository interface for the oura state store.
// ABOUTME: Defines the contract for run records and login sessions.
package storage

import (
	"context"
	"time"

	"github.com/harperreed/oura/internal/models"
)

// Repository defines the storage interface for local state.
// This interface allows swapping implementations (e.g., for testing).
type Repository interface {
	// Run operations
	CreateRun(ctx context.Context, r *models.RunRecord) error
	FinishRun(ctx context.Context, r *models.RunRecord) error
	GetRun(ctx context.Context, idOrPrefix string) (*models.RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]*models.RunRecord, error)
	LatestRun(ctx context.Context, status *models.RunStatus) (*models.RunRecord, error)

	// Session operations
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	RevokeSession(ctx context.Context, id string, at time.Time) error
	PurgeSessions(ctx context.Context, now time.Time) (int64, error)

	// Lifecycle
	Close() error
}

// Compile-time check that DB implements Repository.
var _ Repository = (*DB)(nil)

package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/AccelByte/extend-level-progression/pkg/domain"
)

// TableName is the table holding one progression row per user.
const TableName = "user_levels"

// ProgressionRepository is the durable store behind the progression cache.
//
// Implementations own a single physical connection guard: a point read and a
// batch write never run concurrently against the same connection. That guard
// is independent of the cache's per-key locks.
type ProgressionRepository interface {
	// LoadOne retrieves a single user's persisted progression.
	// Returns nil, nil if no row exists (lazy initialization).
	// Returns a STORE_READ_FAILED error on I/O failure; callers treat it as absent.
	LoadOne(ctx context.Context, userID uuid.UUID) (*domain.ProgressionState, error)

	// UpsertBatch writes all entries in a single transaction, in slice order.
	// Either every row is written or none is: any failure rolls the whole
	// transaction back and returns a STORE_WRITE_FAILED error.
	// Existing rows are overwritten with the given level and points.
	// Calling it with zero entries is a no-op.
	UpsertBatch(ctx context.Context, entries []domain.UserProgression) error

	// Close releases the underlying connection.
	Close() error
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AccelByte/extend-level-progression/pkg/domain"
	customerrors "github.com/AccelByte/extend-level-progression/pkg/errors"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS user_levels (
		user_id TEXT PRIMARY KEY,
		level INTEGER NOT NULL,
		points INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		CONSTRAINT check_level_non_negative CHECK (level >= 0),
		CONSTRAINT check_points_non_negative CHECK (points >= 0)
	)
`

const sqliteUpsert = `
	INSERT INTO user_levels (user_id, level, points, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		level = excluded.level,
		points = excluded.points,
		updated_at = excluded.updated_at
`

// SQLiteProgressionRepository implements ProgressionRepository on an embedded SQLite file.
type SQLiteProgressionRepository struct {
	mu sync.Mutex // guards db; loads and batch writes never overlap
	db *sql.DB
}

// NewSQLiteProgressionRepository creates the repository and its table if absent.
// Construction is idempotent. A STORE_INIT_FAILED error means the process must not start.
func NewSQLiteProgressionRepository(ctx context.Context, db *sql.DB) (*SQLiteProgressionRepository, error) {
	if db == nil {
		return nil, customerrors.ErrStoreInit("open sqlite", errors.New("sql db is required"))
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, customerrors.ErrStoreInit("create user_levels table", err)
	}

	return &SQLiteProgressionRepository{db: db}, nil
}

// LoadOne retrieves a single user's persisted progression.
func (r *SQLiteProgressionRepository) LoadOne(ctx context.Context, userID uuid.UUID) (*domain.ProgressionState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var state domain.ProgressionState
	err := r.db.QueryRowContext(ctx,
		`SELECT level, points FROM user_levels WHERE user_id = ?`,
		userID.String(),
	).Scan(&state.Level, &state.Points)

	if err == sql.ErrNoRows {
		return nil, nil // No row yet (lazy initialization)
	}
	if err != nil {
		return nil, customerrors.ErrStoreRead(userID.String(), err)
	}

	return &state, nil
}

// UpsertBatch writes all entries in one transaction using a single prepared statement,
// executed in slice order.
func (r *SQLiteProgressionRepository) UpsertBatch(ctx context.Context, entries []domain.UserProgression) (err error) {
	if len(entries) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return customerrors.ErrStoreWrite("begin transaction", len(entries), err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, sqliteUpsert)
	if err != nil {
		return customerrors.ErrStoreWrite("prepare upsert", len(entries), err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC().UnixMilli()
	for _, entry := range entries {
		_, err = stmt.ExecContext(ctx,
			entry.UserID.String(),
			entry.State.Level,
			entry.State.Points,
			now,
		)
		if err != nil {
			return customerrors.ErrStoreWrite("upsert "+entry.UserID.String(), len(entries), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return customerrors.ErrStoreWrite("commit", len(entries), err)
	}
	return nil
}

// Close releases the SQLite connection. It waits for any in-flight load or batch.
func (r *SQLiteProgressionRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db.Close()
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/lib/pq" // PostgreSQL driver and COPY support

	"github.com/AccelByte/extend-level-progression/pkg/domain"
	customerrors "github.com/AccelByte/extend-level-progression/pkg/errors"
)

const (
	// DefaultCopyThreshold is the batch size from which UpsertBatch switches to the COPY protocol.
	DefaultCopyThreshold = 1000

	// maxRowsPerStatement keeps a multi-row VALUES upsert under PostgreSQL's
	// 65,535 bind parameter limit (3 parameters per row).
	maxRowsPerStatement = 5000
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS user_levels (
		user_id VARCHAR(36) PRIMARY KEY,
		level BIGINT NOT NULL,
		points BIGINT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
		CONSTRAINT check_level_non_negative CHECK (level >= 0),
		CONSTRAINT check_points_non_negative CHECK (points >= 0)
	)
`

// Tables created with 32-bit columns are widened in place; a no-op once BIGINT.
const postgresWidenColumns = `
	ALTER TABLE user_levels
		ALTER COLUMN level TYPE BIGINT,
		ALTER COLUMN points TYPE BIGINT
`

// PostgresProgressionRepository implements ProgressionRepository using PostgreSQL.
type PostgresProgressionRepository struct {
	mu            sync.Mutex // one critical section around the connection
	db            *sql.DB
	copyThreshold int
}

// NewPostgresProgressionRepository creates a PostgreSQL-backed repository and its table if absent.
func NewPostgresProgressionRepository(ctx context.Context, db *sql.DB) (*PostgresProgressionRepository, error) {
	if db == nil {
		return nil, customerrors.ErrStoreInit("open postgres", errors.New("sql db is required"))
	}

	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		return nil, customerrors.ErrStoreInit("create user_levels table", err)
	}
	if _, err := db.ExecContext(ctx, postgresWidenColumns); err != nil {
		return nil, customerrors.ErrStoreInit("widen user_levels columns", err)
	}

	return &PostgresProgressionRepository{
		db:            db,
		copyThreshold: DefaultCopyThreshold,
	}, nil
}

// SetCopyThreshold changes the batch size at which UpsertBatch uses COPY.
// A value <= 0 disables the COPY path.
func (r *PostgresProgressionRepository) SetCopyThreshold(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.copyThreshold = n
}

// LoadOne retrieves a single user's persisted progression.
func (r *PostgresProgressionRepository) LoadOne(ctx context.Context, userID uuid.UUID) (*domain.ProgressionState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		SELECT level, points
		FROM user_levels
		WHERE user_id = $1
	`

	var state domain.ProgressionState
	err := r.db.QueryRowContext(ctx, query, userID.String()).Scan(&state.Level, &state.Points)

	if err == sql.ErrNoRows {
		return nil, nil // No progression row exists (lazy initialization)
	}

	if err != nil {
		return nil, customerrors.ErrStoreRead(userID.String(), err)
	}

	return &state, nil
}

// UpsertBatch writes all entries in one transaction.
//
// Batches below the COPY threshold use multi-row VALUES upserts (chunked under
// the parameter limit). Larger batches are streamed into a temp table with
// COPY and merged with a single INSERT ... SELECT.
func (r *PostgresProgressionRepository) UpsertBatch(ctx context.Context, entries []domain.UserProgression) (err error) {
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

	if r.copyThreshold > 0 && len(entries) >= r.copyThreshold {
		err = r.upsertWithCopy(ctx, tx, entries)
	} else {
		err = r.upsertWithValues(ctx, tx, entries)
	}
	if err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return customerrors.ErrStoreWrite("commit", len(entries), err)
	}
	return nil
}

// upsertWithValues performs the batch as one or more multi-row INSERT ... ON CONFLICT statements.
func (r *PostgresProgressionRepository) upsertWithValues(ctx context.Context, tx *sql.Tx, entries []domain.UserProgression) error {
	for start := 0; start < len(entries); start += maxRowsPerStatement {
		end := start + maxRowsPerStatement
		if end > len(entries) {
			end = len(entries)
		}
		chunk := entries[start:end]

		valueStrings := make([]string, 0, len(chunk))
		valueArgs := make([]interface{}, 0, len(chunk)*3)
		for i, entry := range chunk {
			valueStrings = append(valueStrings, fmt.Sprintf("($%d, $%d, $%d, NOW())", i*3+1, i*3+2, i*3+3))
			valueArgs = append(valueArgs, entry.UserID.String(), entry.State.Level, entry.State.Points)
		}

		// Safe: fmt.Sprintf only builds the VALUES structure with placeholders ($1, $2, etc.)
		// All actual values are passed via parameterized query (valueArgs), not string interpolation
		// #nosec G201
		query := fmt.Sprintf(`
			INSERT INTO user_levels (user_id, level, points, updated_at)
			VALUES %s
			ON CONFLICT (user_id) DO UPDATE SET
				level = EXCLUDED.level,
				points = EXCLUDED.points,
				updated_at = NOW()
		`, strings.Join(valueStrings, ","))

		if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
			return customerrors.ErrStoreWrite("batch upsert", len(entries), err)
		}
	}
	return nil
}

// upsertWithCopy bulk loads the batch into a session temp table and merges it.
func (r *PostgresProgressionRepository) upsertWithCopy(ctx context.Context, tx *sql.Tx, entries []domain.UserProgression) error {
	// Step 1: Temp table dropped automatically at commit or rollback
	_, err := tx.ExecContext(ctx, `
		CREATE TEMP TABLE IF NOT EXISTS temp_user_levels (
			user_id VARCHAR(36) NOT NULL,
			level BIGINT NOT NULL,
			points BIGINT NOT NULL
		) ON COMMIT DROP
	`)
	if err != nil {
		return customerrors.ErrStoreWrite("create temp table for COPY", len(entries), err)
	}

	// Step 2: Stream rows with COPY FROM STDIN
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("temp_user_levels", "user_id", "level", "points"))
	if err != nil {
		return customerrors.ErrStoreWrite("prepare COPY statement", len(entries), err)
	}
	defer func() { _ = stmt.Close() }()

	for _, entry := range entries {
		if _, err := stmt.ExecContext(ctx, entry.UserID.String(), entry.State.Level, entry.State.Points); err != nil {
			return customerrors.ErrStoreWrite("execute COPY row", len(entries), err)
		}
	}

	// Step 3: Flush buffered rows to the temp table
	if _, err := stmt.ExecContext(ctx); err != nil {
		return customerrors.ErrStoreWrite("flush COPY to temp table", len(entries), err)
	}

	// Step 4: Merge with the same upsert semantics as the VALUES path
	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_levels (user_id, level, points, updated_at)
		SELECT user_id, level, points, NOW()
		FROM temp_user_levels
		ON CONFLICT (user_id) DO UPDATE SET
			level = EXCLUDED.level,
			points = EXCLUDED.points,
			updated_at = NOW()
	`)
	if err != nil {
		return customerrors.ErrStoreWrite("merge temp table into user_levels", len(entries), err)
	}
	return nil
}

// Close releases the connection pool.
func (r *PostgresProgressionRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db.Close()
}

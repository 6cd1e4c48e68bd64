package cache

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/AccelByte/extend-level-progression/pkg/domain"
)

// ProgressionCache is the authoritative in-memory copy of every user's progression.
// The store is only a durable mirror written by the flush scheduler.
// All methods are safe for concurrent use and never return store errors.
type ProgressionCache interface {
	// GetOrLoad returns the entry for userID, loading it from the store on a miss.
	// Concurrent callers for the same missing key share one load and receive the
	// same *Entry. A failed load falls back to the default state.
	GetOrLoad(ctx context.Context, userID uuid.UUID) *Entry

	// ApplyScore adds pointsDelta to the user's points and normalizes the state.
	// Returns the level-ups produced, in the order they happened.
	ApplyScore(ctx context.Context, userID uuid.UUID, pointsDelta int) []domain.LevelUp

	// Snapshot returns a value copy of every cached entry, ordered by user ID.
	Snapshot() []domain.UserProgression

	// Rules returns the leveling rules currently in effect.
	Rules() domain.LevelRules

	// SetRules swaps the leveling rules. Cached entries are kept.
	SetRules(rules domain.LevelRules)

	// Len returns the number of cached users.
	Len() int
}

// Entry is the cache cell for one user. Its mutex is the per-key critical section.
type Entry struct {
	mu    sync.Mutex
	state domain.ProgressionState
}

// State returns a copy of the entry's current state.
func (e *Entry) State() domain.ProgressionState {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

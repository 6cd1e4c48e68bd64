package cache

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/AccelByte/extend-level-progression/pkg/domain"
	"github.com/AccelByte/extend-level-progression/pkg/metrics"
	"github.com/AccelByte/extend-level-progression/pkg/repository"
)

// shardCount must stay a power of two; shardFor masks the hash with it.
const shardCount = 64

type shard struct {
	mu      sync.RWMutex // Protects entries (the map, not the Entry values)
	entries map[uuid.UUID]*Entry
}

// InMemoryProgressionCache implements ProgressionCache as a sharded map of entries.
//
// Lock order is shard then entry, and a shard lock is never held while an entry
// lock is taken for mutation. Different keys only contend on the brief shard
// map access. Entries are never evicted.
type InMemoryProgressionCache struct {
	shards  [shardCount]*shard
	repo    repository.ProgressionRepository
	rules   atomic.Pointer[domain.LevelRules]
	loads   singleflight.Group
	size    atomic.Int64
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewInMemoryProgressionCache creates an empty cache backed by repo.
// m may be nil.
func NewInMemoryProgressionCache(
	repo repository.ProgressionRepository,
	rules domain.LevelRules,
	logger *slog.Logger,
	m *metrics.Metrics,
) *InMemoryProgressionCache {
	c := &InMemoryProgressionCache{
		repo:    repo,
		logger:  logger,
		metrics: m,
	}
	for i := range c.shards {
		c.shards[i] = &shard{entries: make(map[uuid.UUID]*Entry)}
	}
	c.rules.Store(&rules)

	return c
}

func (c *InMemoryProgressionCache) shardFor(userID uuid.UUID) *shard {
	return c.shards[xxhash.Sum64(userID[:])&(shardCount-1)]
}

// GetOrLoad returns the cached entry or loads it exactly once.
func (c *InMemoryProgressionCache) GetOrLoad(ctx context.Context, userID uuid.UUID) *Entry {
	s := c.shardFor(userID)

	s.mu.RLock()
	e := s.entries[userID]
	s.mu.RUnlock()

	if e != nil {
		c.metrics.CacheHit()
		return e
	}
	c.metrics.CacheMiss()

	v, _, _ := c.loads.Do(userID.String(), func() (interface{}, error) {
		// A previous flight may have inserted the entry after our read above.
		s.mu.RLock()
		existing := s.entries[userID]
		s.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		loaded := &Entry{state: c.load(ctx, userID)}

		s.mu.Lock()
		if existing = s.entries[userID]; existing != nil {
			s.mu.Unlock()
			return existing, nil
		}
		s.entries[userID] = loaded
		s.mu.Unlock()

		c.metrics.SetCachedUsers(int(c.size.Add(1)))
		return loaded, nil
	})

	return v.(*Entry)
}

// load reads the persisted state, falling back to defaults when the row is
// absent or the read fails. Every caller sharing the flight waits on this load,
// so it is detached from the leader's cancellation.
func (c *InMemoryProgressionCache) load(ctx context.Context, userID uuid.UUID) domain.ProgressionState {
	state, err := c.repo.LoadOne(context.WithoutCancel(ctx), userID)
	c.metrics.StoreLoad(err != nil)

	if err != nil {
		c.logger.Warn("Failed to load progression, using defaults",
			"user_id", userID.String(),
			"error", err,
		)
		return domain.NewProgressionState(c.Rules())
	}
	if state == nil {
		return domain.NewProgressionState(c.Rules())
	}

	return *state
}

// ApplyScore mutates the user's state under its entry lock.
// A zero delta leaves the state untouched.
func (c *InMemoryProgressionCache) ApplyScore(ctx context.Context, userID uuid.UUID, pointsDelta int) []domain.LevelUp {
	e := c.GetOrLoad(ctx, userID)
	if pointsDelta == 0 {
		return nil
	}

	rules := c.Rules()

	e.mu.Lock()
	reached := e.state.AddPoints(pointsDelta, rules)
	e.mu.Unlock()

	if len(reached) == 0 {
		return nil
	}

	levelUps := make([]domain.LevelUp, len(reached))
	for i, level := range reached {
		levelUps[i] = domain.LevelUp{UserID: userID, NewLevel: level}
	}
	c.metrics.LevelUps(len(levelUps))

	return levelUps
}

// Snapshot copies every entry without holding any lock across shards.
// Entry pointers are collected under each shard's read lock, then each value
// is copied under its own entry lock.
func (c *InMemoryProgressionCache) Snapshot() []domain.UserProgression {
	type ref struct {
		userID uuid.UUID
		entry  *Entry
	}

	refs := make([]ref, 0, c.Len())
	for _, s := range c.shards {
		s.mu.RLock()
		for userID, e := range s.entries {
			refs = append(refs, ref{userID: userID, entry: e})
		}
		s.mu.RUnlock()
	}

	snapshot := make([]domain.UserProgression, len(refs))
	for i, r := range refs {
		snapshot[i] = domain.UserProgression{UserID: r.userID, State: r.entry.State()}
	}

	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].UserID.String() < snapshot[j].UserID.String()
	})

	return snapshot
}

// Rules returns the rules currently in effect.
func (c *InMemoryProgressionCache) Rules() domain.LevelRules {
	return *c.rules.Load()
}

// SetRules swaps the rules. Existing entries are kept and are normalized
// against the new rules on their next mutation.
func (c *InMemoryProgressionCache) SetRules(rules domain.LevelRules) {
	c.rules.Store(&rules)

	c.logger.Info("Level rules updated",
		"points_per_kill", rules.PointsPerKill,
		"points_per_level", rules.PointsPerLevel,
		"min_level", rules.MinLevel,
		"max_level", rules.MaxLevel,
		"cached_users", c.Len(),
	)
}

// Len returns the number of cached users.
func (c *InMemoryProgressionCache) Len() int {
	return int(c.size.Load())
}

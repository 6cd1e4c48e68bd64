package cache

import (
	"log/slog"
	"sync"

	"github.com/AccelByte/extend-level-progression/pkg/ranges"
)

// InMemoryRangeCache holds the current range table.
// A rebuild swaps the whole table, so a lookup sees either the old or the new
// table and never a mix of both.
type InMemoryRangeCache struct {
	table  ranges.Table
	mu     sync.RWMutex // Protects table
	logger *slog.Logger
}

// NewInMemoryRangeCache creates a cache built from the levels mapping.
func NewInMemoryRangeCache(levels map[string]string, logger *slog.Logger) *InMemoryRangeCache {
	return NewOrderedRangeCache(nil, levels, logger)
}

// NewOrderedRangeCache creates a cache whose equal-Min ranges follow keys order.
func NewOrderedRangeCache(keys []string, levels map[string]string, logger *slog.Logger) *InMemoryRangeCache {
	c := &InMemoryRangeCache{logger: logger}
	c.RebuildOrdered(keys, levels)
	return c
}

// Rebuild parses levels and replaces the current table.
// Malformed keys are skipped; the rest of the table is still built.
func (c *InMemoryRangeCache) Rebuild(levels map[string]string) {
	c.RebuildOrdered(nil, levels)
}

func (c *InMemoryRangeCache) RebuildOrdered(keys []string, levels map[string]string) {
	table := ranges.BuildOrdered(keys, levels, c.logger)

	c.mu.Lock()
	c.table = table
	c.mu.Unlock()

	c.logger.Info("Range table built successfully",
		"ranges", len(table),
		"entries", len(levels),
	)
}

// ColorForLevel returns the token for level, or ranges.DefaultToken.
func (c *InMemoryRangeCache) ColorForLevel(level int) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.table.Lookup(level)
}

// Ranges returns the current table. Callers must not modify it.
func (c *InMemoryRangeCache) Ranges() ranges.Table {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.table
}

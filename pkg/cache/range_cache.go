package cache

import "github.com/AccelByte/extend-level-progression/pkg/ranges"

// RangeCache provides tier lookups for display formatting.
// The table is built from the levels section of config.yml and replaced wholesale on reload.
// All lookups are read-only and thread-safe.
type RangeCache interface {
	// ColorForLevel returns the display token of the first range containing level.
	// Returns ranges.DefaultToken if no range matches.
	ColorForLevel(level int) string

	// Ranges returns the current table, ordered by ascending Min.
	Ranges() ranges.Table

	// Rebuild replaces the table from a levels mapping.
	Rebuild(levels map[string]string)

	// RebuildOrdered replaces the table, breaking equal-Min ties by keys order.
	RebuildOrdered(keys []string, levels map[string]string)
}

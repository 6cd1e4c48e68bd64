// Package ranges builds the level range table that maps a level to its display token.
package ranges

import (
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/AccelByte/extend-level-progression/pkg/domain"
	"github.com/AccelByte/extend-level-progression/pkg/errors"
)

// DefaultToken is returned when no configured range contains the level.
const DefaultToken = "#FFFFFF"

var rangeKeyPattern = regexp.MustCompile(`^(\d+)(?:-(\d+))?$`)

// Table is an ordered sequence of level ranges, ascending by Min.
type Table []domain.LevelRange

// ParseKey parses a range key of the form "N" or "A-B".
// A reversed range ("20-10") is normalized so that min <= max.
func ParseKey(key string) (int, int, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return 0, 0, errors.ErrConfigParse(key, "empty key")
	}

	m := rangeKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return 0, 0, errors.ErrConfigParse(key, "expected N or A-B")
	}

	lo, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, errors.ErrConfigParse(key, err.Error())
	}
	hi := lo
	if m[2] != "" {
		hi, err = strconv.Atoi(m[2])
		if err != nil {
			return 0, 0, errors.ErrConfigParse(key, err.Error())
		}
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo, hi, nil
}

// Build parses every entry of the levels mapping into a Table.
// Ranges with equal Min keep the lexical order of their keys.
// Malformed keys are skipped and logged; they never fail the whole build.
func Build(entries map[string]string, logger *slog.Logger) Table {
	return BuildOrdered(SortedKeys(entries), entries, logger)
}

// SortedKeys returns the keys of entries in lexical order.
func SortedKeys(entries map[string]string) []string {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// BuildOrdered is Build with an explicit key order, normally the order the keys
// appear in config.yml. Ranges with equal Min keep that order. Keys of entries
// missing from keys are appended in lexical order.
func BuildOrdered(keys []string, entries map[string]string, logger *slog.Logger) Table {
	ordered := make([]string, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, key := range keys {
		if _, ok := entries[key]; ok && !seen[key] {
			seen[key] = true
			ordered = append(ordered, key)
		}
	}
	for _, key := range SortedKeys(entries) {
		if !seen[key] {
			ordered = append(ordered, key)
		}
	}

	table := make(Table, 0, len(entries))
	for _, key := range ordered {
		lo, hi, err := ParseKey(key)
		if err != nil {
			if logger != nil {
				logger.Warn("Skipping level range", "key", key, "error", err)
			}
			continue
		}

		token := strings.TrimSpace(entries[key])
		if token == "" {
			token = DefaultToken
		}
		table = append(table, domain.LevelRange{Min: lo, Max: hi, Token: token})
	}

	sort.SliceStable(table, func(i, j int) bool {
		return table[i].Min < table[j].Min
	})

	return table
}

// Lookup returns the token of the first range containing level, or DefaultToken.
func (t Table) Lookup(level int) string {
	for _, r := range t {
		if r.Contains(level) {
			return r.Token
		}
	}
	return DefaultToken
}

package config

import (
	"fmt"

	"github.com/AccelByte/extend-level-progression/pkg/errors"
)

// Validator validates game configuration files.
// It ensures the leveling rules are usable before they reach the cache.
type Validator struct{}

// NewValidator creates a new Validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks:
// - points.per_level is positive (otherwise normalization never terminates)
// - points.per_kill is not negative
// - min-level is not negative and does not exceed max-level
// - level-format is not empty
//
// Malformed level range keys are not an error here; they are skipped when the table is built.
//
// Returns an error describing the first validation failure encountered.
func (v *Validator) Validate(config *Config) error {
	if config.Points.PerLevel <= 0 {
		return errors.ErrConfigInvalid(fmt.Sprintf("points.per_level must be positive, got %d", config.Points.PerLevel))
	}
	if config.Points.PerKill < 0 {
		return errors.ErrConfigInvalid(fmt.Sprintf("points.per_kill must not be negative, got %d", config.Points.PerKill))
	}
	if config.MinLevel < 0 {
		return errors.ErrConfigInvalid(fmt.Sprintf("min-level must not be negative, got %d", config.MinLevel))
	}
	if config.MinLevel > config.MaxLevel {
		return errors.ErrConfigInvalid(fmt.Sprintf("min-level (%d) must not exceed max-level (%d)", config.MinLevel, config.MaxLevel))
	}
	if config.LevelFormat == "" {
		return errors.ErrConfigInvalid("level-format cannot be empty")
	}
	return nil
}

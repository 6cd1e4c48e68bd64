package config

import (
	"time"

	"github.com/AccelByte/extend-level-progression/pkg/domain"
)

// Config represents the game configuration loaded from config.yml.
// Absent keys keep the values from Default.
type Config struct {
	Points               PointsConfig      `yaml:"points"`
	MinLevel             int               `yaml:"min-level"`
	MaxLevel             int               `yaml:"max-level"`
	FlushIntervalSeconds int               `yaml:"flush-interval-seconds"`
	LevelFormat          string            `yaml:"level-format"`
	LevelUpMessage       string            `yaml:"level-up-message"`
	LevelUpMessageType   string            `yaml:"level-up-message-type"`
	Levels               map[string]string `yaml:"levels"`

	// LevelOrder lists the Levels keys in file order. Set by ConfigLoader.
	LevelOrder []string `yaml:"-"`
}

// PointsConfig holds the points section of the config file.
type PointsConfig struct {
	PerKill  int `yaml:"per_kill"`
	PerLevel int `yaml:"per_level"`
}

// Default returns the configuration used for any key the file leaves out.
func Default() *Config {
	rules := domain.DefaultLevelRules()
	return &Config{
		Points: PointsConfig{
			PerKill:  rules.PointsPerKill,
			PerLevel: rules.PointsPerLevel,
		},
		MinLevel:             rules.MinLevel,
		MaxLevel:             rules.MaxLevel,
		FlushIntervalSeconds: 5,
		LevelFormat:          "LVL {level}",
		LevelUpMessage:       "&a[LevelStar] %player% has reached {display}!",
		LevelUpMessageType:   string(domain.MessageTypePrivate),
		Levels:               map[string]string{},
	}
}

// Rules returns the scalar leveling rules.
func (c *Config) Rules() domain.LevelRules {
	return domain.LevelRules{
		PointsPerKill:  c.Points.PerKill,
		PointsPerLevel: c.Points.PerLevel,
		MinLevel:       c.MinLevel,
		MaxLevel:       c.MaxLevel,
	}
}

// FlushInterval returns the flush period, never shorter than one second.
func (c *Config) FlushInterval() time.Duration {
	if c.FlushIntervalSeconds < 1 {
		return time.Second
	}
	return time.Duration(c.FlushIntervalSeconds) * time.Second
}

// MessageType returns the configured level-up message delivery.
// Anything other than "broadcast" is private.
func (c *Config) MessageType() domain.MessageType {
	if domain.MessageType(c.LevelUpMessageType) == domain.MessageTypeBroadcast {
		return domain.MessageTypeBroadcast
	}
	return domain.MessageTypePrivate
}

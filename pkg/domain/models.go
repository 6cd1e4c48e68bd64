package domain

import (
	"math"

	"github.com/google/uuid"
)

// MaxEventPoints bounds the points a single inbound scoring event may carry.
const MaxEventPoints = math.MaxInt32

// ProgressionState is a user's current level and the points accumulated toward the next one.
// Values are copied freely; the live instance is owned by the progression cache.
type ProgressionState struct {
	Level  int `json:"level" db:"level"`
	Points int `json:"points" db:"points"`
}

// NewProgressionState returns the default state for a user never seen before.
func NewProgressionState(rules LevelRules) ProgressionState {
	return ProgressionState{Level: rules.MinLevel, Points: 0}
}

// AddPoints adds delta to the state and normalizes it against rules.
//
// Normalization repeatedly converts PointsPerLevel points into one level while
// the level is below MaxLevel. Points left over once MaxLevel is reached are
// retained. A negative delta lowers points but never below zero, and never
// lowers the level. The sum saturates at math.MaxInt instead of wrapping.
//
// Returns the level reached by each level-up, in the order they happened.
func (s *ProgressionState) AddPoints(delta int, rules LevelRules) []int {
	switch {
	case delta > 0 && s.Points > math.MaxInt-delta:
		s.Points = math.MaxInt
	case delta < 0 && s.Points < math.MinInt-delta:
		s.Points = 0
	default:
		s.Points += delta
	}
	if s.Points < 0 {
		s.Points = 0
	}

	var reached []int
	for s.Points >= rules.PointsPerLevel && s.Level < rules.MaxLevel {
		s.Points -= rules.PointsPerLevel
		s.Level++
		reached = append(reached, s.Level)
	}
	return reached
}

// IsNormalized returns true if no further level-up is pending.
func (s ProgressionState) IsNormalized(rules LevelRules) bool {
	return s.Points < rules.PointsPerLevel || s.Level >= rules.MaxLevel
}

// LevelRules holds the scalar leveling configuration.
type LevelRules struct {
	PointsPerKill  int `json:"points_per_kill"`  // Points added per scoring event
	PointsPerLevel int `json:"points_per_level"` // Threshold to level up
	MinLevel       int `json:"min_level"`        // Level of a fresh user
	MaxLevel       int `json:"max_level"`        // Level cap
}

// DefaultLevelRules returns the rules used when nothing is configured.
func DefaultLevelRules() LevelRules {
	return LevelRules{
		PointsPerKill:  50,
		PointsPerLevel: 5000,
		MinLevel:       1,
		MaxLevel:       2000,
	}
}

// LevelRange maps an inclusive level interval to a display token (a color code).
type LevelRange struct {
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Token string `json:"token"`
}

// Contains returns true if level falls inside the range.
func (r LevelRange) Contains(level int) bool {
	return level >= r.Min && level <= r.Max
}

// UserProgression is one row of a cache snapshot.
type UserProgression struct {
	UserID uuid.UUID        `json:"user_id" db:"user_id"`
	State  ProgressionState `json:"state"`
}

// LevelUp is a single level-up transition reported by a scoring operation.
type LevelUp struct {
	UserID   uuid.UUID `json:"user_id"`
	NewLevel int       `json:"new_level"`
}

// MessageType controls how level-up messages are delivered.
type MessageType string

const (
	// MessageTypePrivate sends the level-up message only to the user who leveled up.
	MessageTypePrivate MessageType = "private"

	// MessageTypeBroadcast sends the level-up message to everyone.
	MessageTypeBroadcast MessageType = "broadcast"
)

// IsValid returns true if the message type is a known type.
func (m MessageType) IsValid() bool {
	switch m {
	case MessageTypePrivate, MessageTypeBroadcast:
		return true
	default:
		return false
	}
}

// LevelUpNotice is what the notification collaborator receives for each level-up.
type LevelUpNotice struct {
	UserID       uuid.UUID `json:"user_id"`
	PlayerName   string    `json:"player_name"`
	NewLevel     int       `json:"new_level"`
	DisplayToken string    `json:"display_token"` // Range table token for NewLevel
	Display      string    `json:"display"`       // Rendered level label
	Message      string    `json:"message"`
	Broadcast    bool      `json:"broadcast"`
}

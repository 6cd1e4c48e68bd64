package domain

import "github.com/google/uuid"

// Message is an inbound event delivered by the host.
type Message interface {
	// User returns the user the message is about.
	User() uuid.UUID
}

// UserSeen reports that a user joined. It only warms the cache.
type UserSeen struct {
	UserID     uuid.UUID `json:"user_id"`
	PlayerName string    `json:"player_name"`
}

func (m UserSeen) User() uuid.UUID { return m.UserID }

// ScoringEvent reports that a user scored (e.g. got a kill).
// Points of zero means the configured points.per_kill is used.
type ScoringEvent struct {
	UserID     uuid.UUID `json:"user_id"`
	PlayerName string    `json:"player_name"`
	Points     int       `json:"points,omitempty"`
}

func (m ScoringEvent) User() uuid.UUID { return m.UserID }

package ingest

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/AccelByte/extend-level-progression/pkg/common"
	"github.com/AccelByte/extend-level-progression/pkg/domain"
	customerrors "github.com/AccelByte/extend-level-progression/pkg/errors"
)

// Event type names accepted by DecodeEvent.
const (
	EventUserSeen = "user_seen"
	EventScoring  = "scoring_event"
)

type wireEvent struct {
	Type       string `json:"type"`
	UserID     string `json:"user_id"`
	PlayerName string `json:"player_name"`
	Points     int    `json:"points"`
}

// DecodeEvent parses one JSON event line into a message.
// A scoring event's points must be within [0, domain.MaxEventPoints]; 0 or
// absent means the configured points per kill.
//
// Example:
//
//	{"type":"scoring_event","user_id":"3f1c2a9e-5b7d-4e8f-9a0b-1c2d3e4f5a6b","player_name":"Steve"}
func DecodeEvent(line []byte) (domain.Message, error) {
	var ev wireEvent
	if err := json.Unmarshal(line, &ev); err != nil {
		return nil, customerrors.ErrInvalidInput("event", err.Error())
	}

	userID, err := common.ParseUserID(ev.UserID)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(ev.Type)) {
	case EventUserSeen:
		return domain.UserSeen{UserID: userID, PlayerName: ev.PlayerName}, nil
	case EventScoring:
		if ev.Points < 0 || ev.Points > domain.MaxEventPoints {
			return nil, customerrors.ErrInvalidInput("points",
				"must be between 0 and "+strconv.Itoa(domain.MaxEventPoints)+", got "+strconv.Itoa(ev.Points))
		}
		return domain.ScoringEvent{UserID: userID, PlayerName: ev.PlayerName, Points: ev.Points}, nil
	default:
		return nil, customerrors.ErrInvalidInput("event type", "unknown type "+ev.Type)
	}
}

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/AccelByte/extend-level-progression/pkg/domain"
)

// Notifier delivers level-up notices to the host.
//
// Delivery is best effort: the ingestion handler logs a returned error and
// moves on, so implementations must not retry internally for long.
type Notifier interface {
	// NotifyLevelUp delivers one rendered notice.
	// notice.Broadcast selects delivery to every player instead of the user alone.
	NotifyLevelUp(ctx context.Context, notice domain.LevelUpNotice) error
}

// JSONNotifier writes one JSON object per notice to w, for hosts that read
// the process's stdout.
type JSONNotifier struct {
	mu  sync.Mutex // Serializes writes so lines never interleave
	enc *json.Encoder
}

// NewJSONNotifier creates a notifier writing newline-delimited JSON to w.
func NewJSONNotifier(w io.Writer) *JSONNotifier {
	return &JSONNotifier{enc: json.NewEncoder(w)}
}

type levelUpLine struct {
	Type       string `json:"type"`
	UserID     string `json:"user_id"`
	PlayerName string `json:"player_name,omitempty"`
	NewLevel   int    `json:"new_level"`
	Token      string `json:"display_token"`
	Display    string `json:"display"`
	Message    string `json:"message"`
	Broadcast  bool   `json:"broadcast"`
}

// NotifyLevelUp encodes notice as a "level_up" line.
func (n *JSONNotifier) NotifyLevelUp(ctx context.Context, notice domain.LevelUpNotice) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	err := n.enc.Encode(levelUpLine{
		Type:       "level_up",
		UserID:     notice.UserID.String(),
		PlayerName: notice.PlayerName,
		NewLevel:   notice.NewLevel,
		Token:      notice.DisplayToken,
		Display:    notice.Display,
		Message:    notice.Message,
		Broadcast:  notice.Broadcast,
	})
	if err != nil {
		return fmt.Errorf("write level-up notice: %w", err)
	}
	return nil
}

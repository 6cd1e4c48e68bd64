package client

import (
	"context"
	"log/slog"

	"github.com/AccelByte/extend-level-progression/pkg/domain"
)

// LogNotifier is a notifier for local development.
// Unlike MockNotifier (testify/mock), it doesn't require explicit setup and
// always succeeds with logged output.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier that logs every notice at info level.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyLevelUp logs the notice and returns success.
func (n *LogNotifier) NotifyLevelUp(ctx context.Context, notice domain.LevelUpNotice) error {
	n.logger.InfoContext(ctx, "Level up",
		"user_id", notice.UserID.String(),
		"player", notice.PlayerName,
		"level", notice.NewLevel,
		"display_token", notice.DisplayToken,
		"broadcast", notice.Broadcast,
		"message", notice.Message,
	)
	return nil
}

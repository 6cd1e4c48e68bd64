// Package ingest applies inbound host events to the progression cache.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AccelByte/extend-level-progression/pkg/cache"
	"github.com/AccelByte/extend-level-progression/pkg/client"
	"github.com/AccelByte/extend-level-progression/pkg/display"
	"github.com/AccelByte/extend-level-progression/pkg/domain"
	customerrors "github.com/AccelByte/extend-level-progression/pkg/errors"
)

// Handler routes messages to the cache and reports level-ups to the notifier.
// Handling never blocks on store writes; a miss may wait for one store read.
type Handler struct {
	cache     cache.ProgressionCache
	formatter *display.Formatter
	notifier  client.Notifier
	logger    *slog.Logger
}

func NewHandler(c cache.ProgressionCache, f *display.Formatter, n client.Notifier, logger *slog.Logger) *Handler {
	return &Handler{
		cache:     c,
		formatter: f,
		notifier:  n,
		logger:    logger,
	}
}

// Handle dispatches one message. Only an unsupported message type is an error.
func (h *Handler) Handle(ctx context.Context, msg domain.Message) error {
	switch m := msg.(type) {
	case domain.UserSeen:
		h.OnUserSeen(ctx, m)
	case *domain.UserSeen:
		h.OnUserSeen(ctx, *m)
	case domain.ScoringEvent:
		h.OnScoringEvent(ctx, m)
	case *domain.ScoringEvent:
		h.OnScoringEvent(ctx, *m)
	default:
		return customerrors.ErrInvalidInput("message", fmt.Sprintf("unsupported type %T", msg))
	}
	return nil
}

// Consume handles messages until msgs is closed or ctx is done.
// Returns ctx.Err() when the context ended first.
func (h *Handler) Consume(ctx context.Context, msgs <-chan domain.Message) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := h.Handle(ctx, msg); err != nil {
				h.logger.Warn("Dropping message", "error", err)
			}
		}
	}
}

// OnUserSeen warms the cache so the user's first score does not wait on the store.
func (h *Handler) OnUserSeen(ctx context.Context, msg domain.UserSeen) {
	h.cache.GetOrLoad(ctx, msg.UserID)
}

// OnScoringEvent adds the event's points and notifies each level-up in order.
func (h *Handler) OnScoringEvent(ctx context.Context, msg domain.ScoringEvent) []domain.LevelUp {
	points := msg.Points
	if points == 0 {
		points = h.cache.Rules().PointsPerKill
	}

	levelUps := h.cache.ApplyScore(ctx, msg.UserID, points)
	for _, lu := range levelUps {
		h.notify(ctx, msg.PlayerName, lu)
	}
	return levelUps
}

func (h *Handler) notify(ctx context.Context, player string, lu domain.LevelUp) {
	notice := domain.LevelUpNotice{
		UserID:       lu.UserID,
		PlayerName:   player,
		NewLevel:     lu.NewLevel,
		DisplayToken: h.formatter.Token(lu.NewLevel),
		Display:      h.formatter.FormatLevel(lu.NewLevel),
		Message:      h.formatter.LevelUpMessage(player, lu.NewLevel),
		Broadcast:    h.formatter.Broadcast(),
	}

	if err := h.notifier.NotifyLevelUp(ctx, notice); err != nil {
		h.logger.Warn("Failed to deliver level-up notice",
			"user_id", lu.UserID.String(),
			"level", lu.NewLevel,
			"error", err,
		)
	}
}

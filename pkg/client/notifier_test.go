package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AccelByte/extend-level-progression/pkg/domain"
)

func testNotice() domain.LevelUpNotice {
	return domain.LevelUpNotice{
		UserID:       uuid.MustParse("3f1c2a9e-5b7d-4e8f-9a0b-1c2d3e4f5a6b"),
		PlayerName:   "Steve",
		NewLevel:     2,
		DisplayToken: "&b",
		Display:      "&bLVL 2&r",
		Message:      "&a[LevelStar] Steve has reached &bLVL 2&r!",
		Broadcast:    true,
	}
}

func TestJSONNotifier_NotifyLevelUp(t *testing.T) {
	var buf bytes.Buffer
	n := NewJSONNotifier(&buf)

	require.NoError(t, n.NotifyLevelUp(context.Background(), testNotice()))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "level_up", line["type"])
	assert.Equal(t, "3f1c2a9e-5b7d-4e8f-9a0b-1c2d3e4f5a6b", line["user_id"])
	assert.Equal(t, "Steve", line["player_name"])
	assert.Equal(t, float64(2), line["new_level"])
	assert.Equal(t, "&b", line["display_token"])
	assert.Equal(t, "&bLVL 2&r", line["display"])
	assert.Equal(t, true, line["broadcast"])
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestJSONNotifier_CanceledContext(t *testing.T) {
	var buf bytes.Buffer
	n := NewJSONNotifier(&buf)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.NotifyLevelUp(ctx, testNotice())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestJSONNotifier_WriteError(t *testing.T) {
	n := NewJSONNotifier(failingWriter{})

	err := n.NotifyLevelUp(context.Background(), testNotice())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
}

func TestJSONNotifier_ConcurrentLinesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	n := NewJSONNotifier(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, n.NotifyLevelUp(context.Background(), testNotice()))
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 50)
	for _, line := range lines {
		assert.True(t, json.Valid([]byte(line)), line)
	}
}

func TestLogNotifier_NotifyLevelUp(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, n.NotifyLevelUp(context.Background(), testNotice()))

	out := buf.String()
	assert.Contains(t, out, "Level up")
	assert.Contains(t, out, "player=Steve")
	assert.Contains(t, out, "level=2")
}

package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockReloader struct {
	mock.Mock
}

func (m *mockReloader) Reload(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type playerSender struct {
	perms map[string]bool
}

func (p playerSender) Name() string { return "Steve" }
func (p playerSender) HasPermission(node string) bool { return p.perms[node] }

func TestReloadCommand_Execute(t *testing.T) {
	admin := playerSender{perms: map[string]bool{PermissionReload: true}}
	guest := playerSender{}

	tests := []struct {
		name        string
		sender      Sender
		args        []string
		reloadErr   error
		wantReload  bool
		wantStatus  Status
		wantMessage string
	}{
		{name: "console reload", sender: ConsoleSender{}, args: []string{"reload"}, wantReload: true, wantStatus: StatusOK, wantMessage: MessageReloaded},
		{name: "case insensitive", sender: admin, args: []string{"RELOAD"}, wantReload: true, wantStatus: StatusOK, wantMessage: MessageReloaded},
		{name: "no args", sender: admin, args: nil, wantStatus: StatusUsage, wantMessage: MessageUsage},
		{name: "extra args", sender: admin, args: []string{"reload", "now"}, wantStatus: StatusUsage, wantMessage: MessageUsage},
		{name: "unknown subcommand", sender: admin, args: []string{"reset"}, wantStatus: StatusUsage, wantMessage: MessageUsage},
		{name: "usage checked before permission", sender: guest, args: []string{"help"}, wantStatus: StatusUsage, wantMessage: MessageUsage},
		{name: "missing permission", sender: guest, args: []string{"reload"}, wantStatus: StatusDenied, wantMessage: MessageDenied},
		{
			name:        "reload failure",
			sender:      ConsoleSender{},
			args:        []string{"reload"},
			reloadErr:   errors.New("invalid configuration: max-level below min-level"),
			wantReload:  true,
			wantStatus:  StatusFailed,
			wantMessage: "[LevelStar] Reload failed: invalid configuration: max-level below min-level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reloader := &mockReloader{}
			if tt.wantReload {
				reloader.On("Reload", mock.Anything).Return(tt.reloadErr).Once()
			}
			cmd := NewReloadCommand(reloader, slog.New(slog.NewTextHandler(io.Discard, nil)))

			resp := cmd.Execute(context.Background(), tt.sender, tt.args)

			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantMessage, resp.Message)
			reloader.AssertExpectations(t)
			if !tt.wantReload {
				reloader.AssertNotCalled(t, "Reload", mock.Anything)
			}
		})
	}
}

func TestResponse_Colored(t *testing.T) {
	assert.Equal(t, "&aok", Response{Status: StatusOK, Message: "ok"}.Colored())
	assert.Equal(t, "&eusage", Response{Status: StatusUsage, Message: "usage"}.Colored())
	assert.Equal(t, "&cno", Response{Status: StatusDenied, Message: "no"}.Colored())
	assert.Equal(t, "&cfail", Response{Status: StatusFailed, Message: "fail"}.Colored())
}

func TestParseCommandLine(t *testing.T) {
	tests := []struct {
		line     string
		wantArgs []string
		wantOK   bool
	}{
		{line: "/levelstar reload", wantArgs: []string{"reload"}, wantOK: true},
		{line: "levelstar reload", wantArgs: []string{"reload"}, wantOK: true},
		{line: "  /LevelStar   reload  ", wantArgs: []string{"reload"}, wantOK: true},
		{line: "/levelstar", wantArgs: []string{}, wantOK: true},
		{line: "/stop", wantOK: false},
		{line: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			args, ok := ParseCommandLine(tt.line)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

// Package admin implements the /levelstar command surface.
package admin

import (
	"context"
	"log/slog"
	"strings"
)

// PermissionReload is the permission node required to run "/levelstar reload".
const PermissionReload = "levelstar.reload"

// Response messages.
const (
	MessageReloaded = "[LevelStar] Config reloaded!"
	MessageUsage    = "Usage: /levelstar reload"
	MessageDenied   = "You don't have permission!"
)

// Status classifies a command response.
type Status int

const (
	StatusOK Status = iota
	StatusUsage
	StatusDenied
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUsage:
		return "usage"
	case StatusDenied:
		return "denied"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Response is what the command reports back to its sender.
type Response struct {
	Status  Status
	Message string
}

// Colored returns Message prefixed with the host color code for its status.
func (r Response) Colored() string {
	switch r.Status {
	case StatusOK:
		return "&a" + r.Message
	case StatusUsage:
		return "&e" + r.Message
	default:
		return "&c" + r.Message
	}
}

// Sender is whoever issued the command.
type Sender interface {
	Name() string
	HasPermission(node string) bool
}

// ConsoleSender is the server console. It holds every permission.
type ConsoleSender struct{}

func (ConsoleSender) Name() string { return "CONSOLE" }
func (ConsoleSender) HasPermission(string) bool { return true }

// Reloader re-reads configuration and applies it.
type Reloader interface {
	Reload(ctx context.Context) error
}

// ReloadCommand handles "/levelstar reload".
type ReloadCommand struct {
	reloader Reloader
	logger   *slog.Logger
}

func NewReloadCommand(reloader Reloader, logger *slog.Logger) *ReloadCommand {
	return &ReloadCommand{reloader: reloader, logger: logger}
}

// Execute runs the command with args (the words after "/levelstar").
// A failed reload keeps the previous configuration and reports why.
func (c *ReloadCommand) Execute(ctx context.Context, sender Sender, args []string) Response {
	if len(args) != 1 || !strings.EqualFold(args[0], "reload") {
		return Response{Status: StatusUsage, Message: MessageUsage}
	}

	if !sender.HasPermission(PermissionReload) {
		c.logger.Warn("Reload denied", "sender", sender.Name())
		return Response{Status: StatusDenied, Message: MessageDenied}
	}

	if err := c.reloader.Reload(ctx); err != nil {
		c.logger.Error("Reload failed, keeping previous config",
			"sender", sender.Name(),
			"error", err,
		)
		return Response{Status: StatusFailed, Message: "[LevelStar] Reload failed: " + err.Error()}
	}

	c.logger.Info("Config reloaded", "sender", sender.Name())
	return Response{Status: StatusOK, Message: MessageReloaded}
}

// ParseCommandLine splits a console line such as "/levelstar reload" into
// its arguments. ok is false when the line is not a levelstar command.
func ParseCommandLine(line string) (args []string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, false
	}

	name := strings.TrimPrefix(fields[0], "/")
	if !strings.EqualFold(name, "levelstar") {
		return nil, false
	}
	return fields[1:], true
}

package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/AccelByte/extend-level-progression/pkg/admin"
	"github.com/AccelByte/extend-level-progression/pkg/domain"
	"github.com/AccelByte/extend-level-progression/pkg/ingest"
)

// maxLineBytes bounds a single stdin line.
const maxLineBytes = 64 * 1024

// commander executes console commands.
type commander interface {
	Execute(ctx context.Context, sender admin.Sender, args []string) admin.Response
}

// inputRouter splits stdin into console commands and event messages.
type inputRouter struct {
	command commander
	logger  *slog.Logger
}

func newInputRouter(command commander, logger *slog.Logger) *inputRouter {
	return &inputRouter{command: command, logger: logger}
}

// Run reads r line by line until EOF or ctx ends. Events are queued on msgs;
// commands run inline with console permissions. Malformed lines are logged and skipped.
func (r *inputRouter) Run(ctx context.Context, in io.Reader, msgs chan<- domain.Message) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		if line[0] != '{' {
			r.runCommand(ctx, string(line))
			continue
		}

		msg, err := ingest.DecodeEvent(line)
		if err != nil {
			r.logger.Warn("Skipping malformed event", "line", lineNo, "error", err)
			continue
		}

		select {
		case msgs <- msg:
		case <-ctx.Done():
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input line %d: %w", lineNo+1, err)
	}
	return nil
}

func (r *inputRouter) runCommand(ctx context.Context, line string) {
	args, ok := admin.ParseCommandLine(line)
	if !ok {
		r.logger.Warn("Unknown command", "command", line)
		return
	}

	resp := r.command.Execute(ctx, admin.ConsoleSender{}, args)
	r.logger.Info(resp.Message, "status", resp.Status.String())
}

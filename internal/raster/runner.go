package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/joseph-ayodele/pdfraster/internal/common"
)

// maxStderr caps how much tool output is kept in a CommandError.
const maxStderr = 8 << 10

// Command is one invocation of a poppler tool.
type Command struct {
	Name string
	Args []string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// CommandError reports a tool that started but exited unsuccessfully, which
// for pdfinfo and pdftoppm means the document could not be read.
type CommandError struct {
	Command  Command
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Command.Name, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// Runner executes poppler tools and returns their stdout. Failures are one of:
// a CONFIG_ERROR when the tool cannot be started, the context error when ctx
// ended first, or a *CommandError when the tool ran and failed.
type Runner interface {
	Run(ctx context.Context, cmd Command) (stdout []byte, err error)
}

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, cmd Command) ([]byte, error) {
	start := time.Now()
	r.logger.Debug("running command", "cmd_line", cmd.String())

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	var out, errb bytes.Buffer
	c.Stdout = &out
	c.Stderr = &errb

	err := c.Run()
	dur := time.Since(start)

	switch {
	case err == nil:
		r.logger.Debug("exec ok",
			"cmd", cmd.Name,
			"duration_ms", dur.Milliseconds(),
			"stdout_bytes", out.Len(),
		)
		return out.Bytes(), nil
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return nil, common.NewAppError(common.CodeConfig,
			fmt.Sprintf("cannot run %q; install poppler-utils or set PDFINFO_BIN/PDFTOPPM_BIN", cmd.Name), err)
	case ctx.Err() != nil:
		r.logger.Warn("command interrupted", "cmd", cmd.Name, "duration_ms", dur.Milliseconds(), "error", ctx.Err())
		return nil, fmt.Errorf("%s: %w", cmd.Name, ctx.Err())
	}

	cerr := &CommandError{Command: cmd, ExitCode: -1, Stderr: truncate(strings.TrimSpace(errb.String()), maxStderr), Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cerr.ExitCode = exitErr.ExitCode()
	}
	r.logger.Error("exec failed",
		"cmd", cmd.Name,
		"duration_ms", dur.Milliseconds(),
		"exit_code", cerr.ExitCode,
		"stderr", cerr.Stderr,
	)
	return nil, cerr
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

// Package toolchain runs the external executables the builders delegate to
// (esbuild, uglifyjs, tailwindcss, cleancss, ejs, html-minifier, js-beautify).
// Every invocation yields a Result with the exit status and both captured
// streams; a non-zero exit is returned as a tool error.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	kiterrors "github.com/xdevkit/xdevkit-cli/internal/errors"
	"github.com/xdevkit/xdevkit-cli/internal/logging"
	"github.com/xdevkit/xdevkit-cli/internal/validation"
)

// stderrTail bounds how much stderr is copied into an error.
const stderrTail = 2048

// waitDelay bounds how long a cancelled tool may hold its output pipes open.
const waitDelay = 2 * time.Second

// Command describes one subprocess invocation. No shell is involved.
type Command struct {
	Name  string
	Args  []string
	Env   []string // extra KEY=VALUE entries on top of the current environment
	Dir   string
	Stdin []byte
}

// String renders the command line for logs.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result is the outcome of a finished subprocess.
type Result struct {
	Command  Command
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// Success reports whether the process exited with status 0.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Runner executes commands. Builders depend on this interface so tests can
// substitute a recorder.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	logger   logging.Logger
	lookPath func(string) (string, error)
}

// NewExecRunner creates a runner that logs each invocation at debug level.
func NewExecRunner(logger logging.Logger) *ExecRunner {
	return &ExecRunner{
		logger:   logger.WithComponent("toolchain"),
		lookPath: exec.LookPath,
	}
}

// Run starts cmd, waits for it to exit and captures its output. The Result
// is returned even when the tool fails, together with a tool error carrying
// the exit code and the tail of stderr.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if err := validation.ValidateToolName(cmd.Name); err != nil {
		return nil, kiterrors.WrapValidation(err, kiterrors.ErrCodeToolNotFound, "invalid tool name")
	}

	path, err := r.lookPath(cmd.Name)
	if err != nil {
		return nil, kiterrors.ErrToolNotFound(cmd.Name, err)
	}

	c := exec.CommandContext(ctx, path, cmd.Args...)
	c.Dir = cmd.Dir
	c.WaitDelay = waitDelay
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	if cmd.Stdin != nil {
		c.Stdin = bytes.NewReader(cmd.Stdin)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	runErr := c.Run()
	result := &Result{
		Command:  cmd,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	r.logger.Debug(ctx, "tool finished",
		"command", cmd.String(),
		"duration_ms", result.Duration.Milliseconds(),
	)

	if runErr == nil {
		return result, nil
	}

	if ctx.Err() != nil {
		result.ExitCode = -1
		return result, kiterrors.NewInternalError(
			kiterrors.ErrCodeInternalError,
			fmt.Sprintf("%s interrupted", cmd.Name),
			ctx.Err(),
		)
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
	} else {
		result.ExitCode = -1
	}

	return result, kiterrors.ErrToolFailed(cmd.Name, result.ExitCode, Tail(result.Stderr), runErr)
}

// Tail returns the last part of tool output, trimmed, for error messages.
func Tail(output []byte) string {
	if len(output) > stderrTail {
		output = output[len(output)-stderrTail:]
	}
	return strings.TrimSpace(string(output))
}

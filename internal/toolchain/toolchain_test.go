package toolchain

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kiterrors "github.com/xdevkit/xdevkit-cli/internal/errors"
	"github.com/xdevkit/xdevkit-cli/internal/logging"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunnerCapturesOutput(t *testing.T) {
	requireShell(t)
	runner := NewExecRunner(logging.NewNop())

	result, err := runner.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo out; echo err >&2"},
	})
	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, "out\n", string(result.Stdout))
	assert.Equal(t, "err\n", string(result.Stderr))
}

func TestExecRunnerNonZeroExit(t *testing.T) {
	requireShell(t)
	runner := NewExecRunner(logging.NewNop())

	result, err := runner.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo partial; echo 'syntax error' >&2; exit 3"},
	})
	require.Error(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 3, result.ExitCode)
	assert.False(t, result.Success())
	assert.Equal(t, "partial\n", string(result.Stdout))
	assert.True(t, kiterrors.IsToolError(err))

	var ke *kiterrors.KitError
	require.True(t, errors.As(err, &ke))
	assert.Equal(t, 3, ke.Context["exit_code"])
	assert.Equal(t, "syntax error", ke.Context["stderr"])
}

func TestExecRunnerEnvAndStdin(t *testing.T) {
	requireShell(t)
	runner := NewExecRunner(logging.NewNop())

	result, err := runner.Run(context.Background(), Command{
		Name:  "sh",
		Args:  []string{"-c", `printf '%s:' "$NODE_ENV"; cat`},
		Env:   []string{"NODE_ENV=production"},
		Stdin: []byte("piped"),
	})
	require.NoError(t, err)
	assert.Equal(t, "production:piped", string(result.Stdout))
}

func TestExecRunnerToolNotFound(t *testing.T) {
	runner := NewExecRunner(logging.NewNop())

	result, err := runner.Run(context.Background(), Command{Name: "xdevkit-no-such-tool-7f3a"})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, kiterrors.IsToolError(err))
	assert.Contains(t, err.Error(), "not found")
}

func TestExecRunnerRejectsShellSyntax(t *testing.T) {
	runner := NewExecRunner(logging.NewNop())

	_, err := runner.Run(context.Background(), Command{Name: "esbuild; rm -rf /"})
	require.Error(t, err)
	assert.False(t, kiterrors.IsToolError(err))
}

func TestExecRunnerCancellation(t *testing.T) {
	requireShell(t)
	runner := NewExecRunner(logging.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result, err := runner.Run(ctx, Command{Name: "sh", Args: []string{"-c", "sleep 5"}})
	require.Error(t, err)
	assert.Equal(t, -1, result.ExitCode)
	assert.False(t, kiterrors.IsToolError(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTail(t *testing.T) {
	assert.Equal(t, "short", Tail([]byte("  short\n")))

	long := strings.Repeat("a", stderrTail) + "END"
	tail := Tail([]byte(long))
	assert.Len(t, tail, stderrTail)
	assert.True(t, strings.HasSuffix(tail, "END"))
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "cleancss", Command{Name: "cleancss"}.String())
	assert.Equal(t, "uglifyjs --compress -- app.js",
		Command{Name: "uglifyjs", Args: []string{"--compress", "--", "app.js"}}.String())
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	rec.Handle("cleancss", func(cmd Command) (*Result, error) {
		return &Result{Command: cmd, Stdout: []byte("min")}, nil
	})

	res, err := rec.Run(context.Background(), Command{Name: "cleancss", Args: []string{"a.css"}})
	require.NoError(t, err)
	assert.Equal(t, "min", string(res.Stdout))

	res, err = rec.Run(context.Background(), Command{Name: "esbuild"})
	require.NoError(t, err)
	assert.True(t, res.Success())

	assert.Len(t, rec.Commands(), 2)
	assert.Len(t, rec.Named("cleancss"), 1)
	assert.Empty(t, rec.Named("ejs"))
}

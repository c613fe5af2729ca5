package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kiterrors "github.com/xdevkit/xdevkit-cli/internal/errors"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelWarn, Format: "text", Output: &buf})
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, nil, "warn message")
	logger.Error(ctx, errors.New("boom"), "error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
	assert.Contains(t, out, "boom")
}

func TestJSONFormatWithComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelDebug, Format: "json", Output: &buf})

	scoped := logger.WithComponent("watcher").With("root", "custom/public/src/js")
	scoped.Info(context.Background(), "watching", "rules", 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "watching", entry["msg"])
	assert.Equal(t, "watcher", entry["component"])
	assert.Equal(t, "custom/public/src/js", entry["root"])
	assert.Equal(t, float64(2), entry["rules"])
}

func TestErrorAttachesKitErrorContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelInfo, Format: "json", Output: &buf})

	logger.Error(context.Background(), kiterrors.ErrPageConfigMissing("about"), "render failed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "config", entry["err_type"])
	assert.Equal(t, kiterrors.ErrCodePageConfigMissing, entry["err_code"])
	assert.Equal(t, "about", entry["err_page"])
}

func TestWithDoesNotLeakIntoParent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelInfo, Output: &buf})

	_ = logger.With("child", true)
	logger.Info(context.Background(), "parent")

	assert.NotContains(t, buf.String(), "child")
}

func TestPerfLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelInfo, Output: &buf})

	op := StartOperation(logger, "compile")
	op.End(context.Background(), "pages", 3)

	out := buf.String()
	assert.Contains(t, out, "operation completed")
	assert.Contains(t, out, "operation=compile")
	assert.Contains(t, out, "duration_ms=")

	buf.Reset()
	StartOperation(logger, "compile").EndWithError(context.Background(), errors.New("esbuild failed"))
	assert.True(t, strings.Contains(buf.String(), "operation failed"))
}

func TestNopDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error(context.Background(), errors.New("x"), "nothing")
}

package errors

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKitErrorFormatting(t *testing.T) {
	err := NewIOError(ErrCodeFileOperation, "copy failed", fmt.Errorf("disk full")).
		WithComponent("build").
		WithFile("out/js/top/app.js")

	msg := err.Error()
	assert.Contains(t, msg, "[ERR_FILE_OPERATION]")
	assert.Contains(t, msg, "component:build")
	assert.Contains(t, msg, "out/js/top/app.js")
	assert.Contains(t, msg, "copy failed: disk full")
}

func TestKitErrorIsAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := ErrToolFailed("esbuild", 2, "syntax error", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, &KitError{Type: ErrorTypeTool, Code: ErrCodeToolFailed}))
	assert.False(t, errors.Is(err, &KitError{Type: ErrorTypeTool, Code: ErrCodeToolNotFound}))
	assert.Equal(t, 2, err.Context["exit_code"])
	assert.Equal(t, "syntax error", err.Context["stderr"])
}

func TestTypePredicates(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		config  bool
		tool    bool
		io      bool
		network bool
	}{
		{"page config missing", ErrPageConfigMissing("about"), true, false, false, false},
		{"inline file missing", ErrInlineFileMissing("css/a.css", nil), false, false, true, false},
		{"tool not found", ErrToolNotFound("esbuild", nil), false, true, false, false},
		{"download failed", ErrDownloadFailed("https://x", nil), false, false, false, true},
		{"plain error", fmt.Errorf("plain"), false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.Equal(t, tt.config, IsConfigError(wrapped))
			assert.Equal(t, tt.tool, IsToolError(wrapped))
			assert.Equal(t, tt.io, IsIOError(wrapped))
			assert.Equal(t, tt.network, IsNetworkError(wrapped))
		})
	}
}

func TestPageConfigMissingNamesPage(t *testing.T) {
	err := ErrPageConfigMissing("contact")
	assert.Contains(t, err.Error(), "contact")
	assert.True(t, IsFatalError(err))
}

func TestWrapPreservesKitFields(t *testing.T) {
	inner := ErrInlineFileMissing("css/app.css", nil).WithComponent("template")
	outer := Wrap(inner, ErrorTypeIO, ErrCodeFileOperation, "render failed")

	require.NotNil(t, outer)
	assert.Equal(t, "template", outer.Component)
	assert.Equal(t, "css/app.css", outer.FilePath)
	assert.True(t, errors.Is(outer, inner))
	assert.Nil(t, Wrap(nil, ErrorTypeIO, "", ""))
}

func TestIsFatalError(t *testing.T) {
	assert.False(t, IsFatalError(nil))
	assert.False(t, IsFatalError(ErrPathTraversal("../x")))
	assert.False(t, IsFatalError(WrapValidation(fmt.Errorf("bad name"), ErrCodeInvalidPath, "invalid project name")))
	assert.True(t, IsFatalError(fmt.Errorf("plain")))
	assert.True(t, IsFatalError(NewInternalError(ErrCodeInternalError, "bad", nil)))
}

func TestGetErrorContext(t *testing.T) {
	ctx := GetErrorContext(ErrDownloadFailed("https://example.com/a.tgz", nil).WithComponent("scaffold"))
	assert.Equal(t, "network", ctx["type"])
	assert.Equal(t, ErrCodeDownloadFailed, ctx["code"])
	assert.Equal(t, "scaffold", ctx["component"])
	assert.Equal(t, "https://example.com/a.tgz", ctx["url"])

	plain := GetErrorContext(fmt.Errorf("plain"))
	assert.Equal(t, "unknown", plain["type"])
}

func TestFormatError(t *testing.T) {
	assert.Empty(t, FormatError(nil))
	assert.Equal(t, "plain", FormatError(fmt.Errorf("plain")))

	tool := FormatError(fmt.Errorf("scripts: %w",
		ErrToolFailed("esbuild", 1, "✘ [ERROR] Could not resolve \"x\"\n  app.js:1:7\n", nil)))
	assert.Contains(t, tool, "esbuild exited with status 1\n")
	assert.Contains(t, tool, "\n  | ✘ [ERROR] Could not resolve \"x\"\n  |   app.js:1:7")
	assert.NotContains(t, tool, "hint:")

	quiet := FormatError(ErrToolFailed("uglifyjs", 2, "", nil))
	assert.NotContains(t, quiet, "|")

	network := FormatError(ErrDownloadFailed("https://example.com/a.tgz", fmt.Errorf("unexpected status 404 Not Found")))
	assert.Contains(t, network, "404 Not Found")
	assert.Contains(t, network, "\nhint: check the archive URL")

	io := FormatError(ErrInlineFileMissing("css/app.css", nil))
	assert.Contains(t, io, "\nhint: check that the file exists")

	assert.NotContains(t, FormatError(ErrPageConfigMissing("about")), "hint:")
}

func TestPathTraversalNamesPath(t *testing.T) {
	err := ErrPathTraversal("d/l/m/evil.txt")
	assert.Equal(t, ErrCodePathTraversal, err.Code)
	assert.Equal(t, "d/l/m/evil.txt", err.FilePath)
	assert.Contains(t, err.Error(), "path escapes its root")
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	assert.False(t, c.HasFailures())
	assert.Empty(t, c.Summary())

	c.Add("template", "page/top.ejs", nil)
	assert.False(t, c.HasFailures())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Add("script", fmt.Sprintf("js/p%d/app.js", i), fmt.Errorf("fail %d", i))
		}(i)
	}
	wg.Wait()

	assert.True(t, c.HasFailures())
	assert.Len(t, c.Failures(), 20)
	assert.Contains(t, c.Summary(), "20 action(s) failed")
}

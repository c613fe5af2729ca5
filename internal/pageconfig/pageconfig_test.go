package pageconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kiterrors "github.com/xdevkit/xdevkit-cli/internal/errors"
)

const sampleConfig = `
_common:
  site: X
  nav:
    - home
    - about
home:
  title: Hi
about:
  title: About
  site: Override
  inlineScriptList: [js/about/app.js]
  inlineCssList: [css/tailwind.css]
empty:
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "X", cfg.Common["site"])
	assert.Equal(t, []string{"about", "empty", "home"}, cfg.PageIDs())
	assert.True(t, cfg.Has("home"))
	assert.False(t, cfg.Has(CommonKey))
	assert.False(t, cfg.Has("missing"))
}

func TestParseJSON(t *testing.T) {
	cfg, err := Parse([]byte(`{"home": {"title": "Hi"}, "_common": {"site": "X"}}`))
	require.NoError(t, err)

	ctx, err := cfg.Resolve("home", ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Hi", ctx["title"])
	assert.Equal(t, "X", ctx["site"])
	assert.Equal(t, false, ctx[IsProductionKey])
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("home: [1, 2"))
	require.Error(t, err)
	assert.True(t, kiterrors.IsConfigError(err))

	_, err = Parse([]byte("home: just a string"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"home"`)
}

func TestResolveMergeOrder(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	ctx, err := cfg.Resolve("about", ResolveOptions{Extra: map[string]any{"liveReloadURL": "ws://x"}})
	require.NoError(t, err)

	assert.Equal(t, "Override", ctx["site"], "page values win over _common")
	assert.Equal(t, "About", ctx["title"])
	assert.Equal(t, []any{"home", "about"}, ctx["nav"])
	assert.Equal(t, "ws://x", ctx["liveReloadURL"])
	assert.Equal(t, []any{"js/about/app.js"}, ctx[InlineScriptListKey], "dev mode leaves inline paths alone")
}

func TestResolveMissingPage(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	_, err = cfg.Resolve("contact", ResolveOptions{})
	require.Error(t, err)
	assert.True(t, kiterrors.IsConfigError(err))
	assert.Contains(t, err.Error(), "contact")
}

func TestResolveInlinesInProduction(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "js", "about"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "js", "about", "app.js"), []byte("console.log(1)"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "css", "tailwind.css"), []byte(".a{}"), 0o644))

	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	ctx, err := cfg.Resolve("about", ResolveOptions{Production: true, InlineRoot: root})
	require.NoError(t, err)

	assert.Equal(t, true, ctx[IsProductionKey])
	assert.Equal(t, []string{"console.log(1)"}, ctx[InlineScriptListKey])
	assert.Equal(t, []string{".a{}"}, ctx[InlineCSSListKey])

	// The loaded config still holds paths, so a second resolve inlines again.
	assert.Equal(t, []any{"js/about/app.js"}, cfg.Pages["about"][InlineScriptListKey])
	again, err := cfg.Resolve("about", ResolveOptions{Production: true, InlineRoot: root})
	require.NoError(t, err)
	assert.Equal(t, ctx, again)
}

func TestResolveMissingInlineFile(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	_, err = cfg.Resolve("about", ResolveOptions{Production: true, InlineRoot: t.TempDir()})
	require.Error(t, err)
	assert.True(t, kiterrors.IsIOError(err))
	assert.Contains(t, err.Error(), filepath.Join("js", "about", "app.js"))
}

func TestResolveAcceptsStringSlices(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.css"), []byte("a"), 0o644))

	cfg := &Config{
		Common: Page{},
		Pages:  map[string]Page{"top": {InlineCSSListKey: []string{"a.css"}}},
	}

	ctx, err := cfg.Resolve("top", ResolveOptions{Production: true, InlineRoot: root})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ctx[InlineCSSListKey])
	assert.Equal(t, []string{"a.css"}, cfg.Pages["top"][InlineCSSListKey])
}

func TestResolveRejectsNonListInline(t *testing.T) {
	cfg := &Config{Pages: map[string]Page{"top": {InlineCSSListKey: 42}}}

	_, err := cfg.Resolve("top", ResolveOptions{Production: true})
	require.Error(t, err)
	assert.True(t, kiterrors.IsConfigError(err))
}

func TestLoadAndStoreReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ejs.config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("home:\n  title: One\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)

	store := NewStore(cfg)
	require.NoError(t, os.WriteFile(path, []byte("home:\n  title: Two\n"), 0o644))
	reloaded, err := store.Reload()
	require.NoError(t, err)
	assert.Equal(t, "Two", reloaded.Pages["home"]["title"])
	assert.Same(t, reloaded, store.Get())

	require.NoError(t, os.WriteFile(path, []byte("home: [broken"), 0o644))
	_, err = store.Reload()
	require.Error(t, err)
	assert.Same(t, reloaded, store.Get(), "failed reload keeps the previous config")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, kiterrors.IsConfigError(err))
}

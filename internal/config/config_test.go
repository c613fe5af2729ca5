package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kiterrors "github.com/xdevkit/xdevkit-cli/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Clean(DefaultJSDir), cfg.Paths.JS)
	assert.Equal(t, filepath.Clean(DefaultCSSDir), cfg.Paths.CSS)
	assert.Equal(t, filepath.Clean(DefaultPagesDir), cfg.Paths.Pages)
	assert.Equal(t, filepath.Clean(DefaultOutDir), cfg.Paths.Out)
	assert.Equal(t, filepath.Clean(DefaultTailwindConfig), cfg.Tailwind.Config)
	assert.Equal(t, filepath.Clean(DefaultTailwindInput), cfg.Tailwind.Input)
	assert.Equal(t, DefaultPageConfig, cfg.Pages.Config)
	assert.Equal(t, "ejs", cfg.Pages.Engine)
	assert.False(t, cfg.Build.Minify)
	assert.False(t, cfg.Watch.Once)
	assert.Equal(t, DefaultDebounce, cfg.Watch.Debounce)
	assert.Equal(t, DefaultSettle, cfg.Watch.Settle)
	assert.Equal(t, "esbuild", cfg.Tools.Esbuild)
	assert.Equal(t, "html-minifier", cfg.Tools.HTMLMinifier)
	assert.Equal(t, DefaultScaffoldURL, cfg.Scaffold.URL)

	assert.Equal(t, filepath.Join("custom", "public", "build", "js"), cfg.JSOut())
	assert.Equal(t, filepath.Join("custom", "public", "build", "css"), cfg.CSSOut())
	assert.Equal(t, filepath.Join("custom", "public", "build"), cfg.PageOut())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setup       func()
		expectError bool
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name: "overrides are kept and cleaned",
			setup: func() {
				viper.Set("paths.js", "./src/js/")
				viper.Set("paths.out", "dist/")
				viper.Set("build.minify", true)
				viper.Set("watch.livereload_port", 35729)
				viper.Set("watch.debounce", "500ms")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, filepath.Join("src", "js"), cfg.Paths.JS)
				assert.Equal(t, "dist", cfg.Paths.Out)
				assert.Equal(t, filepath.Join("dist", "js"), cfg.JSOut())
				assert.True(t, cfg.Build.Minify)
				assert.Equal(t, 35729, cfg.Watch.LiveReloadPort)
				assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
			},
		},
		{
			name: "go engine",
			setup: func() {
				viper.Set("pages.engine", "go")
				viper.Set("pages.partials", "custom/partials/*.tmpl")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "go", cfg.Pages.Engine)
				assert.Equal(t, "custom/partials/*.tmpl", cfg.Pages.Partials)
			},
		},
		{
			name:        "unknown engine",
			setup:       func() { viper.Set("pages.engine", "pug") },
			expectError: true,
		},
		{
			name:        "dangerous path",
			setup:       func() { viper.Set("paths.out", "build;rm -rf ~") },
			expectError: true,
		},
		{
			name:        "dangerous tool",
			setup:       func() { viper.Set("tools.esbuild", "esbuild `id`") },
			expectError: true,
		},
		{
			name:        "livereload port out of range",
			setup:       func() { viper.Set("watch.livereload_port", 70000) },
			expectError: true,
		},
		{
			name:        "source dir equals output js dir",
			setup:       func() { viper.Set("paths.out", "custom/public/src"); viper.Set("paths.js", "custom/public/src/js") },
			expectError: true,
		},
		{
			name:        "non-http scaffold url",
			setup:       func() { viper.Set("scaffold.url", "file:///tmp/sample.tgz") },
			expectError: true,
		},
		{
			name:        "bad log format",
			setup:       func() { viper.Set("log.format", "xml") },
			expectError: true,
		},
		{
			name:        "undecodable value",
			setup:       func() { viper.Set("watch.livereload_port", "not-a-number") },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			tt.setup()

			cfg, err := Load()
			if tt.expectError {
				require.Error(t, err)
				assert.True(t, kiterrors.IsConfigError(err))
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadFromConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".xdevkit.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
paths:
  js: web/js
  out: web/build
pages:
  engine: go
`), 0o644))

	t.Setenv("XDEVKIT_PATHS_OUT", "env/build")

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("XDEVKIT")
	v.SetEnvKeyReplacer(NewEnvKeyReplacer())
	v.AutomaticEnv()
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("web", "js"), cfg.Paths.JS)
	assert.Equal(t, filepath.Join("env", "build"), cfg.Paths.Out)
	assert.Equal(t, "go", cfg.Pages.Engine)
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	js := filepath.Join(dir, "js")
	require.NoError(t, os.MkdirAll(js, 0o755))
	notDir := filepath.Join(dir, "css")
	require.NoError(t, os.WriteFile(notDir, nil, 0o644))
	input := filepath.Join(dir, "tailwind.css")
	require.NoError(t, os.WriteFile(input, nil, 0o644))

	cfg := &Config{
		Paths:    PathsConfig{JS: js, CSS: notDir, Pages: filepath.Join(dir, "missing")},
		Pages:    PagesConfig{Config: filepath.Join(dir, "ejs.config.yaml")},
		Tailwind: TailwindConfig{Input: input, Config: filepath.Join(dir, "tailwind.config.js")},
	}

	result := Check(cfg)
	require.True(t, result.HasWarnings())

	fields := make(map[string]string)
	for _, w := range result.Warnings {
		fields[w.Field] = w.Message
	}
	assert.NotContains(t, fields, "paths.js")
	assert.Equal(t, "not a directory", fields["paths.css"])
	assert.Equal(t, "directory does not exist", fields["paths.pages"])
	assert.Contains(t, fields, "pages.config")
	assert.Contains(t, fields, "tailwind.config")
	assert.Contains(t, result.String(), "paths.pages")
}

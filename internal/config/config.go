// Package config resolves every path, tool name and option the build and
// watch commands need into one explicit Config value.
//
// Values are read through Viper, so each setting can come from a command-line
// flag, an XDEVKIT_ environment variable (a .env file is honoured), or the
// .xdevkit.yml config file, in that order of precedence. Unset values fall
// back to the conventional project layout under ./custom/.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	kiterrors "github.com/xdevkit/xdevkit-cli/internal/errors"
	"github.com/xdevkit/xdevkit-cli/internal/validation"
)

// Default values for the conventional project layout.
const (
	DefaultJSDir          = "./custom/public/src/js/"
	DefaultCSSDir         = "./custom/public/src/css/"
	DefaultPagesDir       = "./custom/public/src/ejs/page/"
	DefaultOutDir         = "./custom/public/build/"
	DefaultTailwindConfig = "./custom/tailwind.config.js"
	DefaultTailwindInput  = "./custom/public/src/css/tailwind.css"
	DefaultPageConfig     = "custom/ejs.config.yaml"
	DefaultEngine         = "ejs"
	DefaultScaffoldURL    = "https://xdevkit.com/x/xdevkit-sample.tar.gz"

	DefaultDebounce = 2000 * time.Millisecond
	DefaultSettle   = 300 * time.Millisecond
)

// CommonCopyDir is the script subdirectory that is shared source, never a page.
const CommonCopyDir = "__xdevkit_common_copy"

type Config struct {
	Paths    PathsConfig    `mapstructure:"paths"`
	Tailwind TailwindConfig `mapstructure:"tailwind"`
	Pages    PagesConfig    `mapstructure:"pages"`
	Build    BuildConfig    `mapstructure:"build"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Tools    ToolsConfig    `mapstructure:"tools"`
	Log      LogConfig      `mapstructure:"log"`
	Scaffold ScaffoldConfig `mapstructure:"scaffold"`
}

// PathsConfig holds the source and output directories.
type PathsConfig struct {
	JS    string `mapstructure:"js"`
	CSS   string `mapstructure:"css"`
	Pages string `mapstructure:"pages"`
	Out   string `mapstructure:"out"`
}

type TailwindConfig struct {
	Config string `mapstructure:"config"`
	Input  string `mapstructure:"input"`
}

// PagesConfig describes the page templates and their per-page data file.
type PagesConfig struct {
	Config   string `mapstructure:"config"`
	Engine   string `mapstructure:"engine"`
	Partials string `mapstructure:"partials"`
}

type BuildConfig struct {
	Minify bool `mapstructure:"minify"`
}

type WatchConfig struct {
	Once           bool          `mapstructure:"once"`
	LiveReloadPort int           `mapstructure:"livereload_port"`
	Debounce       time.Duration `mapstructure:"debounce"`
	Settle         time.Duration `mapstructure:"settle"`
}

// ToolsConfig names the external executables. Each may be a bare name looked
// up in PATH or a path such as ./node_modules/.bin/esbuild.
type ToolsConfig struct {
	Esbuild      string `mapstructure:"esbuild"`
	Uglifyjs     string `mapstructure:"uglifyjs"`
	Tailwindcss  string `mapstructure:"tailwindcss"`
	Cleancss     string `mapstructure:"cleancss"`
	EJS          string `mapstructure:"ejs"`
	HTMLMinifier string `mapstructure:"html_minifier"`
	JSBeautify   string `mapstructure:"js_beautify"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ScaffoldConfig struct {
	URL string `mapstructure:"url"`
}

// JSOut is the directory bundled page scripts are written to.
func (c *Config) JSOut() string {
	return filepath.Join(c.Paths.Out, "js")
}

// CSSOut is the directory processed stylesheets are written to.
func (c *Config) CSSOut() string {
	return filepath.Join(c.Paths.Out, "css")
}

// PageOut is the directory rendered HTML pages are written to.
func (c *Config) PageOut() string {
	return c.Paths.Out
}

// Load builds a Config from the global Viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom builds a Config from the given Viper instance, applies defaults,
// normalizes paths and validates the result.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, kiterrors.WrapConfig(err, kiterrors.ErrCodeConfigInvalid, "unable to decode configuration")
	}

	applyDefaults(&config)
	normalize(&config)

	if err := validateConfig(&config); err != nil {
		return nil, kiterrors.WrapConfig(err, kiterrors.ErrCodeConfigInvalid, "invalid configuration")
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	setDefault(&config.Paths.JS, DefaultJSDir)
	setDefault(&config.Paths.CSS, DefaultCSSDir)
	setDefault(&config.Paths.Pages, DefaultPagesDir)
	setDefault(&config.Paths.Out, DefaultOutDir)

	setDefault(&config.Tailwind.Config, DefaultTailwindConfig)
	setDefault(&config.Tailwind.Input, DefaultTailwindInput)

	setDefault(&config.Pages.Config, DefaultPageConfig)
	setDefault(&config.Pages.Engine, DefaultEngine)

	if config.Watch.Debounce <= 0 {
		config.Watch.Debounce = DefaultDebounce
	}
	if config.Watch.Settle < 0 {
		config.Watch.Settle = 0
	} else if config.Watch.Settle == 0 {
		config.Watch.Settle = DefaultSettle
	}

	setDefault(&config.Tools.Esbuild, "esbuild")
	setDefault(&config.Tools.Uglifyjs, "uglifyjs")
	setDefault(&config.Tools.Tailwindcss, "tailwindcss")
	setDefault(&config.Tools.Cleancss, "cleancss")
	setDefault(&config.Tools.EJS, "ejs")
	setDefault(&config.Tools.HTMLMinifier, "html-minifier")
	setDefault(&config.Tools.JSBeautify, "js-beautify")

	setDefault(&config.Log.Level, "info")
	setDefault(&config.Log.Format, "text")

	setDefault(&config.Scaffold.URL, DefaultScaffoldURL)
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func normalize(config *Config) {
	for _, p := range []*string{
		&config.Paths.JS,
		&config.Paths.CSS,
		&config.Paths.Pages,
		&config.Paths.Out,
		&config.Tailwind.Config,
		&config.Tailwind.Input,
		&config.Pages.Config,
	} {
		*p = filepath.Clean(*p)
	}
}

// validateConfig validates configuration values for safety and correctness.
func validateConfig(config *Config) error {
	paths := map[string]string{
		"paths.js":        config.Paths.JS,
		"paths.css":       config.Paths.CSS,
		"paths.pages":     config.Paths.Pages,
		"paths.out":       config.Paths.Out,
		"tailwind.config": config.Tailwind.Config,
		"tailwind.input":  config.Tailwind.Input,
		"pages.config":    config.Pages.Config,
	}
	for key, path := range paths {
		if err := validation.ValidatePath(path); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	if config.Pages.Partials != "" {
		if err := validation.ValidatePath(config.Pages.Partials); err != nil {
			return fmt.Errorf("pages.partials: %w", err)
		}
	}

	// Cleaning the output tree removes <out>/js and <out>/css, so neither may
	// be a source directory.
	if config.Paths.JS == config.JSOut() || config.Paths.CSS == config.CSSOut() {
		return fmt.Errorf("source directories must not be the output js/css directories")
	}
	if config.Paths.Out == "/" {
		return fmt.Errorf("paths.out must not be the filesystem root")
	}

	tools := map[string]string{
		"tools.esbuild":       config.Tools.Esbuild,
		"tools.uglifyjs":      config.Tools.Uglifyjs,
		"tools.tailwindcss":   config.Tools.Tailwindcss,
		"tools.cleancss":      config.Tools.Cleancss,
		"tools.ejs":           config.Tools.EJS,
		"tools.html_minifier": config.Tools.HTMLMinifier,
		"tools.js_beautify":   config.Tools.JSBeautify,
	}
	for key, tool := range tools {
		if err := validation.ValidateToolName(tool); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}

	switch config.Pages.Engine {
	case "ejs", "go":
	default:
		return fmt.Errorf("pages.engine %q is not supported (expected ejs or go)", config.Pages.Engine)
	}

	if config.Watch.LiveReloadPort < 0 || config.Watch.LiveReloadPort > 65535 {
		return fmt.Errorf("watch.livereload_port %d is not in valid range 0-65535", config.Watch.LiveReloadPort)
	}

	switch config.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q is not supported (expected text or json)", config.Log.Format)
	}

	if err := validation.ValidateURL(config.Scaffold.URL); err != nil {
		return fmt.Errorf("scaffold.url: %w", err)
	}

	return nil
}

// NewEnvKeyReplacer maps nested config keys onto environment variable names,
// so paths.out is read from XDEVKIT_PATHS_OUT.
func NewEnvKeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_", "-", "_")
}

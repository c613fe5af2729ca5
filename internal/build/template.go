package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	kiterrors "github.com/xdevkit/xdevkit-cli/internal/errors"
	"github.com/xdevkit/xdevkit-cli/internal/htmlcheck"
	"github.com/xdevkit/xdevkit-cli/internal/pageconfig"
	"github.com/xdevkit/xdevkit-cli/internal/renderer"
	"github.com/xdevkit/xdevkit-cli/internal/toolchain"
)

// Mode selects how a template is rendered.
type Mode int

const (
	// ModeProduction inlines assets, sets isProduction and post-processes
	// the HTML with html-minifier or js-beautify.
	ModeProduction Mode = iota
	// ModeTailwind renders markup for tailwind to scan before the final
	// stylesheet is built.
	ModeTailwind
	// ModeDevelopment renders for watch mode.
	ModeDevelopment
)

func (m Mode) String() string {
	switch m {
	case ModeProduction:
		return "production"
	case ModeTailwind:
		return "tailwind"
	case ModeDevelopment:
		return "development"
	default:
		return "unknown"
	}
}

// LiveReloadKey is the context key carrying the live reload endpoint in
// development renders.
const LiveReloadKey = "liveReloadURL"

// html-minifier flags used for --minify builds.
var minifierArgs = []string{
	"--collapse-whitespace",
	"--remove-comments",
	"--remove-optional-tags",
	"--remove-redundant-attributes",
	"--remove-script-type-attributes",
	"--remove-tag-whitespace",
	"--use-short-doctype",
	"--minify-css", "true",
	"--minify-js", "true",
}

// js-beautify flags used otherwise; the file is rewritten in place.
var beautifierArgs = []string{
	"-r",
	"--preserve-new-lines", "false",
	"--max-preserve-newlines", "0",
	"--wrap-line-length", "0",
	"--wrap-attributes-indent-size", "0",
	"--unformatted", "style",
	"--unformatted", "script",
	"--unformatted", "pre",
}

// TemplateBuilder renders page templates.
type TemplateBuilder struct {
	Deps
	renderer      renderer.Renderer
	pages         *pageconfig.Store
	liveReloadURL string
}

// NewTemplateBuilder creates a TemplateBuilder reading page data from pages.
func NewTemplateBuilder(deps Deps, r renderer.Renderer, pages *pageconfig.Store) *TemplateBuilder {
	return &TemplateBuilder{
		Deps:     deps.withDefaults(),
		renderer: r,
		pages:    pages,
	}
}

// SetLiveReloadURL makes development renders expose url as liveReloadURL.
func (b *TemplateBuilder) SetLiveReloadURL(url string) {
	b.liveReloadURL = url
}

// Renderer returns the template engine in use.
func (b *TemplateBuilder) Renderer() renderer.Renderer {
	return b.renderer
}

// Output returns the HTML path a template renders to.
func (b *TemplateBuilder) Output(path string) string {
	return filepath.Join(b.Config.PageOut(), renderer.PageID(b.renderer, path)+".html")
}

// Build renders one template to <out>/<id>.html. A page identifier missing
// from the page config, or a missing inline asset, fails before anything is
// written.
func (b *TemplateBuilder) Build(ctx context.Context, path string, mode Mode) (err error) {
	start := time.Now()
	pageID := renderer.PageID(b.renderer, path)
	output := b.Output(path)
	defer func() { b.record(KindTemplate, path, output, start, err) }()

	opts := pageconfig.ResolveOptions{
		Production: mode == ModeProduction,
		InlineRoot: b.Config.PageOut(),
	}
	if mode == ModeDevelopment && b.liveReloadURL != "" {
		opts.Extra = map[string]any{LiveReloadKey: b.liveReloadURL}
	}

	data, err := b.pages.Get().Resolve(pageID, opts)
	if err != nil {
		return err
	}

	b.Logger.Info(ctx, "rendering page", "page", pageID, "mode", mode.String(), "output", output)

	html, err := b.renderer.Render(ctx, path, data)
	if err != nil {
		return err
	}
	if err := writeFile(output, html); err != nil {
		return err
	}

	if mode != ModeProduction {
		return nil
	}

	return b.postProcess(ctx, output, html)
}

// postProcess minifies or beautifies the written page and verifies that the
// text content survived.
func (b *TemplateBuilder) postProcess(ctx context.Context, output string, rendered []byte) error {
	if b.Config.Build.Minify {
		result, err := b.Runner.Run(ctx, toolchain.Command{
			Name: b.Config.Tools.HTMLMinifier,
			Args: append(append([]string{}, minifierArgs...), output),
		})
		if err != nil {
			return err
		}
		if err := b.verify(rendered, result.Stdout, b.Config.Tools.HTMLMinifier); err != nil {
			return err
		}

		return writeFile(output, result.Stdout)
	}

	if _, err := b.Runner.Run(ctx, toolchain.Command{
		Name: b.Config.Tools.JSBeautify,
		Args: append([]string{output}, beautifierArgs...),
	}); err != nil {
		return restore(output, rendered, err)
	}

	processed, err := os.ReadFile(output)
	if err != nil {
		return restore(output, rendered, kiterrors.WrapIO(err, "unable to read beautified page", output))
	}
	if err := b.verify(rendered, processed, b.Config.Tools.JSBeautify); err != nil {
		return restore(output, rendered, err)
	}

	return nil
}

// restore puts the unprocessed render back in place of a page the
// beautifier failed on, so no damaged page is left behind.
func restore(output string, rendered []byte, cause error) error {
	if err := writeFile(output, rendered); err != nil {
		return errors.Join(cause, err)
	}

	return cause
}

func (b *TemplateBuilder) verify(rendered, processed []byte, tool string) error {
	if err := htmlcheck.Compare(rendered, processed); err != nil {
		return kiterrors.NewToolError(
			kiterrors.ErrCodeToolOutputMismatch,
			fmt.Sprintf("%s changed the page text", tool),
			err,
		).WithContext("tool", tool)
	}

	return nil
}

// templates lists the template files of the pages root.
func (b *TemplateBuilder) templates() ([]string, error) {
	entries, err := readDirIfExists(b.Config.Paths.Pages)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && renderer.IsTemplate(b.renderer, e.Name()) {
			files = append(files, filepath.Join(b.Config.Paths.Pages, e.Name()))
		}
	}

	return files, nil
}

// BuildAll renders every template in the given mode.
func (b *TemplateBuilder) BuildAll(ctx context.Context, mode Mode) error {
	files, err := b.templates()
	if err != nil {
		return err
	}

	return batch(ctx, files, func(ctx context.Context, path string) error {
		return b.Build(ctx, path, mode)
	})
}

// Package renderer turns a page template plus its resolved context into
// HTML. Two engines exist: the ejs command-line renderer and Go's
// html/template.
package renderer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xdevkit/xdevkit-cli/internal/toolchain"
)

// Renderer renders one template file.
type Renderer interface {
	// Name is the engine name used in configuration.
	Name() string
	// Ext is the template file extension, including the dot.
	Ext() string
	Render(ctx context.Context, templatePath string, data map[string]any) ([]byte, error)
}

// Options configures New.
type Options struct {
	Engine string
	// EJSTool is the ejs executable.
	EJSTool string
	// Partials is an optional directory or glob of shared Go templates.
	Partials string
	Runner   toolchain.Runner
}

// New returns the renderer for opts.Engine.
func New(opts Options) (Renderer, error) {
	switch opts.Engine {
	case "", "ejs":
		tool := opts.EJSTool
		if tool == "" {
			tool = "ejs"
		}
		return NewEJS(opts.Runner, tool), nil
	case "go":
		return NewGoTemplate(opts.Partials), nil
	default:
		return nil, fmt.Errorf("unknown template engine %q", opts.Engine)
	}
}

// PageID derives the page identifier from a template path by stripping the
// directory and the engine extension.
func PageID(r Renderer, templatePath string) string {
	return strings.TrimSuffix(filepath.Base(templatePath), r.Ext())
}

// IsTemplate reports whether path has the renderer's extension.
func IsTemplate(r Renderer, path string) bool {
	return strings.HasSuffix(path, r.Ext())
}

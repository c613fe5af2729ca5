package renderer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	kiterrors "github.com/xdevkit/xdevkit-cli/internal/errors"
)

// GoTemplate renders templates with html/template. Inline assets are plain
// strings in the context, so templates mark them with safeJS / safeCSS.
type GoTemplate struct {
	partials string
}

// NewGoTemplate creates a renderer. partials may be empty, a directory whose
// *.tmpl files are parsed alongside every page, or a glob of such files.
func NewGoTemplate(partials string) *GoTemplate {
	return &GoTemplate{partials: partials}
}

func (g *GoTemplate) Name() string { return "go" }

func (g *GoTemplate) Ext() string { return ".tmpl" }

// Render parses the page (and partials) afresh on every call, so edits are
// picked up in watch mode.
func (g *GoTemplate) Render(_ context.Context, templatePath string, data map[string]any) ([]byte, error) {
	name := filepath.Base(templatePath)
	tmpl := template.New(name).Funcs(funcMap)

	if g.partials != "" {
		matches, err := filepath.Glob(g.partialsPattern())
		if err != nil {
			return nil, kiterrors.NewConfigError(kiterrors.ErrCodeConfigInvalid, "invalid partials glob: "+g.partials)
		}
		if len(matches) > 0 {
			if tmpl, err = tmpl.ParseFiles(matches...); err != nil {
				return nil, templateError(templatePath, err)
			}
		}
	}

	tmpl, err := tmpl.ParseFiles(templatePath)
	if err != nil {
		return nil, templateError(templatePath, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, templateError(templatePath, err)
	}

	return buf.Bytes(), nil
}

func (g *GoTemplate) partialsPattern() string {
	if info, err := os.Stat(g.partials); err == nil && info.IsDir() {
		return filepath.Join(g.partials, "*"+g.Ext())
	}

	return g.partials
}

func templateError(path string, err error) error {
	return kiterrors.NewToolError(kiterrors.ErrCodeToolFailed, "template rendering failed", err).
		WithFile(path).
		WithComponent("renderer")
}

var funcMap = template.FuncMap{
	"safeHTML": func(s string) template.HTML { return template.HTML(s) },
	"safeJS":   func(s string) template.JS { return template.JS(s) },
	"safeCSS":  func(s string) template.CSS { return template.CSS(s) },
	"join": func(sep string, items any) (string, error) {
		switch v := items.(type) {
		case []string:
			return strings.Join(v, sep), nil
		case []any:
			parts := make([]string, len(v))
			for i, item := range v {
				parts[i] = fmt.Sprint(item)
			}
			return strings.Join(parts, sep), nil
		default:
			return "", fmt.Errorf("join: unsupported type %T", items)
		}
	},
}

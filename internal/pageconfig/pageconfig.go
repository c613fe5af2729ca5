// Package pageconfig loads the per-page template data file and resolves the
// render context for a single page.
//
// The file is YAML (JSON is accepted too, being a subset) mapping page
// identifiers to objects. The reserved _common entry supplies defaults for
// every page:
//
//	_common:
//	  site: Example
//	top:
//	  title: Top page
//	  inlineCssList: [css/tailwind.css]
//
// A page identifier is the base name of a template without its extension.
package pageconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	kiterrors "github.com/xdevkit/xdevkit-cli/internal/errors"
)

// Reserved and recognized keys.
const (
	CommonKey           = "_common"
	IsProductionKey     = "isProduction"
	InlineScriptListKey = "inlineScriptList"
	InlineCSSListKey    = "inlineCssList"
)

// Page is the free-form data of one page entry.
type Page map[string]any

// Config is a loaded page config file. It is read-only once loaded; Resolve
// always returns a fresh map.
type Config struct {
	Path   string
	Common Page
	Pages  map[string]Page
}

// Load reads and parses the page config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, kiterrors.WrapConfig(err, kiterrors.ErrCodePageConfigParse, "unable to read page config").
			WithFile(path)
	}

	cfg, err := Parse(data)
	if err != nil {
		var ke *kiterrors.KitError
		if errors.As(err, &ke) {
			ke.WithFile(path)
		}

		return nil, err
	}
	cfg.Path = path

	return cfg, nil
}

// Parse decodes page config data.
func Parse(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, kiterrors.WrapConfig(err, kiterrors.ErrCodePageConfigParse, "invalid page config")
	}

	cfg := &Config{
		Common: Page{},
		Pages:  make(map[string]Page, len(raw)),
	}

	for key, value := range raw {
		var page Page
		switch v := value.(type) {
		case nil:
			page = Page{}
		case map[string]any:
			page = Page(v)
		default:
			return nil, kiterrors.NewConfigError(
				kiterrors.ErrCodePageConfigParse,
				fmt.Sprintf("page config entry %q must be a mapping, got %T", key, value),
			)
		}

		if key == CommonKey {
			cfg.Common = page
			continue
		}
		cfg.Pages[key] = page
	}

	return cfg, nil
}

// Has reports whether pageID has an entry.
func (c *Config) Has(pageID string) bool {
	_, ok := c.Pages[pageID]
	return ok
}

// PageIDs returns the configured page identifiers in sorted order.
func (c *Config) PageIDs() []string {
	ids := make([]string, 0, len(c.Pages))
	for id := range c.Pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// ResolveOptions controls how a render context is built.
type ResolveOptions struct {
	// Production sets isProduction and enables asset inlining.
	Production bool
	// InlineRoot is the directory inline list paths are relative to,
	// normally the build output root.
	InlineRoot string
	// Extra values are added last and override everything else.
	Extra map[string]any
}

// Resolve builds the render context for pageID: the _common entry, then the
// page's own values on top, then isProduction. In production mode every path
// in inlineScriptList and inlineCssList is replaced by the contents of that
// file under InlineRoot.
func (c *Config) Resolve(pageID string, opts ResolveOptions) (Page, error) {
	page, ok := c.Pages[pageID]
	if !ok {
		return nil, kiterrors.ErrPageConfigMissing(pageID)
	}

	ctx := make(Page, len(c.Common)+len(page)+len(opts.Extra)+1)
	for k, v := range c.Common {
		ctx[k] = copyValue(v)
	}
	for k, v := range page {
		ctx[k] = copyValue(v)
	}
	ctx[IsProductionKey] = opts.Production

	if opts.Production {
		for _, key := range []string{InlineScriptListKey, InlineCSSListKey} {
			if err := inline(ctx, key, opts.InlineRoot); err != nil {
				return nil, err
			}
		}
	}

	for k, v := range opts.Extra {
		ctx[k] = v
	}

	return ctx, nil
}

func inline(ctx Page, key, root string) error {
	value, ok := ctx[key]
	if !ok || value == nil {
		return nil
	}

	paths, err := stringList(value)
	if err != nil {
		return kiterrors.NewConfigError(kiterrors.ErrCodePageConfigParse, fmt.Sprintf("%s: %v", key, err))
	}

	contents := make([]string, len(paths))
	for i, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		data, err := os.ReadFile(full)
		if err != nil {
			return kiterrors.ErrInlineFileMissing(full, err)
		}
		contents[i] = string(data)
	}
	ctx[key] = contents

	return nil
}

func stringList(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("entry %d must be a string, got %T", i, item)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("must be a list of paths, got %T", value)
	}
}

// copyValue copies maps and slices so that a resolved context never aliases
// the loaded config.
func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, item := range t {
			m[k] = copyValue(item)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, item := range t {
			s[i] = copyValue(item)
		}
		return s
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

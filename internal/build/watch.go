package build

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/xdevkit/xdevkit-cli/internal/watcher"
)

// Watch rule names.
const (
	RulePageScript   = "script:page"
	RuleModuleScript = "script:module"
	RuleTailwind     = "style:tailwind"
	RuleStyle        = "style"
	RuleTemplate     = "template"
	RulePageConfig   = "pageconfig"
)

// Watches returns the watched roots of a development session with their
// rules in evaluation order. Roots that do not exist are skipped.
func (o *Orchestrator) Watches(opts watcher.Options) []watcher.Config {
	cfg := o.deps.Config
	settle := cfg.Watch.Settle
	if opts.Window == 0 {
		opts.Window = cfg.Watch.Debounce
	}

	var styleRules []watcher.Rule
	if rel, ok := relativeTo(cfg.Paths.CSS, cfg.Tailwind.Input); ok {
		styleRules = append(styleRules, watcher.Rule{
			Name:    RuleTailwind,
			Pattern: watcher.Literal(rel),
			Action:  o.Styles.BuildDevelopment,
		})
	}
	styleRules = append(styleRules, watcher.Rule{
		Name:    RuleStyle,
		Pattern: "**.css",
		Action:  o.Styles.BuildDevelopment,
		Settle:  settle,
	})

	ext := o.Templates.Renderer().Ext()
	pageConfig := o.Templates.pages.Get().Path

	all := []watcher.Config{
		{
			Root:      cfg.Paths.JS,
			Recursive: true,
			Rules: []watcher.Rule{
				{Name: RulePageScript, Pattern: "*/**.js", Action: o.Scripts.CopyPage, Settle: settle},
				{Name: RuleModuleScript, Pattern: "*.js", Action: o.Scripts.CopyModule, Settle: settle},
			},
		},
		{
			Root:      cfg.Paths.CSS,
			Recursive: true,
			Rules:     styleRules,
		},
		{
			Root:      cfg.Paths.Pages,
			Recursive: true,
			Rules: []watcher.Rule{{
				Name:    RuleTemplate,
				Pattern: "*" + watcher.Literal(ext),
				Action: func(ctx context.Context, path string) error {
					return o.Templates.Build(ctx, path, ModeDevelopment)
				},
				Settle: settle,
			}},
		},
	}
	if pageConfig != "" {
		all = append(all, watcher.Config{
			Root: filepath.Dir(pageConfig),
			Rules: []watcher.Rule{{
				Name:    RulePageConfig,
				Pattern: watcher.Literal(filepath.Base(pageConfig)),
				Action:  o.reloadPages,
				Settle:  settle,
			}},
		})
	}

	var watches []watcher.Config
	for _, w := range all {
		if info, err := os.Stat(w.Root); err != nil || !info.IsDir() {
			o.deps.Logger.Warn(context.Background(), err, "not watching missing directory", "dir", w.Root)
			continue
		}
		w.Options = opts
		watches = append(watches, w)
	}

	return watches
}

// reloadPages swaps in the edited page config and re-renders every page. A
// config that fails to load leaves the previous one in use.
func (o *Orchestrator) reloadPages(ctx context.Context, path string) error {
	if _, err := o.Templates.pages.Reload(); err != nil {
		return err
	}
	o.deps.Logger.Info(ctx, "page config reloaded", "path", path)

	return o.Templates.BuildAll(ctx, ModeDevelopment)
}

// relativeTo returns path relative to root in slash form when path lies
// below root.
func relativeTo(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}

	return filepath.ToSlash(rel), true
}

package build

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	kiterrors "github.com/xdevkit/xdevkit-cli/internal/errors"
	"github.com/xdevkit/xdevkit-cli/internal/logging"
	"github.com/xdevkit/xdevkit-cli/internal/pageconfig"
	"github.com/xdevkit/xdevkit-cli/internal/renderer"
)

type stage struct {
	name string
	run  func(context.Context) error
}

// Orchestrator sequences the builders into full builds.
type Orchestrator struct {
	deps      Deps
	Scripts   *ScriptBuilder
	Styles    *StyleBuilder
	Templates *TemplateBuilder
}

// NewOrchestrator wires the three builders around shared deps.
func NewOrchestrator(deps Deps, r renderer.Renderer, pages *pageconfig.Store) *Orchestrator {
	deps = deps.withDefaults()

	return &Orchestrator{
		deps:      deps,
		Scripts:   NewScriptBuilder(deps),
		Styles:    NewStyleBuilder(deps),
		Templates: NewTemplateBuilder(deps, r, pages),
	}
}

// Metrics returns the metrics shared by all builders.
func (o *Orchestrator) Metrics() *BuildMetrics {
	return o.deps.Metrics
}

// Clean empties the output tree: <out>/js and <out>/css are removed and
// re-created empty and the rendered *.html pages in <out> are deleted.
// Missing directories are not an error.
func (o *Orchestrator) Clean(ctx context.Context) error {
	cfg := o.deps.Config

	for _, dir := range []string{cfg.JSOut(), cfg.CSSOut()} {
		if err := os.RemoveAll(dir); err != nil {
			return kiterrors.WrapIO(err, "unable to remove directory", dir)
		}
		o.deps.Logger.Debug(ctx, "removed output directory", "dir", dir)
	}

	entries, err := readDirIfExists(cfg.PageOut())
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ".html") {
			path := filepath.Join(cfg.PageOut(), e.Name())
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return kiterrors.WrapIO(err, "unable to remove page", path)
			}
		}
	}

	for _, dir := range []string{cfg.PageOut(), cfg.JSOut(), cfg.CSSOut()} {
		if err := ensureDir(dir); err != nil {
			return err
		}
	}

	return nil
}

// Run performs a clean production build. Stages run in order and each stage
// finishes before the next starts; templates are rendered twice because
// tailwind scans the rendered markup to decide which classes the final
// stylesheet keeps, and the final render inlines the finished assets.
func (o *Orchestrator) Run(ctx context.Context) (err error) {
	o.deps.Metrics.Reset()
	op := logging.StartOperation(o.deps.Logger, "compile")
	defer func() {
		if err != nil {
			op.EndWithError(ctx, err)
			return
		}
		snap := o.deps.Metrics.GetSnapshot()
		op.End(ctx, "assets", snap.SuccessfulBuilds)
	}()

	stages := []stage{
		{"clean", o.Clean},
		{"scripts", o.Scripts.BuildAll},
		{"templates:tailwind", func(ctx context.Context) error { return o.Templates.BuildAll(ctx, ModeTailwind) }},
		{"styles", o.Styles.BuildAll},
		{"templates", func(ctx context.Context) error { return o.Templates.BuildAll(ctx, ModeProduction) }},
	}

	return o.runStages(ctx, stages)
}

// RunDevelopment performs the clean development build used by watch --once.
// Both full builds start from fresh metrics.
func (o *Orchestrator) RunDevelopment(ctx context.Context) error {
	o.deps.Metrics.Reset()
	stages := []stage{
		{"clean", o.Clean},
		{"scripts", o.Scripts.CopyAll},
		{"styles", o.Styles.BuildAllDevelopment},
		{"templates", func(ctx context.Context) error { return o.Templates.BuildAll(ctx, ModeDevelopment) }},
	}

	return o.runStages(ctx, stages)
}

func (o *Orchestrator) runStages(ctx context.Context, stages []stage) error {
	for _, s := range stages {
		o.deps.Logger.Debug(ctx, "starting stage", "stage", s.name)
		if err := s.run(ctx); err != nil {
			o.deps.Logger.Error(ctx, err, "stage failed", "stage", s.name)
			return err
		}
	}

	return nil
}

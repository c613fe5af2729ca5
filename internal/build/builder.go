// Package build implements the asset builders and the build orchestrator.
//
// Each builder maps one source file (or one page directory) to one output
// file by delegating to an external tool through a toolchain.Runner:
//
//	scripts    <js>/<page>/app.js  -> esbuild, uglifyjs      -> <out>/js/<page>/app.js
//	styles     <css>/<name>.css    -> tailwindcss | copy, cleancss -> <out>/css/<name>.css
//	templates  <pages>/<id>.ejs    -> ejs, html-minifier | js-beautify -> <out>/<id>.html
//
// Production builders minify; development builders (used by watch) copy
// sources and skip post-processing.
package build

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xdevkit/xdevkit-cli/internal/config"
	"github.com/xdevkit/xdevkit-cli/internal/logging"
	"github.com/xdevkit/xdevkit-cli/internal/toolchain"
)

// Deps are the collaborators shared by every builder.
type Deps struct {
	Config  *config.Config
	Runner  toolchain.Runner
	Logger  logging.Logger
	Metrics *BuildMetrics
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logging.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = NewBuildMetrics()
	}

	return d
}

// record stores the outcome of one builder call in the metrics.
func (d Deps) record(kind AssetKind, source, output string, start time.Time, err error) {
	d.Metrics.RecordBuild(AssetResult{
		Kind:     kind,
		Source:   source,
		Output:   output,
		Duration: time.Since(start),
		Error:    err,
	})
}

// batch runs fn for every item concurrently and waits for all of them. The
// first error cancels the remaining work and is returned.
func batch(ctx context.Context, items []string, fn func(ctx context.Context, item string) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, item := range items {
		g.Go(func() error {
			return fn(gctx, item)
		})
	}

	return g.Wait()
}

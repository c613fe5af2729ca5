package cmd

import (
	"context"
	"errors"
	"io/fs"

	"github.com/xdevkit/xdevkit-cli/internal/build"
	"github.com/xdevkit/xdevkit-cli/internal/config"
	kiterrors "github.com/xdevkit/xdevkit-cli/internal/errors"
	"github.com/xdevkit/xdevkit-cli/internal/logging"
	"github.com/xdevkit/xdevkit-cli/internal/pageconfig"
	"github.com/xdevkit/xdevkit-cli/internal/renderer"
	"github.com/xdevkit/xdevkit-cli/internal/toolchain"
)

// newRunner creates the runner external tools are started with.
var newRunner = func(logger logging.Logger) toolchain.Runner {
	return toolchain.NewExecRunner(logger)
}

// environment is everything a build or watch command works with.
type environment struct {
	cfg   *config.Config
	pages *pageconfig.Store
	orch  *build.Orchestrator
}

func newEnvironment(ctx context.Context) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	for _, w := range config.Check(cfg).Warnings {
		logger.Warn(ctx, nil, w.Message, "field", w.Field, "value", w.Value)
	}

	pages, err := loadPageConfig(cfg.Pages.Config)
	if err != nil {
		return nil, err
	}

	runner := newRunner(logger.WithComponent("toolchain"))
	r, err := renderer.New(renderer.Options{
		Engine:   cfg.Pages.Engine,
		EJSTool:  cfg.Tools.EJS,
		Partials: cfg.Pages.Partials,
		Runner:   runner,
	})
	if err != nil {
		return nil, kiterrors.WrapConfig(err, kiterrors.ErrCodeConfigInvalid, "unable to create renderer")
	}

	store := pageconfig.NewStore(pages)
	orch := build.NewOrchestrator(build.Deps{
		Config: cfg,
		Runner: runner,
		Logger: logger.WithComponent("build"),
	}, r, store)

	return &environment{cfg: cfg, pages: store, orch: orch}, nil
}

// loadPageConfig reads the page config. A missing file yields an empty
// config so that projects without pages still build scripts and styles.
func loadPageConfig(path string) (*pageconfig.Config, error) {
	cfg, err := pageconfig.Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return &pageconfig.Config{
		Path:   path,
		Common: pageconfig.Page{},
		Pages:  map[string]pageconfig.Page{},
	}, nil
}

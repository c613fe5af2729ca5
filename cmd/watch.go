package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	kiterrors "github.com/xdevkit/xdevkit-cli/internal/errors"
	"github.com/xdevkit/xdevkit-cli/internal/livereload"
	"github.com/xdevkit/xdevkit-cli/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Rebuild changed scripts, styles and pages for development",
	Long: `Watch the script, stylesheet and page directories and rebuild each
changed file in development mode. Build failures are logged and watching
continues; a summary of failures is printed on exit.

With --once the output directory is cleaned and everything is built for
development before watching starts. With --livereload-port a websocket
server on 127.0.0.1 tells open pages to reload after every rebuild.

Examples:
  xdevkit watch
  xdevkit watch --once
  xdevkit watch --once --livereload-port 35729
  xdevkit ./mysite watch`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	addPathFlags(watchCmd)
	watchCmd.Flags().Bool("once", false, "clean and build everything before watching")
	watchCmd.Flags().Int("livereload-port", 0, "serve live reload on this port (0 disables it)")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := newEnvironment(ctx)
	if err != nil {
		return err
	}

	collector := kiterrors.NewCollector()
	defer func() {
		if collector.HasFailures() {
			fmt.Fprint(cmd.ErrOrStderr(), collector.Summary())
		}
	}()

	opts := watcher.Options{
		Logger:    logger.WithComponent("watcher"),
		OnFailure: collector.Add,
	}

	var server *livereload.Server
	if port := env.cfg.Watch.LiveReloadPort; port > 0 {
		hub := livereload.NewHub(logger)
		defer hub.Close()
		server = livereload.NewServer(hub, port, logger)
		env.orch.Templates.SetLiveReloadURL(server.URL())
		opts.OnSuccess = func(_ context.Context, _, path string) {
			hub.Broadcast(path)
		}
	}

	if env.cfg.Watch.Once {
		fmt.Fprintln(cmd.OutOrStdout(), "🔨 Building for development...")
		if err := env.orch.RunDevelopment(ctx); err != nil {
			return err
		}
	}

	var watchers []*watcher.Watcher
	for _, wc := range env.orch.Watches(opts) {
		w, err := watcher.New(wc)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "   - Watching: %s\n", wc.Root)
		watchers = append(watchers, w)
	}
	if len(watchers) == 0 {
		return kiterrors.NewConfigError(kiterrors.ErrCodeInvalidPath, "nothing to watch: no source directory exists")
	}

	fmt.Fprintln(cmd.OutOrStdout(), "👀 Watching for changes... (Press Ctrl+C to stop)")

	g, gctx := errgroup.WithContext(ctx)
	if server != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "🔄 Live reload at %s\n", server.URL())
		g.Go(func() error { return server.Run(gctx) })
	}
	g.Go(func() error { return watcher.RunAll(gctx, watchers...) })

	err = g.Wait()
	fmt.Fprintln(cmd.OutOrStdout(), "🛑 Stopped watching")
	metrics := env.orch.Metrics()
	if snap := metrics.GetSnapshot(); snap.TotalBuilds > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "📊 %d builds, %.0f%% succeeded\n", snap.TotalBuilds, metrics.GetSuccessRate())
	}

	return err
}

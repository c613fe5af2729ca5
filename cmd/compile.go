package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:     "compile",
	Aliases: []string{"build", "b"},
	Short:   "Clean production build of scripts, styles and pages",
	Long: `Empty the output directory, then build every asset for production:

  1. bundle and minify the page scripts (esbuild, uglifyjs)
  2. render the pages so tailwind can scan the final markup
  3. compile and minify the stylesheets (tailwindcss, cleancss)
  4. render the pages again with the built scripts and styles inlined

Any failure aborts the build.

Examples:
  xdevkit compile
  xdevkit compile --minify --out ./dist
  xdevkit ./mysite compile`,
	Args: cobra.NoArgs,
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	addPathFlags(compileCmd)
	compileCmd.Flags().Bool("minify", false, "minify the rendered HTML with html-minifier")
}

func runCompile(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := newEnvironment(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "🔨 Building %s\n", env.cfg.Paths.Out)
	if err := env.orch.Run(ctx); err != nil {
		return err
	}

	metrics := env.orch.Metrics()
	snap := metrics.GetSnapshot()
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Built %d assets (%d files) in %s\n",
		snap.SuccessfulBuilds, len(metrics.Outputs()), snap.TotalDuration.Round(time.Millisecond))

	return nil
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xdevkit/xdevkit-cli/internal/config"
	"github.com/xdevkit/xdevkit-cli/internal/scaffold"
)

var initCmd = &cobra.Command{
	Use:     "init [name]",
	Aliases: []string{"i"},
	Short:   "Create a new project from the xdevkit sample",
	Long: `Download the xdevkit sample archive and unpack it into a new directory.
Without a name the directory is called xdevkit-sample-<random>. An existing
directory is never overwritten.

Examples:
  xdevkit init
  xdevkit init mysite
  xdevkit init mysite --url https://example.com/my-sample.tar.gz`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().String("url", config.DefaultScaffoldURL, "sample archive to download (.tar.gz or .tar.xz)")
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	}

	installer := scaffold.NewInstaller(scaffold.Options{
		URL:      cfg.Scaffold.URL,
		Name:     name,
		Progress: cmd.ErrOrStderr(),
		Logger:   logger,
	})

	dest, err := installer.Install(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✅ Created %s\n\n", dest)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintf(out, "  cd %s\n", dest)
	fmt.Fprintln(out, "  xdevkit watch --once")

	return nil
}

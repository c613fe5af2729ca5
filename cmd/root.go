package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xdevkit/xdevkit-cli/internal/config"
	kiterrors "github.com/xdevkit/xdevkit-cli/internal/errors"
	"github.com/xdevkit/xdevkit-cli/internal/logging"
)

var (
	cfgFile  string
	chdirDir string
	logger   logging.Logger = logging.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "xdevkit",
	Short: "Build and watch xdevkit static sites",
	Long: `xdevkit bundles page scripts, compiles stylesheets and renders page
templates of an xdevkit project into a static build directory.

Quick Start:
  xdevkit init mysite             Download the sample project into ./mysite
  xdevkit watch --once            Build for development, then rebuild on change
  xdevkit compile --minify        Clean production build
  xdevkit pages                   List the pages defined in the page config

The project layout defaults to ./custom/public/src/{js,css,ejs/page} with
output in ./custom/public/build/; every path can be changed with flags, the
.xdevkit.yml config file or XDEVKIT_ environment variables.`,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background(), os.Args[1:])
}

// ExecuteContext runs the root command with args.
func ExecuteContext(ctx context.Context, args []string) error {
	if dir, rest, ok := splitProjectDir(args); ok {
		args = append([]string{"--chdir", dir}, rest...)
	}
	rootCmd.SetArgs(args)
	rootCmd.SilenceErrors = true

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", kiterrors.FormatError(err))
	}

	return err
}

// ExitCode maps the error returned by Execute onto the process exit status:
// 2 for rejected input such as an unsafe archive or project name, 1 for
// every other failure.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case !kiterrors.IsFatalError(err):
		return 2
	default:
		return 1
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .xdevkit.yml, can also use XDEVKIT_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringVarP(&chdirDir, "chdir", "C", "", "run as if started in this directory")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
}

// splitProjectDir detects the `<projectDir> <command>` form: a first
// argument that is not a command but an existing directory, followed by a
// command.
func splitProjectDir(args []string) (string, []string, bool) {
	if len(args) < 2 || strings.HasPrefix(args[0], "-") || isCommand(args[0]) || !isCommand(args[1]) {
		return "", args, false
	}
	if info, err := os.Stat(args[0]); err != nil || !info.IsDir() {
		return "", args, false
	}

	return args[0], args[1:], true
}

func isCommand(name string) bool {
	if name == "help" {
		return true
	}
	for _, c := range rootCmd.Commands() {
		if c.Name() == name || c.HasAlias(name) {
			return true
		}
	}

	return false
}

// setup runs before every command: it changes directory, loads .env, binds
// the command's flags and reads the config file.
func setup(cmd *cobra.Command, _ []string) error {
	// Flag and argument errors print usage; later failures do not.
	cmd.SilenceUsage = true

	if chdirDir != "" {
		if err := os.Chdir(chdirDir); err != nil {
			return kiterrors.WrapIO(err, "unable to change directory", chdirDir)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return kiterrors.WrapConfig(err, kiterrors.ErrCodeConfigInvalid, "unable to load .env")
	}

	if err := bindFlags(cmd); err != nil {
		return err
	}
	if err := initConfig(); err != nil {
		return err
	}

	logger = newLogger(cmd)
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug(cmd.Context(), "using config file", "path", used)
	}

	return nil
}

// initConfig points Viper at the config file and the environment.
func initConfig() error {
	explicit := true
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("XDEVKIT_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		explicit = false
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".xdevkit")
	}

	viper.SetEnvPrefix("XDEVKIT")
	viper.SetEnvKeyReplacer(config.NewEnvKeyReplacer())
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !explicit && errors.As(err, &notFound) {
			return nil
		}
		return kiterrors.WrapConfig(err, kiterrors.ErrCodeConfigInvalid, "unable to read config file")
	}

	return nil
}

func newLogger(cmd *cobra.Command) logging.Logger {
	cfg := logging.DefaultConfig()
	cfg.Output = cmd.ErrOrStderr()
	cfg.Format = viper.GetString("log.format")
	if level, err := logging.ParseLevel(viper.GetString("log.level")); err == nil {
		cfg.Level = level
	} else {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v, using info\n", err)
	}

	return logging.NewLogger(cfg)
}

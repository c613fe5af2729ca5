package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/xdevkit/xdevkit-cli/internal/config"
)

// flagKeys maps flag names onto the config keys they override. Only flags
// present on the running command are bound.
var flagKeys = map[string]string{
	"js":              "paths.js",
	"css":             "paths.css",
	"ejs":             "paths.pages",
	"out":             "paths.out",
	"tailwindconfig":  "tailwind.config",
	"tailwindcss":     "tailwind.input",
	"ejsconfig":       "pages.config",
	"engine":          "pages.engine",
	"partials":        "pages.partials",
	"minify":          "build.minify",
	"once":            "watch.once",
	"livereload-port": "watch.livereload_port",
	"url":             "scaffold.url",
	"log-level":       "log.level",
	"log-format":      "log.format",
}

// addPathFlags adds the project layout flags shared by compile, watch and
// pages.
func addPathFlags(cmd *cobra.Command) {
	cmd.Flags().String("js", config.DefaultJSDir, "page script source directory")
	cmd.Flags().String("css", config.DefaultCSSDir, "stylesheet source directory")
	cmd.Flags().String("ejs", config.DefaultPagesDir, "page template directory")
	cmd.Flags().String("out", config.DefaultOutDir, "build output directory")
	cmd.Flags().String("tailwindconfig", config.DefaultTailwindConfig, "tailwind config file")
	cmd.Flags().String("tailwindcss", config.DefaultTailwindInput, "tailwind input stylesheet")
	cmd.Flags().String("ejsconfig", config.DefaultPageConfig, "page config file (yaml or json)")
	cmd.Flags().String("engine", config.DefaultEngine, "template engine (ejs, go)")
	cmd.Flags().String("partials", "", "directory (or glob) of shared Go template partials")

	AddFlagValidation(cmd, "engine", func(v string) error {
		return validateChoice("engine", v, []string{"ejs", "go"})
	})
}

// bindFlags binds the flags of cmd to their config keys. A flag that was
// not set on the command line yields to the environment and config file.
func bindFlags(cmd *cobra.Command) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		if bindErr := viper.BindPFlag(key, f); bindErr != nil {
			err = fmt.Errorf("bind --%s: %w", f.Name, bindErr)
		}
	})

	return err
}

// AddFlagValidation makes flagName reject values the validator refuses at
// parse time.
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

package build

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/xdevkit/xdevkit-cli/internal/toolchain"
)

// StyleBuilder compiles and minifies stylesheets.
type StyleBuilder struct {
	Deps
}

// NewStyleBuilder creates a StyleBuilder.
func NewStyleBuilder(deps Deps) *StyleBuilder {
	return &StyleBuilder{Deps: deps.withDefaults()}
}

// IsTailwindInput reports whether path is the configured tailwind input.
func (b *StyleBuilder) IsTailwindInput(path string) bool {
	return samePath(path, b.Config.Tailwind.Input)
}

func (b *StyleBuilder) output(path string) string {
	return filepath.Join(b.Config.CSSOut(), filepath.Base(path))
}

// Build produces <out>/css/<name> for one stylesheet: the tailwind input is
// compiled with NODE_ENV=production, any other file is copied, and the
// result is replaced by the cleancss output.
func (b *StyleBuilder) Build(ctx context.Context, path string) (err error) {
	start := time.Now()
	output := b.output(path)
	defer func() { b.record(KindStyle, path, output, start, err) }()

	if b.IsTailwindInput(path) {
		b.Logger.Info(ctx, "compiling tailwindcss", "output", output)
		if err := b.tailwind(ctx, path, output, "production"); err != nil {
			return err
		}
	} else {
		b.Logger.Info(ctx, "copying stylesheet", "output", output)
		if err := copyFile(path, output); err != nil {
			return err
		}
	}

	result, err := b.Runner.Run(ctx, toolchain.Command{
		Name: b.Config.Tools.Cleancss,
		Args: []string{output},
	})
	if err != nil {
		return err
	}

	return writeFile(output, result.Stdout)
}

// BuildDevelopment is the watch variant: tailwind runs with NODE_ENV=dev and
// nothing is minified.
func (b *StyleBuilder) BuildDevelopment(ctx context.Context, path string) (err error) {
	start := time.Now()
	output := b.output(path)
	defer func() { b.record(KindStyle, path, output, start, err) }()

	if b.IsTailwindInput(path) {
		b.Logger.Info(ctx, "compiling tailwindcss", "output", output, "env", "dev")
		return b.tailwind(ctx, path, output, "dev")
	}

	b.Logger.Info(ctx, "copying stylesheet", "output", output)

	return copyFile(path, output)
}

func (b *StyleBuilder) tailwind(ctx context.Context, input, output, env string) error {
	if err := ensureDir(filepath.Dir(output)); err != nil {
		return err
	}

	_, err := b.Runner.Run(ctx, toolchain.Command{
		Name: b.Config.Tools.Tailwindcss,
		Args: []string{"build", "-c", b.Config.Tailwind.Config, "-i", input, "-o", output},
		Env:  []string{"NODE_ENV=" + env},
	})

	return err
}

// stylesheets lists the .css files of the styles root.
func (b *StyleBuilder) stylesheets() ([]string, error) {
	entries, err := readDirIfExists(b.Config.Paths.CSS)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ".css") {
			files = append(files, filepath.Join(b.Config.Paths.CSS, e.Name()))
		}
	}

	return files, nil
}

// BuildAll runs Build for every stylesheet.
func (b *StyleBuilder) BuildAll(ctx context.Context) error {
	files, err := b.stylesheets()
	if err != nil {
		return err
	}

	return batch(ctx, files, b.Build)
}

// BuildAllDevelopment runs BuildDevelopment for every stylesheet.
func (b *StyleBuilder) BuildAllDevelopment(ctx context.Context) error {
	files, err := b.stylesheets()
	if err != nil {
		return err
	}

	return batch(ctx, files, b.BuildDevelopment)
}

package build

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/xdevkit/xdevkit-cli/internal/config"
	"github.com/xdevkit/xdevkit-cli/internal/toolchain"
)

// ScriptBuilder bundles page scripts.
type ScriptBuilder struct {
	Deps

	// copies holds one *sync.Mutex per <out>/js/<page> directory.
	copies sync.Map
}

// NewScriptBuilder creates a ScriptBuilder.
func NewScriptBuilder(deps Deps) *ScriptBuilder {
	return &ScriptBuilder{Deps: deps.withDefaults()}
}

// BuildPage bundles <pageDir>/app.js with esbuild into
// <out>/js/<page>/app.js and replaces it with the uglifyjs output.
func (b *ScriptBuilder) BuildPage(ctx context.Context, pageDir string) (err error) {
	start := time.Now()
	page := filepath.Base(pageDir)
	entry := filepath.Join(pageDir, "app.js")
	output := filepath.Join(b.Config.JSOut(), page, "app.js")
	defer func() { b.record(KindScript, entry, output, start, err) }()

	b.Logger.Info(ctx, "bundling page script", "page", page, "output", output)

	if err := ensureDir(filepath.Dir(output)); err != nil {
		return err
	}

	if _, err := b.Runner.Run(ctx, toolchain.Command{
		Name: b.Config.Tools.Esbuild,
		Args: []string{entry, "--outfile=" + output, "--bundle"},
	}); err != nil {
		return err
	}

	result, err := b.Runner.Run(ctx, toolchain.Command{
		Name: b.Config.Tools.Uglifyjs,
		Args: []string{"--compress", "--", output},
	})
	if err != nil {
		return err
	}

	return writeFile(output, result.Stdout)
}

// BuildAll bundles every page directory of the scripts root. The shared
// __xdevkit_common_copy directory is not a page and is skipped.
func (b *ScriptBuilder) BuildAll(ctx context.Context) error {
	entries, err := readDirIfExists(b.Config.Paths.JS)
	if err != nil {
		return err
	}

	var pages []string
	for _, e := range entries {
		if e.IsDir() && e.Name() != config.CommonCopyDir {
			pages = append(pages, filepath.Join(b.Config.Paths.JS, e.Name()))
		}
	}

	return batch(ctx, pages, b.BuildPage)
}

// CopyPage is the development variant for a change at path inside a page
// directory: <out>/js/<page>/ is replaced with a copy of the source page
// directory. Copies of the same page run one at a time.
func (b *ScriptBuilder) CopyPage(ctx context.Context, path string) (err error) {
	page, nested := firstSegment(b.Config.Paths.JS, path)
	if !nested {
		return b.CopyModule(ctx, path)
	}

	start := time.Now()
	src := filepath.Join(b.Config.Paths.JS, page)
	dest := filepath.Join(b.Config.JSOut(), page)
	defer func() { b.record(KindScript, src, dest, start, err) }()

	b.Logger.Info(ctx, "copying page scripts", "page", page, "output", dest)

	lock, _ := b.copies.LoadOrStore(dest, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	return replaceDir(src, dest)
}

// CopyModule is the development variant for a top-level script: it is
// copied to <out>/js/<name>.
func (b *ScriptBuilder) CopyModule(ctx context.Context, path string) (err error) {
	start := time.Now()
	dest := filepath.Join(b.Config.JSOut(), filepath.Base(path))
	defer func() { b.record(KindScript, path, dest, start, err) }()

	b.Logger.Info(ctx, "copying module script", "output", dest)

	return copyFile(path, dest)
}

// CopyAll runs the development variant over the whole scripts root.
func (b *ScriptBuilder) CopyAll(ctx context.Context) error {
	entries, err := readDirIfExists(b.Config.Paths.JS)
	if err != nil {
		return err
	}

	items := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			// A path inside the directory selects the page copy.
			items = append(items, filepath.Join(b.Config.Paths.JS, e.Name(), "app.js"))
		} else if e.Type().IsRegular() {
			items = append(items, filepath.Join(b.Config.Paths.JS, e.Name()))
		}
	}

	return batch(ctx, items, b.CopyPage)
}

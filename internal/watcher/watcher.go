// Package watcher dispatches filesystem changes to rebuild actions.
//
// Each watched root has its own event loop, rule list and debounce cache.
// An event for a path runs the first rule whose pattern matches; the same
// path is then suppressed for the debounce window.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	kiterrors "github.com/xdevkit/xdevkit-cli/internal/errors"
	"github.com/xdevkit/xdevkit-cli/internal/logging"
)

// Directories never watched below a root.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
}

// Options configures a Dispatcher.
type Options struct {
	// Window is the debounce window; zero means DefaultWindow.
	Window time.Duration
	// Clock replaces time.Now in the debounce cache.
	Clock  Clock
	Logger logging.Logger
	// OnSuccess is called after an action completes without error.
	OnSuccess func(ctx context.Context, rule, path string)
	// OnFailure is called with the error of a failed action.
	OnFailure func(rule, path string, err error)
}

// Dispatcher matches changed paths against rules and runs actions.
type Dispatcher struct {
	root    string
	rules   []Rule
	cache   *DebounceCache
	logger  logging.Logger
	opts    Options
	pending sync.WaitGroup
}

// NewDispatcher creates a Dispatcher for paths below root.
func NewDispatcher(root string, rules []Rule, opts Options) (*Dispatcher, error) {
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, kiterrors.NewValidationError(kiterrors.ErrCodeConfigInvalid, err.Error()).
			WithComponent("watcher")
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Dispatcher{
		root:   filepath.Clean(root),
		rules:  compiled,
		cache:  NewDebounceCache(opts.Window, opts.Clock),
		logger: logger.WithComponent("watcher"),
		opts:   opts,
	}, nil
}

// Rel returns path relative to the root in slash form, and false for paths
// outside the root.
func (d *Dispatcher) Rel(path string) (string, bool) {
	rel, err := filepath.Rel(d.root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}

	return filepath.ToSlash(rel), true
}

// Handle dispatches a change of path. It returns the name of the rule that
// was scheduled, or "" when nothing matched or the path is suppressed.
// Actions run in the background, after the rule's settle delay if it has
// one. Wait blocks until they are done.
func (d *Dispatcher) Handle(ctx context.Context, path string) string {
	rel, ok := d.Rel(path)
	if !ok {
		return ""
	}

	for _, rule := range d.rules {
		if !rule.Match(rel) {
			continue
		}
		if !d.cache.Allow(path) {
			d.logger.Debug(ctx, "change suppressed", "rule", rule.Name, "path", rel)
			return ""
		}

		d.logger.Debug(ctx, "change matched", "rule", rule.Name, "path", rel, "settle", rule.Settle)
		run := func() {
			defer d.pending.Done()
			if ctx.Err() != nil {
				return
			}
			d.execute(ctx, rule, path)
		}

		d.pending.Add(1)
		if rule.Settle <= 0 {
			go run()
		} else {
			time.AfterFunc(rule.Settle, run)
		}

		return rule.Name
	}

	return ""
}

// Wait blocks until every scheduled action has finished.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

func (d *Dispatcher) execute(ctx context.Context, rule Rule, path string) {
	start := time.Now()
	if err := rule.Action(ctx, path); err != nil {
		d.logger.Error(ctx, err, "watch action failed", "rule", rule.Name, "path", path)
		if d.opts.OnFailure != nil {
			d.opts.OnFailure(rule.Name, path, err)
		}
		return
	}

	d.logger.Info(ctx, "rebuilt", "rule", rule.Name, "path", path, "duration_ms", time.Since(start).Milliseconds())
	if d.opts.OnSuccess != nil {
		d.opts.OnSuccess(ctx, rule.Name, path)
	}
}

// Config describes one watched root.
type Config struct {
	Root string
	// Recursive watches every directory below Root. Otherwise only Root
	// itself is watched.
	Recursive bool
	Rules     []Rule
	Options   Options
}

// Watcher runs the event loop for one root.
type Watcher struct {
	root       string
	recursive  bool
	dispatcher *Dispatcher
	logger     logging.Logger
}

// New creates a Watcher. Nothing is watched until Run.
func New(cfg Config) (*Watcher, error) {
	d, err := NewDispatcher(cfg.Root, cfg.Rules, cfg.Options)
	if err != nil {
		return nil, err
	}

	return &Watcher{
		root:       d.root,
		recursive:  cfg.Recursive,
		dispatcher: d,
		logger:     d.logger.With("root", d.root),
	}, nil
}

// Dispatcher returns the watcher's dispatcher.
func (w *Watcher) Dispatcher() *Dispatcher {
	return w.dispatcher
}

// Run watches the root until ctx is cancelled. It returns an error only if
// the root cannot be watched.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return kiterrors.WrapIO(err, "unable to create file watcher", w.root)
	}
	defer fw.Close()

	if w.recursive {
		err = w.addTree(fw, w.root)
	} else {
		err = w.add(fw, w.root)
	}
	if err != nil {
		return err
	}

	w.logger.Info(ctx, "watching", "recursive", w.recursive)
	defer w.dispatcher.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fw, event)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn(ctx, err, "file watcher error")
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, fw *fsnotify.Watcher, event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if w.recursive && event.Has(fsnotify.Create) {
			if err := w.addTree(fw, event.Name); err != nil {
				w.logger.Warn(ctx, err, "unable to watch new directory", "dir", event.Name)
			}
		}
		return
	}

	w.dispatcher.Handle(ctx, event.Name)
}

func (w *Watcher) add(fw *fsnotify.Watcher, dir string) error {
	if err := fw.Add(dir); err != nil {
		return kiterrors.WrapIO(err, "unable to watch directory", dir)
	}

	return nil
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return kiterrors.WrapIO(err, "unable to walk directory", path)
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDirs[d.Name()] {
			return filepath.SkipDir
		}

		return w.add(fw, path)
	})
}

// RunAll runs the watchers concurrently until ctx is cancelled or one of
// them fails to start.
func RunAll(ctx context.Context, watchers ...*Watcher) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range watchers {
		g.Go(func() error {
			return w.Run(ctx)
		})
	}

	return g.Wait()
}

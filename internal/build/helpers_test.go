package build

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/xdevkit/xdevkit-cli/internal/config"
	"github.com/xdevkit/xdevkit-cli/internal/pageconfig"
	"github.com/xdevkit/xdevkit-cli/internal/renderer"
	"github.com/xdevkit/xdevkit-cli/internal/toolchain"
)

type project struct {
	root     string
	cfg      *config.Config
	recorder *toolchain.Recorder
	store    *pageconfig.Store
	orch     *Orchestrator
}

// newProject lays out an empty project in a temp dir and wires an
// orchestrator that uses the Go template engine and a recording runner with
// fake tool behaviour.
func newProject(t *testing.T, pageConfig string) *project {
	t.Helper()
	root := t.TempDir()

	v := viper.New()
	v.Set("paths.js", filepath.Join(root, "src", "js"))
	v.Set("paths.css", filepath.Join(root, "src", "css"))
	v.Set("paths.pages", filepath.Join(root, "src", "page"))
	v.Set("paths.out", filepath.Join(root, "build"))
	v.Set("tailwind.input", filepath.Join(root, "src", "css", "tailwind.css"))
	v.Set("tailwind.config", filepath.Join(root, "tailwind.config.js"))
	v.Set("pages.engine", "go")
	cfg, err := config.LoadFrom(v)
	require.NoError(t, err)

	pages, err := pageconfig.Parse([]byte(pageConfig))
	require.NoError(t, err)
	store := pageconfig.NewStore(pages)

	rec := fakeTools(t)
	r, err := renderer.New(renderer.Options{Engine: "go"})
	require.NoError(t, err)

	return &project{
		root:     root,
		cfg:      cfg,
		recorder: rec,
		store:    store,
		orch:     NewOrchestrator(Deps{Config: cfg, Runner: rec}, r, store),
	}
}

func (p *project) write(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(p.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (p *project) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(p.root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func (p *project) names() []string {
	var names []string
	for _, c := range p.recorder.Commands() {
		names = append(names, c.Name)
	}
	return names
}

var betweenTags = regexp.MustCompile(`>\s+<`)

// fakeTools emulates the external tools closely enough to exercise the
// builders' file handling.
func fakeTools(t *testing.T) *toolchain.Recorder {
	rec := toolchain.NewRecorder()

	rec.Handle("esbuild", func(cmd toolchain.Command) (*toolchain.Result, error) {
		src, err := os.ReadFile(cmd.Args[0])
		if err != nil {
			return nil, err
		}
		out := strings.TrimPrefix(cmd.Args[1], "--outfile=")
		return &toolchain.Result{Command: cmd}, os.WriteFile(out, []byte("bundle("+string(src)+")"), 0o644)
	})
	rec.Handle("uglifyjs", func(cmd toolchain.Command) (*toolchain.Result, error) {
		src, err := os.ReadFile(cmd.Args[len(cmd.Args)-1])
		if err != nil {
			return nil, err
		}
		return &toolchain.Result{Command: cmd, Stdout: []byte("min:" + string(src))}, nil
	})
	rec.Handle("tailwindcss", func(cmd toolchain.Command) (*toolchain.Result, error) {
		out := cmd.Args[len(cmd.Args)-1]
		return &toolchain.Result{Command: cmd}, os.WriteFile(out, []byte("tw["+strings.Join(cmd.Env, ",")+"]"), 0o644)
	})
	rec.Handle("cleancss", func(cmd toolchain.Command) (*toolchain.Result, error) {
		src, err := os.ReadFile(cmd.Args[0])
		if err != nil {
			return nil, err
		}
		return &toolchain.Result{Command: cmd, Stdout: []byte("clean:" + string(src))}, nil
	})
	rec.Handle("html-minifier", func(cmd toolchain.Command) (*toolchain.Result, error) {
		src, err := os.ReadFile(cmd.Args[len(cmd.Args)-1])
		if err != nil {
			return nil, err
		}
		min := betweenTags.ReplaceAllString(strings.TrimSpace(string(src)), "><")
		return &toolchain.Result{Command: cmd, Stdout: []byte(min)}, nil
	})
	rec.Handle("js-beautify", func(cmd toolchain.Command) (*toolchain.Result, error) {
		path := cmd.Args[0]
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		pretty := strings.ReplaceAll(string(src), "><", ">\n    <")
		return &toolchain.Result{Command: cmd}, os.WriteFile(path, []byte(pretty+"\n"), 0o644)
	})

	return rec
}

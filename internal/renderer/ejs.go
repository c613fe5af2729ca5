package renderer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	kiterrors "github.com/xdevkit/xdevkit-cli/internal/errors"
	"github.com/xdevkit/xdevkit-cli/internal/toolchain"
)

// EJS renders templates with the ejs CLI. The context is handed over as a
// JSON data file and the HTML is read from stdout.
type EJS struct {
	runner toolchain.Runner
	tool   string
}

// NewEJS creates an ejs renderer using the given executable.
func NewEJS(runner toolchain.Runner, tool string) *EJS {
	return &EJS{runner: runner, tool: tool}
}

func (e *EJS) Name() string { return "ejs" }

func (e *EJS) Ext() string { return ".ejs" }

// Render runs `ejs <template> -f <data.json>`.
func (e *EJS) Render(ctx context.Context, templatePath string, data map[string]any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, kiterrors.NewConfigError(
			kiterrors.ErrCodePageConfigParse,
			fmt.Sprintf("page data for %s is not JSON encodable: %v", templatePath, err),
		)
	}

	f, err := os.CreateTemp("", "xdevkit-ejs-data-*.json")
	if err != nil {
		return nil, kiterrors.WrapIO(err, "unable to create ejs data file", "")
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(payload); err != nil {
		f.Close()
		return nil, kiterrors.WrapIO(err, "unable to write ejs data file", f.Name())
	}
	if err := f.Close(); err != nil {
		return nil, kiterrors.WrapIO(err, "unable to write ejs data file", f.Name())
	}

	result, err := e.runner.Run(ctx, toolchain.Command{
		Name: e.tool,
		Args: []string{templatePath, "-f", f.Name()},
	})
	if err != nil {
		return nil, err
	}

	return result.Stdout, nil
}

// Package scaffold creates a new project from the published sample archive.
package scaffold

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	kiterrors "github.com/xdevkit/xdevkit-cli/internal/errors"
	"github.com/xdevkit/xdevkit-cli/internal/logging"
	"github.com/xdevkit/xdevkit-cli/internal/validation"
)

const (
	// DefaultURL is the sample project archive.
	DefaultURL = "https://xdevkit.com/x/xdevkit-sample.tar.gz"
	// ArchiveRoot is the directory inside the archive that becomes the
	// project.
	ArchiveRoot = "xdevkit-sample"
	// NamePrefix starts generated project names.
	NamePrefix = "xdevkit-sample-"

	downloadTimeout = 30 * time.Minute
	alphanumeric    = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Executables are made executable after extraction.
var Executables = []string{
	"xdevkit/command/run.sh",
	"xdevkit/command/compile.sh",
	"xdevkit/command/watch.sh",
}

// Options configures an Installer.
type Options struct {
	// URL of the archive; DefaultURL when empty.
	URL string
	// Name of the project directory; generated when empty.
	Name string
	// Dir is the parent directory of the project; "." when empty.
	Dir    string
	Client *http.Client
	// Progress receives progress bars; nil hides them.
	Progress io.Writer
	Logger   logging.Logger
}

// Installer downloads and unpacks the sample project.
type Installer struct {
	opts   Options
	logger logging.Logger
}

// NewInstaller creates an Installer.
func NewInstaller(opts Options) *Installer {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: downloadTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Installer{opts: opts, logger: logger.WithComponent("scaffold")}
}

// Install creates <Dir>/<Name> from the archive and returns its path. An
// existing destination is refused; temporary files are removed whatever
// the outcome.
func (i *Installer) Install(ctx context.Context) (string, error) {
	name := i.opts.Name
	if name == "" {
		generated, err := RandomName()
		if err != nil {
			return "", err
		}
		name = generated
	}
	if err := validation.ValidateProjectName(name); err != nil {
		return "", kiterrors.WrapValidation(err, kiterrors.ErrCodeInvalidPath, "invalid project name")
	}
	if err := validation.ValidateURL(i.opts.URL); err != nil {
		return "", kiterrors.WrapValidation(err, kiterrors.ErrCodeInvalidPath, "invalid archive URL")
	}

	dest, err := validation.SafeJoin(i.opts.Dir, name)
	if err != nil {
		return "", kiterrors.WrapValidation(err, kiterrors.ErrCodePathTraversal, "invalid project name")
	}
	if _, err := os.Lstat(dest); err == nil {
		return "", kiterrors.NewValidationError(kiterrors.ErrCodeDestinationExists, "destination already exists: "+dest).
			WithFile(dest)
	}

	op := logging.StartOperation(i.logger, "init")

	archive, err := os.CreateTemp(i.opts.Dir, "__xdevkit_cli_download_*")
	if err != nil {
		return "", kiterrors.WrapIO(err, "unable to create download file", i.opts.Dir)
	}
	defer os.Remove(archive.Name())
	defer archive.Close()

	if err := i.download(ctx, archive); err != nil {
		op.EndWithError(ctx, err)
		return "", err
	}
	i.logger.Info(ctx, "download done", "url", i.opts.URL)

	tmpDir, err := os.MkdirTemp(i.opts.Dir, "__xdevkit_cli_uncompressed_*")
	if err != nil {
		return "", kiterrors.WrapIO(err, "unable to create extraction directory", i.opts.Dir)
	}
	defer os.RemoveAll(tmpDir)

	if err := i.extract(archive, tmpDir); err != nil {
		op.EndWithError(ctx, err)
		return "", err
	}
	i.logger.Info(ctx, "uncompress done")

	src := filepath.Join(tmpDir, ArchiveRoot)
	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		err := kiterrors.NewIOError(kiterrors.ErrCodeArchiveInvalid, "archive has no "+ArchiveRoot+"/ directory", err)
		op.EndWithError(ctx, err)
		return "", err
	}
	if err := os.Rename(src, dest); err != nil {
		return "", kiterrors.WrapIO(err, "unable to move project into place", dest)
	}

	for _, rel := range Executables {
		path := filepath.Join(dest, filepath.FromSlash(rel))
		if err := os.Chmod(path, 0o755); err != nil {
			i.logger.Warn(ctx, err, "unable to mark script executable", "path", path)
		}
	}

	op.End(ctx, "project", dest)

	return dest, nil
}

func (i *Installer) download(ctx context.Context, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.opts.URL, nil)
	if err != nil {
		return kiterrors.ErrDownloadFailed(i.opts.URL, err)
	}

	resp, err := i.opts.Client.Do(req)
	if err != nil {
		return kiterrors.ErrDownloadFailed(i.opts.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return kiterrors.ErrDownloadFailed(i.opts.URL, fmt.Errorf("unexpected status %s", resp.Status)).
			WithContext("status", resp.StatusCode)
	}

	bar := i.progressBar(resp.ContentLength, "download")
	if _, err := io.Copy(io.MultiWriter(w, bar), resp.Body); err != nil {
		return kiterrors.ErrDownloadFailed(i.opts.URL, err)
	}
	_ = bar.Finish()

	return nil
}

func (i *Installer) progressBar(length int64, desc string) *progressbar.ProgressBar {
	if i.opts.Progress == nil {
		return progressbar.NewOptions64(length, progressbar.OptionSetVisibility(false))
	}

	return progressbar.NewOptions64(length,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWriter(i.opts.Progress),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(i.opts.Progress, "\n")
		}),
	)
}

// RandomName returns NamePrefix followed by four random alphanumerics.
func RandomName() (string, error) {
	suffix := make([]byte, 4)
	max := big.NewInt(int64(len(alphanumeric)))
	for n := range suffix {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", kiterrors.NewInternalError(kiterrors.ErrCodeInternalError, "unable to generate project name", err)
		}
		suffix[n] = alphanumeric[idx.Int64()]
	}

	return NamePrefix + string(suffix), nil
}

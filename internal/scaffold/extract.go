package scaffold

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/ulikunitz/xz"

	kiterrors "github.com/xdevkit/xdevkit-cli/internal/errors"
	"github.com/xdevkit/xdevkit-cli/internal/validation"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// extract unpacks the downloaded archive into dir. The compression is
// detected from the content, so .tar.gz, .tgz and .tar.xz all work.
func (i *Installer) extract(archive *os.File, dir string) error {
	info, err := archive.Stat()
	if err != nil {
		return kiterrors.WrapIO(err, "unable to stat archive", archive.Name())
	}
	if _, err := archive.Seek(0, io.SeekStart); err != nil {
		return kiterrors.WrapIO(err, "unable to rewind archive", archive.Name())
	}

	bar := i.progressBar(info.Size(), "extract")
	defer func() { _ = bar.Finish() }()

	reader := progressbar.NewReader(archive, bar)
	r, err := decompress(&reader)
	if err != nil {
		return err
	}

	return extractTar(r, dir)
}

// decompress wraps r in the decoder matching its magic bytes.
func decompress(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(xzMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, kiterrors.NewIOError(kiterrors.ErrCodeArchiveInvalid, "unable to read archive header", err)
	}

	switch {
	case bytes.HasPrefix(head, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, kiterrors.NewIOError(kiterrors.ErrCodeArchiveInvalid, "invalid gzip archive", err)
		}
		return gz, nil
	case bytes.HasPrefix(head, xzMagic):
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, kiterrors.NewIOError(kiterrors.ErrCodeArchiveInvalid, "invalid xz archive", err)
		}
		return xr, nil
	default:
		return nil, kiterrors.NewIOError(kiterrors.ErrCodeArchiveInvalid, "archive format not supported", nil)
	}
}

// extractTar writes the entries of a tar stream below dir. Entries and link
// targets resolving outside dir are rejected, including paths that reach
// outside through links extracted earlier.
func extractTar(r io.Reader, dir string) error {
	root, err := realPath(dir)
	if err != nil {
		return kiterrors.WrapIO(err, "unable to resolve extraction directory", dir)
	}
	archive := tar.NewReader(r)

	for {
		item, err := archive.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return kiterrors.NewIOError(kiterrors.ErrCodeArchiveInvalid, "unable to read archive entry", err)
		}

		dest, err := validation.SafeJoin(dir, item.Name)
		if err != nil {
			return kiterrors.WrapValidation(err, kiterrors.ErrCodePathTraversal, "unsafe archive entry")
		}
		parent, err := realPath(filepath.Dir(dest))
		if err != nil {
			return kiterrors.WrapIO(err, "unable to resolve entry directory", dest)
		}
		if !within(root, parent) {
			return kiterrors.ErrPathTraversal(item.Name)
		}

		switch item.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return kiterrors.WrapIO(err, "unable to create directory", dest)
			}
		case tar.TypeReg:
			if err := writeEntry(archive, dest, item.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(item.Linkname) {
				return kiterrors.NewValidationError(kiterrors.ErrCodePathTraversal,
					fmt.Sprintf("absolute symlink target in archive: %s -> %s", item.Name, item.Linkname))
			}
			if !leadingDotDotOnly(item.Linkname) || !within(root, filepath.Join(parent, item.Linkname)) {
				return kiterrors.ErrPathTraversal(item.Name + " -> " + item.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return kiterrors.WrapIO(err, "unable to create directory", filepath.Dir(dest))
			}
			if err := os.Symlink(item.Linkname, dest); err != nil {
				return kiterrors.WrapIO(err, "unable to create symlink", dest)
			}
		default:
			// Hard links, devices and fifos are not part of a project tree.
		}
	}
}

// realPath resolves the symlinks of the longest existing prefix of path and
// appends the rest unchanged.
func realPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	var rest []string
	for p := abs; ; {
		resolved, err := filepath.EvalSymlinks(p)
		if err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(p)
		if parent == p {
			return abs, nil
		}
		rest = append([]string{filepath.Base(p)}, rest...)
		p = parent
	}
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// leadingDotDotOnly reports whether ".." appears only at the start of a link
// target. A ".." after a named component would be applied on disk after
// following that component, which lexical checks cannot see.
func leadingDotDotOnly(target string) bool {
	named := false
	for _, part := range strings.Split(filepath.ToSlash(target), "/") {
		switch part {
		case "..":
			if named {
				return false
			}
		case "", ".":
		default:
			named = true
		}
	}

	return true
}

func writeEntry(r io.Reader, dest string, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return kiterrors.WrapIO(err, "unable to create directory", filepath.Dir(dest))
	}

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0o600)
	if err != nil {
		return kiterrors.WrapIO(err, "unable to create file", dest)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return kiterrors.WrapIO(err, "unable to extract file", dest)
	}
	if err := f.Close(); err != nil {
		return kiterrors.WrapIO(err, "unable to extract file", dest)
	}

	return nil
}

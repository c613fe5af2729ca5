package build

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	kiterrors "github.com/xdevkit/xdevkit-cli/internal/errors"
)

// readDirIfExists lists dir, treating a missing directory as empty.
func readDirIfExists(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, kiterrors.WrapIO(err, "unable to read directory", dir)
	}

	return entries, nil
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return kiterrors.WrapIO(err, "unable to create directory", dir)
	}

	return nil
}

func writeFile(path string, data []byte) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return kiterrors.WrapIO(err, "unable to write file", path)
	}

	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return kiterrors.WrapIO(err, "unable to open file", src)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return kiterrors.WrapIO(err, "unable to stat file", src)
	}

	if err := ensureDir(filepath.Dir(dest)); err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return kiterrors.WrapIO(err, "unable to create file", dest)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return kiterrors.WrapIO(err, "unable to copy file", dest)
	}
	if err := out.Close(); err != nil {
		return kiterrors.WrapIO(err, "unable to copy file", dest)
	}

	return nil
}

func copyDir(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return kiterrors.WrapIO(err, "unable to walk directory", path)
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return kiterrors.WrapIO(err, "unable to resolve path", path)
		}
		target := filepath.Join(dest, rel)

		if d.IsDir() {
			return ensureDir(target)
		}
		if !d.Type().IsRegular() {
			return nil
		}

		return copyFile(path, target)
	})
}

// replaceDir makes dest an exact copy of src.
func replaceDir(src, dest string) error {
	if err := os.RemoveAll(dest); err != nil {
		return kiterrors.WrapIO(err, "unable to remove directory", dest)
	}

	return copyDir(src, dest)
}

// samePath compares two paths after making them absolute.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}

	return absA == absB
}

// firstSegment returns the first element of path relative to root, and
// whether path lies in a subdirectory of root.
func firstSegment(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}

	parts := strings.SplitN(filepath.ToSlash(rel), "/", 2)
	if len(parts) < 2 {
		return parts[0], false
	}

	return parts[0], true
}

// Package validation holds the safety checks applied to user-supplied paths,
// tool names, project names and URLs before they reach the filesystem or a
// subprocess.
package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var shellMeta = []string{";", "&", "|", "$", "`", "<", ">", "\n", "\r", "\x00"}

// ValidateToolName validates an executable name or path taken from
// configuration. Tools are always started without a shell, but a value
// carrying shell syntax is almost certainly a mistake.
func ValidateToolName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	for _, char := range append(shellMeta, "(", ")", "\"", "'", " ") {
		if strings.Contains(name, char) {
			return fmt.Errorf("tool name %q contains dangerous character %q", name, char)
		}
	}

	return nil
}

// ValidatePath validates a configured file or directory path.
func ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path cannot be empty")
	}
	for _, char := range shellMeta {
		if strings.Contains(path, char) {
			return fmt.Errorf("path %q contains dangerous character %q", path, char)
		}
	}

	return nil
}

var projectNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateProjectName validates the directory name a scaffold is installed
// under. It must be a single path element.
func ValidateProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("project name cannot be empty")
	}
	if len(name) > 128 {
		return fmt.Errorf("project name too long: %d characters", len(name))
	}
	if !projectNamePattern.MatchString(name) {
		return fmt.Errorf("invalid project name %q: use letters, digits, '.', '_' or '-'", name)
	}

	return nil
}

// SafeJoin joins an archive entry name onto root and rejects names that
// would resolve outside of root.
func SafeJoin(root, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty entry name")
	}
	if strings.Contains(name, "\x00") {
		return "", fmt.Errorf("entry name contains NUL byte")
	}
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("absolute entry name not allowed: %s", name)
	}

	joined := filepath.Join(root, filepath.FromSlash(name))
	rel, err := filepath.Rel(root, joined)
	if err != nil {
		return "", fmt.Errorf("resolve entry %s: %w", name, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("entry escapes extraction root: %s", name)
	}

	return joined, nil
}

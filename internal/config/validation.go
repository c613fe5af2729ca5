package config

import (
	"fmt"
	"os"
	"strings"
)

// Issue is a non-fatal finding about a loaded configuration.
type Issue struct {
	Field       string
	Value       string
	Message     string
	Suggestions []string
}

// CheckResult holds the findings of Check.
type CheckResult struct {
	Warnings []Issue
}

// HasWarnings returns true if there are any warnings.
func (r *CheckResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// String returns a formatted list of all findings.
func (r *CheckResult) String() string {
	var builder strings.Builder

	for _, w := range r.Warnings {
		builder.WriteString(fmt.Sprintf("  • %s (%s): %s\n", w.Field, w.Value, w.Message))
		for _, suggestion := range w.Suggestions {
			builder.WriteString(fmt.Sprintf("    %s\n", suggestion))
		}
	}

	return builder.String()
}

// Check inspects the project tree a Config points at. Missing source
// directories are legal (they build to empty output), but usually mean the
// command was started from the wrong directory, so they are reported.
func Check(config *Config) *CheckResult {
	result := &CheckResult{}

	dirs := []struct{ field, path string }{
		{"paths.js", config.Paths.JS},
		{"paths.css", config.Paths.CSS},
		{"paths.pages", config.Paths.Pages},
	}
	for _, d := range dirs {
		info, err := os.Stat(d.path)
		switch {
		case os.IsNotExist(err):
			result.Warnings = append(result.Warnings, Issue{
				Field:   d.field,
				Value:   d.path,
				Message: "directory does not exist",
				Suggestions: []string{
					"Run the command from the project root, or pass <currentDir> / --chdir",
				},
			})
		case err == nil && !info.IsDir():
			result.Warnings = append(result.Warnings, Issue{
				Field:   d.field,
				Value:   d.path,
				Message: "not a directory",
			})
		}
	}

	if _, err := os.Stat(config.Pages.Config); os.IsNotExist(err) {
		result.Warnings = append(result.Warnings, Issue{
			Field:   "pages.config",
			Value:   config.Pages.Config,
			Message: "page config file does not exist",
			Suggestions: []string{
				"Create it with a _common entry and one entry per page",
			},
		})
	}

	if _, err := os.Stat(config.Tailwind.Input); err == nil {
		if _, err := os.Stat(config.Tailwind.Config); os.IsNotExist(err) {
			result.Warnings = append(result.Warnings, Issue{
				Field:   "tailwind.config",
				Value:   config.Tailwind.Config,
				Message: "tailwind input exists but its config file does not",
			})
		}
	}

	return result
}

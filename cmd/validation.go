package cmd

import (
	"errors"
	"fmt"
	"strings"
)

// validateChoice rejects a value outside allowed, suggesting the closest
// allowed value when one shares its prefix.
func validateChoice(name, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}

	msg := fmt.Sprintf("invalid %s %q, must be one of: %s", name, value, strings.Join(allowed, ", "))
	if s := suggest(value, allowed); s != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", s)
	}

	return errors.New(msg)
}

func suggest(value string, allowed []string) string {
	value = strings.ToLower(value)
	if value == "" {
		return ""
	}
	for _, a := range allowed {
		if strings.HasPrefix(a, value) || strings.HasPrefix(value, a) {
			return a
		}
	}

	return ""
}

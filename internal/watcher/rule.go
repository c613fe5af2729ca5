package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/gobwas/glob"
)

// Action rebuilds whatever depends on the changed file at path.
type Action func(ctx context.Context, path string) error

// Rule binds a glob pattern to an action. Patterns are matched against the
// slash separated path relative to the watched root: `*` stays within one
// path segment and `**` spans segments.
type Rule struct {
	Name    string
	Pattern string
	Action  Action
	// Settle delays the action so that editors finish writing first.
	Settle time.Duration

	matcher glob.Glob
}

// Match reports whether the root relative path rel matches the rule.
func (r Rule) Match(rel string) bool {
	return r.matcher != nil && r.matcher.Match(rel)
}

func compileRules(rules []Rule) ([]Rule, error) {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		if r.Action == nil {
			return nil, fmt.Errorf("watch rule %q has no action", r.Name)
		}
		g, err := glob.Compile(r.Pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("watch rule %q: invalid pattern %q: %w", r.Name, r.Pattern, err)
		}
		r.matcher = g
		out[i] = r
	}

	return out, nil
}

// Literal turns a relative path into a pattern that matches only that path.
func Literal(rel string) string {
	return glob.QuoteMeta(rel)
}

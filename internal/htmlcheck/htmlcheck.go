// Package htmlcheck compares rendered HTML documents by their visible text,
// ignoring markup formatting, comments and embedded script or style bodies.
// The production build uses it to reject minifier or beautifier output that
// lost content.
package htmlcheck

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// Fingerprint returns the document's text content with every whitespace
// character removed. Text inside script, style and template elements is
// skipped because post-processors are allowed to rewrite it.
func Fingerprint(doc []byte) (string, error) {
	z := html.NewTokenizer(bytes.NewReader(doc))

	var b strings.Builder
	skip := ""
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return "", fmt.Errorf("tokenize html: %w", err)
			}
			return b.String(), nil
		case html.StartTagToken:
			name, _ := z.TagName()
			if skip == "" && isOpaque(string(name)) {
				skip = string(name)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == skip {
				skip = ""
			}
		case html.TextToken:
			if skip != "" {
				continue
			}
			for _, r := range string(z.Text()) {
				if !unicode.IsSpace(r) {
					b.WriteRune(r)
				}
			}
		}
	}
}

func isOpaque(tag string) bool {
	switch tag {
	case "script", "style", "template":
		return true
	}
	return false
}

// Compare returns nil when both documents have the same fingerprint, and
// otherwise an error pointing at the first differing text.
func Compare(want, got []byte) error {
	a, err := Fingerprint(want)
	if err != nil {
		return err
	}
	b, err := Fingerprint(got)
	if err != nil {
		return err
	}
	if a == b {
		return nil
	}

	i := 0
	for i < len(a) && i < len(b) && a[i] == b[i] {
		i++
	}

	return fmt.Errorf("text differs at offset %d: want %q, got %q", i, excerpt(a, i), excerpt(b, i))
}

// Equivalent reports whether two documents carry the same text.
func Equivalent(a, b []byte) bool {
	return Compare(a, b) == nil
}

func excerpt(s string, at int) string {
	end := at + 24
	if end > len(s) {
		end = len(s)
	}
	if at > len(s) {
		at = len(s)
	}
	return s[at:end]
}

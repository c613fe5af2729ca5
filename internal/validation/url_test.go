package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"default archive", "https://xdevkit.com/x/xdevkit-sample.tar.gz", false},
		{"local test server", "http://127.0.0.1:43121/sample.tgz", false},
		{"query string", "https://example.com/a.tgz?v=1&arch=x", false},
		{"file scheme", "file:///etc/passwd", true},
		{"javascript scheme", "javascript:alert(1)", true},
		{"no host", "http://", true},
		{"not a url", "not-a-url", true},
		{"command injection", "https://example.com/a.tgz;rm -rf /", true},
		{"backtick", "https://example.com/`id`", true},
		{"crlf", "https://example.com/a\r\nHost: evil", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

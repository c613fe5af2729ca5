package htmlcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rendered = `<!DOCTYPE html>
<html>
  <head>
    <title>Hi | X</title>
    <style>
      .a { color: red; }
    </style>
  </head>
  <body>
    <!-- navigation -->
    <h1>Hello &amp; welcome</h1>
    <p>
      Some   text
    </p>
    <script type="text/javascript">
      var x = 1;
    </script>
  </body>
</html>
`

// What html-minifier produces with the build's flag set.
const minified = `<!doctype html><title>Hi | X</title><style>.a{color:red}</style><h1>Hello &amp; welcome</h1><p>Some text</p><script>var x=1</script>`

// What js-beautify -r produces.
const beautified = `<!DOCTYPE html>
<html>

<head>
    <title>Hi | X</title>
    <style>
      .a { color: red; }
    </style>
</head>

<body>
    <!-- navigation -->
    <h1>Hello &amp; welcome</h1>
    <p> Some text </p>
    <script type="text/javascript">
      var x = 1;
    </script>
</body>

</html>
`

func TestFingerprint(t *testing.T) {
	fp, err := Fingerprint([]byte(rendered))
	require.NoError(t, err)
	assert.Equal(t, "Hi|XHello&welcomeSometext", fp)
}

func TestEquivalentAcrossPostProcessing(t *testing.T) {
	assert.True(t, Equivalent([]byte(rendered), []byte(minified)))
	assert.True(t, Equivalent([]byte(rendered), []byte(beautified)))
	assert.True(t, Equivalent([]byte(minified), []byte(beautified)))
}

func TestCompareDetectsLostContent(t *testing.T) {
	truncated := `<!doctype html><title>Hi | X</title><h1>Hello</h1>`

	err := Compare([]byte(rendered), []byte(truncated))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset")

	assert.Error(t, Compare([]byte(rendered), nil))
}

func TestFingerprintEmpty(t *testing.T) {
	fp, err := Fingerprint(nil)
	require.NoError(t, err)
	assert.Empty(t, fp)
}

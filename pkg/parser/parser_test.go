package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"doc-intelligence-be/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_PlainText(t *testing.T) {
	reg := DefaultRegistry()

	res, err := reg.Parse(context.Background(), strings.NewReader("page one\r\n\fpage two\fpage three"), "text/plain; charset=utf-8")
	require.NoError(t, err)

	assert.Equal(t, "plaintext", res.Parser)
	assert.Equal(t, 3, res.Pages)
	assert.NotContains(t, res.Text, "\r")
}

func TestRegistry_UnsupportedType(t *testing.T) {
	_, err := DefaultRegistry().Parse(context.Background(), strings.NewReader("%PDF"), "application/pdf")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestRegistry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DefaultRegistry().Parse(ctx, strings.NewReader("text"), "text/plain")
	assert.Error(t, err)
}

func TestRegistry_ParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("---\ntitle: x\n---\n# Intro\nBody <!-- hidden -->text"), 0o644))

	res, err := DefaultRegistry().ParseFile(context.Background(), path, "text/markdown")
	require.NoError(t, err)

	assert.Equal(t, "markdown", res.Parser)
	assert.Equal(t, "# Intro\nBody text", res.Text)
	assert.Equal(t, 1, res.Pages)

	_, err = DefaultRegistry().ParseFile(context.Background(), filepath.Join(dir, "missing.txt"), "text/plain")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestHTMLParser(t *testing.T) {
	doc := `<html><head><style>body{}</style><script>var x = 1;</script></head>
<body><h2>Setup</h2><p>Install the   tool.</p><p>Run it &amp; relax.</p></body></html>`

	text, err := NewHTMLParser().Parse(context.Background(), strings.NewReader(doc))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(text, "## Setup"), text)
	assert.Contains(t, text, "Install the tool.")
	assert.Contains(t, text, "Run it & relax.")
	assert.NotContains(t, text, "var x")
	assert.NotContains(t, text, "body{}")
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		declared string
		want     string
	}{
		{"declared wins", "a.bin", "text/plain", "text/plain"},
		{"markdown by extension", "README.md", "application/octet-stream", "text/markdown"},
		{"text by extension", "notes.txt", "", "text/plain"},
		{"params stripped", "x", "text/html; charset=utf-8", "text/html"},
		{"unknown", "blob", "", "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectMIMEType(tt.filename, tt.declared))
		})
	}
}

// Package parser extracts plain text from uploaded documents so it can be
// chunked. Parsers are selected by MIME type through a Registry.
package parser

import (
	"context"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"doc-intelligence-be/pkg/apperror"
	"doc-intelligence-be/pkg/chunker"
)

// Result is the text of a parsed document. Page boundaries are kept as
// form feeds so the chunker can attribute pages.
type Result struct {
	Text   string
	Pages  int
	Parser string
}

type Parser interface {
	Name() string
	SupportedMIMETypes() []string
	Parse(ctx context.Context, r io.Reader) (string, error)
}

type Registry struct {
	parsers map[string]Parser
}

func NewRegistry(parsers ...Parser) *Registry {
	r := &Registry{parsers: make(map[string]Parser)}
	for _, p := range parsers {
		r.Register(p)
	}
	return r
}

// DefaultRegistry knows plain text, markdown and HTML.
func DefaultRegistry() *Registry {
	return NewRegistry(NewPlainTextParser(), NewMarkdownParser(), NewHTMLParser())
}

// Register adds p for each of its MIME types, replacing earlier entries.
func (r *Registry) Register(p Parser) {
	for _, mt := range p.SupportedMIMETypes() {
		r.parsers[mt] = p
	}
}

func (r *Registry) Supports(mimeType string) bool {
	_, ok := r.parsers[baseMIMEType(mimeType)]
	return ok
}

func (r *Registry) Lookup(mimeType string) (Parser, error) {
	p, ok := r.parsers[baseMIMEType(mimeType)]
	if !ok {
		return nil, apperror.Validation("unsupported document type %q", mimeType)
	}
	return p, nil
}

// Parse reads from rd with the parser registered for mimeType.
func (r *Registry) Parse(ctx context.Context, rd io.Reader, mimeType string) (*Result, error) {
	p, err := r.Lookup(mimeType)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, apperror.FromContext(err, apperror.KindInternal, "parse aborted")
	}

	text, err := p.Parse(ctx, rd)
	if err != nil {
		return nil, apperror.FromContext(err, apperror.KindValidation, "%s parser failed", p.Name())
	}
	if err := ctx.Err(); err != nil {
		return nil, apperror.FromContext(err, apperror.KindInternal, "parse aborted")
	}

	text = normalizeText(text)
	return &Result{
		Text:   text,
		Pages:  chunker.CountPages(text),
		Parser: p.Name(),
	}, nil
}

func (r *Registry) ParseFile(ctx context.Context, path, mimeType string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindNotFound, err, "open %s", filepath.Base(path))
	}
	defer f.Close()
	return r.Parse(ctx, f, mimeType)
}

// DetectMIMEType prefers the extension of filename over a generic declared type.
func DetectMIMEType(filename, declared string) string {
	declared = baseMIMEType(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt", ".text", ".log":
		return "text/plain"
	}
	if byExt := baseMIMEType(mime.TypeByExtension(ext)); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}

func baseMIMEType(mimeType string) string {
	if mimeType == "" {
		return ""
	}
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mediaType
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

func normalizeText(text string) string {
	text = strings.TrimPrefix(text, "\ufeff")
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\uFFFD")
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

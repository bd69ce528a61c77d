package parser

import (
	"context"
	"io"
)

// PlainTextParser returns the bytes as text. Form feeds mark page breaks.
type PlainTextParser struct{}

func NewPlainTextParser() *PlainTextParser {
	return &PlainTextParser{}
}

func (p *PlainTextParser) Name() string {
	return "plaintext"
}

func (p *PlainTextParser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
		"text/tab-separated-values",
		"application/json",
		"application/xml",
		"text/xml",
		"text/yaml",
	}
}

func (p *PlainTextParser) Parse(_ context.Context, r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

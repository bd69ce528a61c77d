package parser

import (
	"context"
	"io"
	"regexp"
	"strings"
)

var (
	frontMatterRegex = regexp.MustCompile(`(?s)\A---\n.*?\n---\n`)
	htmlCommentRegex = regexp.MustCompile(`(?s)<!--.*?-->`)
)

// MarkdownParser keeps headings intact so citations can name sections.
// YAML front matter and HTML comments are dropped.
type MarkdownParser struct{}

func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{}
}

func (p *MarkdownParser) Name() string {
	return "markdown"
}

func (p *MarkdownParser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

func (p *MarkdownParser) Parse(_ context.Context, r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	text = frontMatterRegex.ReplaceAllString(text, "")
	text = htmlCommentRegex.ReplaceAllString(text, "")
	return text, nil
}

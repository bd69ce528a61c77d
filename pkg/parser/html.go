package parser

import (
	"context"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var blankLinesRegex = regexp.MustCompile(`\n{3,}`)

// HTMLParser extracts visible text. h1-h6 become markdown headings.
type HTMLParser struct{}

func NewHTMLParser() *HTMLParser {
	return &HTMLParser{}
}

func (p *HTMLParser) Name() string {
	return "html"
}

func (p *HTMLParser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

func (p *HTMLParser) Parse(ctx context.Context, r io.Reader) (string, error) {
	var b strings.Builder
	z := html.NewTokenizer(r)
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return "", err
			}
			text := blankLinesRegex.ReplaceAllString(b.String(), "\n\n")
			return strings.TrimSpace(text), nil

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.Data {
			case "script", "style", "noscript", "template":
				if tok.Type == html.StartTagToken {
					skip++
				}
			case "h1", "h2", "h3", "h4", "h5", "h6":
				b.WriteString("\n\n" + strings.Repeat("#", int(tok.Data[1]-'0')) + " ")
			case "p", "div", "section", "article", "li", "tr", "br", "hr":
				b.WriteString("\n")
			}

		case html.EndTagToken:
			tok := z.Token()
			switch tok.Data {
			case "script", "style", "noscript", "template":
				if skip > 0 {
					skip--
				}
			case "h1", "h2", "h3", "h4", "h5", "h6", "p", "div", "section", "article":
				b.WriteString("\n")
			}

		case html.TextToken:
			if skip > 0 {
				continue
			}
			text := strings.Join(strings.Fields(string(z.Text())), " ")
			if text == "" {
				continue
			}
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") && !strings.HasSuffix(b.String(), " ") {
				b.WriteString(" ")
			}
			b.WriteString(text)
		}

		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
}

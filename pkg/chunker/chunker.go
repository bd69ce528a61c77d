// Package chunker splits extracted document text into overlapping,
// page-attributed segments for embedding.
package chunker

import (
	"regexp"
	"strconv"
	"strings"

	"doc-intelligence-be/pkg/apperror"
)

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200

	// PageDelimiter is the form feed emitted between pages by the parsers.
	PageDelimiter = '\f'
)

var pageMarker = regexp.MustCompile(`(?m)^-{2,}\s*[Pp]age\s+(\d+)\s*-{2,}\s*$`)

// Segment is one window of the source text. Start and End are character
// (rune) offsets, End exclusive.
type Segment struct {
	Text  string
	Start int
	End   int
}

type Config struct {
	ChunkSize int
	Overlap   int
}

func DefaultConfig() Config {
	return Config{ChunkSize: DefaultChunkSize, Overlap: DefaultOverlap}
}

func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return apperror.Configuration("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.Overlap < 0 {
		return apperror.Configuration("overlap must not be negative, got %d", c.Overlap)
	}
	if c.Overlap >= c.ChunkSize {
		return apperror.Configuration("overlap %d must be smaller than chunk size %d", c.Overlap, c.ChunkSize)
	}
	return nil
}

// ChunkText walks text left to right producing windows of chunkSize
// characters, each starting chunkSize-overlap after the previous one.
// The final window may be shorter. Invalid parameters fail before any work.
func ChunkText(text string, chunkSize int, overlap int) ([]Segment, error) {
	if err := (Config{ChunkSize: chunkSize, Overlap: overlap}).Validate(); err != nil {
		return nil, err
	}

	runes := []rune(text)
	totalLen := len(runes)
	if totalLen == 0 {
		return []Segment{}, nil
	}

	step := chunkSize - overlap
	segments := make([]Segment, 0, totalLen/step+1)

	for start := 0; start < totalLen; start += step {
		end := start + chunkSize
		if end > totalLen {
			end = totalLen
		}

		segments = append(segments, Segment{
			Text:  string(runes[start:end]),
			Start: start,
			End:   end,
		})

		if end == totalLen {
			break
		}
	}

	return segments, nil
}

// ExtractPageFromChunk estimates the 1-based page a chunk starts on by
// counting page delimiters in fullText before startOffset. Form feeds take
// precedence; otherwise "--- Page N ---" markers are honoured. Without any
// delimiter the page is 1.
func ExtractPageFromChunk(chunkText string, startOffset int, fullText string) int {
	runes := []rune(fullText)
	if startOffset < 0 {
		startOffset = 0
	}
	if startOffset > len(runes) {
		startOffset = len(runes)
	}
	prefix := string(runes[:startOffset])

	if strings.ContainsRune(fullText, PageDelimiter) {
		return strings.Count(prefix, string(PageDelimiter)) + 1
	}

	// A marker at the very start of the chunk belongs to the chunk's page.
	window := prefix
	if head := firstLine(chunkText); pageMarker.MatchString(head) {
		window = prefix + head
	}

	matches := pageMarker.FindAllStringSubmatch(window, -1)
	if len(matches) == 0 {
		return 1
	}
	page, err := strconv.Atoi(matches[len(matches)-1][1])
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// CountPages returns the number of form-feed separated pages in text.
func CountPages(text string) int {
	if text == "" {
		return 0
	}
	return strings.Count(text, string(PageDelimiter)) + 1
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

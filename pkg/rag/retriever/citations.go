package retriever

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const SnippetLength = 200

var headingRegex = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]+(.+?)[ \t]*#*[ \t]*$`)

type Citation struct {
	DocumentName string  `json:"document_name"`
	Page         int     `json:"page"`
	Snippet      string  `json:"snippet"`
	Section      string  `json:"section,omitempty"`
	Similarity   float64 `json:"similarity"`
}

// ExtractCitations keeps one citation per (document, page): the first one
// in rank order, which is the highest scoring because results arrive sorted.
// Documents are told apart by id; the name is only used when the id is unset.
func ExtractCitations(results []Result) []Citation {
	type key struct {
		id       uuid.UUID
		document string
		page     int
	}
	seen := make(map[key]int)
	citations := make([]Citation, 0, len(results))

	for _, res := range results {
		doc := res.DocumentName
		if doc == "" {
			doc = res.DocumentId.String()
		}
		k := key{id: res.DocumentId, page: res.PageNumber}
		if res.DocumentId == uuid.Nil {
			k.document = doc
		}
		if idx, ok := seen[k]; ok {
			if res.Similarity > citations[idx].Similarity {
				citations[idx] = newCitation(doc, res)
			}
			continue
		}
		seen[k] = len(citations)
		citations = append(citations, newCitation(doc, res))
	}
	return citations
}

func newCitation(doc string, res Result) Citation {
	return Citation{
		DocumentName: doc,
		Page:         res.PageNumber,
		Snippet:      snippet(res.Content),
		Section:      section(res.Content),
		Similarity:   res.Similarity,
	}
}

func snippet(content string) string {
	text := strings.Join(strings.Fields(content), " ")
	runes := []rune(text)
	if len(runes) <= SnippetLength {
		return text
	}
	return strings.TrimSpace(string(runes[:SnippetLength])) + "..."
}

func section(content string) string {
	m := headingRegex.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

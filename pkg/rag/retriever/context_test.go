package retriever

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestFormatRetrievalContext(t *testing.T) {
	results := []Result{
		{DocumentName: "manual.pdf", PageNumber: 3, Content: "  Press the red button.\n"},
		{DocumentName: "faq.md", PageNumber: 1, Content: "Reset takes a minute."},
		{PageNumber: 2, Content: "Orphan passage."},
	}

	got := FormatRetrievalContext(results)

	want := strings.Join([]string{
		"[Source 1: manual.pdf, page 3]\nPress the red button.",
		"[Source 2: faq.md, page 1]\nReset takes a minute.",
		"[Source 3: Unknown document, page 2]\nOrphan passage.",
	}, "\n\n---\n\n")
	assert.Equal(t, want, got)
	assert.Empty(t, FormatRetrievalContext(nil))
}

func TestExtractCitations(t *testing.T) {
	docA := uuid.New()
	long := strings.Repeat("word ", 60)

	results := []Result{
		{DocumentId: docA, DocumentName: "a.md", PageNumber: 1, Similarity: 0.9, Content: "## Installation\nRun the installer."},
		{DocumentName: "b.txt", PageNumber: 4, Similarity: 0.8, Content: long},
		{DocumentId: docA, DocumentName: "a.md", PageNumber: 1, Similarity: 0.7, Content: "Same page, lower score."},
		{DocumentName: "a.md", PageNumber: 2, Similarity: 0.6, Content: "No heading here."},
	}

	citations := ExtractCitations(results)

	assert.Len(t, citations, 3)
	assert.Equal(t, "a.md", citations[0].DocumentName)
	assert.Equal(t, 1, citations[0].Page)
	assert.Equal(t, "Installation", citations[0].Section)
	assert.Equal(t, "## Installation Run the installer.", citations[0].Snippet)
	assert.InDelta(t, 0.9, citations[0].Similarity, 1e-9)

	assert.Equal(t, "b.txt", citations[1].DocumentName)
	assert.True(t, strings.HasSuffix(citations[1].Snippet, "..."))
	assert.LessOrEqual(t, len([]rune(citations[1].Snippet)), SnippetLength+3)
	assert.Empty(t, citations[1].Section)

	assert.Equal(t, 2, citations[2].Page)
}

func TestExtractCitations_SameNameDifferentDocuments(t *testing.T) {
	first, second := uuid.New(), uuid.New()

	results := []Result{
		{DocumentId: first, DocumentName: "report.pdf", PageNumber: 1, Similarity: 0.9, Content: "Original upload."},
		{DocumentId: second, DocumentName: "report.pdf", PageNumber: 1, Similarity: 0.8, Content: "Re-uploaded copy."},
		{DocumentId: second, DocumentName: "report.pdf", PageNumber: 1, Similarity: 0.4, Content: "Re-uploaded copy, weaker match."},
		{DocumentName: "notes.txt", PageNumber: 1, Similarity: 0.3, Content: "No id."},
		{DocumentName: "notes.txt", PageNumber: 1, Similarity: 0.2, Content: "No id, same page."},
	}

	citations := ExtractCitations(results)

	assert.Len(t, citations, 3)
	assert.Equal(t, "Original upload.", citations[0].Snippet)
	assert.Equal(t, "Re-uploaded copy.", citations[1].Snippet)
	assert.Equal(t, "notes.txt", citations[2].DocumentName)
	assert.InDelta(t, 0.3, citations[2].Similarity, 1e-9)
}

func TestSection(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"# Title\nbody", "Title"},
		{"intro\n### Deep dive ###\nmore", "Deep dive"},
		{"#hashtag is not a heading", ""},
		{"plain text", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, section(tt.content), tt.content)
	}
}

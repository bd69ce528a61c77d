// trace_chunking parses a local file and prints the chunks the ingestion
// pipeline would store for it, using CHUNK_SIZE and CHUNK_OVERLAP.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"

	"doc-intelligence-be/internal/config"
	"doc-intelligence-be/pkg/chunker"
	"doc-intelligence-be/pkg/parser"
)

const previewLen = 80

func main() {
	if len(os.Args) < 2 {
		color.Red("usage: trace_chunking <file> [mime-type]")
		os.Exit(1)
	}
	path := os.Args[1]
	declared := ""
	if len(os.Args) > 2 {
		declared = os.Args[2]
	}

	cfg := config.Load()
	mimeType := parser.DetectMIMEType(filepath.Base(path), declared)

	color.Cyan("=== CHUNKING TRACE ===")
	fmt.Printf("file:      %s\n", path)
	fmt.Printf("mime:      %s\n", mimeType)
	fmt.Printf("chunk:     size=%d overlap=%d\n", cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := parser.DefaultRegistry().ParseFile(ctx, path, mimeType)
	if err != nil {
		color.Red("parse failed: %v", err)
		os.Exit(1)
	}
	total := len([]rune(result.Text))
	fmt.Printf("parser:    %s\n", result.Parser)
	fmt.Printf("text:      %d chars, %d page(s)\n", total, result.Pages)

	segments, err := chunker.ChunkText(result.Text, cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)
	if err != nil {
		color.Red("chunking failed: %v", err)
		os.Exit(1)
	}

	color.Yellow("\n[CHUNKS] %d", len(segments))
	covered := 0
	for i, seg := range segments {
		page := chunker.ExtractPageFromChunk(seg.Text, seg.Start, result.Text)
		color.Green("#%d  [%d:%d)  page %d", i, seg.Start, seg.End, page)
		fmt.Printf("    %q\n", preview(seg.Text))
		if seg.Start > covered {
			color.Red("    gap: characters [%d:%d) are not covered", covered, seg.Start)
		}
		if seg.End > covered {
			covered = seg.End
		}
	}

	if covered == total {
		color.Green("\ncoverage ok: %d/%d chars", covered, total)
		return
	}
	color.Red("\ncoverage incomplete: %d/%d chars", covered, total)
	os.Exit(1)
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= previewLen {
		return text
	}
	return string(r[:previewLen]) + "..."
}

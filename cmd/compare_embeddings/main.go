// compare_embeddings embeds a few fixed sentences with the configured
// provider and prints their pairwise cosine similarity, as a sanity check
// that related texts score above unrelated ones.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"

	"doc-intelligence-be/internal/config"
	"doc-intelligence-be/pkg/embedding"
)

var samples = []struct {
	label string
	text  string
}{
	{"original", "The quick brown fox jumps over the lazy dog"},
	{"similar", "A fast brown fox leaps over a sleepy canine"},
	{"unrelated", "Quantum physics explores the nature of particles"},
}

func main() {
	cfg := config.Load()

	svc := embedding.NewService(embedding.Config{
		Provider:      cfg.Embedding.Provider,
		APIKey:        cfg.Embedding.APIKey,
		BaseURL:       cfg.Embedding.BaseURL,
		Model:         cfg.Embedding.Model,
		Dimension:     cfg.Embedding.Dimension,
		AllowFallback: cfg.Embedding.AllowFallback,
		Timeout:       cfg.Embedding.Timeout,
	})

	ctx := context.Background()
	if err := svc.Initialize(ctx); err != nil {
		color.Red("provider init failed: %v", err)
		os.Exit(1)
	}
	color.Cyan("--- provider %s, dimension %d ---", svc.ProviderName(), svc.Dimension())

	vectors := make([][]float32, len(samples))
	for i, s := range samples {
		v, err := svc.GenerateEmbedding(ctx, s.text)
		if err != nil {
			color.Red("[%s] embed failed: %v", s.label, err)
			os.Exit(1)
		}
		vectors[i] = v
		fmt.Printf("[%s] %d dims\n", s.label, len(v))
	}

	color.Yellow("\n--- cosine similarity ---")
	for i := 0; i < len(samples); i++ {
		for j := i + 1; j < len(samples); j++ {
			score, err := embedding.CosineSimilarity(vectors[i], vectors[j])
			if err != nil {
				color.Red("%s vs %s: %v", samples[i].label, samples[j].label, err)
				continue
			}
			fmt.Printf("%-9s vs %-9s %.4f\n", samples[i].label, samples[j].label, score)
		}
	}

	related, _ := embedding.CosineSimilarity(vectors[0], vectors[1])
	unrelated, _ := embedding.CosineSimilarity(vectors[0], vectors[2])
	if related > unrelated {
		color.Green("\nok: related pair scores higher (%.4f > %.4f)", related, unrelated)
		return
	}
	color.Red("\nunexpected: related %.4f <= unrelated %.4f", related, unrelated)
	os.Exit(1)
}

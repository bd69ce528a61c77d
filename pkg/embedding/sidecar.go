package embedding

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// SidecarEntry is one record of the per-project JSON mirror.
type SidecarEntry struct {
	ChunkID   string          `json:"chunkId"`
	Embedding []float32       `json:"embedding"`
	Metadata  SidecarMetadata `json:"metadata"`
	CreatedAt time.Time       `json:"createdAt"`
}

type SidecarMetadata struct {
	DocumentID string `json:"documentId"`
	ChunkIndex int    `json:"chunkIndex"`
	PageNumber int    `json:"pageNumber"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
}

// SidecarWriter maintains <dir>/<projectID>.embeddings.json files. Writes
// replace the file atomically; entries are keyed by chunk id.
type SidecarWriter struct {
	dir string
	mu  sync.Mutex
}

func NewSidecarWriter(dir string) *SidecarWriter {
	return &SidecarWriter{dir: dir}
}

func (w *SidecarWriter) path(projectID string) string {
	return filepath.Join(w.dir, projectID+".embeddings.json")
}

// Upsert merges entries into the project's file, overwriting existing
// entries with the same chunk id.
func (w *SidecarWriter) Upsert(projectID string, entries []SidecarEntry) error {
	if len(entries) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	existing, err := w.load(projectID)
	if err != nil {
		return err
	}

	byChunk := make(map[string]SidecarEntry, len(existing)+len(entries))
	for _, e := range existing {
		byChunk[e.ChunkID] = e
	}
	for _, e := range entries {
		byChunk[e.ChunkID] = e
	}

	merged := make([]SidecarEntry, 0, len(byChunk))
	for _, e := range byChunk {
		merged = append(merged, e)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Metadata.DocumentID != merged[j].Metadata.DocumentID {
			return merged[i].Metadata.DocumentID < merged[j].Metadata.DocumentID
		}
		return merged[i].Metadata.ChunkIndex < merged[j].Metadata.ChunkIndex
	})
	return w.write(projectID, merged)
}

// RemoveDocument drops every entry of documentID from the project's file.
// Chunks of a re-ingested or deleted document get new ids, so their old
// entries would otherwise stay behind.
func (w *SidecarWriter) RemoveDocument(projectID, documentID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	existing, err := w.load(projectID)
	if err != nil || len(existing) == 0 {
		return err
	}

	kept := existing[:0]
	for _, e := range existing {
		if e.Metadata.DocumentID != documentID {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(existing) {
		return nil
	}
	return w.write(projectID, kept)
}

// write must be called with mu held.
func (w *SidecarWriter) write(projectID string, entries []SidecarEntry) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create sidecar dir: %w", err)
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal sidecar: %w", err)
	}

	tmp, err := os.CreateTemp(w.dir, projectID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create sidecar temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write sidecar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close sidecar: %w", err)
	}
	return os.Rename(tmp.Name(), w.path(projectID))
}

func (w *SidecarWriter) Load(projectID string) ([]SidecarEntry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.load(projectID)
}

func (w *SidecarWriter) Remove(projectID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := os.Remove(w.path(projectID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (w *SidecarWriter) load(projectID string) ([]SidecarEntry, error) {
	data, err := os.ReadFile(w.path(projectID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sidecar: %w", err)
	}

	var entries []SidecarEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode sidecar: %w", err)
	}
	return entries, nil
}

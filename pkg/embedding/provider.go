package embedding

import "context"

// TaskType hints the provider how the text will be used. Providers that do
// not distinguish tasks ignore it.
type TaskType string

const (
	TaskRetrievalDocument TaskType = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    TaskType = "RETRIEVAL_QUERY"
)

// Provider defines the interface for generating text embeddings
type Provider interface {
	Name() string
	Embed(ctx context.Context, text string, taskType TaskType) ([]float32, error)
}

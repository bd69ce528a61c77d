package dto

import "doc-intelligence-be/pkg/rag/retriever"

type SearchRequest struct {
	Query         string   `json:"query" validate:"required,max=4000"`
	TopK          *int     `json:"top_k" validate:"omitempty,min=1,max=20"`
	MinSimilarity *float64 `json:"min_similarity" validate:"omitempty,min=0,max=1"`
}

type SearchResponse struct {
	Results   []retriever.Result   `json:"results"`
	Context   string               `json:"context"`
	Citations []retriever.Citation `json:"citations"`
}

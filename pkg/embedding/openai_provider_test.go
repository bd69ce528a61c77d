package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"doc-intelligence-be/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIProviderEmbed(t *testing.T) {
	var got openAIEmbeddingRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"object":"embedding","index":0,"embedding":[0.5,0.5,0.5,0.5]}]}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("sk-test", server.URL+"/", "", 4)
	vec, err := provider.Embed(context.Background(), "quarterly revenue", TaskRetrievalDocument)

	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5, 0.5, 0.5}, vec)
	assert.Equal(t, DefaultOpenAIModel, got.Model)
	assert.Equal(t, []string{"quarterly revenue"}, got.Input)
	assert.Equal(t, 4, got.Dimensions)
}

func TestOpenAIProviderErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "http error", status: http.StatusUnauthorized, body: `{"error":{"message":"bad key"}}`},
		{name: "api error", status: http.StatusOK, body: `{"error":{"message":"quota"}}`},
		{name: "empty data", status: http.StatusOK, body: `{"data":[]}`},
		{name: "bad json", status: http.StatusOK, body: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewOpenAIProvider("k", server.URL, "custom-model", 4).Embed(context.Background(), "x", TaskRetrievalQuery)
			assert.Error(t, err)
		})
	}
}

func TestServiceMapsSlowProviderToDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	svc := NewService(
		Config{Dimension: 4, Timeout: 50 * time.Millisecond},
		WithProvider(NewOpenAIProvider("k", server.URL, "", 4)),
	)

	_, err := svc.GenerateEmbedding(context.Background(), "x")
	assert.True(t, errors.Is(err, apperror.ErrDeadlineExceeded))
}

func TestOllamaProviderEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		w.Write([]byte(`{"embedding":[0.25,0.75]}`))
	}))
	defer server.Close()

	vec, err := NewOllamaProvider(server.URL, "").Embed(context.Background(), "x", TaskRetrievalDocument)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.75}, vec)
}

package embedding

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint. With a
// custom base URL it also serves LocalAI, text-embeddings-inference, and
// Ollama's OpenAI-compatible route.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
	cache      *VectorCache
}

// NewOpenAIEmbedder creates a remote embedder for model. The API key is read
// from the environment variable named by apiKeyEnv; baseURL overrides the
// OpenAI endpoint when non-empty.
func NewOpenAIEmbedder(model, baseURL, apiKeyEnv string, dimensions, cacheSize int) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("environment variable %s not set", apiKeyEnv)
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		dimensions: dimensions,
		cache:      NewVectorCache(cacheSize),
	}, nil
}

// Embed returns the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in one API call, skipping texts already memoized.
// Output order matches input order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if cached, ok := e.cache.Get(text); ok {
			vectors[i] = cached
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return vectors, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: missing,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings API call failed: %w", err)
	}
	if len(resp.Data) != len(missing) {
		return nil, fmt.Errorf("embeddings API returned %d vectors for %d inputs", len(resp.Data), len(missing))
	}
	// Reassemble by the index field; the API does not guarantee that the
	// data slice preserves input order.
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(missing) {
			return nil, fmt.Errorf("embeddings API returned out-of-range index %d for %d inputs", data.Index, len(missing))
		}
		vec := make([]float32, len(data.Embedding))
		copy(vec, data.Embedding)
		vectors[missingIdx[data.Index]] = vec
		e.cache.Set(missing[data.Index], vec)
	}
	return vectors, nil
}

// Dimensions returns the embedding dimension declared for the model.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for OpenAIEmbedder.
func (e *OpenAIEmbedder) Close() error {
	return nil
}

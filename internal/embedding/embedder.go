// Package embedding provides the embedding model backends: ONNX (local),
// OpenAI-compatible (remote), and hash (deterministic, for tests and dev).
package embedding

import "context"

// Embedder is a loaded, ready-to-run embedding model.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

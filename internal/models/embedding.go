// Package models contains the wire types for the embedserve API.
package models

// EmbeddingRequest is the body of POST /v1/embeddings.
type EmbeddingRequest struct {
	// Input is the ordered batch of texts to embed. Empty strings are valid
	// inputs; an empty batch is not.
	Input []string `json:"input"`
	// Model selects the registered model; empty means the server default.
	Model string `json:"model,omitempty"`
	// Normalize requests unit L2 norm output vectors.
	Normalize bool `json:"normalize,omitempty"`
	// Truncate overrides the server truncation policy for over-long inputs.
	// nil means use the configured default.
	Truncate *bool `json:"truncate,omitempty"`
}

// Embedding is one output vector, tagged with the index of the input text it
// corresponds to.
type Embedding struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

// EmbeddingResponse is the body of a successful POST /v1/embeddings.
// Data preserves input order: Data[i].Index == i.
type EmbeddingResponse struct {
	Data  []Embedding `json:"data"`
	Model string      `json:"model"`
}

// ModelInfo is the body of GET /v1/info.
type ModelInfo struct {
	Model              string `json:"model"`
	MaxSeqLen          int    `json:"max_seq_len"`
	EmbeddingDimension int    `json:"embedding_dimension"`
}

// ModelStatus is one entry of GET /v1/models: descriptor metadata plus
// whether the instance is currently resident in the cache.
type ModelStatus struct {
	Model              string `json:"model"`
	MaxSeqLen          int    `json:"max_seq_len"`
	EmbeddingDimension int    `json:"embedding_dimension"`
	Loaded             bool   `json:"loaded"`
}

// ModelsResponse is the body of GET /v1/models.
type ModelsResponse struct {
	Models []ModelStatus `json:"models"`
}

// ReadyResponse is the body of GET /ready.
type ReadyResponse struct {
	Ready bool `json:"ready"`
}

// AliveResponse is the body of GET /alive.
type AliveResponse struct {
	Alive bool `json:"alive"`
}

// ErrorResponse is the body of any error status.
type ErrorResponse struct {
	Error string `json:"error"`
}

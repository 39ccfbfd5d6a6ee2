// Package transform implements the embedding pipeline: validate the request,
// resolve the model, truncate or reject over-long inputs, run inference, and
// shape the result.
package transform

import (
	"context"
	"errors"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/vectorlab/embedserve/internal/config"
	"github.com/vectorlab/embedserve/internal/modelcache"
	"github.com/vectorlab/embedserve/internal/models"
	"github.com/vectorlab/embedserve/internal/registry"
	"github.com/vectorlab/embedserve/pkg/utils"
)

// Pipeline runs transform requests against the model cache.
type Pipeline struct {
	reg    *registry.Registry
	cache  *modelcache.Cache
	cfg    *config.PipelineConfig
	logger *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a logger for pipeline events.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New creates a pipeline over the given registry and cache.
func New(reg *registry.Registry, cache *modelcache.Cache, cfg *config.PipelineConfig, opts ...Option) *Pipeline {
	p := &Pipeline{
		reg:    reg,
		cache:  cache,
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DefaultModel returns the model used when a request omits the model field.
func (p *Pipeline) DefaultModel() string {
	return p.cfg.DefaultModel
}

// Transform embeds every text in req and returns the vectors in input order.
// May block while the model loads on first use of an identifier.
func (p *Pipeline) Transform(ctx context.Context, req *models.EmbeddingRequest) (*models.EmbeddingResponse, error) {
	if len(req.Input) == 0 {
		return nil, ErrEmptyInput
	}

	modelID := req.Model
	if modelID == "" {
		modelID = p.cfg.DefaultModel
	}
	desc, err := p.reg.Resolve(modelID)
	if err != nil {
		return nil, err
	}

	texts, err := p.prepareInputs(req, desc)
	if err != nil {
		return nil, err
	}

	inst, err := p.cache.Get(ctx, modelID)
	if err != nil {
		return nil, wrapDeadline(err)
	}

	data := make([]models.Embedding, 0, len(texts))
	batchSize := p.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = len(texts)
	}
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := inst.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, wrapDeadline(err)
		}
		if len(vectors) != end-start {
			return nil, &ContractError{Model: modelID, Index: start, Got: len(vectors), Want: end - start, Kind: "batch size"}
		}
		for i, vec := range vectors {
			if len(vec) != desc.Dimensions {
				cerr := &ContractError{Model: modelID, Index: start + i, Got: len(vec), Want: desc.Dimensions, Kind: "vector length"}
				p.logger.Error("model output violates declared shape",
					zap.String("model", modelID),
					zap.Int("index", start+i),
					zap.Int("got", len(vec)),
					zap.Int("want", desc.Dimensions),
				)
				return nil, cerr
			}
			if req.Normalize {
				// Copy before normalizing so memoized backend vectors
				// are not mutated in place.
				normalized := make([]float32, len(vec))
				copy(normalized, vec)
				utils.NormalizeL2(normalized)
				vec = normalized
			}
			data = append(data, models.Embedding{Index: start + i, Embedding: vec})
		}
	}

	return &models.EmbeddingResponse{Data: data, Model: modelID}, nil
}

// prepareInputs applies the truncation policy to each text. Lengths are
// counted in runes.
func (p *Pipeline) prepareInputs(req *models.EmbeddingRequest, desc *registry.Descriptor) ([]string, error) {
	truncate := p.cfg.TruncateOrDefault()
	if req.Truncate != nil {
		truncate = *req.Truncate
	}
	texts := make([]string, len(req.Input))
	for i, text := range req.Input {
		n := utf8.RuneCountInString(text)
		if n <= desc.MaxInputLength {
			texts[i] = text
			continue
		}
		if !truncate {
			return nil, &InputTooLongError{Index: i, Length: n, Limit: desc.MaxInputLength}
		}
		texts[i] = utils.TruncateRunes(text, desc.MaxInputLength)
	}
	return texts, nil
}

// wrapDeadline maps deadline expiry onto ErrTimeout so the boundary can
// respond with a distinct status. Plain cancellation passes through.
func wrapDeadline(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}

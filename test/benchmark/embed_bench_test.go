package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/vectorlab/embedserve/internal/config"
	"github.com/vectorlab/embedserve/internal/embedding"
	"github.com/vectorlab/embedserve/internal/modelcache"
	"github.com/vectorlab/embedserve/internal/models"
	"github.com/vectorlab/embedserve/internal/registry"
	"github.com/vectorlab/embedserve/internal/transform"
)

func benchRegistry(b *testing.B, dims int) *registry.Registry {
	b.Helper()
	reg := registry.New()
	err := reg.Register(&registry.Descriptor{
		ID:             "bench",
		Loader:         func() (embedding.Embedder, error) { return embedding.NewHashEmbedder(dims), nil },
		Dimensions:     dims,
		MaxInputLength: 512,
	})
	if err != nil {
		b.Fatal(err)
	}
	return reg
}

func BenchmarkHashEmbedder_Embed(b *testing.B) {
	e := embedding.NewHashEmbedder(384)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Embed(ctx, "benchmark query text for embedding")
	}
}

func BenchmarkCacheGet_Hot(b *testing.B) {
	cache := modelcache.New(benchRegistry(b, 384))
	ctx := context.Background()
	if _, err := cache.Get(ctx, "bench"); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = cache.Get(ctx, "bench")
	}
}

func BenchmarkCacheGet_HotParallel(b *testing.B) {
	cache := modelcache.New(benchRegistry(b, 384))
	ctx := context.Background()
	if _, err := cache.Get(ctx, "bench"); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = cache.Get(ctx, "bench")
		}
	})
}

func BenchmarkTransform_SmallBatch(b *testing.B) {
	reg := benchRegistry(b, 384)
	p := transform.New(reg, modelcache.New(reg), &config.PipelineConfig{BatchSize: 1000})
	req := &models.EmbeddingRequest{Input: []string{"one", "two", "three"}, Model: "bench"}
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Transform(ctx, req); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTransform_LargeBatch(b *testing.B) {
	reg := benchRegistry(b, 384)
	p := transform.New(reg, modelcache.New(reg), &config.PipelineConfig{BatchSize: 100})
	input := make([]string, 1000)
	for i := range input {
		input[i] = fmt.Sprintf("document number %d with some benchmark text", i)
	}
	req := &models.EmbeddingRequest{Input: input, Model: "bench"}
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Transform(ctx, req); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkVectorCache_Get(b *testing.B) {
	c := embedding.NewVectorCache(10000)
	vec := make([]float32, 384)
	for i := 0; i < 1000; i++ {
		c.Set(fmt.Sprintf("text-%d", i), vec)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Get(fmt.Sprintf("text-%d", i%1000))
	}
}

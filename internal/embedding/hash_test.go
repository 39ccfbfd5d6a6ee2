package embedding

import (
	"context"
	"math"
	"testing"
)

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(8)
	ctx := context.Background()
	a1, err := e.Embed(ctx, "some text")
	if err != nil {
		t.Fatal(err)
	}
	a2, _ := e.Embed(ctx, "some text")
	b, _ := e.Embed(ctx, "other text")

	if len(a1) != 8 {
		t.Fatalf("dimensions: got %d", len(a1))
	}
	same := true
	for i := range a1 {
		if a1[i] != a2[i] {
			same = false
		}
	}
	if !same {
		t.Error("same text must embed identically")
	}
	diff := false
	for i := range a1 {
		if a1[i] != b[i] {
			diff = true
		}
	}
	if !diff {
		t.Error("different texts should embed differently")
	}
}

func TestHashEmbedder_UnitNorm(t *testing.T) {
	e := NewHashEmbedder(16)
	vec, err := e.Embed(context.Background(), "normalize me")
	if err != nil {
		t.Fatal(err)
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if math.Abs(sum-1.0) > 1e-5 {
		t.Errorf("squared norm: got %f, want 1", sum)
	}
}

func TestHashEmbedder_Batch(t *testing.T) {
	e := NewHashEmbedder(4)
	ctx := context.Background()
	vectors, err := e.EmbedBatch(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != 3 {
		t.Fatalf("batch: got %d vectors", len(vectors))
	}
	single, _ := e.Embed(ctx, "b")
	for i := range single {
		if vectors[1][i] != single[i] {
			t.Fatal("batch output order does not match input order")
		}
	}
	if e.Dimensions() != 4 {
		t.Errorf("Dimensions: got %d", e.Dimensions())
	}
}

func TestHashEmbedder_DefaultDimensions(t *testing.T) {
	e := NewHashEmbedder(0)
	if e.Dimensions() != 384 {
		t.Errorf("default dimensions: got %d", e.Dimensions())
	}
}

package registry

import (
	"errors"
	"testing"

	"github.com/vectorlab/embedserve/internal/embedding"
)

func hashLoader(dims int) Loader {
	return func() (embedding.Embedder, error) {
		return embedding.NewHashEmbedder(dims), nil
	}
}

func TestRegister_Resolve(t *testing.T) {
	r := New()
	d := &Descriptor{ID: "dummy-2d", Loader: hashLoader(2), Dimensions: 2, MaxInputLength: 100}
	if err := r.Register(d); err != nil {
		t.Fatal(err)
	}
	got, err := r.Resolve("dummy-2d")
	if err != nil {
		t.Fatal(err)
	}
	if got.Dimensions != 2 || got.MaxInputLength != 100 {
		t.Errorf("descriptor: got %+v", got)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	r := New()
	d := &Descriptor{ID: "m", Loader: hashLoader(2), Dimensions: 2, MaxInputLength: 10}
	if err := r.Register(d); err != nil {
		t.Fatal(err)
	}
	err := r.Register(&Descriptor{ID: "m", Loader: hashLoader(4), Dimensions: 4, MaxInputLength: 10})
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestRegister_Invalid(t *testing.T) {
	tests := []struct {
		name string
		d    *Descriptor
	}{
		{"empty id", &Descriptor{Loader: hashLoader(2), Dimensions: 2, MaxInputLength: 10}},
		{"nil loader", &Descriptor{ID: "m", Dimensions: 2, MaxInputLength: 10}},
		{"zero dimensions", &Descriptor{ID: "m", Loader: hashLoader(2), MaxInputLength: 10}},
		{"negative max length", &Descriptor{ID: "m", Loader: hashLoader(2), Dimensions: 2, MaxInputLength: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := New().Register(tt.d); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestResolve_Unknown(t *testing.T) {
	r := New()
	_, err := r.Resolve("nonexistent")
	if !errors.Is(err, ErrUnknownModel) {
		t.Errorf("expected ErrUnknownModel, got %v", err)
	}
}

func TestList_Sorted(t *testing.T) {
	r := New()
	for _, id := range []string{"c", "a", "b"} {
		if err := r.Register(&Descriptor{ID: id, Loader: hashLoader(2), Dimensions: 2, MaxInputLength: 10}); err != nil {
			t.Fatal(err)
		}
	}
	list := r.List()
	if len(list) != 3 || list[0].ID != "a" || list[1].ID != "b" || list[2].ID != "c" {
		ids := make([]string, len(list))
		for i, d := range list {
			ids[i] = d.ID
		}
		t.Errorf("List: got %v", ids)
	}
	if r.Len() != 3 {
		t.Errorf("Len: got %d", r.Len())
	}
}

// Package registry maps model identifiers to their loaders and metadata.
// The registry is populated once at startup, before any traffic is accepted,
// and is read-only afterwards.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/vectorlab/embedserve/internal/embedding"
)

// ErrUnknownModel is returned when an identifier does not resolve to a
// registered model.
var ErrUnknownModel = errors.New("unknown model")

// ErrAlreadyRegistered is returned when an identifier is registered twice.
// This is a configuration defect and fatal at startup.
var ErrAlreadyRegistered = errors.New("model already registered")

// Loader produces a ready-to-run model instance. It takes no arguments
// beyond what was captured at registration time.
type Loader func() (embedding.Embedder, error)

// Descriptor is the immutable metadata for one registered model.
type Descriptor struct {
	// ID is the unique identifier clients use to select the model.
	ID string
	// Loader instantiates the model; invoked at most once per process by
	// the model cache (retried only after a failed load).
	Loader Loader
	// Dimensions is the declared output vector length.
	Dimensions int
	// MaxInputLength is the maximum accepted input length in runes.
	MaxInputLength int
}

// Registry holds the registered model descriptors.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]*Descriptor
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{descriptors: make(map[string]*Descriptor)}
}

// Register adds a descriptor. It fails on a duplicate identifier, a nil
// loader, or non-positive dimensions or max input length.
func (r *Registry) Register(d *Descriptor) error {
	if d.ID == "" {
		return errors.New("model identifier must not be empty")
	}
	if d.Loader == nil {
		return fmt.Errorf("model %q: loader must not be nil", d.ID)
	}
	if d.Dimensions <= 0 {
		return fmt.Errorf("model %q: dimensions must be positive, got %d", d.ID, d.Dimensions)
	}
	if d.MaxInputLength <= 0 {
		return fmt.Errorf("model %q: max input length must be positive, got %d", d.ID, d.MaxInputLength)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.descriptors[d.ID]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, d.ID)
	}
	r.descriptors[d.ID] = d
	return nil
}

// Resolve returns the descriptor for id, or ErrUnknownModel.
func (r *Registry) Resolve(id string) (*Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	return d, nil
}

// List returns all descriptors sorted by identifier.
func (r *Registry) List() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.descriptors)
}

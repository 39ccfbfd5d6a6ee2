// Package modelcache keeps one loaded model instance per identifier for the
// lifetime of the process. Concurrent first access to the same identifier
// collapses into a single load; loads for different identifiers run in
// parallel.
package modelcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vectorlab/embedserve/internal/embedding"
	"github.com/vectorlab/embedserve/internal/registry"
)

// LoadError reports a failed model load. The entry is cleared so a later
// call retries; all callers waiting on the failed attempt receive the same
// error. Unwrap exposes the loader's cause for logging; the HTTP boundary
// must not echo it to clients.
type LoadError struct {
	Model string
	cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("model %q failed to load: %v", e.Model, e.cause)
}

func (e *LoadError) Unwrap() error {
	return e.cause
}

// LoadObserver is notified after each load attempt, successful or not.
// Wired to metrics in main.
type LoadObserver func(model string, d time.Duration, err error)

// entry is the per-identifier cell. ready is closed after the load attempt
// finishes; inst and err are written before the close and read only after it.
type entry struct {
	ready chan struct{}
	inst  embedding.Embedder
	err   error
}

// Cache is the single-flight model instance cache.
type Cache struct {
	reg     *registry.Registry
	logger  *zap.Logger
	observe LoadObserver

	mu      sync.Mutex
	entries map[string]*entry
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets a logger for load events.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithLoadObserver sets a callback invoked after every load attempt.
func WithLoadObserver(o LoadObserver) Option {
	return func(c *Cache) { c.observe = o }
}

// New creates a cache resolving identifiers against reg.
func New(reg *registry.Registry, opts ...Option) *Cache {
	c := &Cache{
		reg:     reg,
		logger:  zap.NewNop(),
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the loaded instance for id, loading it on first use. Concurrent
// calls for the same unloaded id wait for the one in-flight load. ctx cancels
// only this caller's wait; the load itself runs to completion so other
// waiters and later callers can still use the result.
func (c *Cache) Get(ctx context.Context, id string) (embedding.Embedder, error) {
	c.mu.Lock()
	e, ok := c.entries[id]
	if !ok {
		desc, err := c.reg.Resolve(id)
		if err != nil {
			c.mu.Unlock()
			return nil, err
		}
		e = &entry{ready: make(chan struct{})}
		c.entries[id] = e
		c.mu.Unlock()
		go c.load(desc, e)
	} else {
		c.mu.Unlock()
	}

	select {
	case <-e.ready:
		return e.inst, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// load runs the descriptor's loader and publishes the outcome. It runs
// without any caller context: a disconnected client must not cancel a load
// that other callers share.
func (c *Cache) load(desc *registry.Descriptor, e *entry) {
	start := time.Now()
	inst, err := desc.Loader()
	if err == nil && inst == nil {
		err = fmt.Errorf("loader for model %q returned nil instance", desc.ID)
	}
	if err != nil {
		e.err = &LoadError{Model: desc.ID, cause: err}
		// Clear the entry so the next Get attempts the load again.
		c.mu.Lock()
		delete(c.entries, desc.ID)
		c.mu.Unlock()
		c.logger.Warn("model load failed",
			zap.String("model", desc.ID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
	} else {
		e.inst = inst
		c.logger.Info("model loaded",
			zap.String("model", desc.ID),
			zap.Int("dimensions", desc.Dimensions),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	if c.observe != nil {
		c.observe(desc.ID, time.Since(start), err)
	}
	close(e.ready)
}

// Loaded reports whether the instance for id is resident and ready.
func (c *Cache) Loaded(id string) bool {
	c.mu.Lock()
	e, ok := c.entries[id]
	c.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case <-e.ready:
		return e.err == nil
	default:
		return false
	}
}

// Len returns the number of entries, including loads still in flight.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close closes every loaded instance. Called at process shutdown only.
func (c *Cache) Close() error {
	c.mu.Lock()
	entries := make([]*entry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, e)
	}
	c.mu.Unlock()

	var firstErr error
	for _, e := range entries {
		select {
		case <-e.ready:
			if e.inst != nil {
				if err := e.inst.Close(); err != nil && firstErr == nil {
					firstErr = err
				}
			}
		default:
			// Load still in flight; the process is exiting anyway.
		}
	}
	return firstErr
}

package embedding

import (
	"container/list"
	"sync"
)

// VectorCache is an LRU memoization cache mapping input text to its vector.
// Backends use it to skip inference for texts they have seen recently.
// Safe for concurrent use: even Get mutates the recency list, so every
// operation takes the exclusive lock.
type VectorCache struct {
	capacity int
	entries  map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type vectorEntry struct {
	text   string
	vector []float32
}

// NewVectorCache creates a cache holding up to capacity vectors.
func NewVectorCache(capacity int) *VectorCache {
	return &VectorCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the cached vector for text if present, marking it most
// recently used.
func (c *VectorCache) Get(text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[text]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*vectorEntry).vector, true
	}
	return nil, false
}

// Set stores the vector for text, evicting the least recently used entry
// when at capacity.
func (c *VectorCache) Set(text string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[text]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*vectorEntry).vector = vector
		return
	}

	elem := c.lru.PushFront(&vectorEntry{text: text, vector: vector})
	c.entries[text] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.entries, oldest.Value.(*vectorEntry).text)
		}
	}
}

// Len returns the number of cached vectors.
func (c *VectorCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

package cachegate

import (
	"context"
	"sort"
	"sync"
)

// Storage holds named cache stores, one per generation.
type Storage interface {
	// Open returns the named store, creating it when absent.
	Open(ctx context.Context, name string) (Cache, error)
	// Keys lists the names of every existing store.
	Keys(ctx context.Context) ([]string, error)
	// Delete removes the named store and reports whether it existed.
	Delete(ctx context.Context, name string) (bool, error)
}

// Cache is one named store of responses keyed by RequestKey.
type Cache interface {
	Match(ctx context.Context, key string) (*Response, bool, error)
	Put(ctx context.Context, key string, resp *Response) error
	Keys(ctx context.Context) ([]string, error)
}

// MemoryStorage keeps cache stores in process memory.
type MemoryStorage struct {
	mu     sync.Mutex
	stores map[string]*memoryCache
}

// NewMemoryStorage returns an empty storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{stores: make(map[string]*memoryCache)}
}

func (s *MemoryStorage) Open(_ context.Context, name string) (Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.stores[name]
	if !ok {
		c = &memoryCache{entries: make(map[string]*Response)}
		s.stores[name] = c
	}
	return c, nil
}

func (s *MemoryStorage) Keys(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.stores))
	for name := range s.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStorage) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.stores[name]
	delete(s.stores, name)
	return ok, nil
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]*Response
}

func (c *memoryCache) Match(_ context.Context, key string) (*Response, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	resp, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return resp.Clone(), true, nil
}

func (c *memoryCache) Put(_ context.Context, key string, resp *Response) error {
	c.mu.Lock()
	c.entries[key] = resp.Clone()
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Keys(context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

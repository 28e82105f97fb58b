// Package cache provides response caches keyed by exact request URL.
package cache

import (
	"context"
	"sync"
)

// Memory is a process-lifetime response cache. It never evicts.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemory creates an empty in-memory cache
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

func (c *Memory) Get(_ context.Context, url string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	body, ok := c.entries[url]
	return body, ok
}

func (c *Memory) Set(_ context.Context, url string, body []byte) error {
	c.mu.Lock()
	c.entries[url] = body
	c.mu.Unlock()
	return nil
}

func (c *Memory) Clear(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string][]byte)
	c.mu.Unlock()
	return nil
}

func (c *Memory) Len(_ context.Context) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

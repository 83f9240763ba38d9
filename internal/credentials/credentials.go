// Package credentials serves provider API keys to the orchestrator. Keys are
// read through a Source once per session and cached until invalidated.
package credentials

import (
	"context"
	"strings"
	"sync"

	"github.com/mhismail3/moosetabs/internal/config"
	"github.com/mhismail3/moosetabs/internal/provider"
)

// Source returns the stored credential for a provider, or "" when none is set.
type Source interface {
	Credential(ctx context.Context, id provider.ID) (string, error)
}

// ConfigSource reads keys from providers.<id>.api_key.
type ConfigSource struct {
	cfg *config.Config
}

// NewConfigSource wraps a loaded config.
func NewConfigSource(cfg *config.Config) *ConfigSource {
	return &ConfigSource{cfg: cfg}
}

func (s *ConfigSource) Credential(_ context.Context, id provider.ID) (string, error) {
	if s == nil || s.cfg == nil {
		return "", nil
	}
	return strings.TrimSpace(s.cfg.Provider(string(id)).APIKey), nil
}

// Cache memoizes credentials per provider.
type Cache struct {
	source Source

	mu     sync.Mutex
	values map[provider.ID]string
}

// NewCache wraps source.
func NewCache(source Source) *Cache {
	return &Cache{source: source, values: make(map[provider.ID]string)}
}

// Get returns the cached credential, fetching it on first use. Lookup
// failures are not cached.
func (c *Cache) Get(ctx context.Context, id provider.ID) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.values[id]; ok {
		return v, nil
	}
	v, err := c.source.Credential(ctx, id)
	if err != nil {
		return "", err
	}
	c.values[id] = v
	return v, nil
}

// Invalidate drops every cached credential. Call it after settings change.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.values = make(map[provider.ID]string)
	c.mu.Unlock()
}

// SetSource swaps the backing source and clears the cache.
func (c *Cache) SetSource(source Source) {
	c.mu.Lock()
	c.source = source
	c.values = make(map[provider.ID]string)
	c.mu.Unlock()
}

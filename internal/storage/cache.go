package storage

import (
	"sync"

	"sunnybot/internal/suggest"
)

// guildCache is a read-through cache for guild configuration documents.
// Reads fill it on miss; every write path invalidates the guild's entry after
// the store write commits. Writes never consult the cache, so a stale entry
// can only ever serve a read, never feed a mutation.
type guildCache struct {
	mu      sync.RWMutex
	configs map[string]*suggest.GuildConfig
}

func newGuildCache() *guildCache {
	return &guildCache{configs: make(map[string]*suggest.GuildConfig)}
}

func (c *guildCache) get(guildID string) (*suggest.GuildConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cfg, ok := c.configs[guildID]
	if !ok {
		return nil, false
	}
	return cfg.Clone(), true
}

func (c *guildCache) put(cfg *suggest.GuildConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configs[cfg.GuildID] = cfg.Clone()
}

func (c *guildCache) invalidate(guildID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.configs, guildID)
}

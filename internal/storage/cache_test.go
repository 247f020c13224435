package storage

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sunnybot/internal/suggest"
)

func TestGuildCacheMissThenHit(t *testing.T) {
	cache := newGuildCache()

	_, ok := cache.get("guild-1")
	assert.False(t, ok)

	cfg := suggest.DefaultGuildConfig("guild-1")
	cfg.SuggestionChannel = "chan-1"
	cache.put(cfg)

	got, ok := cache.get("guild-1")
	require.True(t, ok)
	assert.Equal(t, "chan-1", got.SuggestionChannel)
}

func TestGuildCacheInvalidate(t *testing.T) {
	cache := newGuildCache()
	cache.put(suggest.DefaultGuildConfig("guild-1"))
	cache.put(suggest.DefaultGuildConfig("guild-2"))

	cache.invalidate("guild-1")

	_, ok := cache.get("guild-1")
	assert.False(t, ok)
	_, ok = cache.get("guild-2")
	assert.True(t, ok)
}

func TestGuildCacheHandsOutCopies(t *testing.T) {
	cache := newGuildCache()
	cfg := suggest.DefaultGuildConfig("guild-1")
	cfg.ModeratorRoleIDs = []string{"role-a"}
	cache.put(cfg)

	// Mutating what the caller got back must not leak into the cache.
	got, ok := cache.get("guild-1")
	require.True(t, ok)
	got.UpvoteThreshold = 999
	got.ModeratorRoleIDs[0] = "role-tampered"

	again, ok := cache.get("guild-1")
	require.True(t, ok)
	assert.Equal(t, suggest.DefaultUpvoteThreshold, again.UpvoteThreshold)
	assert.Equal(t, []string{"role-a"}, again.ModeratorRoleIDs)

	// Nor must mutating the original after put.
	cfg.SuggestionChannel = "changed-later"
	again, _ = cache.get("guild-1")
	assert.Empty(t, again.SuggestionChannel)
}

func TestGuildCacheConcurrentAccess(t *testing.T) {
	cache := newGuildCache()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.put(suggest.DefaultGuildConfig("guild-1"))
				cache.get("guild-1")
				cache.invalidate("guild-1")
			}
		}()
	}
	wg.Wait()
}

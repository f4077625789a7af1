package marketplace

import (
	"context"
	"sync"

	"github.com/jonathan/listing-notifier/internal/types"
)

// ProfileFetcher resolves a seller id to a profile; nil means unavailable.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, userID string) types.UserProfile
}

// ProfileCache memoizes profile lookups for the lifetime of one run, so a
// seller with many listings is fetched once. Unavailable profiles are
// memoized as well. Concurrent lookups of the same id share one request.
type ProfileCache struct {
	src ProfileFetcher

	mu      sync.Mutex
	entries map[string]*profileEntry
}

type profileEntry struct {
	once    sync.Once
	profile types.UserProfile
}

// NewProfileCache wraps src.
func NewProfileCache(src ProfileFetcher) *ProfileCache {
	return &ProfileCache{
		src:     src,
		entries: make(map[string]*profileEntry),
	}
}

// FetchProfile returns the memoized profile for userID, fetching it on first use.
func (c *ProfileCache) FetchProfile(ctx context.Context, userID string) types.UserProfile {
	c.mu.Lock()
	entry, ok := c.entries[userID]
	if !ok {
		entry = &profileEntry{}
		c.entries[userID] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.profile = c.src.FetchProfile(ctx, userID)
	})
	return entry.profile
}

// Len returns how many distinct sellers were looked up.
func (c *ProfileCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

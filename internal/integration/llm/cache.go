package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/patrickmn/go-cache"
)

type embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Name() string
}

// CachedEmbedder memoizes embeddings per text. Errors are not cached.
type CachedEmbedder struct {
	next  embedder
	cache *cache.Cache
}

func NewCachedEmbedder(next embedder, ttl, cleanupInterval time.Duration) *CachedEmbedder {
	return &CachedEmbedder{
		next:  next,
		cache: cache.New(ttl, cleanupInterval),
	}
}

func (c *CachedEmbedder) Name() string {
	return c.next.Name()
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if v, ok := c.cache.Get(key); ok {
		return v.([]float32), nil
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.cache.SetDefault(key, vec)
	return vec, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

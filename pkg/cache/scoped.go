package cache

import (
	"context"
	"time"
)

// Scoped prefixes every key before it reaches the wrapped cache, so several
// deployments can share one Redis instance:
//
//	c = NewScoped(redis, "staging:")
type Scoped struct {
	Cache
	prefix string
}

// NewScoped wraps c. An empty prefix returns c unchanged.
func NewScoped(c Cache, prefix string) Cache {
	if prefix == "" {
		return c
	}
	return &Scoped{Cache: c, prefix: prefix}
}

func (s *Scoped) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.Cache.Get(ctx, s.prefix+key)
}

func (s *Scoped) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.Cache.Set(ctx, s.prefix+key, data, ttl)
}

func (s *Scoped) Delete(ctx context.Context, key string) error {
	return s.Cache.Delete(ctx, s.prefix+key)
}

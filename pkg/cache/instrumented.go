package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/memeforge/pkg/observability"
)

// Instrumented wraps a Cache and reports hits, misses, and writes to the
// registered observability cache hooks.
type Instrumented struct {
	Cache
}

// NewInstrumented wraps c.
func NewInstrumented(c Cache) *Instrumented {
	return &Instrumented{Cache: c}
}

// Get retrieves a value and reports a hit or miss.
func (c *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.Cache.Get(ctx, key)
	if err != nil {
		return data, hit, err
	}
	if hit {
		observability.Cache().OnCacheHit(ctx, KeyKind(key))
	} else {
		observability.Cache().OnCacheMiss(ctx, KeyKind(key))
	}
	return data, hit, nil
}

// Set stores a value and reports the write.
func (c *Instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, KeyKind(key), len(data))
	return nil
}

// KeyKind returns the entry kind encoded in a key built by DefaultKeyer
// ("http", "image" or "artifact"), skipping any scope prefix. Unknown keys
// report "other".
func KeyKind(key string) string {
	for _, part := range strings.Split(key, ":") {
		switch part {
		case "http", "image", "artifact":
			return part
		}
	}
	return "other"
}

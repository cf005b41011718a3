// Package cache provides byte-oriented caches shared by the CLI and the server.
//
// Every backend implements [Cache]:
//   - [FileCache]: entry files under ~/.cache/memeforge (CLI default)
//   - [MemoryCache]: bounded in-process LRU (server default)
//   - [RedisCache]: shared cache for multi-instance deployments
//   - [NullCache]: caching disabled
//
// [Scoped] prefixes keys and [Instrumented] reports hits and misses to the
// observability hooks; both wrap any backend.
//
// Keys are built by a [Keyer] so that HTTP responses, downloaded template
// images and rendered artifacts never collide.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte slices under string keys with an optional TTL.
//
// Get returns (nil, false, nil) on a miss. A ttl of 0 means the entry does
// not expire. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default TTLs per entry kind.
const (
	// TTLHTTP covers JSON API responses such as the template list.
	TTLHTTP = 24 * time.Hour

	// TTLImage covers downloaded template image bytes. Template URLs are
	// content-addressed upstream, so they can be kept for a long time.
	TTLImage = 7 * 24 * time.Hour

	// TTLArtifact covers rendered memes. Rendering is deterministic for a
	// given key, so the TTL only bounds disk usage.
	TTLArtifact = 24 * time.Hour
)

// Package history keeps the most recently generated memes.
//
// The list is bounded: Add prepends a record and drops everything past the
// store's limit, so List always returns at most Limit records, newest first.
// Images are never stored. A record carries the source image URL, both
// captions and the style, which is enough to re-render it on demand.
//
// Backends:
//   - MemoryStore: process-local, for tests and the HTTP server without persistence
//   - FileStore: a single JSON file, for the CLI (~/.config/memeforge/history.json)
//   - RedisStore: a capped Redis list, shared between server instances
//   - MongoStore: a MongoDB collection pruned to the newest Limit documents
//
// # Usage
//
//	store, err := history.NewFileStore("", history.DefaultLimit)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	rec := meme.NewRecord(url, top, bottom, topic, nil)
//	if err := store.Add(ctx, rec); err != nil {
//	    return err
//	}
//	recent, _ := store.List(ctx)
package history

import (
	"context"
	"fmt"

	"github.com/matzehuels/memeforge/pkg/meme"

	errs "github.com/matzehuels/memeforge/pkg/errors"
)

// DefaultLimit is the number of records a store keeps.
const DefaultLimit = 10

// ErrNotFound is returned by Get when no record has the requested ID.
var ErrNotFound = errs.New(errs.ErrCodeMemeNotFound, "meme not found")

// Store is the interface for history backends.
type Store interface {
	// Add prepends rec and truncates the history to the store's limit.
	Add(ctx context.Context, rec meme.Record) error

	// List returns the stored records, newest first.
	List(ctx context.Context) ([]meme.Record, error)

	// Get returns the record with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (meme.Record, error)

	// Clear removes every record.
	Clear(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

// prepend returns rec followed by recs, truncated to limit. A record
// already present with the same ID is moved to the front instead of being
// duplicated.
func prepend(recs []meme.Record, rec meme.Record, limit int) []meme.Record {
	out := make([]meme.Record, 0, min(len(recs)+1, limit))
	out = append(out, rec)
	for _, r := range recs {
		if len(out) == limit {
			break
		}
		if r.ID == rec.ID {
			continue
		}
		out = append(out, r)
	}
	return out
}

func find(recs []meme.Record, id string) (meme.Record, error) {
	for _, r := range recs {
		if r.ID == id {
			return r, nil
		}
	}
	return meme.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

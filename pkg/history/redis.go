package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/memeforge/pkg/meme"
)

// DefaultRedisKey is the list key used by RedisStore.
const DefaultRedisKey = "memeforge:history"

// RedisStore keeps history as a capped Redis list of JSON records.
// LPUSH and LTRIM run in one transaction so concurrent writers never see
// a list longer than the limit.
type RedisStore struct {
	client *redis.Client
	key    string
	limit  int
}

// NewRedisStore connects to the Redis server at url (redis://host:port/db).
func NewRedisStore(ctx context.Context, url string, limit int) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return NewRedisStoreFromClient(client, DefaultRedisKey, limit), nil
}

// NewRedisStoreFromClient wraps an existing client. The store takes
// ownership and closes it on Close.
func NewRedisStoreFromClient(client *redis.Client, key string, limit int) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key, limit: normalizeLimit(limit)}
}

func (s *RedisStore) Add(ctx context.Context, rec meme.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, s.key, data)
		pipe.LTrim(ctx, s.key, 0, int64(s.limit-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("push history: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]meme.Record, error) {
	vals, err := s.client.LRange(ctx, s.key, 0, int64(s.limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return decodeRecords(vals)
}

func (s *RedisStore) Get(ctx context.Context, id string) (meme.Record, error) {
	recs, err := s.List(ctx)
	if err != nil {
		return meme.Record{}, err
	}
	return find(recs, id)
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// decodeRecords parses list values, skipping entries that are not valid
// records. Duplicate IDs keep their newest occurrence.
func decodeRecords(vals []string) ([]meme.Record, error) {
	recs := make([]meme.Record, 0, len(vals))
	seen := make(map[string]bool, len(vals))
	for _, v := range vals {
		var rec meme.Record
		if err := json.Unmarshal([]byte(v), &rec); err != nil || rec.ID == "" {
			continue
		}
		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		recs = append(recs, rec)
	}
	return recs, nil
}

var _ Store = (*RedisStore)(nil)

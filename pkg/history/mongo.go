package history

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/memeforge/pkg/meme"
)

// Mongo defaults.
const (
	DefaultMongoDatabase   = "memeforge"
	DefaultMongoCollection = "history"
)

// MongoStore keeps history in a MongoDB collection. Records are keyed by
// their ID and ordered by timestamp; Add prunes everything past the limit.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	limit  int
}

// NewMongoStore connects to uri and uses database (DefaultMongoDatabase
// when empty).
func NewMongoStore(ctx context.Context, uri, database string, limit int) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	if database == "" {
		database = DefaultMongoDatabase
	}
	coll := client.Database(database).Collection(DefaultMongoCollection)
	return &MongoStore{client: client, coll: coll, limit: normalizeLimit(limit)}, nil
}

func (s *MongoStore) Add(ctx context.Context, rec meme.Record) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, opts); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return s.prune(ctx)
}

// prune deletes every record older than the newest limit.
func (s *MongoStore) prune(ctx context.Context) error {
	find := options.Find().
		SetSort(newestFirst()).
		SetSkip(int64(s.limit)).
		SetProjection(bson.M{"_id": 1})
	cur, err := s.coll.Find(ctx, bson.D{}, find)
	if err != nil {
		return fmt.Errorf("find stale records: %w", err)
	}
	var stale []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &stale); err != nil {
		return fmt.Errorf("read stale records: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}
	ids := make([]string, len(stale))
	for i, d := range stale {
		ids[i] = d.ID
	}
	if _, err := s.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]meme.Record, error) {
	find := options.Find().SetSort(newestFirst()).SetLimit(int64(s.limit))
	cur, err := s.coll.Find(ctx, bson.D{}, find)
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}
	recs := []meme.Record{}
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return recs, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (meme.Record, error) {
	var rec meme.Record
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return meme.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return meme.Record{}, fmt.Errorf("find record: %w", err)
	}
	return rec, nil
}

func (s *MongoStore) Clear(ctx context.Context) error {
	if _, err := s.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

func newestFirst() bson.D {
	return bson.D{{Key: "timestamp", Value: -1}}
}

var _ Store = (*MongoStore)(nil)

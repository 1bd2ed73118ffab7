package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"locadz/internal/app/middleware"
)

const defaultIdempotencyTTL = 7 * 24 * time.Hour

// IdempotencyStore keeps replayable command results keyed by
// "<command>:<client key>". Mongo expires documents after ttl.
type IdempotencyStore struct {
	col *mongo.Collection
	ttl time.Duration
}

func NewIdempotencyStore(db *mongo.Database, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{col: db.Collection("app_idempotency"), ttl: ttl}
}

// EnsureIndexes installs the expiry index on stored_at.
func (s *IdempotencyStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "stored_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(s.ttl / time.Second)),
	})
	return err
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var doc idempotencyDocument
	err := s.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return middleware.IdempotencyRecord{}, false, nil
	case err != nil:
		return middleware.IdempotencyRecord{}, false, err
	}
	// the TTL monitor runs once a minute
	if time.Since(doc.StoredAt) > s.ttl {
		return middleware.IdempotencyRecord{}, false, nil
	}
	return middleware.IdempotencyRecord{Key: doc.Key, Payload: doc.Payload, OccurredAt: doc.OccurredAt}, true, nil
}

// Save keeps the first stored result; a concurrent duplicate is ignored.
func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	_, err := s.col.InsertOne(ctx, idempotencyDocument{
		Key:        rec.Key,
		Payload:    rec.Payload,
		OccurredAt: rec.OccurredAt,
		StoredAt:   time.Now().UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

type idempotencyDocument struct {
	Key        string    `bson:"_id"`
	Payload    []byte    `bson:"payload,omitempty"`
	OccurredAt time.Time `bson:"occurred_at"`
	StoredAt   time.Time `bson:"stored_at"`
}

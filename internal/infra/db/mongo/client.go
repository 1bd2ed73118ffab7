package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	colListings      = "listings"
	colCalendars     = "availability_calendars"
	colBookings      = "bookings"
	colProofs        = "payment_proofs"
	colPayouts       = "payouts"
	colNotifications = "notifications"
)

type Client struct {
	DB *mongo.Database
}

func New(uri, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	opts := options.Client().ApplyURI(uri).SetRetryWrites(true)
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Client{DB: m.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}

func (c *Client) Disconnect(ctx context.Context) error {
	return c.DB.Client().Disconnect(ctx)
}

// EnsureIndexes creates the query indexes and the partial unique index that
// allows a single pending request per guest, listing and dates.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	plan := map[string][]mongo.IndexModel{
		colListings: {
			{Keys: bson.D{{Key: "host_id", Value: 1}}},
		},
		colBookings: {
			{Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "host_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "guest_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{
				Keys: bson.D{
					{Key: "listing_id", Value: 1},
					{Key: "guest_id", Value: 1},
					{Key: "range.start", Value: 1},
					{Key: "range.end", Value: 1},
				},
				Options: options.Index().
					SetName("uniq_pending_request").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": "PENDING_APPROVAL"}),
			},
		},
		colProofs: {
			{Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		colPayouts: {
			{Keys: bson.D{{Key: "host_id", Value: 1}, {Key: "date", Value: -1}}},
		},
		colNotifications: {
			{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}
	for name, models := range plan {
		if _, err := c.DB.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo: indexes for %s: %w", name, err)
		}
	}
	return nil
}

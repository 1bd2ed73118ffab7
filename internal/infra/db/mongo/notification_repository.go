package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainnotifications "locadz/internal/domain/notifications"
)

type NotificationRepository struct {
	col *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{col: db.Collection(colNotifications)}
}

func (r *NotificationRepository) Save(ctx context.Context, n *domainnotifications.Notification) error {
	doc := notificationDocument{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Type:        string(n.Type),
		Title:       n.Title,
		Body:        n.Body,
		Data:        n.Data,
		Read:        n.Read,
		CreatedAt:   timeToTimestamp(n.CreatedAt),
	}
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*domainnotifications.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.col.Find(ctx, bson.M{"recipient_id": recipientID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []notificationDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainnotifications.Notification, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domainnotifications.Notification{
			ID:          d.ID,
			RecipientID: d.RecipientID,
			Type:        domainnotifications.Type(d.Type),
			Title:       d.Title,
			Body:        d.Body,
			Data:        d.Data,
			Read:        d.Read,
			CreatedAt:   timestampToTime(d.CreatedAt),
		})
	}
	return out, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, recipientID, id string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "recipient_id": recipientID}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domainnotifications.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	res, err := r.col.UpdateMany(ctx, bson.M{"recipient_id": recipientID, "read": false}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, err
	}
	return int(res.ModifiedCount), nil
}

type notificationDocument struct {
	ID          string            `bson:"_id"`
	RecipientID string            `bson:"recipient_id"`
	Type        string            `bson:"type"`
	Title       string            `bson:"title"`
	Body        string            `bson:"body"`
	Data        map[string]string `bson:"data,omitempty"`
	Read        bool              `bson:"read"`
	CreatedAt   int64             `bson:"created_at"`
}

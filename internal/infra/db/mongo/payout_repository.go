package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "locadz/internal/domain/listings"
	domainpayouts "locadz/internal/domain/payouts"
)

type PayoutRepository struct {
	col *mongo.Collection
}

func NewPayoutRepository(db *mongo.Database) *PayoutRepository {
	return &PayoutRepository{col: db.Collection(colPayouts)}
}

// Save upserts by id so a redelivered payout event overwrites itself.
func (r *PayoutRepository) Save(ctx context.Context, rec *domainpayouts.Record) error {
	doc := payoutDocument{
		ID:        rec.ID,
		HostID:    string(rec.HostID),
		Amount:    newMoneyDocument(rec.Amount),
		Date:      timeToTimestamp(rec.Date),
		Method:    string(rec.Method),
		Status:    string(rec.Status),
		Reference: rec.Reference,
	}
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (r *PayoutRepository) ListByHost(ctx context.Context, host domainlistings.HostID) ([]*domainpayouts.Record, error) {
	cur, err := r.col.Find(ctx, bson.M{"host_id": string(host)}, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []payoutDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainpayouts.Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domainpayouts.Record{
			ID:        d.ID,
			HostID:    domainlistings.HostID(d.HostID),
			Amount:    d.Amount.toMoney(),
			Date:      timestampToTime(d.Date),
			Method:    domainpayouts.Method(d.Method),
			Status:    domainpayouts.Status(d.Status),
			Reference: d.Reference,
		})
	}
	return out, nil
}

type payoutDocument struct {
	ID        string        `bson:"_id"`
	HostID    string        `bson:"host_id"`
	Amount    moneyDocument `bson:"amount"`
	Date      int64         `bson:"date"`
	Method    string        `bson:"method"`
	Status    string        `bson:"status"`
	Reference string        `bson:"reference,omitempty"`
}

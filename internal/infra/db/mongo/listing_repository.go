package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "locadz/internal/domain/listings"
)

// ListingRepository reads the catalog projection the booking flow needs.
type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection(colListings)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		return nil, mapNotFound(err, domainlistings.ErrListingNotFound)
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	doc := newListingDocument(listing)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (r *ListingRepository) ListByHost(ctx context.Context, host domainlistings.HostID) ([]*domainlistings.Listing, error) {
	cur, err := r.col.Find(ctx, bson.M{"host_id": string(host)}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []listingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainlistings.Listing, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

type listingDocument struct {
	ID          string        `bson:"_id"`
	HostID      string        `bson:"host_id"`
	Title       string        `bson:"title"`
	Location    string        `bson:"location"`
	NightlyRate moneyDocument `bson:"nightly_rate"`
	GuestsLimit int           `bson:"guests_limit"`
	State       string        `bson:"state"`
	CreatedAt   int64         `bson:"created_at"`
	UpdatedAt   int64         `bson:"updated_at"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:          string(l.ID),
		HostID:      string(l.Host),
		Title:       l.Title,
		Location:    l.Location,
		NightlyRate: newMoneyDocument(l.NightlyRate),
		GuestsLimit: l.GuestsLimit,
		State:       string(l.State),
		CreatedAt:   timeToTimestamp(l.CreatedAt),
		UpdatedAt:   timeToTimestamp(l.UpdatedAt),
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:          domainlistings.ListingID(d.ID),
		Host:        domainlistings.HostID(d.HostID),
		Title:       d.Title,
		Location:    d.Location,
		NightlyRate: d.NightlyRate.toMoney(),
		GuestsLimit: d.GuestsLimit,
		State:       domainlistings.ListingState(d.State),
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
	}
}

package mongo

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"locadz/internal/app/uow"
	domainbooking "locadz/internal/domain/booking"
	"locadz/internal/domain/listings"
	domainpricing "locadz/internal/domain/pricing"
	domainrange "locadz/internal/domain/shared/daterange"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(colBookings)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		return nil, mapNotFound(err, domainbooking.ErrBookingNotFound)
	}
	return doc.toAggregate()
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return mapWriteConflict(err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return uow.ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) Delete(ctx context.Context, id domainbooking.BookingID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainbooking.ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepository) FindPending(ctx context.Context, listingID listings.ListingID, guestID string, dr domainrange.DateRange) (*domainbooking.Booking, error) {
	rd := newRangeDocument(dr)
	filter := bson.M{
		"listing_id":  string(listingID),
		"guest_id":    guestID,
		"status":      string(domainbooking.StatusPendingApproval),
		"range.start": rd.Start,
		"range.end":   rd.End,
	}
	var doc bookingDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapNotFound(err, domainbooking.ErrBookingNotFound)
	}
	return doc.toAggregate()
}

func (r *BookingRepository) ListByListings(ctx context.Context, ids []listings.ListingID, statuses []domainbooking.Status) ([]*domainbooking.Booking, error) {
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, string(id))
	}
	filter := withStatuses(bson.M{"listing_id": bson.M{"$in": raw}}, statuses)
	return r.find(ctx, filter)
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	id := strings.TrimSpace(guestID)
	if id == "" {
		return nil, fmt.Errorf("mongo: guest id required")
	}
	return r.find(ctx, bson.M{"guest_id": id})
}

func (r *BookingRepository) ListByHost(ctx context.Context, hostID listings.HostID, statuses []domainbooking.Status) ([]*domainbooking.Booking, error) {
	return r.find(ctx, withStatuses(bson.M{"host_id": string(hostID)}, statuses))
}

func (r *BookingRepository) ListByStatuses(ctx context.Context, statuses []domainbooking.Status) ([]*domainbooking.Booking, error) {
	return r.find(ctx, withStatuses(bson.M{}, statuses))
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, doc := range docs {
		agg, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	return out, nil
}

// withStatuses leaves the filter open when statuses is empty.
func withStatuses(filter bson.M, statuses []domainbooking.Status) bson.M {
	if len(statuses) == 0 {
		return filter
	}
	raw := make([]string, 0, len(statuses))
	for _, s := range statuses {
		raw = append(raw, string(s))
	}
	filter["status"] = bson.M{"$in": raw}
	return filter
}

type bookingDocument struct {
	ID                string        `bson:"_id"`
	ListingID         string        `bson:"listing_id"`
	HostID            string        `bson:"host_id"`
	ListingTitle      string        `bson:"listing_title"`
	GuestID           string        `bson:"guest_id"`
	Range             rangeDocument `bson:"range"`
	Guests            int           `bson:"guests"`
	TravelerBirthdate int64         `bson:"traveler_birthdate,omitempty"`
	PaymentMethod     string        `bson:"payment_method"`
	PaymentRef        string        `bson:"payment_ref,omitempty"`
	ReceiptKey        string        `bson:"receipt_key,omitempty"`
	Price             priceDocument `bson:"price"`
	Status            string        `bson:"status"`
	Reason            string        `bson:"reason,omitempty"`
	CreatedAt         int64         `bson:"created_at"`
	UpdatedAt         int64         `bson:"updated_at"`
	Version           int64         `bson:"version"`
}

// priceDocument keeps the snapshot taken at booking time. Records written
// before the detailed breakdown only carry total and commission.
type priceDocument struct {
	Detailed         bool          `bson:"detailed"`
	Nights           int           `bson:"nights,omitempty"`
	NightlyRate      moneyDocument `bson:"nightly_rate"`
	Base             moneyDocument `bson:"base"`
	ServiceFeeClient moneyDocument `bson:"service_fee_client"`
	HostCommission   moneyDocument `bson:"host_commission"`
	Total            moneyDocument `bson:"total"`
	PayoutHost       moneyDocument `bson:"payout_host"`
	Commission       moneyDocument `bson:"commission_fee"`
}

func newPriceDocument(p domainpricing.Breakdown) priceDocument {
	return priceDocument{
		Detailed:         p.Detailed,
		Nights:           p.Nights,
		NightlyRate:      newMoneyDocument(p.NightlyRate),
		Base:             newMoneyDocument(p.Base),
		ServiceFeeClient: newMoneyDocument(p.ServiceFeeClient),
		HostCommission:   newMoneyDocument(p.HostCommission),
		Total:            newMoneyDocument(p.Total),
		PayoutHost:       newMoneyDocument(p.PayoutHost),
		Commission:       newMoneyDocument(p.PlatformRevenue()),
	}
}

func (d priceDocument) toBreakdown() domainpricing.Breakdown {
	if !d.Detailed {
		return domainpricing.Legacy(d.Total.toMoney(), d.Commission.toMoney())
	}
	return domainpricing.Breakdown{
		Nights:           d.Nights,
		NightlyRate:      d.NightlyRate.toMoney(),
		Base:             d.Base.toMoney(),
		ServiceFeeClient: d.ServiceFeeClient.toMoney(),
		HostCommission:   d.HostCommission.toMoney(),
		Total:            d.Total.toMoney(),
		PayoutHost:       d.PayoutHost.toMoney(),
		Detailed:         true,
	}
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:                string(b.ID),
		ListingID:         string(b.ListingID),
		HostID:            string(b.HostID),
		ListingTitle:      b.ListingTitle,
		GuestID:           b.GuestID,
		Range:             newRangeDocument(b.Range),
		Guests:            b.Guests,
		TravelerBirthdate: timeToTimestamp(b.TravelerBirthdate),
		PaymentMethod:     string(b.PaymentMethod),
		PaymentRef:        b.PaymentRef,
		ReceiptKey:        b.ReceiptKey,
		Price:             newPriceDocument(b.Price),
		Status:            string(b.Status),
		Reason:            b.Reason,
		CreatedAt:         timeToTimestamp(b.CreatedAt),
		UpdatedAt:         timeToTimestamp(b.UpdatedAt),
		Version:           b.Version,
	}
}

func (d bookingDocument) toAggregate() (*domainbooking.Booking, error) {
	dr, err := d.Range.toRange()
	if err != nil {
		return nil, fmt.Errorf("mongo: booking %s: %w", d.ID, err)
	}
	return &domainbooking.Booking{
		ID:                domainbooking.BookingID(d.ID),
		ListingID:         listings.ListingID(d.ListingID),
		HostID:            listings.HostID(d.HostID),
		ListingTitle:      d.ListingTitle,
		GuestID:           d.GuestID,
		Range:             dr,
		Guests:            d.Guests,
		TravelerBirthdate: timestampToTime(d.TravelerBirthdate),
		PaymentMethod:     domainbooking.PaymentMethod(d.PaymentMethod),
		PaymentRef:        d.PaymentRef,
		ReceiptKey:        d.ReceiptKey,
		Price:             d.Price.toBreakdown(),
		Status:            domainbooking.Status(d.Status),
		Reason:            d.Reason,
		CreatedAt:         timestampToTime(d.CreatedAt),
		UpdatedAt:         timestampToTime(d.UpdatedAt),
		Version:           d.Version,
	}, nil
}

package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"locadz/internal/app/uow"
	domainavailability "locadz/internal/domain/availability"
	domainlistings "locadz/internal/domain/listings"
)

type CalendarRepository struct {
	col *mongo.Collection
}

func NewCalendarRepository(db *mongo.Database) *CalendarRepository {
	return &CalendarRepository{col: db.Collection(colCalendars)}
}

func (r *CalendarRepository) Calendar(ctx context.Context, id domainlistings.ListingID) (*domainavailability.Calendar, error) {
	var doc calendarDocument
	err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domainavailability.NewCalendar(id), nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toAggregate()
}

// Save writes the calendar only if nobody saved it since it was read.
func (r *CalendarRepository) Save(ctx context.Context, cal *domainavailability.Calendar) error {
	doc := newCalendarDocument(cal)
	filter := bson.M{"_id": doc.ID, "version": cal.Version}
	doc.Version = cal.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		return mapWriteConflict(err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return uow.ErrConcurrentUpdate
	}
	cal.Version = doc.Version
	return nil
}

type calendarDocument struct {
	ID      string          `bson:"_id"`
	Blocks  []blockDocument `bson:"blocks"`
	Version int64           `bson:"version"`
}

type blockDocument struct {
	Range     rangeDocument `bson:"range"`
	Reference string        `bson:"reference"`
	CreatedAt int64         `bson:"created_at"`
}

func newCalendarDocument(cal *domainavailability.Calendar) calendarDocument {
	blocks := make([]blockDocument, 0, len(cal.Blocks))
	for _, b := range cal.Blocks {
		blocks = append(blocks, blockDocument{Range: newRangeDocument(b.Range), Reference: b.Reference, CreatedAt: timeToTimestamp(b.CreatedAt)})
	}
	return calendarDocument{ID: string(cal.ListingID), Blocks: blocks, Version: cal.Version}
}

func (d calendarDocument) toAggregate() (*domainavailability.Calendar, error) {
	cal := domainavailability.NewCalendar(domainlistings.ListingID(d.ID))
	cal.Version = d.Version
	for _, b := range d.Blocks {
		dr, err := b.Range.toRange()
		if err != nil {
			return nil, fmt.Errorf("mongo: calendar %s: %w", d.ID, err)
		}
		cal.Blocks = append(cal.Blocks, domainavailability.Block{Range: dr, Reference: b.Reference, CreatedAt: timestampToTime(b.CreatedAt)})
	}
	return cal, nil
}

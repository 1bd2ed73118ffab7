package mongo

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"locadz/internal/app/uow"
	domainrange "locadz/internal/domain/shared/daterange"
	"locadz/internal/domain/shared/money"
)

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

// rangeDocument stores days as YYYY-MM-DD so equality and ordering work on strings.
type rangeDocument struct {
	Start string `bson:"start"`
	End   string `bson:"end"`
}

func newRangeDocument(dr domainrange.DateRange) rangeDocument {
	return rangeDocument{Start: dr.Start.Format(domainrange.DateLayout), End: dr.End.Format(domainrange.DateLayout)}
}

func (d rangeDocument) toRange() (domainrange.DateRange, error) {
	return domainrange.Parse(d.Start, d.End)
}

func timestampToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func timeToTimestamp(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// mapNotFound turns ErrNoDocuments into the domain sentinel.
func mapNotFound(err, notFound error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound
	}
	return err
}

// mapWriteConflict reports duplicate keys and lost version races as concurrent updates.
func mapWriteConflict(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) || isTransientConflict(err) {
		return uow.ErrConcurrentUpdate
	}
	return err
}

package payouts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"locadz/internal/domain/listings"
	"locadz/internal/domain/shared/money"
)

var (
	ErrHostRequired  = errors.New("payouts: host is required")
	ErrInvalidAmount = errors.New("payouts: amount must be positive")
	ErrInvalidMethod = errors.New("payouts: unknown method")
	ErrInvalidStatus = errors.New("payouts: unknown status")
)

type Method string

const (
	MethodCCP Method = "CCP"
	MethodRIB Method = "RIB"
)

type Status string

const (
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
)

// Record is a transfer of accumulated payouts to a host account, booked
// by external bookkeeping and only displayed here.
type Record struct {
	ID        string
	HostID    listings.HostID
	Amount    money.Money
	Date      time.Time
	Method    Method
	Status    Status
	Reference string
}

type Repository interface {
	Save(ctx context.Context, record *Record) error
	ListByHost(ctx context.Context, host listings.HostID) ([]*Record, error)
}

func NewRecord(id string, host listings.HostID, amount money.Money, date time.Time, method, status, reference string) (*Record, error) {
	if strings.TrimSpace(string(host)) == "" {
		return nil, ErrHostRequired
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	m := Method(strings.ToUpper(strings.TrimSpace(method)))
	if m != MethodCCP && m != MethodRIB {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}
	s := Status(strings.ToUpper(strings.TrimSpace(status)))
	if s == "" {
		s = StatusProcessing
	}
	if s != StatusProcessing && s != StatusCompleted {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return &Record{
		ID:        id,
		HostID:    host,
		Amount:    amount,
		Date:      date.UTC(),
		Method:    m,
		Status:    s,
		Reference: strings.TrimSpace(reference),
	}, nil
}

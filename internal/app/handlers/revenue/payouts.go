package revenue

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"locadz/internal/app/commands"
	"locadz/internal/app/dto"
	handlersupport "locadz/internal/app/handlers/support"
	"locadz/internal/app/queries"
	"locadz/internal/app/uow"
	domainlistings "locadz/internal/domain/listings"
	domainpayouts "locadz/internal/domain/payouts"
	"locadz/internal/domain/shared/money"
	"locadz/internal/domain/user"
)

const (
	listPayoutsKey  = "revenue.payouts.list"
	recordPayoutKey = "revenue.payouts.record"
)

type ListPayoutsQuery struct {
	Actor user.Actor `validate:"-"`
}

func (q ListPayoutsQuery) Key() string { return listPayoutsKey }

func (q ListPayoutsQuery) Principal() user.Actor { return q.Actor }
func (q ListPayoutsQuery) AllowedRoles() []user.Role {
	return []user.Role{user.RoleHost, user.RoleAdmin}
}

type ListPayoutsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListPayoutsHandler) Handle(ctx context.Context, q ListPayoutsQuery) (dto.PayoutCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PayoutCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	records, err := unit.Payouts().ListByHost(execCtx, domainlistings.HostID(q.Actor.ID))
	if err != nil {
		return dto.PayoutCollection{}, err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date.After(records[j].Date) })
	return dto.MapPayouts(records), nil
}

// RecordPayoutCommand stores a payout booked by external bookkeeping. It is
// issued by the payouts consumer, never by an HTTP caller.
type RecordPayoutCommand struct {
	PayoutID  string `validate:"required"`
	HostID    string `validate:"required"`
	Amount    int64  `validate:"gt=0"`
	Currency  string
	Date      time.Time
	Method    string `validate:"required"`
	Status    string
	Reference string
}

func (c RecordPayoutCommand) Key() string { return recordPayoutKey }

type RecordPayoutHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
	Clock      handlersupport.Clock
}

func (h *RecordPayoutHandler) Handle(ctx context.Context, cmd RecordPayoutCommand) (struct{}, error) {
	currency := cmd.Currency
	if currency == "" {
		currency = money.DefaultCurrency
	}
	amount, err := money.New(cmd.Amount, currency)
	if err != nil {
		return struct{}{}, handlersupport.Classify(err)
	}
	date := cmd.Date
	if date.IsZero() {
		date = h.Clock.Now()
	}
	record, err := domainpayouts.NewRecord(cmd.PayoutID, domainlistings.HostID(cmd.HostID), amount, date, cmd.Method, cmd.Status, cmd.Reference)
	if err != nil {
		return struct{}{}, handlersupport.Classify(err)
	}

	unit, execCtx, finish, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return struct{}{}, err
	}
	err = unit.Payouts().Save(execCtx, record)
	if err := finish(err); err != nil {
		return struct{}{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("payout recorded", "payout_id", record.ID, "host_id", string(record.HostID), "amount", record.Amount.Amount, "status", string(record.Status))
	}
	return struct{}{}, nil
}

var (
	_ queries.Handler[ListPayoutsQuery, dto.PayoutCollection] = (*ListPayoutsHandler)(nil)
	_ commands.Handler[RecordPayoutCommand, struct{}]         = (*RecordPayoutHandler)(nil)
)

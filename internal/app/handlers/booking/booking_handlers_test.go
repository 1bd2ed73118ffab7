package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locadz/internal/app/apperr"
	availabilityapp "locadz/internal/app/handlers/availability"
	appoutbox "locadz/internal/app/outbox"
	"locadz/internal/app/policies"
	"locadz/internal/app/uow"
	domainavailability "locadz/internal/domain/availability"
	domainbooking "locadz/internal/domain/booking"
	domainlistings "locadz/internal/domain/listings"
	domainpayments "locadz/internal/domain/payments"
	domainpricing "locadz/internal/domain/pricing"
	domainrange "locadz/internal/domain/shared/daterange"
	"locadz/internal/domain/shared/money"
	"locadz/internal/domain/user"
	"locadz/internal/infra/storage/memory"
)

var testNow = time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)

type flatPricing struct{}

func (flatPricing) Quote(ctx context.Context, l *domainlistings.Listing, dr domainrange.DateRange) (domainpricing.Breakdown, error) {
	return domainpricing.Compute(domainpricing.DefaultFeeRates, l.NightlyRate, dr.Nights())
}

type recordingNotifier struct {
	mu      sync.Mutex
	err     error
	notices []policies.Notice
}

func (n *recordingNotifier) Notify(ctx context.Context, notice policies.Notice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return n.err
}

func (n *recordingNotifier) sent() []policies.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]policies.Notice(nil), n.notices...)
}

type failingOutbox struct{}

func (failingOutbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	return errors.New("outbox unavailable")
}

func (failingOutbox) Flush(ctx context.Context) error { return nil }

// lookupFailingFactory opens real units whose availability lookup errors.
type lookupFailingFactory struct{ uow.UoWFactory }

func (f lookupFailingFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	unit, err := f.UoWFactory.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	return lookupFailingUnit{unit}, nil
}

type lookupFailingUnit struct{ uow.UnitOfWork }

func (u lookupFailingUnit) Bookings() domainbooking.Repository {
	return lookupFailingBookings{u.UnitOfWork.Bookings()}
}

type lookupFailingBookings struct{ domainbooking.Repository }

func (lookupFailingBookings) ListByListings(context.Context, []domainlistings.ListingID, []domainbooking.Status) ([]*domainbooking.Booking, error) {
	return nil, errors.New("bookings read timed out")
}

type fixture struct {
	factory  memory.Factory
	notifier *recordingNotifier
	outbox   appoutbox.Outbox
}

func newFixture() *fixture {
	store := memory.NewStore()
	store.SeedListings(&domainlistings.Listing{
		ID:          "listing-1",
		Host:        "host-1",
		Title:       "Villa in Tipaza",
		NightlyRate: money.Must(15000, "DZD"),
		GuestsLimit: 4,
		State:       domainlistings.ListingActive,
	})
	return &fixture{factory: memory.Factory{Store: store}, notifier: &recordingNotifier{}, outbox: memory.NewOutbox()}
}

func (f *fixture) requester() *RequestBookingHandler {
	return &RequestBookingHandler{
		UoWFactory: f.factory,
		Pricing:    flatPricing{},
		Checker:    &availabilityapp.Checker{Policy: domainavailability.DefaultPolicy},
		Notifier:   f.notifier,
		Outbox:     f.outbox,
		Clock:      func() time.Time { return testNow },
	}
}

func (f *fixture) responder() *RespondToBookingHandler {
	return &RespondToBookingHandler{
		UoWFactory: f.factory,
		Policy:     domainavailability.DefaultPolicy,
		Notifier:   f.notifier,
		Outbox:     f.outbox,
		Clock:      func() time.Time { return testNow },
	}
}

func requestCmd(id, guest, checkIn, checkOut string) RequestBookingCommand {
	in, _ := time.Parse(domainrange.DateLayout, checkIn)
	out, _ := time.Parse(domainrange.DateLayout, checkOut)
	return RequestBookingCommand{
		CommandID:     id,
		Actor:         user.Actor{ID: user.ID(guest), Role: user.RoleTraveler},
		ListingID:     "listing-1",
		CheckIn:       in,
		CheckOut:      out,
		Guests:        2,
		PaymentMethod: "BARIDIMOB",
	}
}

func approveCmd(id string) RespondToBookingCommand {
	return RespondToBookingCommand{
		Actor:     user.Actor{ID: "host-1", Role: user.RoleHost},
		BookingID: id,
		Decision:  DecisionApprove,
	}
}

func (f *fixture) booking(t *testing.T, id string) (*domainbooking.Booking, error) {
	t.Helper()
	unit, err := f.factory.Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	return unit.Bookings().ByID(context.Background(), domainbooking.BookingID(id))
}

func TestRequestBookingLocksPriceAndNotifiesHost(t *testing.T) {
	f := newFixture()
	res, err := f.requester().Handle(context.Background(), requestCmd("b-1", "guest-1", "2025-06-10", "2025-06-15"))
	require.NoError(t, err)
	assert.Equal(t, "PENDING_APPROVAL", res.Status)

	b, err := f.booking(t, "b-1")
	require.NoError(t, err)
	assert.Equal(t, int64(75000), b.Price.Base.Amount)
	assert.Equal(t, int64(81000), b.Price.Total.Amount)
	assert.Equal(t, int64(67500), b.Price.PayoutHost.Amount)

	sent := f.notifier.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "host-1", sent[0].RecipientID)
}

func TestFailingNotifierDoesNotFailTheRequest(t *testing.T) {
	f := newFixture()
	f.notifier.err = errors.New("inbox down")

	res, err := f.requester().Handle(context.Background(), requestCmd("b-1", "guest-1", "2025-06-10", "2025-06-12"))
	require.NoError(t, err)
	assert.Equal(t, "b-1", res.BookingID)
	assert.Len(t, f.notifier.sent(), 1)

	_, err = f.booking(t, "b-1")
	assert.NoError(t, err)
}

func TestOutboxFailureLeavesNothingBehind(t *testing.T) {
	f := newFixture()
	f.outbox = failingOutbox{}

	_, err := f.requester().Handle(context.Background(), requestCmd("b-1", "guest-1", "2025-06-10", "2025-06-12"))
	require.Error(t, err)

	_, err = f.booking(t, "b-1")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
	assert.Empty(t, f.notifier.sent())
}

func TestRequestFailsClosedWhenAvailabilityIsUnknown(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.requester().Handle(ctx, requestCmd("b-1", "guest-1", "2025-06-10", "2025-06-15"))
	require.NoError(t, err)
	sentBefore := len(f.notifier.sent())

	h := f.requester()
	h.UoWFactory = lookupFailingFactory{f.factory}
	_, err = h.Handle(ctx, requestCmd("b-2", "guest-1", "2025-06-10", "2025-06-15"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))

	_, err = f.booking(t, "b-1")
	assert.NoError(t, err, "pending request is not replaced")
	_, err = f.booking(t, "b-2")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
	assert.Len(t, f.notifier.sent(), sentBefore)

	h.Checker = &availabilityapp.Checker{Policy: domainavailability.DefaultPolicy, FailOpen: true}
	_, err = h.Handle(ctx, requestCmd("b-3", "guest-2", "2025-06-20", "2025-06-22"))
	require.NoError(t, err)
	_, err = f.booking(t, "b-3")
	assert.NoError(t, err)
}

func TestRequestRejectsOverlapWithApprovedStay(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.requester().Handle(ctx, requestCmd("b-1", "guest-1", "2025-06-10", "2025-06-15"))
	require.NoError(t, err)
	_, err = f.responder().Handle(ctx, approveCmd("b-1"))
	require.NoError(t, err)

	_, err = f.requester().Handle(ctx, requestCmd("b-2", "guest-2", "2025-06-14", "2025-06-20"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = f.requester().Handle(ctx, requestCmd("b-3", "guest-2", "2025-06-15", "2025-06-20"))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err), "checkout day stays occupied")

	_, err = f.requester().Handle(ctx, requestCmd("b-4", "guest-2", "2025-06-16", "2025-06-20"))
	require.NoError(t, err)
}

func TestApprovingOverlappingRequestsKeepsOneStay(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.requester().Handle(ctx, requestCmd("b-1", "guest-1", "2025-06-10", "2025-06-15"))
	require.NoError(t, err)
	_, err = f.requester().Handle(ctx, requestCmd("b-2", "guest-2", "2025-06-12", "2025-06-18"))
	require.NoError(t, err)

	_, err = f.responder().Handle(ctx, approveCmd("b-1"))
	require.NoError(t, err)
	_, err = f.responder().Handle(ctx, approveCmd("b-2"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	b, err := f.booking(t, "b-2")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPendingApproval, b.Status)
}

func TestInterleavedApprovalsConflictOnCommit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.requester().Handle(ctx, requestCmd("b-1", "guest-1", "2025-06-10", "2025-06-15"))
	require.NoError(t, err)
	_, err = f.requester().Handle(ctx, requestCmd("b-2", "guest-2", "2025-06-20", "2025-06-22"))
	require.NoError(t, err)

	first, err := f.factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	second, err := f.factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)

	_, err = f.responder().Handle(uow.ContextWithUnitOfWork(ctx, first), approveCmd("b-1"))
	require.NoError(t, err)
	_, err = f.responder().Handle(uow.ContextWithUnitOfWork(ctx, second), approveCmd("b-2"))
	require.NoError(t, err)

	require.NoError(t, first.Commit(ctx))
	assert.ErrorIs(t, second.Commit(ctx), uow.ErrConcurrentUpdate)
}

func TestConcurrentApprovalsSucceedOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.requester().Handle(ctx, requestCmd("b-1", "guest-1", "2025-06-10", "2025-06-15"))
	require.NoError(t, err)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.responder().Handle(ctx, approveCmd("b-1"))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err), err.Error())
	}
	assert.Equal(t, 1, succeeded)
}

func TestStrangerCannotDecide(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.requester().Handle(ctx, requestCmd("b-1", "guest-1", "2025-06-10", "2025-06-15"))
	require.NoError(t, err)

	cmd := approveCmd("b-1")
	cmd.Actor = user.Actor{ID: "host-2", Role: user.RoleHost}
	_, err = f.responder().Handle(ctx, cmd)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestCancelWithdrawsPendingProofs(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.requester().Handle(ctx, requestCmd("b-1", "guest-1", "2025-06-10", "2025-06-15"))
	require.NoError(t, err)
	_, err = f.responder().Handle(ctx, approveCmd("b-1"))
	require.NoError(t, err)

	proof, err := domainpayments.NewProof(domainpayments.SubmitParams{
		ID:          "p-1",
		BookingID:   "b-1",
		SubmittedBy: "guest-1",
		Amount:      money.Must(81000, "DZD"),
		Method:      domainbooking.PaymentBaridiMob,
		EvidenceKey: "proofs/b-1/b-1-1.png",
		Now:         testNow,
	})
	require.NoError(t, err)
	unit, err := f.factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.PaymentProofs().Save(ctx, proof))
	require.NoError(t, unit.Commit(ctx))

	canceller := &CancelBookingHandler{
		UoWFactory: f.factory,
		Policy:     domainavailability.DefaultPolicy,
		Notifier:   f.notifier,
		Outbox:     f.outbox,
		Clock:      func() time.Time { return testNow },
	}
	res, err := canceller.Handle(ctx, CancelBookingCommand{
		Actor:     user.Actor{ID: "admin-1", Role: user.RoleAdmin},
		BookingID: "b-1",
		Reason:    "host unreachable",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StatusCancelled), res.Status)

	read, err := f.factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	queue, err := read.PaymentProofs().ListByStatus(ctx, domainpayments.StatusPending)
	require.NoError(t, err)
	assert.Empty(t, queue)
	stored, err := read.PaymentProofs().ByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, domainpayments.StatusRejected, stored.Status)
	assert.Equal(t, cancelledProofReason, stored.RejectionReason)

	_, err = f.requester().Handle(ctx, requestCmd("b-2", "guest-2", "2025-06-10", "2025-06-15"))
	assert.NoError(t, err, "cancelled stay releases its dates")
}

package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"

	"locadz/internal/app/uow"
	domainavailability "locadz/internal/domain/availability"
	domainbooking "locadz/internal/domain/booking"
	domainlistings "locadz/internal/domain/listings"
	domainnotifications "locadz/internal/domain/notifications"
	domainpayments "locadz/internal/domain/payments"
	domainpayouts "locadz/internal/domain/payouts"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	ListingsRepo      domainlistings.ListingRepository
	CalendarsRepo     domainavailability.Repository
	BookingsRepo      domainbooking.Repository
	ProofsRepo        domainpayments.Repository
	PayoutsRepo       domainpayouts.Repository
	NotificationsRepo domainnotifications.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// NewFactory builds a factory with every repository bound to db.
func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:                db,
		ListingsRepo:      NewListingRepository(db),
		CalendarsRepo:     NewCalendarRepository(db),
		BookingsRepo:      NewBookingRepository(db),
		ProofsRepo:        NewProofRepository(db),
		PayoutsRepo:       NewPayoutRepository(db),
		NotificationsRepo: NewNotificationRepository(db),
	}
}

// Begin starts a MongoDB session. Writable units run inside a multi-document
// transaction; read-only units read at majority without one.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	unit := &Unit{
		session:       session,
		readOnly:      opts.ReadOnly,
		listings:      f.ListingsRepo,
		calendars:     f.CalendarsRepo,
		bookings:      f.BookingsRepo,
		proofs:        f.ProofsRepo,
		payouts:       f.PayoutsRepo,
		notifications: f.NotificationsRepo,
	}
	if opts.ReadOnly {
		return unit, nil
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return unit, nil
}

type Unit struct {
	session  mongo.Session
	readOnly bool

	listings      domainlistings.ListingRepository
	calendars     domainavailability.Repository
	bookings      domainbooking.Repository
	proofs        domainpayments.Repository
	payouts       domainpayouts.Repository
	notifications domainnotifications.Repository
}

func (u *Unit) Listings() domainlistings.ListingRepository { return u.listings }

func (u *Unit) Calendars() domainavailability.Repository { return u.calendars }

func (u *Unit) Bookings() domainbooking.Repository { return u.bookings }

func (u *Unit) PaymentProofs() domainpayments.Repository { return u.proofs }

func (u *Unit) Payouts() domainpayouts.Repository { return u.payouts }

func (u *Unit) Notifications() domainnotifications.Repository { return u.notifications }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	if err := u.session.CommitTransaction(ctx); err != nil {
		if isTransientConflict(err) {
			return uow.ErrConcurrentUpdate
		}
		return err
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

// isTransientConflict reports write conflicts between concurrent transactions.
func isTransientConflict(err error) bool {
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorLabel("TransientTransactionError") || se.HasErrorCode(112)
	}
	return false
}

var _ uow.UoWFactory = Factory{}

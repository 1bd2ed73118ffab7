package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"locadz/internal/app/commands"
	"locadz/internal/app/dto"
	availabilityapp "locadz/internal/app/handlers/availability"
	bookingapp "locadz/internal/app/handlers/booking"
	listingsapp "locadz/internal/app/handlers/listings"
	meapp "locadz/internal/app/handlers/me"
	notificationsapp "locadz/internal/app/handlers/notifications"
	paymentsapp "locadz/internal/app/handlers/payments"
	revenueapp "locadz/internal/app/handlers/revenue"
	handlersupport "locadz/internal/app/handlers/support"
	"locadz/internal/app/middleware"
	appoutbox "locadz/internal/app/outbox"
	"locadz/internal/app/policies"
	"locadz/internal/app/queries"
	"locadz/internal/app/uow"
	"locadz/internal/infra/config"
	ginserver "locadz/internal/infra/http/gin"
	"locadz/internal/infra/notify"
	"locadz/internal/infra/pricing"
	"locadz/internal/infra/storage/memory"
	"locadz/internal/infra/validation"
)

var ErrBackendsIncomplete = errors.New("bootstrap: backends incomplete")

// Backends are the storage-facing adapters. Memory and Mongo/Redis/MinIO
// implementations are interchangeable.
type Backends struct {
	UoW         uow.UoWFactory
	Outbox      appoutbox.Outbox
	Idempotency middleware.IdempotencyStore
	Locker      middleware.Locker
	Evidence    policies.EvidenceStorage
}

type Options struct {
	Config   config.Config
	Backends Backends
	Verifier ginserver.TokenVerifier
	Logger   *slog.Logger
	Clock    handlersupport.Clock
}

type Application struct {
	Commands commands.Bus
	Queries  queries.Bus
	Handlers ginserver.Handlers
}

// NewApplication registers every handler and wraps the buses. Commands pass
// logging, validation, authorization, idempotency, locking, outbox flush and
// the transaction, outermost first.
func NewApplication(opts Options) (*Application, error) {
	b := opts.Backends
	if b.UoW == nil || b.Outbox == nil || b.Idempotency == nil || b.Locker == nil || b.Evidence == nil {
		return nil, ErrBackendsIncomplete
	}
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := cfg.Availability
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("bootstrap: availability policy: %w", err)
	}
	fees, err := pricing.NewFeeSchedule(cfg.FeeRates)
	if err != nil {
		return nil, err
	}

	encoder := appoutbox.JSONEventEncoder{}
	notifier := &notify.InboxNotifier{UoWFactory: b.UoW, Logger: logger, Now: opts.Clock}
	checker := &availabilityapp.Checker{Policy: policy, FailOpen: cfg.AvailabilityFailOpen, Logger: logger}

	commandBus := commands.NewInMemoryBus()
	commands.Register(commandBus, &bookingapp.RequestBookingHandler{
		UoWFactory: b.UoW,
		Pricing:    fees,
		Checker:    checker,
		Notifier:   notifier,
		Outbox:     b.Outbox,
		Encoder:    encoder,
		Logger:     logger,
		Clock:      opts.Clock,
	})
	commands.Register(commandBus, &bookingapp.RespondToBookingHandler{
		UoWFactory: b.UoW,
		Policy:     policy,
		Notifier:   notifier,
		Outbox:     b.Outbox,
		Encoder:    encoder,
		Logger:     logger,
		Clock:      opts.Clock,
	})
	commands.Register(commandBus, &bookingapp.CancelBookingHandler{
		UoWFactory: b.UoW,
		Policy:     policy,
		Notifier:   notifier,
		Outbox:     b.Outbox,
		Encoder:    encoder,
		Logger:     logger,
		Clock:      opts.Clock,
	})
	commands.Register(commandBus, &paymentsapp.SubmitPaymentProofHandler{
		UoWFactory: b.UoW,
		Storage:    b.Evidence,
		Notifier:   notifier,
		Outbox:     b.Outbox,
		Encoder:    encoder,
		Logger:     logger,
		Clock:      opts.Clock,
	})
	commands.Register(commandBus, &paymentsapp.ReviewPaymentProofHandler{
		UoWFactory: b.UoW,
		Policy:     policy,
		Notifier:   notifier,
		Outbox:     b.Outbox,
		Encoder:    encoder,
		Logger:     logger,
		Clock:      opts.Clock,
	})
	commands.Register(commandBus, &revenueapp.RecordPayoutHandler{
		UoWFactory: b.UoW,
		Logger:     logger,
		Clock:      opts.Clock,
	})
	markRead := &notificationsapp.MarkReadHandler{UoWFactory: b.UoW}
	commands.Register(commandBus, markRead)
	commands.Register(commandBus,
		commands.HandlerFunc[notificationsapp.MarkAllReadCommand, *notificationsapp.MarkAllReadResult](markRead.HandleAll))

	queryBus := queries.NewInMemoryBus()
	queries.Register(queryBus, &listingsapp.GetListingHandler{UoWFactory: b.UoW})
	queries.Register(queryBus, &listingsapp.ListHostListingsHandler{UoWFactory: b.UoW})
	queries.Register(queryBus, &availabilityapp.GetCalendarHandler{UoWFactory: b.UoW})
	queries.Register(queryBus, &availabilityapp.CheckAvailabilityHandler{UoWFactory: b.UoW, Checker: checker})
	queries.Register(queryBus, &availabilityapp.QuoteHandler{UoWFactory: b.UoW, Pricing: fees})
	queries.Register(queryBus, &bookingapp.ListHostBookingsHandler{UoWFactory: b.UoW, Logger: logger})
	queries.Register(queryBus, &meapp.ListGuestBookingsHandler{UoWFactory: b.UoW, Logger: logger})
	proofs := &paymentsapp.ListProofsHandler{UoWFactory: b.UoW, Storage: b.Evidence, Logger: logger}
	queries.Register(queryBus,
		queries.HandlerFunc[paymentsapp.ListProofQueueQuery, dto.PaymentProofCollection](proofs.Queue))
	queries.Register(queryBus,
		queries.HandlerFunc[paymentsapp.ListBookingProofsQuery, dto.PaymentProofCollection](proofs.ByBooking))
	queries.Register(queryBus, &revenueapp.PlatformStatsHandler{UoWFactory: b.UoW, Currency: cfg.Currency})
	queries.Register(queryBus, &revenueapp.HostRevenueHandler{UoWFactory: b.UoW, Currency: cfg.Currency})
	queries.Register(queryBus, &revenueapp.ListPayoutsHandler{UoWFactory: b.UoW})
	queries.Register(queryBus, &notificationsapp.ListNotificationsHandler{UoWFactory: b.UoW})

	validator := validation.New()
	authorizer := policies.RoleAuthorizer{}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	commandsWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Logging(logger),
		middleware.Validation(validator),
		middleware.Authorization(authorizer),
		middleware.Idempotency(b.Idempotency, nil),
		middleware.Locking(b.Locker, lockTTL),
		middleware.OutboxFlush(b.Outbox, logger),
		middleware.Transaction(b.UoW, nil),
	)
	queriesWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryValidation(validator),
		middleware.QueryAuthorization(authorizer),
	)

	logger.Debug("buses ready", "commands", commandBus.Keys(), "queries", queryBus.Keys())

	return &Application{
		Commands: commandsWithMiddleware,
		Queries:  queriesWithMiddleware,
		Handlers: ginserver.Handlers{
			Booking:        ginserver.BookingHandler{Commands: commandsWithMiddleware, Queries: queriesWithMiddleware, MaxProofBytes: cfg.MaxProofBytes, Logger: logger},
			Host:           ginserver.HostHandler{Commands: commandsWithMiddleware, Queries: queriesWithMiddleware, Logger: logger},
			Admin:          ginserver.AdminHandler{Commands: commandsWithMiddleware, Queries: queriesWithMiddleware, Logger: logger},
			Listing:        ginserver.ListingHandler{Queries: queriesWithMiddleware, Logger: logger},
			Me:             ginserver.MeHandler{Commands: commandsWithMiddleware, Queries: queriesWithMiddleware, Logger: logger},
			AuthMiddleware: ginserver.AuthMiddleware{Verifier: opts.Verifier, Logger: logger}.Handle,
		},
	}, nil
}

// MemoryBackends keeps everything in process, for local runs and tests.
func MemoryBackends(cfg config.Config, store *memory.Store) Backends {
	return Backends{
		UoW:         memory.Factory{Store: store},
		Outbox:      memory.NewOutbox(),
		Idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
		Locker:      memory.NewLocker(),
		Evidence:    memory.NewEvidenceStorage("memory://evidence"),
	}
}

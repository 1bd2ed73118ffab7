package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"locadz/internal/app/apperr"
	"locadz/internal/app/commands"
	availabilityapp "locadz/internal/app/handlers/availability"
	handlersupport "locadz/internal/app/handlers/support"
	"locadz/internal/app/middleware"
	"locadz/internal/app/outbox"
	"locadz/internal/app/policies"
	"locadz/internal/app/uow"
	domainavailability "locadz/internal/domain/availability"
	domainbooking "locadz/internal/domain/booking"
	domainlistings "locadz/internal/domain/listings"
	domainnotifications "locadz/internal/domain/notifications"
	domainrange "locadz/internal/domain/shared/daterange"
	"locadz/internal/domain/user"
)

const requestBookingKey = "booking.request"

type RequestBookingCommand struct {
	CommandID         string     `validate:"required"`
	Actor             user.Actor `validate:"-"`
	ListingID         string     `validate:"required"`
	CheckIn           time.Time  `validate:"required"`
	CheckOut          time.Time  `validate:"required,gtfield=CheckIn"`
	Guests            int        `validate:"gte=1"`
	TravelerBirthdate time.Time
	PaymentMethod     string `validate:"required,oneof=ON_ARRIVAL BARIDIMOB RIB PAYPAL"`
	PaymentRef        string `validate:"max=128"`
	IdempotencyKeyV   string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string {
	if c.IdempotencyKeyV == "" {
		return ""
	}
	return string(c.Actor.ID) + ":" + c.IdempotencyKeyV
}

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

// LockKey serializes booking creation per listing.
func (c RequestBookingCommand) LockKey() string { return "listing:" + c.ListingID }

func (c RequestBookingCommand) Principal() user.Actor     { return c.Actor }
func (c RequestBookingCommand) AllowedRoles() []user.Role { return nil }

type RequestBookingResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	Replaced  string `json:"replaced,omitempty"`
}

type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Pricing    policies.PricingPort
	Checker    *availabilityapp.Checker
	Notifier   policies.Notifier
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Clock      handlersupport.Clock
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	unit, execCtx, finish, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	res, err := h.handle(execCtx, unit, cmd)
	if err := finish(err); err != nil {
		return nil, handlersupport.Classify(err)
	}
	return res, nil
}

func (h *RequestBookingHandler) handle(ctx context.Context, unit uow.UnitOfWork, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	if !cmd.Actor.Authenticated() {
		return nil, apperr.Unauthorized(user.ErrUnauthenticated)
	}
	dr, err := domainrange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	method, err := domainbooking.ParsePaymentMethod(cmd.PaymentMethod)
	if err != nil {
		return nil, err
	}
	now := h.Clock.Now()

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if err := listing.CanBeBookedBy(string(cmd.Actor.ID), cmd.Guests); err != nil {
		return nil, err
	}

	stale, err := unit.Bookings().FindPending(ctx, listing.ID, string(cmd.Actor.ID), dr)
	switch {
	case errors.Is(err, domainbooking.ErrBookingNotFound):
		stale = nil
	case err != nil:
		return nil, err
	}
	var ignore domainbooking.BookingID
	if stale != nil {
		ignore = stale.ID
	}

	free, err := h.Checker.IsRangeAvailable(ctx, unit.Bookings(), listing.ID, dr, ignore)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, apperr.Conflict(availabilityapp.ErrDatesUnavailable)
	}

	price, err := h.Pricing.Quote(ctx, listing, dr)
	if err != nil {
		return nil, err
	}

	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:                domainbooking.BookingID(cmd.CommandID),
		Listing:           listing,
		GuestID:           string(cmd.Actor.ID),
		Range:             dr,
		Guests:            cmd.Guests,
		TravelerBirthdate: cmd.TravelerBirthdate,
		PaymentMethod:     method,
		PaymentRef:        cmd.PaymentRef,
		Price:             price,
		CreatedAt:         now,
	})
	if err != nil {
		return nil, err
	}

	var replaced string
	if stale != nil && stale.ID != booking.ID {
		if err := h.dropStale(ctx, unit, stale, booking.ID, now); err != nil {
			return nil, err
		}
		replaced = string(stale.ID)
	}

	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, fmt.Errorf("booking: save: %w", err)
	}
	calendarEvents, err := availabilityapp.SyncCalendar(ctx, unit, h.Checker.Policy, booking, now)
	if err != nil {
		return nil, err
	}

	evs := append(booking.Drain(), calendarEvents...)
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, encoderOrDefault(h.Encoder), evs); err != nil {
		return nil, err
	}

	handlersupport.NotifyAfterCommit(ctx, h.Notifier, h.Logger, policies.Notice{
		RecipientID: string(booking.HostID),
		Type:        domainnotifications.TypeBookingCreated,
		Title:       "New booking request",
		Body:        fmt.Sprintf("%s requested %s for %s.", booking.GuestID, listing.Title, dr),
		Data: map[string]string{
			"booking_id": string(booking.ID),
			"listing_id": string(listing.ID),
		},
	})
	if h.Logger != nil {
		h.Logger.Info("booking requested",
			"booking_id", string(booking.ID),
			"listing_id", string(listing.ID),
			"guest_id", booking.GuestID,
			"range", dr.String(),
			"total", booking.Price.Total.Amount,
		)
	}

	return &RequestBookingResult{BookingID: string(booking.ID), Status: string(booking.Status), Replaced: replaced}, nil
}

// dropStale removes an earlier pending request for the same guest, listing
// and dates so a double submission leaves a single pending row.
func (h *RequestBookingHandler) dropStale(ctx context.Context, unit uow.UnitOfWork, stale *domainbooking.Booking, replacement domainbooking.BookingID, now time.Time) error {
	if err := unit.Bookings().Delete(ctx, stale.ID); err != nil {
		return err
	}
	// a deleted request holds no dates under any policy
	release := domainavailability.Policy{Mode: h.Checker.Policy.Mode}
	if _, err := availabilityapp.SyncCalendar(ctx, unit, release, stale, now); err != nil {
		return err
	}
	if h.Logger != nil {
		h.Logger.Info("stale pending booking replaced", "booking_id", string(stale.ID), "replacement_id", string(replacement))
	}
	return nil
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)
var _ middleware.LockedCommand = (*RequestBookingCommand)(nil)
var _ policies.Restricted = (*RequestBookingCommand)(nil)

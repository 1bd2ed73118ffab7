package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"locadz/internal/app/commands"
	availabilityapp "locadz/internal/app/handlers/availability"
	handlersupport "locadz/internal/app/handlers/support"
	"locadz/internal/app/outbox"
	"locadz/internal/app/policies"
	"locadz/internal/app/uow"
	domainavailability "locadz/internal/domain/availability"
	domainbooking "locadz/internal/domain/booking"
	domainnotifications "locadz/internal/domain/notifications"
	domainpayments "locadz/internal/domain/payments"
	"locadz/internal/domain/shared/events"
	"locadz/internal/domain/user"
)

const cancelBookingKey = "admin.bookings.cancel"

type CancelBookingCommand struct {
	Actor     user.Actor `validate:"-"`
	BookingID string     `validate:"required"`
	Reason    string     `validate:"max=500"`
}

func (c CancelBookingCommand) Key() string     { return cancelBookingKey }
func (c CancelBookingCommand) LockKey() string { return "booking:" + c.BookingID }

func (c CancelBookingCommand) Principal() user.Actor     { return c.Actor }
func (c CancelBookingCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleAdmin} }

type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Policy     domainavailability.Policy
	Notifier   policies.Notifier
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Clock      handlersupport.Clock
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*BookingActionResult, error) {
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

func (h *CancelBookingHandler) handle(ctx context.Context, unit uow.UnitOfWork, cmd CancelBookingCommand) (*BookingActionResult, error) {
	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(strings.TrimSpace(cmd.BookingID)))
	if err != nil {
		return nil, err
	}
	now := h.Clock.Now()
	if err := booking.Cancel(trimReason(cmd.Reason), now); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}
	calendarEvents, err := availabilityapp.SyncCalendar(ctx, unit, h.Policy, booking, now)
	if err != nil {
		return nil, err
	}
	proofEvents, err := rejectPendingProofs(ctx, unit, booking.ID, string(cmd.Actor.ID), now)
	if err != nil {
		return nil, err
	}
	evs := append(append(booking.Drain(), calendarEvents...), proofEvents...)
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, encoderOrDefault(h.Encoder), evs); err != nil {
		return nil, err
	}

	data := map[string]string{"booking_id": string(booking.ID), "listing_id": string(booking.ListingID)}
	for _, recipient := range []string{booking.GuestID, string(booking.HostID)} {
		handlersupport.NotifyAfterCommit(ctx, h.Notifier, h.Logger, policies.Notice{
			RecipientID: recipient,
			Type:        domainnotifications.TypeBookingCancelled,
			Title:       "Booking cancelled",
			Body:        fmt.Sprintf("The booking of %s for %s was cancelled.", booking.ListingTitle, booking.Range),
			Data:        data,
		})
	}
	if h.Logger != nil {
		h.Logger.Info("booking cancelled", "booking_id", string(booking.ID), "actor_id", string(cmd.Actor.ID))
	}
	return &BookingActionResult{BookingID: string(booking.ID), Status: string(booking.Status)}, nil
}

// cancelledProofReason is recorded on proofs still awaiting review when
// their booking is cancelled.
const cancelledProofReason = "booking cancelled"

// rejectPendingProofs takes the booking's unreviewed proofs out of the admin
// queue; a cancelled booking can no longer be paid.
func rejectPendingProofs(ctx context.Context, unit uow.UnitOfWork, id domainbooking.BookingID, reviewer string, now time.Time) ([]events.DomainEvent, error) {
	proofs, err := unit.PaymentProofs().ListByBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	var evs []events.DomainEvent
	for _, proof := range proofs {
		if proof.Status != domainpayments.StatusPending {
			continue
		}
		if err := proof.Reject(reviewer, cancelledProofReason, now); err != nil {
			return nil, err
		}
		if err := unit.PaymentProofs().Save(ctx, proof); err != nil {
			return nil, err
		}
		evs = append(evs, proof.Drain()...)
	}
	return evs, nil
}

var _ commands.Handler[CancelBookingCommand, *BookingActionResult] = (*CancelBookingHandler)(nil)

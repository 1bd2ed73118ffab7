package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

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
	domainnotifications "locadz/internal/domain/notifications"
	"locadz/internal/domain/user"
)

const respondBookingKey = "host.bookings.respond"

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

var (
	ErrBookingNotOwned = errors.New("booking: not owned by host")
	ErrUnknownDecision = errors.New("booking: decision must be approve or reject")
)

type RespondToBookingCommand struct {
	Actor     user.Actor `validate:"-"`
	BookingID string     `validate:"required"`
	Decision  Decision   `validate:"required,oneof=approve reject"`
	Reason    string     `validate:"max=500"`
}

func (c RespondToBookingCommand) Key() string { return respondBookingKey }

func (c RespondToBookingCommand) LockKey() string { return "booking:" + c.BookingID }

func (c RespondToBookingCommand) Principal() user.Actor { return c.Actor }
func (c RespondToBookingCommand) AllowedRoles() []user.Role {
	return []user.Role{user.RoleHost, user.RoleAdmin}
}

type BookingActionResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

type RespondToBookingHandler struct {
	UoWFactory uow.UoWFactory
	Policy     domainavailability.Policy
	Notifier   policies.Notifier
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Clock      handlersupport.Clock
}

func (h *RespondToBookingHandler) Handle(ctx context.Context, cmd RespondToBookingCommand) (*BookingActionResult, error) {
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

func (h *RespondToBookingHandler) handle(ctx context.Context, unit uow.UnitOfWork, cmd RespondToBookingCommand) (*BookingActionResult, error) {
	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(strings.TrimSpace(cmd.BookingID)))
	if err != nil {
		return nil, err
	}
	if !cmd.Actor.IsAdmin() && string(booking.HostID) != string(cmd.Actor.ID) {
		return nil, apperr.Forbidden(ErrBookingNotOwned)
	}

	now := h.Clock.Now()
	notice := policies.Notice{
		RecipientID: booking.GuestID,
		Data:        map[string]string{"booking_id": string(booking.ID), "listing_id": string(booking.ListingID)},
	}
	switch cmd.Decision {
	case DecisionApprove:
		err = booking.Approve(now)
		notice.Type = domainnotifications.TypeBookingAccepted
		notice.Title = "Booking accepted"
		notice.Body = fmt.Sprintf("Your stay at %s for %s was accepted.", booking.ListingTitle, booking.Range)
	case DecisionReject:
		err = booking.Reject(trimReason(cmd.Reason), now)
		notice.Type = domainnotifications.TypeBookingRejected
		notice.Title = "Booking declined"
		notice.Body = fmt.Sprintf("Your request for %s on %s was declined.", booking.ListingTitle, booking.Range)
	default:
		return nil, apperr.Validation(ErrUnknownDecision)
	}
	if err != nil {
		return nil, err
	}

	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}
	calendarEvents, err := availabilityapp.SyncCalendar(ctx, unit, h.Policy, booking, now)
	if err != nil {
		return nil, err
	}
	evs := append(booking.Drain(), calendarEvents...)
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, encoderOrDefault(h.Encoder), evs); err != nil {
		return nil, err
	}

	handlersupport.NotifyAfterCommit(ctx, h.Notifier, h.Logger, notice)
	if h.Logger != nil {
		h.Logger.Info("booking decided",
			"booking_id", string(booking.ID),
			"status", string(booking.Status),
			"actor_id", string(cmd.Actor.ID),
		)
	}
	return &BookingActionResult{BookingID: string(booking.ID), Status: string(booking.Status)}, nil
}

func trimReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if len(reason) > 500 {
		reason = reason[:500]
	}
	return reason
}

func encoderOrDefault(enc outbox.EventEncoder) outbox.EventEncoder {
	if enc != nil {
		return enc
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[RespondToBookingCommand, *BookingActionResult] = (*RespondToBookingHandler)(nil)
var _ middleware.LockedCommand = (*RespondToBookingCommand)(nil)
var _ policies.Restricted = (*RespondToBookingCommand)(nil)

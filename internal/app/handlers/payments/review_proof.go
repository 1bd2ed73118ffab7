package payments

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
	"locadz/internal/app/outbox"
	"locadz/internal/app/policies"
	"locadz/internal/app/uow"
	domainavailability "locadz/internal/domain/availability"
	domainnotifications "locadz/internal/domain/notifications"
	domainpayments "locadz/internal/domain/payments"
	"locadz/internal/domain/shared/events"
	"locadz/internal/domain/user"
)

const reviewProofKey = "payments.proof.review"

var ErrUnknownDecision = errors.New("payments: decision must be approve or reject")

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

type ReviewPaymentProofCommand struct {
	Actor    user.Actor `validate:"-"`
	ProofID  string     `validate:"required"`
	Decision Decision   `validate:"required,oneof=approve reject"`
	Reason   string     `validate:"max=500"`
}

func (c ReviewPaymentProofCommand) Key() string     { return reviewProofKey }
func (c ReviewPaymentProofCommand) LockKey() string { return "proof:" + c.ProofID }

func (c ReviewPaymentProofCommand) Principal() user.Actor     { return c.Actor }
func (c ReviewPaymentProofCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleAdmin} }

type ReviewPaymentProofResult struct {
	ProofID       string `json:"proof_id"`
	ProofStatus   string `json:"proof_status"`
	BookingID     string `json:"booking_id"`
	BookingStatus string `json:"booking_status"`
}

type ReviewPaymentProofHandler struct {
	UoWFactory uow.UoWFactory
	Policy     domainavailability.Policy
	Notifier   policies.Notifier
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Clock      handlersupport.Clock
}

func (h *ReviewPaymentProofHandler) Handle(ctx context.Context, cmd ReviewPaymentProofCommand) (*ReviewPaymentProofResult, error) {
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

func (h *ReviewPaymentProofHandler) handle(ctx context.Context, unit uow.UnitOfWork, cmd ReviewPaymentProofCommand) (*ReviewPaymentProofResult, error) {
	if !cmd.Actor.IsAdmin() {
		return nil, apperr.Forbidden(policies.ErrRoleNotAllowed)
	}
	proof, err := unit.PaymentProofs().ByID(ctx, domainpayments.ProofID(strings.TrimSpace(cmd.ProofID)))
	if err != nil {
		return nil, err
	}
	booking, err := unit.Bookings().ByID(ctx, proof.BookingID)
	if err != nil {
		return nil, err
	}

	now := h.Clock.Now()
	reviewer := string(cmd.Actor.ID)
	notice := policies.Notice{
		RecipientID: proof.SubmittedBy,
		Data:        map[string]string{"booking_id": string(booking.ID), "proof_id": string(proof.ID)},
	}
	var evs []events.DomainEvent

	switch cmd.Decision {
	case DecisionApprove:
		if err := proof.Approve(reviewer, now); err != nil {
			return nil, err
		}
		if err := booking.MarkPaid(string(proof.ID), proof.EvidenceKey, now); err != nil {
			return nil, err
		}
		if err := unit.Bookings().Save(ctx, booking); err != nil {
			return nil, err
		}
		calendarEvents, err := availabilityapp.SyncCalendar(ctx, unit, h.Policy, booking, now)
		if err != nil {
			return nil, err
		}
		evs = append(evs, calendarEvents...)
		notice.Type = domainnotifications.TypePaymentProofApproved
		notice.Title = "Payment confirmed"
		notice.Body = fmt.Sprintf("Your payment for %s (%s) was confirmed.", booking.ListingTitle, booking.Range)
	case DecisionReject:
		if err := proof.Reject(reviewer, cmd.Reason, now); err != nil {
			return nil, err
		}
		notice.Type = domainnotifications.TypePaymentProofRejected
		notice.Title = "Payment proof rejected"
		notice.Body = fmt.Sprintf("Your payment proof for %s was rejected. You can upload a new one.", booking.ListingTitle)
		if proof.RejectionReason != "" {
			notice.Data["reason"] = proof.RejectionReason
		}
	default:
		return nil, apperr.Validation(ErrUnknownDecision)
	}

	if err := unit.PaymentProofs().Save(ctx, proof); err != nil {
		return nil, err
	}
	evs = append(append(proof.Drain(), booking.Drain()...), evs...)
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, encoderOrDefault(h.Encoder), evs); err != nil {
		return nil, err
	}

	handlersupport.NotifyAfterCommit(ctx, h.Notifier, h.Logger, notice)
	if h.Logger != nil {
		h.Logger.Info("payment proof reviewed",
			"proof_id", string(proof.ID),
			"proof_status", string(proof.Status),
			"booking_id", string(booking.ID),
			"booking_status", string(booking.Status),
			"reviewer_id", reviewer,
		)
	}
	return &ReviewPaymentProofResult{
		ProofID:       string(proof.ID),
		ProofStatus:   string(proof.Status),
		BookingID:     string(booking.ID),
		BookingStatus: string(booking.Status),
	}, nil
}

var _ commands.Handler[ReviewPaymentProofCommand, *ReviewPaymentProofResult] = (*ReviewPaymentProofHandler)(nil)

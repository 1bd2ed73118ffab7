package payments

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"locadz/internal/app/apperr"
	"locadz/internal/app/commands"
	handlersupport "locadz/internal/app/handlers/support"
	"locadz/internal/app/middleware"
	"locadz/internal/app/outbox"
	"locadz/internal/app/policies"
	"locadz/internal/app/uow"
	domainbooking "locadz/internal/domain/booking"
	domainnotifications "locadz/internal/domain/notifications"
	domainpayments "locadz/internal/domain/payments"
	"locadz/internal/domain/shared/money"
	"locadz/internal/domain/user"
)

const submitProofKey = "payments.proof.submit"

var (
	ErrNotBookingTraveler = errors.New("payments: booking belongs to another traveler")
	ErrProofNotAccepted   = errors.New("payments: booking does not accept a payment proof in its current state")
	ErrProofPending       = errors.New("payments: a proof for this booking is already awaiting review")
)

type SubmitPaymentProofCommand struct {
	CommandID       string     `validate:"required"`
	Actor           user.Actor `validate:"-"`
	BookingID       string     `validate:"required"`
	Amount          int64      `validate:"gte=0"`
	Method          string     `validate:"omitempty,oneof=BARIDIMOB RIB PAYPAL"`
	FileName        string     `validate:"required"`
	ContentType     string     `validate:"required,oneof=image/jpeg image/png image/webp application/pdf"`
	Content         []byte     `json:"-" validate:"required"`
	IdempotencyKeyV string
}

func (c SubmitPaymentProofCommand) Key() string { return submitProofKey }

func (c SubmitPaymentProofCommand) IdempotencyKey() string {
	if c.IdempotencyKeyV == "" {
		return ""
	}
	return string(c.Actor.ID) + ":" + c.IdempotencyKeyV
}

func (c SubmitPaymentProofCommand) ResultPrototype() any { return &SubmitPaymentProofResult{} }

func (c SubmitPaymentProofCommand) LockKey() string { return "booking:" + c.BookingID }

func (c SubmitPaymentProofCommand) Principal() user.Actor     { return c.Actor }
func (c SubmitPaymentProofCommand) AllowedRoles() []user.Role { return nil }

type SubmitPaymentProofResult struct {
	ProofID   string `json:"proof_id"`
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

type SubmitPaymentProofHandler struct {
	UoWFactory uow.UoWFactory
	Storage    policies.EvidenceStorage
	Notifier   policies.Notifier
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Clock      handlersupport.Clock
}

func (h *SubmitPaymentProofHandler) Handle(ctx context.Context, cmd SubmitPaymentProofCommand) (*SubmitPaymentProofResult, error) {
	unit, execCtx, finish, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	res, key, err := h.handle(execCtx, unit, cmd)
	if err := finish(err); err != nil {
		if key != "" {
			h.discardEvidence(ctx, key)
		}
		return nil, handlersupport.Classify(err)
	}
	return res, nil
}

// handle returns the uploaded object key even on failure so it can be discarded.
func (h *SubmitPaymentProofHandler) handle(ctx context.Context, unit uow.UnitOfWork, cmd SubmitPaymentProofCommand) (*SubmitPaymentProofResult, string, error) {
	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(strings.TrimSpace(cmd.BookingID)))
	if err != nil {
		return nil, "", err
	}
	if booking.GuestID != string(cmd.Actor.ID) {
		return nil, "", apperr.Forbidden(ErrNotBookingTraveler)
	}
	if !booking.AcceptsPaymentProof() {
		return nil, "", apperr.Conflict(fmt.Errorf("%w: %s", ErrProofNotAccepted, booking.Status))
	}
	existing, err := unit.PaymentProofs().ListByBooking(ctx, booking.ID)
	if err != nil {
		return nil, "", err
	}
	for _, p := range existing {
		if p.Status == domainpayments.StatusPending {
			return nil, "", apperr.Conflict(ErrProofPending)
		}
	}

	method := booking.PaymentMethod
	if cmd.Method != "" {
		if method, err = domainbooking.ParsePaymentMethod(cmd.Method); err != nil {
			return nil, "", err
		}
	}
	amount := booking.Price.Total
	if cmd.Amount > 0 {
		amount = money.Money{Amount: cmd.Amount, Currency: booking.Price.Total.Currency}
	}
	if len(cmd.Content) == 0 {
		return nil, "", apperr.Validation(domainpayments.ErrEvidenceRequired)
	}

	now := h.Clock.Now()
	key := domainpayments.EvidenceKey(booking.ID, now, filepath.Ext(cmd.FileName))
	if _, err := h.Storage.Upload(ctx, policies.Evidence{
		Key:         key,
		ContentType: cmd.ContentType,
		Size:        int64(len(cmd.Content)),
		Body:        bytes.NewReader(cmd.Content),
	}); err != nil {
		return nil, "", apperr.Unavailable(fmt.Errorf("payments: upload evidence: %w", err))
	}

	proof, err := domainpayments.NewProof(domainpayments.SubmitParams{
		ID:          domainpayments.ProofID(cmd.CommandID),
		BookingID:   booking.ID,
		SubmittedBy: string(cmd.Actor.ID),
		Amount:      amount,
		Method:      method,
		EvidenceKey: key,
		Now:         now,
	})
	if err != nil {
		return nil, key, err
	}
	if err := unit.PaymentProofs().Save(ctx, proof); err != nil {
		return nil, key, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, encoderOrDefault(h.Encoder), proof.Drain()); err != nil {
		return nil, key, err
	}

	handlersupport.NotifyAfterCommit(ctx, h.Notifier, h.Logger, policies.Notice{
		RecipientID: string(booking.HostID),
		Type:        domainnotifications.TypePaymentProofSubmitted,
		Title:       "Payment proof submitted",
		Body:        fmt.Sprintf("The traveler uploaded a payment proof for %s (%s).", booking.ListingTitle, booking.Range),
		Data:        map[string]string{"booking_id": string(booking.ID), "proof_id": string(proof.ID)},
	})
	if h.Logger != nil {
		h.Logger.Info("payment proof submitted",
			"proof_id", string(proof.ID),
			"booking_id", string(booking.ID),
			"amount", proof.Amount.Amount,
		)
	}
	return &SubmitPaymentProofResult{ProofID: string(proof.ID), BookingID: string(booking.ID), Status: string(proof.Status)}, key, nil
}

func (h *SubmitPaymentProofHandler) discardEvidence(ctx context.Context, key string) {
	if err := h.Storage.Remove(context.WithoutCancel(ctx), key); err != nil && h.Logger != nil {
		h.Logger.Warn("orphan payment evidence not removed", "key", key, "error", err)
	}
}

func encoderOrDefault(enc outbox.EventEncoder) outbox.EventEncoder {
	if enc != nil {
		return enc
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[SubmitPaymentProofCommand, *SubmitPaymentProofResult] = (*SubmitPaymentProofHandler)(nil)
var _ middleware.IdempotentCommand = (*SubmitPaymentProofCommand)(nil)
var _ middleware.LockedCommand = (*SubmitPaymentProofCommand)(nil)

package payments

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"locadz/internal/app/apperr"
	"locadz/internal/app/dto"
	handlersupport "locadz/internal/app/handlers/support"
	"locadz/internal/app/policies"
	"locadz/internal/app/queries"
	"locadz/internal/app/uow"
	domainbooking "locadz/internal/domain/booking"
	domainpayments "locadz/internal/domain/payments"
	"locadz/internal/domain/user"
)

const (
	listProofQueueKey    = "payments.proofs.queue"
	listBookingProofsKey = "payments.proofs.by_booking"
	evidenceLinkTTL      = 15 * time.Minute
)

// ListProofQueueQuery is the admin review queue; Status defaults to PENDING.
type ListProofQueueQuery struct {
	Actor  user.Actor `validate:"-"`
	Status string
}

func (q ListProofQueueQuery) Key() string { return listProofQueueKey }

func (q ListProofQueueQuery) Principal() user.Actor     { return q.Actor }
func (q ListProofQueueQuery) AllowedRoles() []user.Role { return []user.Role{user.RoleAdmin} }

type ListBookingProofsQuery struct {
	Actor     user.Actor `validate:"-"`
	BookingID string     `validate:"required"`
}

func (q ListBookingProofsQuery) Key() string { return listBookingProofsKey }

func (q ListBookingProofsQuery) Principal() user.Actor     { return q.Actor }
func (q ListBookingProofsQuery) AllowedRoles() []user.Role { return nil }

type ListProofsHandler struct {
	UoWFactory uow.UoWFactory
	Storage    policies.EvidenceStorage
	Logger     *slog.Logger
}

func (h *ListProofsHandler) Queue(ctx context.Context, q ListProofQueueQuery) (dto.PaymentProofCollection, error) {
	status, err := domainpayments.ParseProofStatus(q.Status)
	if err != nil {
		return dto.PaymentProofCollection{}, handlersupport.Classify(err)
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PaymentProofCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	proofs, err := unit.PaymentProofs().ListByStatus(execCtx, status)
	if err != nil {
		return dto.PaymentProofCollection{}, err
	}
	// oldest first so reviewers work through the backlog in order
	sort.Slice(proofs, func(i, j int) bool { return proofs[i].CreatedAt.Before(proofs[j].CreatedAt) })
	return h.mapProofs(execCtx, proofs), nil
}

func (h *ListProofsHandler) ByBooking(ctx context.Context, q ListBookingProofsQuery) (dto.PaymentProofCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PaymentProofCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	booking, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(strings.TrimSpace(q.BookingID)))
	if err != nil {
		return dto.PaymentProofCollection{}, handlersupport.Classify(err)
	}
	actorID := string(q.Actor.ID)
	if !q.Actor.IsAdmin() && booking.GuestID != actorID && string(booking.HostID) != actorID {
		return dto.PaymentProofCollection{}, apperr.Forbidden(ErrNotBookingTraveler)
	}
	proofs, err := unit.PaymentProofs().ListByBooking(execCtx, booking.ID)
	if err != nil {
		return dto.PaymentProofCollection{}, err
	}
	sort.Slice(proofs, func(i, j int) bool { return proofs[i].CreatedAt.After(proofs[j].CreatedAt) })
	return h.mapProofs(execCtx, proofs), nil
}

func (h *ListProofsHandler) mapProofs(ctx context.Context, proofs []*domainpayments.PaymentProof) dto.PaymentProofCollection {
	out := dto.PaymentProofCollection{Items: make([]dto.PaymentProof, 0, len(proofs))}
	for _, p := range proofs {
		link := ""
		if h.Storage != nil {
			url, err := h.Storage.URL(ctx, p.EvidenceKey, evidenceLinkTTL)
			if err != nil && h.Logger != nil {
				h.Logger.Warn("evidence link unavailable", "proof_id", string(p.ID), "error", err)
			}
			link = url
		}
		out.Items = append(out.Items, dto.MapPaymentProof(p, link))
	}
	return out
}

var (
	_ queries.Handler[ListProofQueueQuery, dto.PaymentProofCollection]    = queries.HandlerFunc[ListProofQueueQuery, dto.PaymentProofCollection]((*ListProofsHandler)(nil).Queue)
	_ queries.Handler[ListBookingProofsQuery, dto.PaymentProofCollection] = queries.HandlerFunc[ListBookingProofsQuery, dto.PaymentProofCollection]((*ListProofsHandler)(nil).ByBooking)
)

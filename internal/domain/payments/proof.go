package payments

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"locadz/internal/domain/booking"
	"locadz/internal/domain/shared/events"
	"locadz/internal/domain/shared/money"
)

var (
	ErrProofNotFound      = errors.New("payments: proof not found")
	ErrAlreadyReviewed    = errors.New("payments: proof already reviewed")
	ErrInvalidAmount      = errors.New("payments: amount must be positive")
	ErrEvidenceRequired   = errors.New("payments: evidence file is required")
	ErrMethodNeedsNoProof = errors.New("payments: payment method does not take a proof")
	ErrSubmitterRequired  = errors.New("payments: submitter is required")
	ErrInvalidStatus      = errors.New("payments: unknown proof status")
)

type ProofID string

type ProofStatus string

const (
	StatusPending  ProofStatus = "PENDING"
	StatusApproved ProofStatus = "APPROVED"
	StatusRejected ProofStatus = "REJECTED"
)

func ParseProofStatus(raw string) (ProofStatus, error) {
	s := ProofStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case "":
		return StatusPending, nil
	case StatusPending, StatusApproved, StatusRejected:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

type PaymentProof struct {
	ID              ProofID
	BookingID       booking.BookingID
	SubmittedBy     string
	Amount          money.Money
	Method          booking.PaymentMethod
	EvidenceKey     string
	Status          ProofStatus
	ReviewerID      string
	ReviewedAt      time.Time
	RejectionReason string
	CreatedAt       time.Time
	Version         int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ProofID) (*PaymentProof, error)
	Save(ctx context.Context, proof *PaymentProof) error
	ListByBooking(ctx context.Context, id booking.BookingID) ([]*PaymentProof, error)
	ListByStatus(ctx context.Context, status ProofStatus) ([]*PaymentProof, error)
}

type SubmitParams struct {
	ID          ProofID
	BookingID   booking.BookingID
	SubmittedBy string
	Amount      money.Money
	Method      booking.PaymentMethod
	EvidenceKey string
	Now         time.Time
}

func NewProof(params SubmitParams) (*PaymentProof, error) {
	if strings.TrimSpace(params.SubmittedBy) == "" {
		return nil, ErrSubmitterRequired
	}
	if !params.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !params.Method.RequiresProof() {
		return nil, ErrMethodNeedsNoProof
	}
	if strings.TrimSpace(params.EvidenceKey) == "" {
		return nil, ErrEvidenceRequired
	}
	now := params.Now.UTC()
	p := &PaymentProof{
		ID:          params.ID,
		BookingID:   params.BookingID,
		SubmittedBy: params.SubmittedBy,
		Amount:      params.Amount,
		Method:      params.Method,
		EvidenceKey: params.EvidenceKey,
		Status:      StatusPending,
		CreatedAt:   now,
	}
	p.Record(ProofSubmitted{ProofID: p.ID, BookingID: p.BookingID, Amount: p.Amount, At: now})
	return p, nil
}

// Approve and Reject may each happen once, and only from PENDING.
func (p *PaymentProof) Approve(reviewerID string, now time.Time) error {
	if p.Status != StatusPending {
		return ErrAlreadyReviewed
	}
	p.Status = StatusApproved
	p.ReviewerID = reviewerID
	p.ReviewedAt = now.UTC()
	p.Record(ProofApproved{ProofID: p.ID, BookingID: p.BookingID, ReviewerID: reviewerID, At: p.ReviewedAt})
	return nil
}

func (p *PaymentProof) Reject(reviewerID, reason string, now time.Time) error {
	if p.Status != StatusPending {
		return ErrAlreadyReviewed
	}
	p.Status = StatusRejected
	p.ReviewerID = reviewerID
	p.ReviewedAt = now.UTC()
	p.RejectionReason = strings.TrimSpace(reason)
	p.Record(ProofRejected{ProofID: p.ID, BookingID: p.BookingID, ReviewerID: reviewerID, Reason: p.RejectionReason, At: p.ReviewedAt})
	return nil
}

// EvidenceKey builds the object key proofs/{booking}/{booking}-{unix millis}.{ext}.
func EvidenceKey(id booking.BookingID, now time.Time, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" {
		ext = "bin"
	}
	name := fmt.Sprintf("%s-%d.%s", id, now.UnixMilli(), ext)
	return path.Join("proofs", string(id), name)
}

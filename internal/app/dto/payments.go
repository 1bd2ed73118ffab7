package dto

import (
	"time"

	domainpayments "locadz/internal/domain/payments"
)

type PaymentProof struct {
	ID              string     `json:"id"`
	BookingID       string     `json:"booking_id"`
	SubmittedBy     string     `json:"submitted_by"`
	Amount          MoneyDTO   `json:"amount"`
	Method          string     `json:"method"`
	EvidenceURL     string     `json:"evidence_url,omitempty"`
	Status          string     `json:"status"`
	ReviewerID      string     `json:"reviewer_id,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type PaymentProofCollection struct {
	Items []PaymentProof `json:"items"`
}

func MapPaymentProof(p *domainpayments.PaymentProof, evidenceURL string) PaymentProof {
	out := PaymentProof{
		ID:              string(p.ID),
		BookingID:       string(p.BookingID),
		SubmittedBy:     p.SubmittedBy,
		Amount:          MapMoney(p.Amount),
		Method:          string(p.Method),
		EvidenceURL:     evidenceURL,
		Status:          string(p.Status),
		ReviewerID:      p.ReviewerID,
		RejectionReason: p.RejectionReason,
		CreatedAt:       p.CreatedAt,
	}
	if !p.ReviewedAt.IsZero() {
		at := p.ReviewedAt
		out.ReviewedAt = &at
	}
	return out
}

package payments

import (
	"time"

	"locadz/internal/domain/booking"
	"locadz/internal/domain/shared/money"
)

type ProofSubmitted struct {
	ProofID   ProofID
	BookingID booking.BookingID
	Amount    money.Money
	At        time.Time
}

func (e ProofSubmitted) EventName() string     { return "payment_proof.submitted" }
func (e ProofSubmitted) AggregateID() string   { return string(e.ProofID) }
func (e ProofSubmitted) OccurredAt() time.Time { return e.At }

type ProofApproved struct {
	ProofID    ProofID
	BookingID  booking.BookingID
	ReviewerID string
	At         time.Time
}

func (e ProofApproved) EventName() string     { return "payment_proof.approved" }
func (e ProofApproved) AggregateID() string   { return string(e.ProofID) }
func (e ProofApproved) OccurredAt() time.Time { return e.At }

type ProofRejected struct {
	ProofID    ProofID
	BookingID  booking.BookingID
	ReviewerID string
	Reason     string
	At         time.Time
}

func (e ProofRejected) EventName() string     { return "payment_proof.rejected" }
func (e ProofRejected) AggregateID() string   { return string(e.ProofID) }
func (e ProofRejected) OccurredAt() time.Time { return e.At }

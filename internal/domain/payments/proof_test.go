package payments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locadz/internal/domain/booking"
	"locadz/internal/domain/shared/money"
)

var now = time.Date(2025, time.June, 2, 12, 0, 0, 0, time.UTC)

func pendingProof(t *testing.T) *PaymentProof {
	t.Helper()
	p, err := NewProof(SubmitParams{
		ID:          "proof-1",
		BookingID:   "booking-1",
		SubmittedBy: "guest-1",
		Amount:      money.Must(48600, "DZD"),
		Method:      booking.PaymentBaridiMob,
		EvidenceKey: "proofs/booking-1/booking-1-1.png",
		Now:         now,
	})
	require.NoError(t, err)
	return p
}

func TestNewProofValidation(t *testing.T) {
	base := SubmitParams{ID: "p", BookingID: "b", SubmittedBy: "g", Amount: money.Must(10, "DZD"), Method: booking.PaymentRIB, EvidenceKey: "k", Now: now}

	p := base
	p.Amount = money.Must(0, "DZD")
	_, err := NewProof(p)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	p = base
	p.Method = booking.PaymentOnArrival
	_, err = NewProof(p)
	assert.ErrorIs(t, err, ErrMethodNeedsNoProof)

	p = base
	p.EvidenceKey = ""
	_, err = NewProof(p)
	assert.ErrorIs(t, err, ErrEvidenceRequired)

	p = base
	p.SubmittedBy = ""
	_, err = NewProof(p)
	assert.ErrorIs(t, err, ErrSubmitterRequired)
}

func TestProofIsReviewedOnce(t *testing.T) {
	p := pendingProof(t)
	require.NoError(t, p.Approve("admin-1", now))
	assert.Equal(t, StatusApproved, p.Status)
	assert.Equal(t, "admin-1", p.ReviewerID)
	assert.ErrorIs(t, p.Approve("admin-2", now), ErrAlreadyReviewed)
	assert.ErrorIs(t, p.Reject("admin-2", "blurry", now), ErrAlreadyReviewed)

	r := pendingProof(t)
	require.NoError(t, r.Reject("admin-1", " blurry ", now))
	assert.Equal(t, StatusRejected, r.Status)
	assert.Equal(t, "blurry", r.RejectionReason)
	assert.ErrorIs(t, r.Approve("admin-1", now), ErrAlreadyReviewed)
}

func TestEvidenceKey(t *testing.T) {
	at := time.UnixMilli(1717329600000)
	assert.Equal(t, "proofs/b-1/b-1-1717329600000.pdf", EvidenceKey("b-1", at, ".PDF"))
	assert.Equal(t, "proofs/b-1/b-1-1717329600000.bin", EvidenceKey("b-1", at, ""))
}

func TestParseProofStatus(t *testing.T) {
	s, err := ParseProofStatus("")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, s)
	s, err = ParseProofStatus("rejected")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, s)
	_, err = ParseProofStatus("lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestReviewRecordsEvents(t *testing.T) {
	p := pendingProof(t)
	p.ClearEvents()
	require.NoError(t, p.Approve("admin-1", now))
	evts := p.Drain()
	require.Len(t, evts, 1)
	approved, ok := evts[0].(ProofApproved)
	require.True(t, ok)
	assert.Equal(t, "payment_proof.approved", approved.EventName())
	assert.Equal(t, booking.BookingID("booking-1"), approved.BookingID)

	r := pendingProof(t)
	r.ClearEvents()
	require.NoError(t, r.Reject("admin-1", "blurry", now))
	evts = r.Drain()
	require.Len(t, evts, 1)
	rejected, ok := evts[0].(ProofRejected)
	require.True(t, ok)
	assert.Equal(t, "blurry", rejected.Reason)
	assert.Equal(t, "proof-1", rejected.AggregateID())
}

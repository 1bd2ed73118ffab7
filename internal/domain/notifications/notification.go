package notifications

import (
	"context"
	"errors"
	"time"
)

var ErrNotificationNotFound = errors.New("notifications: not found")

type Type string

const (
	TypeBookingCreated        Type = "booking_created"
	TypeBookingAccepted       Type = "booking_accepted"
	TypeBookingRejected       Type = "booking_rejected"
	TypeBookingCancelled      Type = "booking_cancelled"
	TypePaymentProofSubmitted Type = "payment_proof_submitted"
	TypePaymentProofApproved  Type = "payment_proof_approved"
	TypePaymentProofRejected  Type = "payment_proof_rejected"
)

type Notification struct {
	ID          string
	RecipientID string
	Type        Type
	Title       string
	Body        string
	Data        map[string]string
	Read        bool
	CreatedAt   time.Time
}

type Repository interface {
	Save(ctx context.Context, n *Notification) error
	// ListByRecipient returns newest first; limit <= 0 means no limit.
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, recipientID, id string) error
	MarkAllRead(ctx context.Context, recipientID string) (int, error)
}

package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"locadz/internal/app/apperr"
	"locadz/internal/app/commands"
	revenueapp "locadz/internal/app/handlers/revenue"
	appoutbox "locadz/internal/app/outbox"
)

// PayoutsTopic carries payouts booked by the external bookkeeping system.
const PayoutsTopic = "payouts.events.v1"

// Inbox deduplicates consumed events. An event is marked only after it was
// handled, so a failed attempt is redelivered.
type Inbox interface {
	Processed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
}

type payoutEnvelope struct {
	ID   string     `json:"id"`
	Type string     `json:"type"`
	Data payoutData `json:"data"`
}

type payoutData struct {
	PayoutID  string    `json:"payout_id"`
	HostID    string    `json:"host_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Date      time.Time `json:"date"`
	Method    string    `json:"method"`
	Status    string    `json:"status"`
	Reference string    `json:"reference"`
}

// PayoutsHandler turns payout CloudEvents into RecordPayoutCommand.
type PayoutsHandler struct {
	Bus    commands.Bus
	Inbox  Inbox
	Logger *slog.Logger
}

func (h *PayoutsHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var env payoutEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return fmt.Errorf("%w: decode payout event: %v", ErrPermanent, err)
	}
	if env.ID == "" {
		return fmt.Errorf("%w: payout event without id", ErrPermanent)
	}
	if env.Type != "" && !strings.HasPrefix(env.Type, "payout.") {
		return nil
	}
	if h.Inbox != nil {
		seen, err := h.Inbox.Processed(ctx, env.ID)
		if err != nil {
			return err
		}
		if seen {
			if h.Logger != nil {
				h.Logger.Debug("duplicate payout event skipped", "event_id", env.ID)
			}
			return nil
		}
	}
	ctx = appoutbox.WithCorrelationID(ctx, env.ID)
	payoutID := env.Data.PayoutID
	if payoutID == "" {
		payoutID = env.ID
	}
	_, err := commands.Dispatch[revenueapp.RecordPayoutCommand, struct{}](ctx, h.Bus, revenueapp.RecordPayoutCommand{
		PayoutID:  payoutID,
		HostID:    env.Data.HostID,
		Amount:    env.Data.Amount,
		Currency:  env.Data.Currency,
		Date:      env.Data.Date,
		Method:    env.Data.Method,
		Status:    env.Data.Status,
		Reference: env.Data.Reference,
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindValidation {
			return fmt.Errorf("%w: %v", ErrPermanent, err)
		}
		return err
	}
	if h.Inbox != nil {
		if err := h.Inbox.MarkProcessed(ctx, env.ID); err != nil && h.Logger != nil {
			h.Logger.Warn("payout event not marked processed", "event_id", env.ID, "error", err)
		}
	}
	if h.Logger != nil {
		h.Logger.Info("payout event consumed", "event_id", env.ID, "payout_id", payoutID)
	}
	return nil
}

var _ MessageHandler = (*PayoutsHandler)(nil)

package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"locadz/internal/app/commands"
	"locadz/internal/app/dto"
	bookingapp "locadz/internal/app/handlers/booking"
	paymentsapp "locadz/internal/app/handlers/payments"
	revenueapp "locadz/internal/app/handlers/revenue"
	"locadz/internal/app/queries"
)

type AdminHTTP interface {
	ProofQueue(c *gin.Context)
	ApproveProof(c *gin.Context)
	RejectProof(c *gin.Context)
	CancelBooking(c *gin.Context)
	Stats(c *gin.Context)
}

type AdminHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h AdminHandler) ProofQueue(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return
	}
	query := paymentsapp.ListProofQueueQuery{Actor: actor, Status: c.Query("status")}
	result, err := queries.Ask[paymentsapp.ListProofQueueQuery, dto.PaymentProofCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) ApproveProof(c *gin.Context) {
	h.review(c, paymentsapp.DecisionApprove)
}

func (h AdminHandler) RejectProof(c *gin.Context) {
	h.review(c, paymentsapp.DecisionReject)
}

func (h AdminHandler) review(c *gin.Context, decision paymentsapp.Decision) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return
	}
	var req decisionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	cmd := paymentsapp.ReviewPaymentProofCommand{
		Actor:    actor,
		ProofID:  strings.TrimSpace(c.Param("id")),
		Decision: decision,
		Reason:   strings.TrimSpace(req.Reason),
	}
	result, err := commands.Dispatch[paymentsapp.ReviewPaymentProofCommand, *paymentsapp.ReviewPaymentProofResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) CancelBooking(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return
	}
	var req decisionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	cmd := bookingapp.CancelBookingCommand{
		Actor:     actor,
		BookingID: strings.TrimSpace(c.Param("id")),
		Reason:    strings.TrimSpace(req.Reason),
	}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, *bookingapp.BookingActionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) Stats(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return
	}
	result, err := queries.Ask[revenueapp.PlatformStatsQuery, dto.PlatformStats](c.Request.Context(), h.Queries, revenueapp.PlatformStatsQuery{Actor: actor})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AdminHTTP = AdminHandler{}

package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"locadz/internal/app/commands"
	"locadz/internal/app/dto"
	bookingapp "locadz/internal/app/handlers/booking"
	listingsapp "locadz/internal/app/handlers/listings"
	revenueapp "locadz/internal/app/handlers/revenue"
	"locadz/internal/app/queries"
)

type HostHTTP interface {
	Bookings(c *gin.Context)
	Approve(c *gin.Context)
	Reject(c *gin.Context)
	Revenue(c *gin.Context)
	Payouts(c *gin.Context)
	Listings(c *gin.Context)
}

type HostHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type decisionRequest struct {
	Reason string `json:"reason"`
}

func (h HostHandler) Bookings(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return
	}
	query := bookingapp.ListHostBookingsQuery{Actor: actor, Status: c.Query("status")}
	result, err := queries.Ask[bookingapp.ListHostBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostHandler) Approve(c *gin.Context) {
	h.respond(c, bookingapp.DecisionApprove)
}

func (h HostHandler) Reject(c *gin.Context) {
	h.respond(c, bookingapp.DecisionReject)
}

func (h HostHandler) respond(c *gin.Context, decision bookingapp.Decision) {
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
	cmd := bookingapp.RespondToBookingCommand{
		Actor:     actor,
		BookingID: strings.TrimSpace(c.Param("id")),
		Decision:  decision,
		Reason:    strings.TrimSpace(req.Reason),
	}
	result, err := commands.Dispatch[bookingapp.RespondToBookingCommand, *bookingapp.BookingActionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Revenue accepts listing_id repeated or comma separated.
func (h HostHandler) Revenue(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return
	}
	var ids []string
	for _, raw := range c.QueryArray("listing_id") {
		ids = append(ids, splitCSV(raw)...)
	}
	query := revenueapp.HostRevenueQuery{Actor: actor, ListingIDs: ids}
	result, err := queries.Ask[revenueapp.HostRevenueQuery, dto.HostRevenue](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostHandler) Payouts(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return
	}
	result, err := queries.Ask[revenueapp.ListPayoutsQuery, dto.PayoutCollection](c.Request.Context(), h.Queries, revenueapp.ListPayoutsQuery{Actor: actor})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostHandler) Listings(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return
	}
	result, err := queries.Ask[listingsapp.ListHostListingsQuery, dto.ListingCollection](c.Request.Context(), h.Queries, listingsapp.ListHostListingsQuery{Actor: actor})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ HostHTTP = HostHandler{}

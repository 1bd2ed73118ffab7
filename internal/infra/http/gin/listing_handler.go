package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"locadz/internal/app/dto"
	availabilityapp "locadz/internal/app/handlers/availability"
	listingsapp "locadz/internal/app/handlers/listings"
	"locadz/internal/app/queries"
)

type ListingHTTP interface {
	Get(c *gin.Context)
	Availability(c *gin.Context)
	Calendar(c *gin.Context)
	Quote(c *gin.Context)
}

// ListingHandler serves the public listing endpoints.
type ListingHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h ListingHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return
	}
	query := listingsapp.GetListingQuery{ListingID: strings.TrimSpace(c.Param("id"))}
	result, err := queries.Ask[listingsapp.GetListingQuery, dto.Listing](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Availability(c *gin.Context) {
	if h.Queries == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return
	}
	checkIn, checkOut, ok := stayRange(c)
	if !ok {
		return
	}
	query := availabilityapp.CheckAvailabilityQuery{ListingID: strings.TrimSpace(c.Param("id")), CheckIn: checkIn, CheckOut: checkOut}
	result, err := queries.Ask[availabilityapp.CheckAvailabilityQuery, dto.Availability](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Calendar(c *gin.Context) {
	if h.Queries == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return
	}
	query := availabilityapp.GetCalendarQuery{ListingID: strings.TrimSpace(c.Param("id"))}
	result, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Quote(c *gin.Context) {
	if h.Queries == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return
	}
	checkIn, checkOut, ok := stayRange(c)
	if !ok {
		return
	}
	query := availabilityapp.QuoteQuery{ListingID: strings.TrimSpace(c.Param("id")), CheckIn: checkIn, CheckOut: checkOut}
	result, err := queries.Ask[availabilityapp.QuoteQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func stayRange(c *gin.Context) (time.Time, time.Time, bool) {
	checkIn, err := parseDay(c.Query("check_in"))
	if err != nil {
		badRequest(c, fmt.Errorf("check_in: %w", err))
		return time.Time{}, time.Time{}, false
	}
	checkOut, err := parseDay(c.Query("check_out"))
	if err != nil {
		badRequest(c, fmt.Errorf("check_out: %w", err))
		return time.Time{}, time.Time{}, false
	}
	return checkIn, checkOut, true
}

var _ ListingHTTP = ListingHandler{}

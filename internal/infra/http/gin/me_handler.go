package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"locadz/internal/app/commands"
	"locadz/internal/app/dto"
	meapp "locadz/internal/app/handlers/me"
	notificationsapp "locadz/internal/app/handlers/notifications"
	"locadz/internal/app/queries"
)

type MeHTTP interface {
	ListBookings(c *gin.Context)
	Notifications(c *gin.Context)
	MarkRead(c *gin.Context)
	MarkAllRead(c *gin.Context)
}

type MeHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h MeHandler) ListBookings(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return
	}
	result, err := queries.Ask[meapp.ListGuestBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, meapp.ListGuestBookingsQuery{Actor: actor})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h MeHandler) Notifications(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return
	}
	query := notificationsapp.ListNotificationsQuery{Actor: actor, Limit: parseIntWithDefault(c.Query("limit"), 0)}
	result, err := queries.Ask[notificationsapp.ListNotificationsQuery, dto.NotificationCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h MeHandler) MarkRead(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return
	}
	cmd := notificationsapp.MarkReadCommand{Actor: actor, NotificationID: strings.TrimSpace(c.Param("id"))}
	if _, err := commands.Dispatch[notificationsapp.MarkReadCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h MeHandler) MarkAllRead(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return
	}
	result, err := commands.Dispatch[notificationsapp.MarkAllReadCommand, *notificationsapp.MarkAllReadResult](c.Request.Context(), h.Commands, notificationsapp.MarkAllReadCommand{Actor: actor})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ MeHTTP = MeHandler{}

package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"locadz/internal/app/apperr"
	"locadz/internal/domain/shared/daterange"
	"locadz/internal/infra/validation"
)

var errBusUnavailable = apperr.Unavailable(errors.New("service unavailable"))

func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes the error for its kind. Unclassified failures are
// logged and hidden behind a generic message.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	if status == http.StatusInternalServerError {
		if logger != nil {
			logger.Error("request failed", "path", c.FullPath(), "error", err, "request_id", c.GetString("request_id"))
		}
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}
	body := gin.H{"error": err.Error(), "kind": string(apperr.KindOf(err))}
	var fields validation.Errors
	if errors.As(err, &fields) {
		body["fields"] = fields
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": string(apperr.KindValidation)})
}

func parseDay(raw string) (time.Time, error) {
	return time.Parse(daterange.DateLayout, strings.TrimSpace(raw))
}

func parseIntWithDefault(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"locadz/internal/domain/user"
)

const actorContextKey = "locadz.actor"

// TokenVerifier resolves a bearer token issued by the identity provider.
type TokenVerifier interface {
	Verify(raw string) (user.Actor, error)
}

type AuthMiddleware struct {
	Verifier TokenVerifier
	Logger   *slog.Logger
}

// Handle attaches the actor when the request carries a valid bearer token.
// Requests without one continue anonymously; protected routes reject them.
func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Verifier == nil {
		c.Next()
		return
	}
	actor, err := m.Verifier.Verify(token)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.Next()
		return
	}
	c.Set(actorContextKey, actor)
	c.Set("actor_id", string(actor.ID))
	c.Next()
}

func currentActor(c *gin.Context) (user.Actor, bool) {
	val, exists := c.Get(actorContextKey)
	if !exists {
		return user.Actor{}, false
	}
	actor, ok := val.(user.Actor)
	return actor, ok && actor.Authenticated()
}

// requireActor aborts with 401 for anonymous callers. Role checks happen on
// the command and query buses.
func requireActor(c *gin.Context) (user.Actor, bool) {
	actor, ok := currentActor(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return user.Actor{}, false
	}
	return actor, true
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

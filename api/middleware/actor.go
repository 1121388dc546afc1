package middleware

import (
	"net/http"
	"strconv"

	"example.com/guardian/services/monitor/internal/models"

	"github.com/gin-gonic/gin"
)

// ActorContextKey is the gin context key holding the acting principal
const ActorContextKey = "actor"

// Actor headers set by the external auth layer after token verification.
// This service never sees credentials; it trusts the gateway's identity
// assertion, mirroring how the device endpoints trust the physical binding.
const (
	HeaderActorRole = "X-Actor-Role"
	HeaderActorID   = "X-Actor-ID"
)

// RequireActor extracts the acting principal from the identity headers and
// rejects requests without a usable one
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := models.ActorRole(c.GetHeader(HeaderActorRole))
		idStr := c.GetHeader(HeaderActorID)

		if role != models.RoleOwner && role != models.RoleCaregiver {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Unknown or missing actor role",
			})
			c.Abort()
			return
		}

		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil || id == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Missing or invalid actor id",
			})
			c.Abort()
			return
		}

		c.Set(ActorContextKey, models.Actor{Role: role, ID: uint(id)})
		c.Next()
	}
}

// ActorFromContext returns the actor stored by RequireActor
func ActorFromContext(c *gin.Context) (models.Actor, bool) {
	value, exists := c.Get(ActorContextKey)
	if !exists {
		return models.Actor{}, false
	}
	actor, ok := value.(models.Actor)
	return actor, ok
}

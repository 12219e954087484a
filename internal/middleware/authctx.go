package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
)

const (
	actorIDHeader   = "X-Actor-ID"
	actorRoleHeader = "X-Actor-Role"

	actorContextKey = "authActor"
)

// AuthContext extracts the authenticated actor from request headers set by
// the upstream auth collaborator. This service performs no credential
// verification; it only requires that an identity and role are present.
func AuthContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(actorIDHeader)
		role := domain.Role(c.GetHeader(actorRoleHeader))

		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing actor identity"})
			return
		}

		if role != domain.RoleStudent && role != domain.RoleDriver {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or unknown actor role"})
			return
		}

		c.Set(actorContextKey, domain.Actor{ID: id, Role: role})
		c.Next()
	}
}

// ActorFrom returns the actor attached by AuthContext.
func ActorFrom(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(actorContextKey)
	if !ok {
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok
}

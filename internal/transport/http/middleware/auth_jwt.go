package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"go-sales-tracker/internal/core/auth"
	"go-sales-tracker/internal/domain"
	"go-sales-tracker/internal/transport/http/ez"
	resp "go-sales-tracker/internal/transport/http/response"
)

// AuthJWT roles 为空时只要求登录；角色以 token 中的为准
func AuthJWT(j *auth.JWTer, roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") || strings.TrimSpace(ah[len("Bearer "):]) == "" {
			resp.Abort(c, http.StatusUnauthorized, "missing or malformed authorization header")
			return
		}
		claims, err := j.Parse(strings.TrimSpace(ah[len("Bearer "):]))
		if err != nil {
			resp.Abort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		actor, err := claims.Actor()
		if err != nil || !actor.Role.Valid() {
			resp.Abort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		if len(roles) > 0 && !slices.Contains(roles, actor.Role) {
			resp.Abort(c, http.StatusForbidden, "insufficient role")
			return
		}
		c.Set(ez.KeyClaims, claims)
		c.Set(ez.KeyUserID, actor.ID)
		c.Set(ez.KeyRole, actor.Role)
		c.Set(ez.KeyActor, actor)
		c.Next()
	}
}

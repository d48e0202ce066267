package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through when the caller has any of roles.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	msg := "Requires role: " + strings.Join(roles, " or ")

	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)
		if !ok || role == "" {
			abortError(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
			return
		}
		if _, ok := allowed[role]; !ok {
			abortError(c, http.StatusForbidden, "forbidden", msg)
			return
		}
		c.Next()
	}
}

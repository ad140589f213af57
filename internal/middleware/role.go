package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"boozstudio/internal/domain"
	"boozstudio/internal/pkg/response"
)

// RequireRole lets the request through when the authenticated role is one of roles.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[domain.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		if _, exists := c.Get(ctxRole); !exists {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			c.Abort()
			return
		}

		if !allowed[Role(c)] {
			response.Forbidden(c, "Access denied: insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}

func StaffOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleCoach, domain.RoleAdmin)
}

func AdminOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"boozstudio/internal/domain"
	"boozstudio/internal/pkg/jwt"
)

const (
	ctxAccountID = "account_id"
	ctxEmail     = "email"
	ctxRole      = "role"
)

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}

// JWTAuth requires a valid bearer token and stores its claims on the context.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			unauthorized(c, "Missing Authorization header")
			return
		}
		if !strings.HasPrefix(h, "Bearer ") {
			unauthorized(c, "Invalid Authorization header")
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		if tokenStr == "" {
			unauthorized(c, "Empty token")
			return
		}

		claims, err := jwtService.ValidateToken(tokenStr)
		if err != nil {
			unauthorized(c, "Invalid token")
			return
		}

		SetIdentity(c, claims.AccountID, claims.Email, claims.Role)
		c.Next()
	}
}

// SetIdentity stores the caller on the context.
func SetIdentity(c *gin.Context, accountID, email, role string) {
	c.Set(ctxAccountID, accountID)
	c.Set(ctxEmail, domain.NormalizeEmail(email))
	c.Set(ctxRole, role)
}

func AccountID(c *gin.Context) string { return c.GetString(ctxAccountID) }

func Email(c *gin.Context) string { return c.GetString(ctxEmail) }

func Role(c *gin.Context) domain.Role { return domain.Role(c.GetString(ctxRole)) }

// IsStaff reports whether the caller is a coach or an admin.
func IsStaff(c *gin.Context) bool {
	r := Role(c)
	return r == domain.RoleCoach || r == domain.RoleAdmin
}

// CanActFor reports whether the caller may act on the account identified by email.
// Clients may only act on themselves; staff may act on anyone.
func CanActFor(c *gin.Context, email string) bool {
	if IsStaff(c) {
		return true
	}
	own := Email(c)
	return own != "" && own == domain.NormalizeEmail(email)
}

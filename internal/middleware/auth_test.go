package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"boozstudio/internal/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestJWTAuth_ValidToken(t *testing.T) {
	jwtService := jwt.New("test-secret-123", time.Hour)
	validToken, _ := jwtService.GenerateToken("acc-42", "Ana@Booz.com", "client")

	router := gin.New()
	router.Use(JWTAuth(jwtService))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"account_id": AccountID(c),
			"email":      Email(c),
			"role":       Role(c),
		})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+validToken)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"account_id":"acc-42","email":"ana@booz.com","role":"client"}`, w.Body.String())
}

func TestJWTAuth_Rejects(t *testing.T) {
	jwtService := jwt.New("secret", time.Hour)

	cases := []struct {
		name    string
		header  string
		message string
	}{
		{"no header", "", "Missing Authorization header"},
		{"basic auth", "Basic dGVzdA==", "Invalid Authorization header"},
		{"empty bearer", "Bearer   ", "Empty token"},
		{"garbage", "Bearer invalid-jwt-here", "Invalid token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.Use(JWTAuth(jwtService))
			router.GET("/protected", func(c *gin.Context) {
				t.Fatal("handler should not be reached")
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
			assert.Contains(t, w.Body.String(), tc.message)
		})
	}
}

func TestCanActFor(t *testing.T) {
	newCtx := func(email, role string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		SetIdentity(c, "id", email, role)
		return c
	}

	assert.True(t, CanActFor(newCtx("ana@booz.com", "client"), " ANA@booz.com"))
	assert.False(t, CanActFor(newCtx("ana@booz.com", "client"), "luis@booz.com"))
	assert.True(t, CanActFor(newCtx("coach@booz.com", "coach"), "luis@booz.com"))
	assert.True(t, CanActFor(newCtx("admin@booz.com", "admin"), "luis@booz.com"))

	anon, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.False(t, CanActFor(anon, ""))
}

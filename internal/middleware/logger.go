package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"boozstudio/internal/metrics"
)

// RequestLogger logs every request, records its latency and recovers from panics.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				log.Error().
					Str("request_id", requestID(c)).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Str("panic", fmt.Sprintf("%v", recovered)).
					Bytes("stack", debug.Stack()).
					Msg("request panic")

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "INTERNAL_ERROR",
						"message": "Internal Server Error",
					},
				})
			}

			status := c.Writer.Status()
			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			metrics.RequestDuration.
				WithLabelValues(c.Request.Method, route, fmt.Sprint(status)).
				Observe(time.Since(start).Seconds())

			ev := log.Info()
			if status >= http.StatusInternalServerError || len(c.Errors) > 0 {
				ev = log.Error()
			}
			ev = ev.
				Str("request_id", requestID(c)).
				Int("status", status).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Str("client_ip", c.ClientIP()).
				Str("account_id", AccountID(c)).
				Str("role", string(Role(c))).
				Dur("latency", time.Since(start))
			if len(c.Errors) > 0 {
				ev = ev.Str("error", c.Errors.String())
			}
			ev.Msg("request")
		}()

		c.Next()
	}
}

func requestID(c *gin.Context) string {
	id := c.GetHeader("X-Request-ID")
	if id == "" {
		id = c.GetHeader("X-Request-Id")
	}
	return id
}

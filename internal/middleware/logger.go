package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger logs one line per request: method, path, status, latency,
// client IP and request ID.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		log.Printf("[HTTP] %s %s %d %v ip=%s rid=%s%s",
			c.Request.Method,
			path,
			c.Writer.Status(),
			time.Since(start),
			c.ClientIP(),
			c.Writer.Header().Get(requestIDHeader),
			errorSuffix(c),
		)
	}
}

// errorSuffix renders accumulated gin errors, if any, for the log line.
func errorSuffix(c *gin.Context) string {
	if len(c.Errors) == 0 {
		return ""
	}
	return " errors=" + c.Errors.String()
}

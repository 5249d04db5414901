package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lumme/lumme-api/applog"
)

// RequestIDHeader carries the request id to and from clients
const RequestIDHeader = "X-Request-ID"

// RequestLogger tags every request with an id and writes one access log line
// when it completes
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(applog.RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		start := time.Now()
		c.Next()
		applog.Access(c, time.Since(start))
	}
}

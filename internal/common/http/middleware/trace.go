package middleware

import (
	"context"
	"strings"

	"codecoach/pkg/utils/contextkey"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	traceIDHeader   = "X-Trace-Id"
	requestIDHeader = "X-Request-Id"
)

// TraceContextMiddleware threads trace and request ids through the request.
// Incoming header values are honored so a caller can correlate one
// evaluation across services; missing ids are minted locally. Both ids land
// in the request context for the logger and are echoed as response headers.
func TraceContextMiddleware() gin.HandlerFunc {
	slots := []struct {
		header string
		key    contextkey.Key
	}{
		{traceIDHeader, contextkey.TraceID},
		{requestIDHeader, contextkey.RequestID},
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		for _, s := range slots {
			id := strings.TrimSpace(c.GetHeader(s.header))
			if id == "" {
				id = uuid.NewString()
			}
			c.Set(string(s.key), id)
			ctx = context.WithValue(ctx, s.key, id)
			c.Writer.Header().Set(s.header, id)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

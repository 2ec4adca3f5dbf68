package server

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/fangate/pkg/log/ctxlogger"
	"github.com/smallbiznis/fangate/pkg/telemetry/correlation"
	"go.uber.org/zap"
)

const correlationHeader = "X-Request-Id"

// CorrelationMiddleware threads an inbound request ID (or a fresh one)
// through the request context and echoes it back.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := strings.TrimSpace(c.GetHeader(correlationHeader))
		ctx := correlation.ContextWithCorrelationID(c.Request.Context(), cid)
		ctx, cid = correlation.EnsureCorrelationID(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Header(correlationHeader, cid)
		c.Next()
	}
}

// RequestLogMiddleware emits one structured line per request.
func RequestLogMiddleware(log *zap.Logger) gin.HandlerFunc {
	base := log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ctxlogger.WithContext(c.Request.Context(), base).Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

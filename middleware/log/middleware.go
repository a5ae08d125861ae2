package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger returns a gin middleware that tags every request with a
// trace ID and logs method, path, status and latency on completion.
func RequestLogger(log *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader("X-Trace-ID")
		if traceID == "" {
			traceID = NewTraceID()
		}
		c.Header("X-Trace-ID", traceID)
		c.Request = c.Request.WithContext(WithTraceID(c.Request.Context(), traceID))

		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("trace_id", traceID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
			log.Error("request completed with errors", fields...)
			return
		}
		log.Info("request completed", fields...)
	}
}

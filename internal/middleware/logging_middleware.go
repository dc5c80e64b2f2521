package middleware

import (
	"time"

	"github.com/annel0/voxel-editor/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDKey - ключ gin.Context, под которым лежит trace-ID запроса
const TraceIDKey = "trace_id"

// RequestLogger снабжает каждый HTTP-запрос trace-ID и пишет краткие логи
// в компонентный логгер сервера.
type RequestLogger struct {
	logger *logging.Logger
}

func NewRequestLogger() *RequestLogger {
	return &RequestLogger{logger: logging.GetServerLogger()}
}

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// trace-id из OpenTelemetry, если otelgin уже создал span
		span := trace.SpanFromContext(c.Request.Context())
		var traceID string
		if span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		} else {
			traceID = uuid.NewString()
		}
		c.Set(TraceIDKey, traceID)
		c.Header("X-Trace-Id", traceID)

		start := time.Now()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		rl.logger.Debug("[HTTP] ▶ %s %s ip=%s trace=%s", method, path, c.ClientIP(), traceID)

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		if status >= 500 {
			rl.logger.Error("[HTTP] ◀ %s %s %d %s trace=%s", method, path, status, latency, traceID)
			return
		}
		rl.logger.Info("[HTTP] ◀ %s %s %d %s trace=%s", method, path, status, latency, traceID)
	}
}

// CORS разрешает запросы браузерного клиента с любого origin
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

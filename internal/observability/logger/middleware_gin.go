package logger

import (
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	requestIDHeader   = "X-Request-Id"
	maxRequestIDBytes = 128
)

// MiddlewareConfig controls request logging behavior.
type MiddlewareConfig struct {
	// Logger defaults to the global zap logger.
	Logger          *zap.Logger
	// ErrorClassifier names the error kind recorded on the request line.
	ErrorClassifier func(err error) string
	// QuietRoutes are logged at debug level when they succeed.
	QuietRoutes     []string
}

// GinMiddleware assigns a request id and writes one access log line per
// request once the handler chain has finished.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	quiet := make(map[string]struct{}, len(cfg.QuietRoutes))
	for _, route := range cfg.QuietRoutes {
		quiet[route] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		requestID := requestIDFor(c.GetHeader(requestIDHeader))
		c.Set("request_id", requestID)
		c.Header(requestIDHeader, requestID)
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), requestID))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("bytes_out", max(c.Writer.Size(), 0)),
		}
		if lastErr := c.Errors.Last(); lastErr != nil {
			if cfg.ErrorClassifier != nil {
				fields = append(fields, zap.String("error_type", cfg.ErrorClassifier(lastErr.Err)))
			}
			// client errors are expected; only server errors carry the cause
			if status >= http.StatusInternalServerError {
				fields = append(fields, zap.Error(lastErr.Err))
			}
		}

		base := cfg.Logger
		if base == nil {
			base = zap.L()
		}
		_, isQuiet := quiet[route]
		if ce := WithContext(c.Request.Context(), base).Check(requestLevel(status, isQuiet), "http request"); ce != nil {
			ce.Write(fields...)
		}
	}
}

func requestLevel(status int, quiet bool) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status == http.StatusUnauthorized, status == http.StatusForbidden, status == http.StatusTooManyRequests:
		return zapcore.WarnLevel
	case quiet:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// requestIDFor keeps a caller supplied id when it is short and printable.
func requestIDFor(header string) string {
	id := strings.TrimSpace(header)
	if id == "" || len(id) > maxRequestIDBytes {
		return uuid.NewString()
	}
	for _, r := range id {
		if !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return uuid.NewString()
		}
	}
	return id
}

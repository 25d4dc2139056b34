package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/cesarmartin1/crm-david/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// quietPaths are polled by health checks and scrapers and only logged at debug level
var quietPaths = []string{"/health/", "/metrics"}

// RequestLogger logs one line per request once the handler chain has run.
// Correlation and user ids come from the request context, which the auth
// middleware enriches further down the chain. Client errors log at warn and
// server errors at error.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("route", c.FullPath()),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("latency", time.Since(start)),
		}
		if claims, ok := GetClaims(c); ok {
			fields = append(fields, zap.String("role", claims.Role))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		reqLogger := logger.WithContext(c.Request.Context())
		if ce := reqLogger.Check(requestLevel(path, status, len(c.Errors) > 0), "Request completed"); ce != nil {
			ce.Write(fields...)
		}
	}
}

func requestLevel(path string, status int, hasErrors bool) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError || hasErrors:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	}
	for _, p := range quietPaths {
		if strings.HasPrefix(path, p) {
			return zapcore.DebugLevel
		}
	}
	return zapcore.InfoLevel
}

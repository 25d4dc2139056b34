package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cesarmartin1/crm-david/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger.SetLogger(zap.New(core))
	defer logger.SetLogger(nil)

	router := gin.New()
	router.Use(CorrelationID(), RequestLogger())
	router.GET("/health/live", func(c *gin.Context) { c.Status(http.StatusOK) })
	api := router.Group("/api/v1", AuthMiddleware(testSecret, ""))
	api.GET("/quotes/:code", func(c *gin.Context) { c.Status(http.StatusOK) })
	api.PATCH("/quotes/:code/status", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	api.GET("/boom", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	token := "Bearer " + signToken(t, validClaims(RoleComercial), testSecret)
	tests := []struct {
		name   string
		method string
		path   string
		auth   bool
		level  zapcore.Level
		route  string
	}{
		{"authenticated read", http.MethodGet, "/api/v1/quotes/1001", true, zapcore.InfoLevel, "/api/v1/quotes/:code"},
		{"client error", http.MethodPatch, "/api/v1/quotes/1001/status", true, zapcore.WarnLevel, "/api/v1/quotes/:code/status"},
		{"server error", http.MethodGet, "/api/v1/boom", true, zapcore.ErrorLevel, "/api/v1/boom"},
		{"unauthenticated", http.MethodGet, "/api/v1/quotes/1001", false, zapcore.WarnLevel, "/api/v1/quotes/:code"},
		{"health check", http.MethodGet, "/health/live", false, zapcore.DebugLevel, "/health/live"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.TakeAll()
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth {
				req.Header.Set("Authorization", token)
			}
			router.ServeHTTP(httptest.NewRecorder(), req)

			entries := logs.FilterMessage("Request completed").TakeAll()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)

			fields := entries[0].ContextMap()
			assert.Equal(t, tt.route, fields["route"])
			assert.Equal(t, tt.path, fields["path"])
			assert.NotEmpty(t, fields["correlation_id"])
			if tt.auth {
				assert.Equal(t, "u-1", fields["user_id"])
				assert.Equal(t, RoleComercial, fields["role"])
			} else {
				assert.NotContains(t, fields, "user_id")
				assert.NotContains(t, fields, "role")
			}
		})
	}
}

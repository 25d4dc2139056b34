package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cesarmartin1/crm-david/pkg/config"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSentry_EmptyDSN(t *testing.T) {
	enabled, err := InitSentry(config.SentryConfig{}, "test", "dev")
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestInitSentry_InvalidDSN(t *testing.T) {
	_, err := InitSentry(config.SentryConfig{DSN: "not a dsn"}, "test", "dev")
	assert.Error(t, err)
}

func TestMiddleware_AttachesHub(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())

	var hasHub bool
	router.GET("/ping", func(c *gin.Context) {
		hasHub = sentrygin.GetHubFromContext(c) != nil
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, hasHub)
}

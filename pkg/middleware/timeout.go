package middleware

import (
	"net/http"
	"time"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
)

// RequestTimeout aborts handlers that run longer than d with a 503
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	return timeout.New(
		timeout.WithTimeout(d),
		timeout.WithResponse(func(c *gin.Context) {
			common.ErrorResponse(c, http.StatusServiceUnavailable, "request timed out")
		}),
	)
}

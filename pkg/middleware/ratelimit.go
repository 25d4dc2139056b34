package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/logger"
	"github.com/cesarmartin1/crm-david/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimit limits requests to an endpoint group per caller. Authenticated
// callers are keyed by user, others by client IP. A nil or disabled limiter
// lets everything through, and so does a Redis failure.
func RateLimit(limiter *ratelimit.Limiter, endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Enabled() {
			c.Next()
			return
		}

		identity, kind := c.ClientIP(), ratelimit.IdentityAnonymous
		if claims, ok := GetClaims(c); ok {
			if claims.UserID != "" {
				identity, kind = claims.UserID, ratelimit.IdentityAuthenticated
			} else if claims.Email != "" {
				identity, kind = claims.Email, ratelimit.IdentityAuthenticated
			}
		}

		res, err := limiter.Allow(c.Request.Context(), endpoint, identity, limiter.RuleFor(endpoint, kind), kind)
		if err != nil {
			logger.WithContext(c.Request.Context()).Warn("Rate limiter unavailable, allowing request",
				zap.String("endpoint", endpoint), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(res.Remaining, 0)))
		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			common.ErrorResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}

package access

import (
	"context"
	"net/http"
	"strings"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/logger"
	"github.com/cesarmartin1/crm-david/pkg/middleware"
	"github.com/gin-gonic/gin"
)

const (
	sectionKey  = "access_section"
	readOnlyKey = "access_read_only"
)

// Checker decides whether a user may use a section
type Checker interface {
	Allowed(ctx context.Context, userID, role, section string, write bool) (bool, error)
}

// Recorder writes access log entries
type Recorder interface {
	Record(ctx context.Context, e LogEntry)
}

func userID(claims *middleware.Claims) string {
	if claims.UserID != "" {
		return claims.UserID
	}
	return claims.Email
}

// actionFor maps a request method to its access log action, "" for reads
func actionFor(method string) string {
	switch method {
	case http.MethodPost:
		return ActionCreate
	case http.MethodPut, http.MethodPatch:
		return ActionEdit
	case http.MethodDelete:
		return ActionDelete
	}
	return ""
}

// RequireSection allows the request when the caller may view section, or edit
// it for write methods. Routes ending in one of readOnly only need viewing,
// for calculations posted with a body. It runs after AuthMiddleware.
func RequireSection(checker Checker, section string, readOnly ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(sectionKey, section)
		write := actionFor(c.Request.Method) != ""
		for _, route := range readOnly {
			if strings.HasSuffix(c.FullPath(), route) {
				write = false
				c.Set(readOnlyKey, true)
				break
			}
		}

		claims, ok := middleware.GetClaims(c)
		if !ok {
			common.ErrorResponse(c, http.StatusUnauthorized, "unauthenticated")
			c.Abort()
			return
		}

		allowed, err := checker.Allowed(c.Request.Context(), userID(claims), claims.Role, section, write)
		if err != nil {
			common.AppErrorResponse(c, err)
			c.Abort()
			return
		}
		if !allowed {
			deniedTotal.WithLabelValues(section).Inc()
			common.ErrorResponse(c, http.StatusForbidden, "no access to section "+section)
			c.Abort()
			return
		}
		c.Next()
	}
}

// AuditLog records every authenticated write request once it has been
// answered, refused ones included
func AuditLog(recorder Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		action := actionFor(c.Request.Method)
		if action == "" || c.GetBool(readOnlyKey) {
			return
		}
		claims, ok := middleware.GetClaims(c)
		if !ok {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		recorder.Record(c.Request.Context(), LogEntry{
			UserID:        userID(claims),
			Email:         claims.Email,
			Role:          claims.Role,
			Action:        action,
			Section:       c.GetString(sectionKey),
			Method:        c.Request.Method,
			Route:         route,
			Status:        c.Writer.Status(),
			CorrelationID: logger.CorrelationIDFromContext(c.Request.Context()),
		})
	}
}

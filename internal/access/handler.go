package access

import (
	"net/http"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// Handler serves the caller's own permissions
type Handler struct {
	service *Service
}

// NewHandler creates a new access handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers access routes open to every role
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/access/me", h.GetMyPermissions)
}

// GetMyPermissions returns the effective section permissions of the caller
func (h *Handler) GetMyPermissions(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthenticated")
		return
	}
	perms, err := h.service.Permissions(c.Request.Context(), userID(claims), claims.Role)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, perms)
}

package access

import (
	"net/http"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/middleware"
	"github.com/cesarmartin1/crm-david/pkg/pagination"
	"github.com/gin-gonic/gin"
)

// AdminHandler handles admin HTTP requests for permissions and the access log
type AdminHandler struct {
	service *Service
}

// NewAdminHandler creates a new access admin handler
func NewAdminHandler(service *Service) *AdminHandler {
	return &AdminHandler{service: service}
}

// RegisterRoutes registers access admin routes
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	a := rg.Group("/access")
	{
		a.GET("/log", h.ListLog)
		a.GET("/sections", h.ListSections)
		a.GET("/permissions/:user_id", h.GetPermissions)
		a.PUT("/permissions/:user_id", h.UpdatePermissions)
		a.DELETE("/permissions/:user_id", h.ResetPermissions)
	}
}

type roleQuery struct {
	Role string `form:"role" validate:"omitempty,oneof=admin comercial viewer"`
}

// roleOf reads ?role=, the role the permissions are resolved for. Roles live
// in the identity provider, so the admin names the one to preview.
func roleOf(c *gin.Context) (string, bool) {
	var q roleQuery
	if !middleware.ValidateAndBindQuery(c, &q) {
		return "", false
	}
	if q.Role == "" {
		return middleware.RoleComercial, true
	}
	return q.Role, true
}

// ListLog returns the access log, filtered by ?user_id=, ?action= and ?section=
func (h *AdminHandler) ListLog(c *gin.Context) {
	var f LogFilter
	if !middleware.ValidateAndBindQuery(c, &f) {
		return
	}
	p := pagination.ParseParams(c)
	items, total, err := h.service.Log(c.Request.Context(), f, p)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithMeta(c, items, pagination.BuildMeta(p.Limit, p.Offset, total))
}

// ListSections returns the sections permissions apply to
func (h *AdminHandler) ListSections(c *gin.Context) {
	common.SuccessResponse(c, Sections)
}

// GetPermissions returns the effective permissions of a user
func (h *AdminHandler) GetPermissions(c *gin.Context) {
	role, ok := roleOf(c)
	if !ok {
		return
	}
	perms, err := h.service.Permissions(c.Request.Context(), c.Param("user_id"), role)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, perms)
}

// UpdatePermissions stores section overrides for a user
func (h *AdminHandler) UpdatePermissions(c *gin.Context) {
	role, ok := roleOf(c)
	if !ok {
		return
	}
	var req UpdatePermissionsRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}
	perms, err := h.service.UpdatePermissions(c.Request.Context(), c.Param("user_id"), role, req, middleware.GetUserName(c))
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusOK, perms, "Permissions updated successfully")
}

// ResetPermissions drops the overrides of a user
func (h *AdminHandler) ResetPermissions(c *gin.Context) {
	if err := h.service.ResetPermissions(c.Request.Context(), c.Param("user_id")); err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusOK, nil, "Permissions reset successfully")
}

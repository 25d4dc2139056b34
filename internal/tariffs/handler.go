package tariffs

import (
	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for tariffs
type Handler struct {
	service *Service
}

// NewHandler creates a new tariffs handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers tariff routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	t := rg.Group("/tariffs")
	{
		t.POST("/calculate", h.Calculate)
		t.GET("/tables", h.GetTables)
	}
}

// Calculate prices a service
func (h *Handler) Calculate(c *gin.Context) {
	var req CalculateRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	b, err := h.service.Calculate(c.Request.Context(), req)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, b)
}

// GetTables returns every rate table
func (h *Handler) GetTables(c *gin.Context) {
	t, err := h.service.Tables(c.Request.Context())
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, t)
}

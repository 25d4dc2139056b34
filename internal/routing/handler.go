package routing

import (
	"net/http"
	"strings"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for route planning
type Handler struct {
	service *Service
}

// NewHandler creates a new routing handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers routing routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	r := rg.Group("/routes")
	{
		r.POST("/plan", h.Plan)
		r.POST("/quote", h.Quote)
		r.GET("/geocode", h.Geocode)
		r.GET("/config", h.GetConfig)
		r.GET("/places", h.ListPlaces)

		admin := r.Group("", middleware.RequireRole(middleware.RoleAdmin))
		admin.PUT("/config", h.UpdateConfig)
		admin.POST("/places", h.CreatePlace)
		admin.PUT("/places/:id", h.UpdatePlace)
		admin.DELETE("/places/:id", h.DeletePlace)
	}
}

// Plan decomposes a service into legs
func (h *Handler) Plan(c *gin.Context) {
	var req RouteRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}
	common.SuccessResponse(c, h.service.Plan(c.Request.Context(), req))
}

// Quote plans and prices a service
func (h *Handler) Quote(c *gin.Context) {
	var req QuoteRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}
	res, err := h.service.Quote(c.Request.Context(), req)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, res)
}

// Geocode resolves one address
func (h *Handler) Geocode(c *gin.Context) {
	address := strings.TrimSpace(c.Query("address"))
	if address == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "address is required")
		return
	}
	loc, err := h.service.Geocode(c.Request.Context(), address)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, loc)
}

// GetConfig returns the calculator config
func (h *Handler) GetConfig(c *gin.Context) {
	cfg, err := h.service.Config(c.Request.Context())
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, cfg)
}

// UpdateConfig changes calculator config values
func (h *Handler) UpdateConfig(c *gin.Context) {
	var req UpdateConfigRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}
	cfg, err := h.service.UpdateConfig(c.Request.Context(), req)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusOK, cfg, "Calculator config updated")
}

// ListPlaces lists frequent places
func (h *Handler) ListPlaces(c *gin.Context) {
	places, err := h.service.ListPlaces(c.Request.Context(), c.Query("search"))
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, places)
}

// CreatePlace stores a frequent place
func (h *Handler) CreatePlace(c *gin.Context) {
	var p FrequentPlace
	if !middleware.ValidateAndBind(c, &p) {
		return
	}
	if err := h.service.CreatePlace(c.Request.Context(), &p); err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusCreated, &p, "Place created successfully")
}

// UpdatePlace replaces a frequent place
func (h *Handler) UpdatePlace(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid place ID")
		return
	}
	var p FrequentPlace
	if !middleware.ValidateAndBind(c, &p) {
		return
	}
	p.ID = id
	if err := h.service.UpdatePlace(c.Request.Context(), &p); err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, &p)
}

// DeletePlace removes a frequent place
func (h *Handler) DeletePlace(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid place ID")
		return
	}
	if err := h.service.DeletePlace(c.Request.Context(), id); err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusOK, nil, "Place deleted successfully")
}

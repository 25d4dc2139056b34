package competitors

import (
	"net/http"
	"strconv"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for competitors
type Handler struct {
	service *Service
}

// NewHandler creates a new competitors handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers competitor routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	c := rg.Group("/competitors")
	{
		c.GET("", h.List)
		c.GET("/market", h.GetMarket)
		c.GET("/ranking", h.GetRanking)
		c.GET("/position", h.GetPosition)
		c.POST("/compare", h.Compare)
		c.GET("/fleet/stats", h.GetFleetStats)
		c.GET("/fleet/compare", h.GetFleetComparison)
		c.GET("/:id", h.Get)
		c.GET("/:id/quotes", h.ListQuotes)
		c.GET("/:id/vehicles", h.ListVehicles)

		write := c.Group("", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleComercial))
		write.POST("", h.Create)
		write.PUT("/:id", h.Update)
		write.POST("/:id/quotes", h.AddQuote)
		write.DELETE("/quotes/:id", h.DeleteQuote)
		write.POST("/:id/vehicles", h.AddVehicle)
		write.POST("/:id/vehicles/import", h.ImportVehicles)
		write.PUT("/vehicles/:id", h.UpdateVehicle)
		write.DELETE("/vehicles/:id", h.RetireVehicle)

		admin := c.Group("", middleware.RequireRole(middleware.RoleAdmin))
		admin.DELETE("/:id", h.Delete)
	}
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid ID")
		return uuid.Nil, false
	}
	return id, true
}

// List lists competitors, only active ones with ?active=true
func (h *Handler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, items)
}

// Get returns a competitor
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	item, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, item)
}

// Create creates a competitor
func (h *Handler) Create(c *gin.Context) {
	var item Competitor
	if !middleware.ValidateAndBind(c, &item) {
		return
	}
	if err := h.service.Create(c.Request.Context(), &item); err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusCreated, &item, "Competitor created successfully")
}

// Update replaces a competitor
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var item Competitor
	if !middleware.ValidateAndBind(c, &item) {
		return
	}
	item.ID = id
	if err := h.service.Update(c.Request.Context(), &item); err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusOK, &item, "Competitor updated successfully")
}

// Delete deletes a competitor
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusOK, nil, "Competitor deleted successfully")
}

// ListQuotes lists the quotes of a competitor
func (h *Handler) ListQuotes(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	items, err := h.service.Quotes(c.Request.Context(), id)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, items)
}

// AddQuote registers a competitor quote
func (h *Handler) AddQuote(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req CreateQuoteRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}
	q, err := h.service.AddQuote(c.Request.Context(), id, req)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusCreated, q, "Competitor quote created successfully")
}

// DeleteQuote deletes a competitor quote
func (h *Handler) DeleteQuote(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteQuote(c.Request.Context(), id); err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusOK, nil, "Competitor quote deleted successfully")
}

// GetMarket returns market statistics
func (h *Handler) GetMarket(c *gin.Context) {
	stats, err := h.service.Market(c.Request.Context(), c.Query("service_type"))
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, stats)
}

// GetRanking returns competitors ordered by price
func (h *Handler) GetRanking(c *gin.Context) {
	ranking, err := h.service.Ranking(c.Request.Context())
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, ranking)
}

// GetPosition places ?price= in the market of ?service_type= and ?vehicle_category=
func (h *Handler) GetPosition(c *gin.Context) {
	price, err := strconv.ParseFloat(c.Query("price"), 64)
	if err != nil || price <= 0 {
		common.ErrorResponse(c, http.StatusBadRequest, "price must be a positive number")
		return
	}
	p, err := h.service.Position(c.Request.Context(), price, c.Query("service_type"), c.Query("vehicle_category"))
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, p)
}

// Compare prices a service with our tariffs and positions it
func (h *Handler) Compare(c *gin.Context) {
	var req CompareRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}
	cmp, err := h.service.Compare(c.Request.Context(), req)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, cmp)
}

// ListVehicles lists the active fleet of a competitor, retired vehicles too with ?all=true
func (h *Handler) ListVehicles(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	items, err := h.service.Vehicles(c.Request.Context(), id, c.Query("all") == "true")
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, items)
}

// AddVehicle registers a competitor vehicle
func (h *Handler) AddVehicle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req VehicleRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}
	v, err := h.service.AddVehicle(c.Request.Context(), id, req)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusCreated, v, "Competitor vehicle created successfully")
}

// ImportVehicles loads a list of vehicles into a competitor's fleet
func (h *Handler) ImportVehicles(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req ImportVehiclesRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}
	result, err := h.service.ImportVehicles(c.Request.Context(), id, req)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusCreated, result, "Competitor vehicles imported")
}

// UpdateVehicle replaces a competitor vehicle
func (h *Handler) UpdateVehicle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req VehicleRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}
	v, err := h.service.UpdateVehicle(c.Request.Context(), id, req)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusOK, v, "Competitor vehicle updated successfully")
}

// RetireVehicle removes a vehicle from a competitor's active fleet
func (h *Handler) RetireVehicle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.RetireVehicle(c.Request.Context(), id); err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusOK, nil, "Competitor vehicle retired successfully")
}

// GetFleetStats returns fleet statistics, for one competitor with ?competitor_id=
func (h *Handler) GetFleetStats(c *gin.Context) {
	var competitorID *uuid.UUID
	if raw := c.Query("competitor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "Invalid competitor_id")
			return
		}
		competitorID = &id
	}
	stats, err := h.service.FleetStats(c.Request.Context(), competitorID)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, stats)
}

// GetFleetComparison returns every competitor fleet with the market totals
func (h *Handler) GetFleetComparison(c *gin.Context) {
	cmp, err := h.service.FleetComparison(c.Request.Context())
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, cmp)
}

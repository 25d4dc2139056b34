package fleetcosts

import (
	"net/http"
	"strconv"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles fleet cost requests
type Handler struct {
	service *Service
}

// NewHandler creates a new fleet handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers fleet routes. Reads are open to every role,
// writes are admin only.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	f := rg.Group("/fleet")
	{
		f.GET("/vehicles", h.ListVehicles)
		f.GET("/vehicles/:id", h.GetVehicle)
		f.GET("/vehicles/:id/years/:year", h.GetVehicleYear)
		f.GET("/summary", h.FleetSummary)
		f.GET("/vehicle-type-costs", h.VehicleTypeCosts)

		admin := f.Group("", middleware.RequireRole(middleware.RoleAdmin))
		admin.POST("/vehicles", h.CreateVehicle)
		admin.PUT("/vehicles/:id", h.UpdateVehicle)
		admin.DELETE("/vehicles/:id", h.DeleteVehicle)
		admin.PUT("/vehicles/:id/years/:year", h.SetVehicleYear)
		admin.POST("/vehicle-type-costs/apply", h.ApplyVehicleTypeCosts)
	}
}

func vehicleID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid vehicle ID")
		return uuid.Nil, false
	}
	return id, true
}

func pathYear(c *gin.Context) (int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid year")
		return 0, false
	}
	return year, true
}

// queryYear reads ?year=, 0 when absent
func queryYear(c *gin.Context) (int, bool) {
	v := c.Query("year")
	if v == "" {
		return 0, true
	}
	year, err := strconv.Atoi(v)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid year")
		return 0, false
	}
	return year, true
}

// ListVehicles lists vehicles, ?all=true includes retired ones
func (h *Handler) ListVehicles(c *gin.Context) {
	items, err := h.service.ListVehicles(c.Request.Context(), c.Query("all") != "true")
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, items)
}

// GetVehicle returns a vehicle
func (h *Handler) GetVehicle(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}
	v, err := h.service.GetVehicle(c.Request.Context(), id)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, v)
}

// GetVehicleYear returns the cost summary of a vehicle for a year
func (h *Handler) GetVehicleYear(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}
	year, ok := pathYear(c)
	if !ok {
		return
	}
	out, err := h.service.VehicleSummary(c.Request.Context(), id, year)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, out)
}

// FleetSummary returns the costs of the active fleet for ?year=
func (h *Handler) FleetSummary(c *gin.Context) {
	year, ok := queryYear(c)
	if !ok {
		return
	}
	out, err := h.service.FleetSummary(c.Request.Context(), year)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, out)
}

// VehicleTypeCosts returns operating costs per vehicle type for ?year=
func (h *Handler) VehicleTypeCosts(c *gin.Context) {
	year, ok := queryYear(c)
	if !ok {
		return
	}
	out, err := h.service.VehicleTypeCosts(c.Request.Context(), year)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, out)
}

// CreateVehicle adds a vehicle
func (h *Handler) CreateVehicle(c *gin.Context) {
	var req VehicleRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}
	v, err := h.service.CreateVehicle(c.Request.Context(), req)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusCreated, v, "Vehicle created successfully")
}

// UpdateVehicle changes a vehicle
func (h *Handler) UpdateVehicle(c *gin.Context) {
	id, ok := vehicleID(c)
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
	common.SuccessResponseWithStatus(c, http.StatusOK, v, "Vehicle updated successfully")
}

// DeleteVehicle retires a vehicle
func (h *Handler) DeleteVehicle(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteVehicle(c.Request.Context(), id); err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusOK, nil, "Vehicle deleted successfully")
}

// SetVehicleYear stores the figures of a vehicle for a year
func (h *Handler) SetVehicleYear(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}
	year, ok := pathYear(c)
	if !ok {
		return
	}
	var req YearDataRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}
	out, err := h.service.SetYear(c.Request.Context(), id, year, req)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusOK, out, "Vehicle year saved successfully")
}

// ApplyVehicleTypeCosts copies the costs of ?year= into the tariff vehicle types
func (h *Handler) ApplyVehicleTypeCosts(c *gin.Context) {
	year, ok := queryYear(c)
	if !ok {
		return
	}
	out, err := h.service.ApplyVehicleTypeCosts(c.Request.Context(), year)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, out)
}

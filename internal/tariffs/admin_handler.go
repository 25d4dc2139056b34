package tariffs

import (
	"net/http"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler handles admin HTTP requests for rate table management
type AdminHandler struct {
	service *Service
}

// NewAdminHandler creates a new tariffs admin handler
func NewAdminHandler(service *Service) *AdminHandler {
	return &AdminHandler{service: service}
}

// RegisterRoutes registers rate table admin routes
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	t := rg.Group("/tariffs")
	{
		t.POST("/seasons", h.CreateSeason)
		t.PUT("/seasons/:id", h.UpdateSeason)
		t.DELETE("/seasons/:id", h.DeleteSeason)

		t.POST("/vehicle-types", h.CreateVehicleType)
		t.PUT("/vehicle-types/:id", h.UpdateVehicleType)
		t.DELETE("/vehicle-types/:id", h.DeleteVehicleType)

		t.POST("/client-types", h.CreateClientType)
		t.PUT("/client-types/:id", h.UpdateClientType)
		t.DELETE("/client-types/:id", h.DeleteClientType)

		t.POST("/service-types", h.CreateServiceType)
		t.PUT("/service-types/:id", h.UpdateServiceType)
		t.DELETE("/service-types/:id", h.DeleteServiceType)

		t.POST("/service-rates", h.CreateServiceRate)
		t.PUT("/service-rates/:id", h.UpdateServiceRate)
		t.DELETE("/service-rates/:id", h.DeleteServiceRate)

		t.POST("/client-rates", h.CreateClientRate)
		t.PUT("/client-rates/:id", h.UpdateClientRate)
		t.DELETE("/client-rates/:id", h.DeleteClientRate)
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

func respondWrite(c *gin.Context, err error, status int, data interface{}, msg string) {
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, status, data, msg)
}

// CreateSeason creates a season
func (h *AdminHandler) CreateSeason(c *gin.Context) {
	var s Season
	if !middleware.ValidateAndBind(c, &s) {
		return
	}
	respondWrite(c, h.service.CreateSeason(c.Request.Context(), &s), http.StatusCreated, &s, "Season created successfully")
}

// UpdateSeason replaces a season
func (h *AdminHandler) UpdateSeason(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var s Season
	if !middleware.ValidateAndBind(c, &s) {
		return
	}
	s.ID = id
	respondWrite(c, h.service.UpdateSeason(c.Request.Context(), &s), http.StatusOK, &s, "Season updated successfully")
}

// DeleteSeason deletes a season
func (h *AdminHandler) DeleteSeason(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	respondWrite(c, h.service.DeleteSeason(c.Request.Context(), id), http.StatusOK, nil, "Season deleted successfully")
}

// CreateVehicleType creates a vehicle type
func (h *AdminHandler) CreateVehicleType(c *gin.Context) {
	var v VehicleType
	if !middleware.ValidateAndBind(c, &v) {
		return
	}
	respondWrite(c, h.service.CreateVehicleType(c.Request.Context(), &v), http.StatusCreated, &v, "Vehicle type created successfully")
}

// UpdateVehicleType replaces a vehicle type
func (h *AdminHandler) UpdateVehicleType(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var v VehicleType
	if !middleware.ValidateAndBind(c, &v) {
		return
	}
	v.ID = id
	respondWrite(c, h.service.UpdateVehicleType(c.Request.Context(), &v), http.StatusOK, &v, "Vehicle type updated successfully")
}

// DeleteVehicleType soft-deletes a vehicle type
func (h *AdminHandler) DeleteVehicleType(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	respondWrite(c, h.service.DeleteVehicleType(c.Request.Context(), id), http.StatusOK, nil, "Vehicle type deleted successfully")
}

// CreateClientType creates a client type
func (h *AdminHandler) CreateClientType(c *gin.Context) {
	var ct ClientType
	if !middleware.ValidateAndBind(c, &ct) {
		return
	}
	respondWrite(c, h.service.CreateClientType(c.Request.Context(), &ct), http.StatusCreated, &ct, "Client type created successfully")
}

// UpdateClientType replaces a client type
func (h *AdminHandler) UpdateClientType(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var ct ClientType
	if !middleware.ValidateAndBind(c, &ct) {
		return
	}
	ct.ID = id
	respondWrite(c, h.service.UpdateClientType(c.Request.Context(), &ct), http.StatusOK, &ct, "Client type updated successfully")
}

// DeleteClientType deletes a client type
func (h *AdminHandler) DeleteClientType(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	respondWrite(c, h.service.DeleteClientType(c.Request.Context(), id), http.StatusOK, nil, "Client type deleted successfully")
}

// CreateServiceType creates a service type
func (h *AdminHandler) CreateServiceType(c *gin.Context) {
	var st ServiceType
	if !middleware.ValidateAndBind(c, &st) {
		return
	}
	respondWrite(c, h.service.CreateServiceType(c.Request.Context(), &st), http.StatusCreated, &st, "Service type created successfully")
}

// UpdateServiceType replaces a service type
func (h *AdminHandler) UpdateServiceType(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var st ServiceType
	if !middleware.ValidateAndBind(c, &st) {
		return
	}
	st.ID = id
	respondWrite(c, h.service.UpdateServiceType(c.Request.Context(), &st), http.StatusOK, &st, "Service type updated successfully")
}

// DeleteServiceType deletes a service type
func (h *AdminHandler) DeleteServiceType(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	respondWrite(c, h.service.DeleteServiceType(c.Request.Context(), id), http.StatusOK, nil, "Service type deleted successfully")
}

// CreateServiceRate creates a service rate
func (h *AdminHandler) CreateServiceRate(c *gin.Context) {
	var sr ServiceRate
	if !middleware.ValidateAndBind(c, &sr) {
		return
	}
	respondWrite(c, h.service.CreateServiceRate(c.Request.Context(), &sr), http.StatusCreated, &sr, "Service rate created successfully")
}

// UpdateServiceRate replaces a service rate
func (h *AdminHandler) UpdateServiceRate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var sr ServiceRate
	if !middleware.ValidateAndBind(c, &sr) {
		return
	}
	sr.ID = id
	respondWrite(c, h.service.UpdateServiceRate(c.Request.Context(), &sr), http.StatusOK, &sr, "Service rate updated successfully")
}

// DeleteServiceRate deletes a service rate
func (h *AdminHandler) DeleteServiceRate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	respondWrite(c, h.service.DeleteServiceRate(c.Request.Context(), id), http.StatusOK, nil, "Service rate deleted successfully")
}

// CreateClientRate creates a client rate
func (h *AdminHandler) CreateClientRate(c *gin.Context) {
	var cr ClientRate
	if !middleware.ValidateAndBind(c, &cr) {
		return
	}
	respondWrite(c, h.service.CreateClientRate(c.Request.Context(), &cr), http.StatusCreated, &cr, "Client rate created successfully")
}

// UpdateClientRate replaces a client rate
func (h *AdminHandler) UpdateClientRate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var cr ClientRate
	if !middleware.ValidateAndBind(c, &cr) {
		return
	}
	cr.ID = id
	respondWrite(c, h.service.UpdateClientRate(c.Request.Context(), &cr), http.StatusOK, &cr, "Client rate updated successfully")
}

// DeleteClientRate deletes a client rate
func (h *AdminHandler) DeleteClientRate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	respondWrite(c, h.service.DeleteClientRate(c.Request.Context(), id), http.StatusOK, nil, "Client rate deleted successfully")
}

package customers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/middleware"
	"github.com/cesarmartin1/crm-david/pkg/pagination"
	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for customers
type Handler struct {
	service *Service
}

// NewHandler creates a new customers handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers customer routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	c := rg.Group("/customers")
	{
		c.GET("", h.List)
		c.GET("/metrics", h.GetMetrics)
		c.GET("/segments", h.GetSegments)
		c.GET("/inactive", h.GetInactive)
		c.GET("/segmentation", h.GetSegmentation)
		c.GET("/deactivated", h.ListDeactivated)
		c.GET("/:code", h.Get)
		c.GET("/:code/stats", h.GetStats)

		write := c.Group("", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleComercial))
		write.POST("/:code/deactivate", h.Deactivate)
		write.DELETE("/:code/deactivate", h.Reactivate)

		admin := c.Group("", middleware.RequireRole(middleware.RoleAdmin))
		admin.PUT("/:code/client-type", h.SetClientType)
	}
}

// parseThresholds overlays query parameters on the configured thresholds
func (h *Handler) parseThresholds(c *gin.Context) (Thresholds, time.Time, error) {
	t := h.service.Thresholds()
	ints := map[string]*int{
		"active_months":    &t.ActiveMonths,
		"inactive_months":  &t.InactiveMonths,
		"min_services_12m": &t.MinServices12m,
		"min_services_24m": &t.MinServices24m,
	}
	for key, dst := range ints {
		if v := c.Query(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return t, time.Time{}, common.NewBadRequestError("invalid "+key, err)
			}
			*dst = n
		}
	}
	if v := c.Query("min_revenue_24m"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return t, time.Time{}, common.NewBadRequestError("invalid min_revenue_24m", err)
		}
		t.MinRevenue24m = f
	}
	if t.ActiveMonths > t.InactiveMonths {
		return t, time.Time{}, common.NewBadRequestError("active_months must not exceed inactive_months", nil)
	}

	var asOf time.Time
	if v := c.Query("as_of"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return t, time.Time{}, common.NewBadRequestError("invalid as_of date, expected YYYY-MM-DD", err)
		}
		asOf = d
	}
	return t, asOf, nil
}

// List returns a page of customer master records
func (h *Handler) List(c *gin.Context) {
	params := pagination.ParseParams(c)
	items, total, err := h.service.List(c.Request.Context(), c.Query("search"), params.Limit, params.Offset)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithMeta(c, items, pagination.BuildMeta(params.Limit, params.Offset, total))
}

// GetMetrics returns metrics and segment per customer, optionally of one segment
func (h *Handler) GetMetrics(c *gin.Context) {
	t, asOf, err := h.parseThresholds(c)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	params := pagination.ParseParams(c)

	metrics, err := h.service.Metrics(c.Request.Context(), asOf, t)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	if seg := c.Query("segment"); seg != "" {
		filtered := make([]Metrics, 0)
		for _, m := range metrics {
			if string(m.Segment) == seg {
				filtered = append(filtered, m)
			}
		}
		metrics = filtered
	}

	meta := pagination.BuildMeta(params.Limit, params.Offset, int64(len(metrics)))
	meta.Extra = map[string]interface{}{"thresholds": t}
	common.SuccessResponseWithMeta(c, pagination.Slice(metrics, params), meta)
}

// GetSegments returns the customer count per segment
func (h *Handler) GetSegments(c *gin.Context) {
	t, asOf, err := h.parseThresholds(c)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	summary, err := h.service.Segments(c.Request.Context(), asOf, t)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, summary)
}

// GetInactive lists customers without recent activity
func (h *Handler) GetInactive(c *gin.Context) {
	months := 0
	if v := c.Query("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			common.ErrorResponse(c, http.StatusBadRequest, "months must be a positive integer")
			return
		}
		months = n
	}
	params := pagination.ParseParams(c)

	items, err := h.service.Inactive(c.Request.Context(), months)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithMeta(c, pagination.Slice(items, params),
		pagination.BuildMeta(params.Limit, params.Offset, int64(len(items))))
}

// GetSegmentation returns contacts matching the segment filter
func (h *Handler) GetSegmentation(c *gin.Context) {
	var f SegmentFilter
	if !middleware.ValidateAndBindQuery(c, &f) {
		return
	}
	params := pagination.ParseParams(c)

	items, err := h.service.Segmentation(c.Request.Context(), f)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithMeta(c, pagination.Slice(items, params),
		pagination.BuildMeta(params.Limit, params.Offset, int64(len(items))))
}

// Get returns a customer profile
func (h *Handler) Get(c *gin.Context) {
	t, _, err := h.parseThresholds(c)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	profile, err := h.service.Profile(c.Request.Context(), c.Param("code"), t)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, profile)
}

// GetStats returns quote statistics of one customer
func (h *Handler) GetStats(c *gin.Context) {
	st, err := h.service.Stats(c.Request.Context(), c.Param("code"))
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, st)
}

// Deactivate hides a customer from contact lists
func (h *Handler) Deactivate(c *gin.Context) {
	var req DeactivateRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}
	d, err := h.service.Deactivate(c.Request.Context(), c.Param("code"), req.Reason, middleware.GetUserName(c))
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusCreated, d, "Customer deactivated")
}

// Reactivate restores a deactivated customer
func (h *Handler) Reactivate(c *gin.Context) {
	if err := h.service.Reactivate(c.Request.Context(), c.Param("code")); err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusOK, nil, "Customer reactivated")
}

// ListDeactivated returns deactivated customers
func (h *Handler) ListDeactivated(c *gin.Context) {
	items, err := h.service.ListDeactivated(c.Request.Context())
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, items)
}

// SetClientType assigns the client type of a customer
func (h *Handler) SetClientType(c *gin.Context) {
	var req SetClientTypeRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}
	if err := h.service.SetClientType(c.Request.Context(), c.Param("code"), req.ClientTypeCode); err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusOK, nil, "Client type updated")
}

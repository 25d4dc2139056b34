package quotes

import (
	"net/http"
	"time"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/middleware"
	"github.com/cesarmartin1/crm-david/pkg/pagination"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// Handler handles HTTP requests for quotes
type Handler struct {
	service *Service
}

// NewHandler creates a new quotes handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers quote routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	q := rg.Group("/quotes")
	{
		q.GET("", h.List)
		q.GET("/kpis", h.GetKPIs)
		q.GET("/pending", h.GetPending)
		q.GET("/conversion", h.GetConversion)
		q.GET("/trend", h.GetTrend)
		q.GET("/lead-time", h.GetLeadTimes)
		q.GET("/lead-time/by-service-type", h.GetLeadTimeByServiceType)
		q.GET("/lead-time/trend", h.GetLeadTimeTrend)
		q.GET("/filters", h.GetFilterOptions)

		write := q.Group("", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleComercial))
		write.PATCH("/:code/status", h.UpdateStatus)
		write.PATCH("/:code/notes", h.UpdateNotes)
	}
}

// ParseFilter reads the common quote filter from the query string
func ParseFilter(c *gin.Context) (Filter, error) {
	f := Filter{
		Agent:         c.Query("agent"),
		ServiceType:   c.Query("service_type"),
		CustomerGroup: c.Query("customer_group"),
		CustomerCode:  c.Query("customer_code"),
		Status:        Status(c.Query("status")),
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return f, common.NewBadRequestError("invalid from date, expected YYYY-MM-DD", err)
		}
		f.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return f, common.NewBadRequestError("invalid to date, expected YYYY-MM-DD", err)
		}
		f.To = &t
	}
	return f, nil
}

// List returns a page of quote lines
func (h *Handler) List(c *gin.Context) {
	f, err := ParseFilter(c)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	params := pagination.ParseParams(c)

	lines, err := h.service.Lines(c.Request.Context(), f)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}

	common.SuccessResponseWithMeta(c, pagination.Slice(lines, params),
		pagination.BuildMeta(params.Limit, params.Offset, int64(len(lines))))
}

// GetKPIs returns the pipeline KPIs
func (h *Handler) GetKPIs(c *gin.Context) {
	f, err := ParseFilter(c)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	kpis, err := h.service.KPIs(c.Request.Context(), f)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, kpis)
}

// GetPending returns the lines awaiting an answer
func (h *Handler) GetPending(c *gin.Context) {
	f, err := ParseFilter(c)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	params := pagination.ParseParams(c)

	lines, err := h.service.Pending(c.Request.Context(), f)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithMeta(c, pagination.Slice(lines, params),
		pagination.BuildMeta(params.Limit, params.Offset, int64(len(lines))))
}

// GetConversion returns conversion grouped by ?by= (agent by default)
func (h *Handler) GetConversion(c *gin.Context) {
	f, err := ParseFilter(c)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	rows, err := h.service.Conversion(c.Request.Context(), f, Dimension(c.DefaultQuery("by", string(DimensionAgent))))
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, rows)
}

// GetTrend returns monthly counts per status
func (h *Handler) GetTrend(c *gin.Context) {
	f, err := ParseFilter(c)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	trend, err := h.service.Trend(c.Request.Context(), f)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, trend)
}

// GetLeadTimes returns per-line lead times of accepted quotes
func (h *Handler) GetLeadTimes(c *gin.Context) {
	f, err := ParseFilter(c)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	params := pagination.ParseParams(c)

	items, err := h.service.LeadTimes(c.Request.Context(), f)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithMeta(c, pagination.Slice(items, params),
		pagination.BuildMeta(params.Limit, params.Offset, int64(len(items))))
}

// GetLeadTimeByServiceType returns lead time statistics per service type
func (h *Handler) GetLeadTimeByServiceType(c *gin.Context) {
	f, err := ParseFilter(c)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	stats, err := h.service.LeadTimeByServiceType(c.Request.Context(), f)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, stats)
}

// GetLeadTimeTrend returns mean lead time per request month
func (h *Handler) GetLeadTimeTrend(c *gin.Context) {
	f, err := ParseFilter(c)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	trend, err := h.service.LeadTimeTrend(c.Request.Context(), f)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, trend)
}

// GetFilterOptions returns the distinct filter values
func (h *Handler) GetFilterOptions(c *gin.Context) {
	opts, err := h.service.FilterOptions(c.Request.Context())
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, opts)
}

// UpdateStatus changes a quote status
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	if err := h.service.UpdateStatus(c.Request.Context(), c.Param("code"), Status(req.Status)); err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusOK, gin.H{"quote_code": c.Param("code"), "status": req.Status}, "Quote status updated")
}

// UpdateNotes replaces the notes of a quote
func (h *Handler) UpdateNotes(c *gin.Context) {
	var req UpdateNotesRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	if err := h.service.UpdateNotes(c.Request.Context(), c.Param("code"), req.Notes); err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusOK, gin.H{"quote_code": c.Param("code")}, "Quote notes updated")
}

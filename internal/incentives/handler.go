package incentives

import (
	"net/http"
	"strconv"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for incentives
type Handler struct {
	service *Service
}

// NewHandler creates a new incentives handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers incentive routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	i := rg.Group("/incentives")
	{
		i.GET("/summary", h.GetSummary)
		i.GET("/leaderboard", h.GetLeaderboard)
		i.GET("/salespeople", h.ListSalespeople)
		i.GET("/config", h.GetConfig)
		i.GET("/history", h.ListHistory)
		i.GET("/prizes", h.ListPrizes)

		write := i.Group("", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleComercial))
		write.POST("/points", h.LogPoints)

		admin := i.Group("", middleware.RequireRole(middleware.RoleAdmin))
		admin.POST("/history", h.RecordHistory)
	}
}

// yearMonth reads year and month, defaulting to the current month
func (h *Handler) yearMonth(c *gin.Context) (int, int, bool) {
	now := h.service.now()
	year, month := now.Year(), int(now.Month())
	if v := c.Query("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "Invalid year")
			return 0, 0, false
		}
		year = n
	}
	if v := c.Query("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "Invalid month")
			return 0, 0, false
		}
		month = n
	}
	return year, month, true
}

// GetSummary returns the incentives of a salesperson, the caller by default
func (h *Handler) GetSummary(c *gin.Context) {
	year, month, ok := h.yearMonth(c)
	if !ok {
		return
	}
	salesperson := c.Query("salesperson")
	if salesperson == "" {
		salesperson = middleware.GetUserName(c)
	}

	sum, err := h.service.Summary(c.Request.Context(), salesperson, year, month)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, sum)
}

// GetLeaderboard ranks salespeople for a month
func (h *Handler) GetLeaderboard(c *gin.Context) {
	year, month, ok := h.yearMonth(c)
	if !ok {
		return
	}
	entries, err := h.service.Leaderboard(c.Request.Context(), year, month)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, entries)
}

// ListSalespeople lists known agents
func (h *Handler) ListSalespeople(c *gin.Context) {
	names, err := h.service.Salespeople(c.Request.Context())
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, names)
}

// GetConfig returns the incentive tables and built-in parameters
func (h *Handler) GetConfig(c *gin.Context) {
	cfg, err := h.service.Config(c.Request.Context())
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{
		"tables":   cfg,
		"settings": h.service.Settings(),
	})
}

// ListHistory lists stored settlements
func (h *Handler) ListHistory(c *gin.Context) {
	var f HistoryFilter
	if !middleware.ValidateAndBindQuery(c, &f) {
		return
	}
	items, err := h.service.History(c.Request.Context(), f)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, items)
}

// RecordHistory settles a period
func (h *Handler) RecordHistory(c *gin.Context) {
	var req RecordRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}
	entry, err := h.service.Record(c.Request.Context(), req, middleware.GetUserName(c))
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusCreated, entry, "Incentives recorded successfully")
}

// LogPoints registers a point event
func (h *Handler) LogPoints(c *gin.Context) {
	var req LogPointsRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}
	e, err := h.service.LogPoints(c.Request.Context(), req, middleware.GetUserName(c))
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusCreated, e, "Points registered successfully")
}

// ListPrizes lists quote prizes
func (h *Handler) ListPrizes(c *gin.Context) {
	items, err := h.service.Prizes(c.Request.Context(), c.Query("salesperson"))
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, items)
}

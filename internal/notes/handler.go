package notes

import (
	"net/http"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/middleware"
	"github.com/cesarmartin1/crm-david/pkg/pagination"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for notes and highlights
type Handler struct {
	service *Service
}

// NewHandler creates a new notes handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers note and highlight routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	n := rg.Group("/notes")
	{
		n.GET("", h.ListNotes)

		write := n.Group("", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleComercial))
		write.POST("", h.CreateNote)
		write.DELETE("/:id", h.DeleteNote)
	}

	hl := rg.Group("/highlights")
	{
		hl.GET("/quotes", h.ListHighlightedQuotes)
		hl.GET("/quotes/:code", h.GetQuoteHighlight)
		hl.GET("/customers", h.ListHighlightedCustomers)
		hl.GET("/customers/:code", h.GetCustomerHighlight)

		write := hl.Group("", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleComercial))
		write.PUT("/quotes/:code", h.HighlightQuote)
		write.DELETE("/quotes/:code", h.UnhighlightQuote)
		write.PUT("/customers/:code", h.HighlightCustomer)
		write.DELETE("/customers/:code", h.UnhighlightCustomer)
	}
}

// ListNotes lists notes, optionally by ?quote_code=, ?customer_code=,
// ?type= or a text search in ?q=, paginated with limit and offset
func (h *Handler) ListNotes(c *gin.Context) {
	var f NoteFilter
	if !middleware.ValidateAndBindQuery(c, &f) {
		return
	}
	params := pagination.ParseParams(c)
	items, total, err := h.service.List(c.Request.Context(), f, params)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithMeta(c, items, pagination.BuildMeta(params.Limit, params.Offset, total))
}

// CreateNote adds a note signed by the caller
func (h *Handler) CreateNote(c *gin.Context) {
	var req CreateNoteRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}
	n, err := h.service.Create(c.Request.Context(), req, middleware.GetUserName(c))
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusCreated, n, "Note created successfully")
}

// DeleteNote deletes a note
func (h *Handler) DeleteNote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid note ID")
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusOK, nil, "Note deleted successfully")
}

// ListHighlightedQuotes lists flagged quotes
func (h *Handler) ListHighlightedQuotes(c *gin.Context) {
	items, err := h.service.HighlightedQuotes(c.Request.Context())
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, items)
}

// GetQuoteHighlight reports whether a quote is flagged
func (h *Handler) GetQuoteHighlight(c *gin.Context) {
	hq, err := h.service.QuoteHighlight(c.Request.Context(), c.Param("code"))
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"highlighted": hq != nil, "highlight": hq})
}

// HighlightQuote flags a quote
func (h *Handler) HighlightQuote(c *gin.Context) {
	var req MarkRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}
	hq, err := h.service.HighlightQuote(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusOK, hq, "Quote highlighted")
}

// UnhighlightQuote removes a quote flag
func (h *Handler) UnhighlightQuote(c *gin.Context) {
	if err := h.service.UnhighlightQuote(c.Request.Context(), c.Param("code")); err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusOK, nil, "Quote highlight removed")
}

// ListHighlightedCustomers lists flagged customers
func (h *Handler) ListHighlightedCustomers(c *gin.Context) {
	items, err := h.service.HighlightedCustomers(c.Request.Context())
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, items)
}

// GetCustomerHighlight reports whether a customer is flagged
func (h *Handler) GetCustomerHighlight(c *gin.Context) {
	hc, err := h.service.CustomerHighlight(c.Request.Context(), c.Param("code"))
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"highlighted": hc != nil, "highlight": hc})
}

// HighlightCustomer flags a customer
func (h *Handler) HighlightCustomer(c *gin.Context) {
	var req MarkRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}
	hc, err := h.service.HighlightCustomer(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusOK, hc, "Customer highlighted")
}

// UnhighlightCustomer removes a customer flag
func (h *Handler) UnhighlightCustomer(c *gin.Context) {
	if err := h.service.UnhighlightCustomer(c.Request.Context(), c.Param("code")); err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusOK, nil, "Customer highlight removed")
}

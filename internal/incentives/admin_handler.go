package incentives

import (
	"net/http"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler handles admin HTTP requests for incentive configuration
type AdminHandler struct {
	service *Service
}

// NewAdminHandler creates a new incentives admin handler
func NewAdminHandler(service *Service) *AdminHandler {
	return &AdminHandler{service: service}
}

// RegisterRoutes registers incentive admin routes
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	i := rg.Group("/incentives")
	{
		i.POST("/brackets", h.CreateBracket)
		i.PUT("/brackets/:id", h.UpdateBracket)
		i.DELETE("/brackets/:id", h.DeleteBracket)

		i.POST("/bonus-rules", h.CreateBonusRule)
		i.PUT("/bonus-rules/:id", h.UpdateBonusRule)
		i.DELETE("/bonus-rules/:id", h.DeleteBonusRule)

		i.POST("/point-actions", h.CreatePointAction)
		i.PUT("/point-actions/:id", h.UpdatePointAction)
		i.DELETE("/point-actions/:id", h.DeletePointAction)

		i.POST("/rewards", h.CreateReward)
		i.PUT("/rewards/:id", h.UpdateReward)
		i.DELETE("/rewards/:id", h.DeleteReward)

		i.POST("/prizes", h.CreatePrize)
		i.PUT("/prizes/:id", h.UpdatePrize)
		i.DELETE("/prizes/:id", h.DeletePrize)
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

// CreateBracket creates a commission bracket
func (h *AdminHandler) CreateBracket(c *gin.Context) {
	var b CommissionBracket
	if !middleware.ValidateAndBind(c, &b) {
		return
	}
	respondWrite(c, h.service.CreateBracket(c.Request.Context(), &b), http.StatusCreated, &b, "Commission bracket created successfully")
}

// UpdateBracket replaces a commission bracket
func (h *AdminHandler) UpdateBracket(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var b CommissionBracket
	if !middleware.ValidateAndBind(c, &b) {
		return
	}
	b.ID = id
	respondWrite(c, h.service.UpdateBracket(c.Request.Context(), &b), http.StatusOK, &b, "Commission bracket updated successfully")
}

// DeleteBracket deletes a commission bracket
func (h *AdminHandler) DeleteBracket(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	respondWrite(c, h.service.DeleteBracket(c.Request.Context(), id), http.StatusOK, nil, "Commission bracket deleted successfully")
}

// CreateBonusRule creates a bonus rule
func (h *AdminHandler) CreateBonusRule(c *gin.Context) {
	var r BonusRule
	if !middleware.ValidateAndBind(c, &r) {
		return
	}
	respondWrite(c, h.service.CreateBonusRule(c.Request.Context(), &r), http.StatusCreated, &r, "Bonus rule created successfully")
}

// UpdateBonusRule replaces a bonus rule
func (h *AdminHandler) UpdateBonusRule(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var r BonusRule
	if !middleware.ValidateAndBind(c, &r) {
		return
	}
	r.ID = id
	respondWrite(c, h.service.UpdateBonusRule(c.Request.Context(), &r), http.StatusOK, &r, "Bonus rule updated successfully")
}

// DeleteBonusRule deletes a bonus rule
func (h *AdminHandler) DeleteBonusRule(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	respondWrite(c, h.service.DeleteBonusRule(c.Request.Context(), id), http.StatusOK, nil, "Bonus rule deleted successfully")
}

// CreatePointAction creates a point action
func (h *AdminHandler) CreatePointAction(c *gin.Context) {
	var a PointAction
	if !middleware.ValidateAndBind(c, &a) {
		return
	}
	respondWrite(c, h.service.CreatePointAction(c.Request.Context(), &a), http.StatusCreated, &a, "Point action created successfully")
}

// UpdatePointAction replaces a point action
func (h *AdminHandler) UpdatePointAction(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var a PointAction
	if !middleware.ValidateAndBind(c, &a) {
		return
	}
	a.ID = id
	respondWrite(c, h.service.UpdatePointAction(c.Request.Context(), &a), http.StatusOK, &a, "Point action updated successfully")
}

// DeletePointAction deletes a point action
func (h *AdminHandler) DeletePointAction(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	respondWrite(c, h.service.DeletePointAction(c.Request.Context(), id), http.StatusOK, nil, "Point action deleted successfully")
}

// CreateReward creates a reward
func (h *AdminHandler) CreateReward(c *gin.Context) {
	var r Reward
	if !middleware.ValidateAndBind(c, &r) {
		return
	}
	respondWrite(c, h.service.CreateReward(c.Request.Context(), &r), http.StatusCreated, &r, "Reward created successfully")
}

// UpdateReward replaces a reward
func (h *AdminHandler) UpdateReward(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var r Reward
	if !middleware.ValidateAndBind(c, &r) {
		return
	}
	r.ID = id
	respondWrite(c, h.service.UpdateReward(c.Request.Context(), &r), http.StatusOK, &r, "Reward updated successfully")
}

// DeleteReward deletes a reward
func (h *AdminHandler) DeleteReward(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	respondWrite(c, h.service.DeleteReward(c.Request.Context(), id), http.StatusOK, nil, "Reward deleted successfully")
}

// CreatePrize creates a quote prize
func (h *AdminHandler) CreatePrize(c *gin.Context) {
	var p QuotePrize
	if !middleware.ValidateAndBind(c, &p) {
		return
	}
	respondWrite(c, h.service.CreatePrize(c.Request.Context(), &p), http.StatusCreated, &p, "Quote prize created successfully")
}

// UpdatePrize replaces a quote prize
func (h *AdminHandler) UpdatePrize(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var p QuotePrize
	if !middleware.ValidateAndBind(c, &p) {
		return
	}
	p.ID = id
	respondWrite(c, h.service.UpdatePrize(c.Request.Context(), &p), http.StatusOK, &p, "Quote prize updated successfully")
}

// DeletePrize deletes a quote prize
func (h *AdminHandler) DeletePrize(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	respondWrite(c, h.service.DeletePrize(c.Request.Context(), id), http.StatusOK, nil, "Quote prize deleted successfully")
}

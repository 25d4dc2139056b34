package importer

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/gin-gonic/gin"
)

const defaultMaxUploadMB = 20

// Handler handles workbook uploads
type Handler struct {
	service  *Service
	maxBytes int64
}

// NewHandler creates a new import handler accepting files up to maxUploadMB
func NewHandler(service *Service, maxUploadMB int) *Handler {
	if maxUploadMB <= 0 {
		maxUploadMB = defaultMaxUploadMB
	}
	return &Handler{service: service, maxBytes: int64(maxUploadMB) << 20}
}

// RegisterRoutes registers import routes. rg is expected to be admin only.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	imports := rg.Group("/imports")
	{
		imports.POST("/quotes", h.ImportQuotes)
		imports.POST("/customers", h.ImportCustomers)
	}
}

// readUpload reads the multipart file in field. It returns nil without
// error when the field is absent and not required.
func (h *Handler) readUpload(c *gin.Context, field string, required bool) (*Upload, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) && !required {
		return nil, nil
	}
	if err != nil {
		return nil, common.NewBadRequestError(fmt.Sprintf("%s file is required", field), err)
	}
	if fh.Size > h.maxBytes {
		return nil, common.NewBadRequestError(fmt.Sprintf("%s exceeds %d MB", field, h.maxBytes>>20), nil)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, common.NewBadRequestError("failed to open upload", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes))
	if err != nil {
		return nil, common.NewBadRequestError("failed to read upload", err)
	}
	return &Upload{Name: fh.Filename, Data: data}, nil
}

// ImportQuotes replaces the quote dataset with the uploaded workbook.
// Form fields: file (required), customer_map (optional).
func (h *Handler) ImportQuotes(c *gin.Context) {
	file, err := h.readUpload(c, "file", true)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	customerMap, err := h.readUpload(c, "customer_map", false)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}

	res, err := h.service.ImportQuotes(c.Request.Context(), *file, customerMap)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusOK, res, "Quotes imported successfully")
}

// ImportCustomers upserts customers from the uploaded workbook
func (h *Handler) ImportCustomers(c *gin.Context) {
	file, err := h.readUpload(c, "file", true)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}

	res, err := h.service.ImportCustomers(c.Request.Context(), *file)
	if err != nil {
		common.AppErrorResponse(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusOK, res, "Customers imported successfully")
}

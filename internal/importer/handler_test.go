package importer

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupRouter(svc *Service, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		middleware.SetClaims(c, &middleware.Claims{Email: "admin@example.com", Name: "Admin", Role: role})
		c.Next()
	})
	admin := router.Group("/api/v1/admin", middleware.RequireRole(middleware.RoleAdmin))
	NewHandler(svc, 1).RegisterRoutes(admin)
	return router
}

func postFiles(t *testing.T, router *gin.Engine, path string, files map[string]Upload) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for field, f := range files {
		part, err := writer.CreateFormFile(field, f.Name)
		require.NoError(t, err)
		_, err = part.Write(f.Data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_ImportQuotes(t *testing.T) {
	q := new(mockQuoteWriter)
	q.On("ReplaceAll", mock.Anything, mock.Anything).Return(1, nil)
	router := setupRouter(newTestService(q, new(mockCustomerWriter), nil), middleware.RoleAdmin)

	w := postFiles(t, router, "/api/v1/admin/imports/quotes", map[string]Upload{
		"file": {Name: "todos.xlsx", Data: workbook(t, quoteHeader, []interface{}{1001, 77, "Colegio Sol", "A"})},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp common.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "quotes", data["kind"])
	assert.Equal(t, float64(1), data["imported"])
}

func TestHandler_ImportQuotes_MissingFile(t *testing.T) {
	router := setupRouter(newTestService(new(mockQuoteWriter), new(mockCustomerWriter), nil), middleware.RoleAdmin)

	w := postFiles(t, router, "/api/v1/admin/imports/quotes", map[string]Upload{
		"customer_map": {Name: "map.xlsx", Data: []byte("x")},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_ImportQuotes_TooLarge(t *testing.T) {
	q := new(mockQuoteWriter)
	router := setupRouter(newTestService(q, new(mockCustomerWriter), nil), middleware.RoleAdmin)

	w := postFiles(t, router, "/api/v1/admin/imports/quotes", map[string]Upload{
		"file": {Name: "todos.xlsx", Data: bytes.Repeat([]byte("x"), 2<<20)},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	q.AssertNotCalled(t, "ReplaceAll", mock.Anything, mock.Anything)
}

func TestHandler_ImportCustomers(t *testing.T) {
	c := new(mockCustomerWriter)
	c.On("UpsertCustomers", mock.Anything, mock.Anything).Return(1, nil)
	router := setupRouter(newTestService(new(mockQuoteWriter), c, nil), middleware.RoleAdmin)

	w := postFiles(t, router, "/api/v1/admin/imports/customers", map[string]Upload{
		"file": {Name: "Clientes.xlsx", Data: workbook(t, []interface{}{"Código", "Nombre"}, []interface{}{77, "Colegio Sol"})},
	})
	assert.Equal(t, http.StatusOK, w.Code)
	c.AssertExpectations(t)
}

func TestHandler_Import_ComercialForbidden(t *testing.T) {
	router := setupRouter(newTestService(new(mockQuoteWriter), new(mockCustomerWriter), nil), middleware.RoleComercial)

	w := postFiles(t, router, "/api/v1/admin/imports/customers", map[string]Upload{
		"file": {Name: "Clientes.xlsx", Data: []byte("x")},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

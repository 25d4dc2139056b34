package customers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cesarmartin1/crm-david/internal/quotes"
	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) GetCustomer(ctx context.Context, code string) (*Customer, error) {
	args := m.Called(ctx, code)
	c, _ := args.Get(0).(*Customer)
	return c, args.Error(1)
}

func (m *mockRepository) ListCustomers(ctx context.Context, search string, limit, offset int) ([]*Customer, int64, error) {
	args := m.Called(ctx, search, limit, offset)
	items, _ := args.Get(0).([]*Customer)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *mockRepository) UpsertCustomers(ctx context.Context, customers []Customer) (int, error) {
	args := m.Called(ctx, customers)
	return args.Int(0), args.Error(1)
}

func (m *mockRepository) SetClientType(ctx context.Context, code string, clientTypeCode *string) error {
	args := m.Called(ctx, code, clientTypeCode)
	return args.Error(0)
}

func (m *mockRepository) Deactivate(ctx context.Context, d *Deactivation) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *mockRepository) Reactivate(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) ListDeactivated(ctx context.Context) ([]Deactivation, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]Deactivation)
	return items, args.Error(1)
}

type staticLines []quotes.QuoteLine

func (s staticLines) ListLines(ctx context.Context) ([]quotes.QuoteLine, error) {
	return s, nil
}

func setupRouter(repo *mockRepository, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		middleware.SetClaims(c, &middleware.Claims{Email: "ana@example.com", Name: "Ana", Role: role})
		c.Next()
	})
	svc := NewService(repo, staticLines(sampleLines()), DefaultThresholds(), 12)
	svc.now = func() time.Time { return day("2024-07-01") }
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func decode(t *testing.T, w *httptest.ResponseRecorder) common.Response {
	t.Helper()
	var resp common.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandler_GetSegments(t *testing.T) {
	repo := new(mockRepository)
	router := setupRouter(repo, middleware.RoleViewer)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/customers/segments?as_of=2024-07-01", nil))

	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.([]interface{})
	assert.Len(t, data, len(Segments))
}

func TestHandler_GetMetrics_Thresholds(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"defaults", "", http.StatusOK},
		{"segment filter", "?segment=HABITUAL", http.StatusOK},
		{"custom thresholds", "?min_services_12m=1&min_revenue_24m=100", http.StatusOK},
		{"bad number", "?active_months=abc", http.StatusBadRequest},
		{"active beyond inactive", "?active_months=30&inactive_months=24", http.StatusBadRequest},
		{"bad as_of", "?as_of=2024/07/01", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(new(mockRepository), middleware.RoleViewer)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/customers/metrics"+tt.query, nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestHandler_GetInactive_ExcludesDeactivated(t *testing.T) {
	repo := new(mockRepository)
	repo.On("ListDeactivated", mock.Anything).Return([]Deactivation{{CustomerCode: "C2"}}, nil)
	router := setupRouter(repo, middleware.RoleViewer)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/customers/inactive?months=12", nil))

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	data := resp.Data.([]interface{})
	require.Len(t, data, 2)
	assert.Equal(t, "C3", data[0].(map[string]interface{})["customer_code"])
	assert.Equal(t, int64(2), resp.Meta.Total)
}

func TestHandler_GetInactive_InvalidMonths(t *testing.T) {
	repo := new(mockRepository)
	router := setupRouter(repo, middleware.RoleViewer)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/customers/inactive?months=-1", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertNotCalled(t, "ListDeactivated", mock.Anything)
}

func TestHandler_GetSegmentation(t *testing.T) {
	repo := new(mockRepository)
	repo.On("ListDeactivated", mock.Anything).Return([]Deactivation{}, nil)
	router := setupRouter(repo, middleware.RoleComercial)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/customers/segmentation?group=SCHOOL", nil))

	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "sol@example.com", data[0].(map[string]interface{})["email"])
}

func TestHandler_GetSegmentation_InvertedBounds(t *testing.T) {
	router := setupRouter(new(mockRepository), middleware.RoleComercial)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/customers/segmentation?min_amount=500&max_amount=100", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_GetStats(t *testing.T) {
	router := setupRouter(new(mockRepository), middleware.RoleViewer)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/customers/C1/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w).Data.(map[string]interface{})["accepted_quotes"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/customers/NOPE/stats", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_GetProfile(t *testing.T) {
	repo := new(mockRepository)
	repo.On("GetCustomer", mock.Anything, "C1").Return(&Customer{Code: "C1", Name: "Colegio Sol"}, nil)
	repo.On("GetCustomer", mock.Anything, "ZZ").Return(nil, pgx.ErrNoRows)
	repo.On("ListDeactivated", mock.Anything).Return([]Deactivation{{CustomerCode: "C1"}}, nil)
	router := setupRouter(repo, middleware.RoleViewer)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/customers/C1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, true, data["deactivated"])
	assert.Equal(t, "HABITUAL", data["metrics"].(map[string]interface{})["segment"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/customers/ZZ", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_Deactivate(t *testing.T) {
	repo := new(mockRepository)
	repo.On("Deactivate", mock.Anything, mock.MatchedBy(func(d *Deactivation) bool {
		return d.CustomerCode == "C2" && d.Reason == "closed" && d.DeactivatedBy == "Ana"
	})).Return(nil)
	router := setupRouter(repo, middleware.RoleComercial)

	body, _ := json.Marshal(DeactivateRequest{Reason: "closed"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/customers/C2/deactivate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	repo.AssertExpectations(t)
}

func TestHandler_Deactivate_ViewerForbidden(t *testing.T) {
	repo := new(mockRepository)
	router := setupRouter(repo, middleware.RoleViewer)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/customers/C2/deactivate", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	repo.AssertNotCalled(t, "Deactivate", mock.Anything, mock.Anything)
}

func TestHandler_Reactivate(t *testing.T) {
	repo := new(mockRepository)
	repo.On("Reactivate", mock.Anything, "C2").Return(true, nil)
	repo.On("Reactivate", mock.Anything, "C9").Return(false, nil)
	router := setupRouter(repo, middleware.RoleAdmin)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/customers/C2/deactivate", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/customers/C9/deactivate", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_SetClientType(t *testing.T) {
	repo := new(mockRepository)
	code := "VIP"
	repo.On("SetClientType", mock.Anything, "C1", &code).Return(nil)
	router := setupRouter(repo, middleware.RoleAdmin)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/customers/C1/client-type", bytes.NewReader([]byte(`{"client_type_code":"VIP"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
}

func TestHandler_List(t *testing.T) {
	repo := new(mockRepository)
	repo.On("ListCustomers", mock.Anything, "sol", 20, 0).Return([]*Customer{{Code: "C1"}}, int64(1), nil)
	router := setupRouter(repo, middleware.RoleViewer)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/customers?search=sol", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode(t, w).Meta.Total)
}

package tariffs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) LoadTables(ctx context.Context) (*Tables, error) {
	args := m.Called(ctx)
	t, _ := args.Get(0).(*Tables)
	return t, args.Error(1)
}

func (m *mockRepository) CustomerClientType(ctx context.Context, customerCode string) (string, error) {
	args := m.Called(ctx, customerCode)
	return args.String(0), args.Error(1)
}

func (m *mockRepository) CreateSeason(ctx context.Context, s *Season) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockRepository) UpdateSeason(ctx context.Context, s *Season) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockRepository) DeleteSeason(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) CreateVehicleType(ctx context.Context, v *VehicleType) error {
	return m.Called(ctx, v).Error(0)
}

func (m *mockRepository) UpdateVehicleType(ctx context.Context, v *VehicleType) error {
	return m.Called(ctx, v).Error(0)
}

func (m *mockRepository) DeleteVehicleType(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) SetVehicleTypeCosts(ctx context.Context, code string, costPerHour, costPerKm float64) error {
	return m.Called(ctx, code, costPerHour, costPerKm).Error(0)
}

func (m *mockRepository) CreateClientType(ctx context.Context, ct *ClientType) error {
	return m.Called(ctx, ct).Error(0)
}

func (m *mockRepository) UpdateClientType(ctx context.Context, ct *ClientType) error {
	return m.Called(ctx, ct).Error(0)
}

func (m *mockRepository) DeleteClientType(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) CreateServiceType(ctx context.Context, st *ServiceType) error {
	return m.Called(ctx, st).Error(0)
}

func (m *mockRepository) UpdateServiceType(ctx context.Context, st *ServiceType) error {
	return m.Called(ctx, st).Error(0)
}

func (m *mockRepository) DeleteServiceType(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) CreateServiceRate(ctx context.Context, r *ServiceRate) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockRepository) UpdateServiceRate(ctx context.Context, r *ServiceRate) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockRepository) DeleteServiceRate(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) CreateClientRate(ctx context.Context, r *ClientRate) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockRepository) UpdateClientRate(ctx context.Context, r *ClientRate) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockRepository) DeleteClientRate(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func setupRouter(repo *mockRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	svc := NewService(repo)
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	NewAdminHandler(svc).RegisterRoutes(router.Group("/api/v1/admin"))
	return router
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp common.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	return data
}

func TestHandler_Calculate(t *testing.T) {
	repo := new(mockRepository)
	repo.On("LoadTables", mock.Anything).Return(sampleTables(), nil)
	repo.On("CustomerClientType", mock.Anything, "C2").Return("AGENCY", nil)
	router := setupRouter(repo)

	w := doJSON(router, http.MethodPost, "/api/v1/tariffs/calculate", CalculateRequest{
		ServiceType:  "EXC",
		VehicleType:  "STD55",
		Hours:        8,
		Km:           200,
		CustomerCode: "C2",
		ServiceDate:  "2024-05-10",
	})

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, string(SourceClientRate), data["rate_source"])
	assert.Equal(t, "AGENCY", data["client_type"])
	assert.InDelta(t, 120*0.9, data["total"].(float64), 0.001)
}

func TestHandler_Calculate_TablesUnavailable(t *testing.T) {
	repo := new(mockRepository)
	repo.On("LoadTables", mock.Anything).Return(nil, errors.New("db down"))
	router := setupRouter(repo)

	w := doJSON(router, http.MethodPost, "/api/v1/tariffs/calculate", CalculateRequest{VehicleType: "STD55", Hours: 2, ServiceDate: "2024-05-10"})

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, string(SourceDefault), data["rate_source"])
	assert.InDelta(t, 60, data["total"].(float64), 0.001)
}

func TestHandler_Calculate_Validation(t *testing.T) {
	tests := []struct {
		name string
		body CalculateRequest
	}{
		{"missing vehicle", CalculateRequest{Hours: 1}},
		{"negative hours", CalculateRequest{VehicleType: "STD55", Hours: -1}},
		{"bad date", CalculateRequest{VehicleType: "STD55", ServiceDate: "10/05/2024"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockRepository)
			router := setupRouter(repo)
			w := doJSON(router, http.MethodPost, "/api/v1/tariffs/calculate", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			repo.AssertNotCalled(t, "LoadTables", mock.Anything)
		})
	}
}

func TestAdminHandler_CreateSeason(t *testing.T) {
	repo := new(mockRepository)
	repo.On("CreateSeason", mock.Anything, mock.AnythingOfType("*tariffs.Season")).Return(nil)
	router := setupRouter(repo)

	w := doJSON(router, http.MethodPost, "/api/v1/admin/tariffs/seasons", map[string]interface{}{
		"name": "Verano", "start_day": "07-01", "end_day": "08-31", "multiplier": 1.2, "is_active": true,
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	repo.AssertExpectations(t)
}

func TestAdminHandler_CreateSeason_InvalidDay(t *testing.T) {
	repo := new(mockRepository)
	router := setupRouter(repo)

	w := doJSON(router, http.MethodPost, "/api/v1/admin/tariffs/seasons", map[string]interface{}{
		"name": "Verano", "start_day": "7/1", "end_day": "08-31", "multiplier": 1.2,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertNotCalled(t, "CreateSeason", mock.Anything, mock.Anything)
}

func TestAdminHandler_UpdateVehicleType_NotFound(t *testing.T) {
	repo := new(mockRepository)
	id := uuid.New()
	repo.On("UpdateVehicleType", mock.Anything, mock.MatchedBy(func(v *VehicleType) bool {
		return v.ID == id && v.Code == "STD55"
	})).Return(pgx.ErrNoRows)
	router := setupRouter(repo)

	w := doJSON(router, http.MethodPut, "/api/v1/admin/tariffs/vehicle-types/"+id.String(), map[string]interface{}{
		"code": "STD55", "name": "Standard", "price_per_hour": 40,
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
	repo.AssertExpectations(t)
}

func TestAdminHandler_DeleteClientRate(t *testing.T) {
	repo := new(mockRepository)
	id := uuid.New()
	repo.On("DeleteClientRate", mock.Anything, id).Return(nil)
	router := setupRouter(repo)

	w := doJSON(router, http.MethodDelete, "/api/v1/admin/tariffs/client-rates/"+id.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/v1/admin/tariffs/client-rates/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

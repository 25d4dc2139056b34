package incentives

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cesarmartin1/crm-david/internal/quotes"
	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/middleware"
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

func (m *mockRepository) LoadConfig(ctx context.Context) (*Config, error) {
	args := m.Called(ctx)
	cfg, _ := args.Get(0).(*Config)
	return cfg, args.Error(1)
}

func (m *mockRepository) CreateBracket(ctx context.Context, b *CommissionBracket) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockRepository) UpdateBracket(ctx context.Context, b *CommissionBracket) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockRepository) DeleteBracket(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) CreateBonusRule(ctx context.Context, r *BonusRule) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockRepository) UpdateBonusRule(ctx context.Context, r *BonusRule) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockRepository) DeleteBonusRule(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) CreatePointAction(ctx context.Context, a *PointAction) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockRepository) UpdatePointAction(ctx context.Context, a *PointAction) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockRepository) DeletePointAction(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) CreateReward(ctx context.Context, r *Reward) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockRepository) UpdateReward(ctx context.Context, r *Reward) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockRepository) DeleteReward(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) ListPrizes(ctx context.Context, salesperson string) ([]QuotePrize, error) {
	args := m.Called(ctx, salesperson)
	p, _ := args.Get(0).([]QuotePrize)
	return p, args.Error(1)
}

func (m *mockRepository) CreatePrize(ctx context.Context, p *QuotePrize) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockRepository) UpdatePrize(ctx context.Context, p *QuotePrize) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockRepository) DeletePrize(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) CreatePointEvent(ctx context.Context, e *PointEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockRepository) PointEventCounts(ctx context.Context, from, to time.Time) (map[string]map[string]int, error) {
	args := m.Called(ctx, from, to)
	c, _ := args.Get(0).(map[string]map[string]int)
	return c, args.Error(1)
}

func (m *mockRepository) SaveHistory(ctx context.Context, h *HistoryEntry) error {
	return m.Called(ctx, h).Error(0)
}

func (m *mockRepository) ListHistory(ctx context.Context, f HistoryFilter) ([]HistoryEntry, error) {
	args := m.Called(ctx, f)
	h, _ := args.Get(0).([]HistoryEntry)
	return h, args.Error(1)
}

type staticLines []quotes.QuoteLine

func (s staticLines) ListLines(ctx context.Context) ([]quotes.QuoteLine, error) {
	return s, nil
}

type failingLines struct{}

func (failingLines) ListLines(ctx context.Context) ([]quotes.QuoteLine, error) {
	return nil, errors.New("connection refused")
}

func sampleLines() staticLines {
	return staticLines{
		line("L1", "Ana", quotes.StatusAccepted, "2023-02-10", 180000),
		line("P1", "Ana", quotes.StatusAccepted, "2024-02-10", 50000),
		line("C1", "Ana", quotes.StatusAccepted, "2024-03-05", 40000),
		line("C2", "Ana", quotes.StatusAccepted, "2024-03-15", 25000),
		line("R1", "Ana", quotes.StatusAccepted, "2024-01-20", 135000),
		line("C3", "Luis", quotes.StatusAccepted, "2024-03-08", 10000),
		line("C4", "Luis", quotes.StatusRejected, "2024-03-09", 90000),
	}
}

func sampleConfig() *Config {
	return &Config{
		Brackets:     sampleBrackets(),
		PointActions: []PointAction{{Code: "visit", Name: "Visita", Points: 5, IsActive: true}},
	}
}

func setupRouter(repo *mockRepository, lines LineSource, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		middleware.SetClaims(c, &middleware.Claims{Email: "ana@example.com", Name: "Ana", Role: role})
		c.Next()
	})
	svc := NewService(repo, lines, DefaultSettings())
	svc.now = func() time.Time { return day("2024-03-20") }
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

func decodeData(t *testing.T, w *httptest.ResponseRecorder) interface{} {
	t.Helper()
	var resp common.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

func TestHandler_Summary(t *testing.T) {
	repo := new(mockRepository)
	repo.On("LoadConfig", mock.Anything).Return(sampleConfig(), nil)
	repo.On("PointEventCounts", mock.Anything, day("2024-03-01"), day("2024-04-01")).
		Return(map[string]map[string]int{"Ana": {"visit": 1}}, nil)
	repo.On("ListPrizes", mock.Anything, "Ana").Return([]QuotePrize{}, nil)
	router := setupRouter(repo, sampleLines(), middleware.RoleComercial)

	w := doJSON(router, http.MethodGet, "/api/v1/incentives/summary", nil)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w).(map[string]interface{})
	assert.Equal(t, "Ana", data["salesperson"])
	monthly := data["monthly"].(map[string]interface{})
	assert.Equal(t, 325.0, monthly["commission"])
	quarterly := data["quarterly"].(map[string]interface{})
	assert.Equal(t, 490.0, quarterly["commission"])
	assert.Equal(t, 9.0, data["points"])
	repo.AssertExpectations(t)
}

func TestHandler_Summary_SoftFailures(t *testing.T) {
	repo := new(mockRepository)
	repo.On("LoadConfig", mock.Anything).Return(nil, errors.New("timeout"))
	repo.On("PointEventCounts", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))
	repo.On("ListPrizes", mock.Anything, "Luis").Return(nil, errors.New("timeout"))
	router := setupRouter(repo, sampleLines(), middleware.RoleViewer)

	w := doJSON(router, http.MethodGet, "/api/v1/incentives/summary?salesperson=Luis&year=2024&month=3", nil)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w).(map[string]interface{})
	monthly := data["monthly"].(map[string]interface{})
	assert.Equal(t, 50.0, monthly["commission"])
	quarterly := data["quarterly"].(map[string]interface{})
	assert.Equal(t, 0.0, quarterly["commission"])
	assert.Equal(t, 2.0, data["points"])
}

func TestHandler_Summary_Invalid(t *testing.T) {
	router := setupRouter(new(mockRepository), sampleLines(), middleware.RoleViewer)

	w := doJSON(router, http.MethodGet, "/api/v1/incentives/summary?month=13", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/incentives/summary?year=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Summary_LinesUnavailable(t *testing.T) {
	router := setupRouter(new(mockRepository), failingLines{}, middleware.RoleViewer)

	w := doJSON(router, http.MethodGet, "/api/v1/incentives/summary?year=2024&month=3", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandler_Leaderboard(t *testing.T) {
	repo := new(mockRepository)
	repo.On("LoadConfig", mock.Anything).Return(sampleConfig(), nil)
	repo.On("PointEventCounts", mock.Anything, mock.Anything, mock.Anything).Return(map[string]map[string]int{}, nil)
	repo.On("ListPrizes", mock.Anything, "").Return([]QuotePrize{}, nil)
	router := setupRouter(repo, sampleLines(), middleware.RoleViewer)

	w := doJSON(router, http.MethodGet, "/api/v1/incentives/leaderboard?year=2024&month=3", nil)

	require.Equal(t, http.StatusOK, w.Code)
	entries := decodeData(t, w).([]interface{})
	require.Len(t, entries, 2)
	first := entries[0].(map[string]interface{})
	assert.Equal(t, "Ana", first["salesperson"])
	assert.Equal(t, 1.0, first["rank"])
	second := entries[1].(map[string]interface{})
	assert.Equal(t, "Luis", second["salesperson"])
	assert.Equal(t, 2.0, second["rank"])
}

func TestHandler_RecordHistory(t *testing.T) {
	repo := new(mockRepository)
	repo.On("LoadConfig", mock.Anything).Return(sampleConfig(), nil)
	repo.On("PointEventCounts", mock.Anything, mock.Anything, mock.Anything).Return(map[string]map[string]int{}, nil)
	repo.On("ListPrizes", mock.Anything, "Ana").Return([]QuotePrize{}, nil)
	repo.On("SaveHistory", mock.Anything, mock.MatchedBy(func(h *HistoryEntry) bool {
		return h.Salesperson == "Ana" && h.PeriodType == PeriodQuarterly && h.Period == 1 &&
			h.Revenue == 250000 && h.Commission == 490 && h.RecordedBy == "Ana" && len(h.Details) > 0
	})).Return(nil)

	router := setupRouter(repo, sampleLines(), middleware.RoleAdmin)
	w := doJSON(router, http.MethodPost, "/api/v1/incentives/history", RecordRequest{
		Salesperson: "Ana", PeriodType: PeriodQuarterly, Year: 2024, Period: 1,
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	repo.AssertExpectations(t)
}

func TestHandler_RecordHistory_Forbidden(t *testing.T) {
	router := setupRouter(new(mockRepository), sampleLines(), middleware.RoleComercial)
	w := doJSON(router, http.MethodPost, "/api/v1/incentives/history", RecordRequest{
		Salesperson: "Ana", PeriodType: PeriodMonthly, Year: 2024, Period: 3,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_RecordHistory_InvalidQuarter(t *testing.T) {
	router := setupRouter(new(mockRepository), sampleLines(), middleware.RoleAdmin)
	w := doJSON(router, http.MethodPost, "/api/v1/incentives/history", RecordRequest{
		Salesperson: "Ana", PeriodType: PeriodQuarterly, Year: 2024, Period: 4,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_LogPoints(t *testing.T) {
	repo := new(mockRepository)
	repo.On("LoadConfig", mock.Anything).Return(sampleConfig(), nil)
	repo.On("CreatePointEvent", mock.Anything, mock.MatchedBy(func(e *PointEvent) bool {
		return e.Salesperson == "Ana" && e.ActionCode == "visit" && e.OccurredOn.Equal(day("2024-03-20"))
	})).Return(nil)
	router := setupRouter(repo, sampleLines(), middleware.RoleComercial)

	w := doJSON(router, http.MethodPost, "/api/v1/incentives/points", LogPointsRequest{ActionCode: "visit"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/incentives/points", LogPointsRequest{ActionCode: "unknown"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertNumberOfCalls(t, "CreatePointEvent", 1)
}

func TestHandler_ListHistory(t *testing.T) {
	repo := new(mockRepository)
	repo.On("ListHistory", mock.Anything, HistoryFilter{Salesperson: "Ana", Year: 2024}).
		Return([]HistoryEntry{{Salesperson: "Ana", Year: 2024, Period: 1, PeriodType: PeriodQuarterly}}, nil)
	router := setupRouter(repo, sampleLines(), middleware.RoleViewer)

	w := doJSON(router, http.MethodGet, "/api/v1/incentives/history?salesperson=Ana&year=2024", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData(t, w).([]interface{}), 1)

	w = doJSON(router, http.MethodGet, "/api/v1/incentives/history?period_type=weekly", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminHandler_Brackets(t *testing.T) {
	repo := new(mockRepository)
	repo.On("CreateBracket", mock.Anything, mock.AnythingOfType("*incentives.CommissionBracket")).Return(nil)
	repo.On("DeleteBracket", mock.Anything, mock.Anything).Return(pgx.ErrNoRows)
	router := setupRouter(repo, sampleLines(), middleware.RoleAdmin)

	w := doJSON(router, http.MethodPost, "/api/v1/admin/incentives/brackets",
		CommissionBracket{AmountFrom: 0, AmountTo: ptr(30000), Percent: 0.3, IsActive: true})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/admin/incentives/brackets",
		CommissionBracket{AmountFrom: 50000, AmountTo: ptr(30000), Percent: 0.3})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/v1/admin/incentives/brackets/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/v1/admin/incentives/brackets/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	repo.AssertNumberOfCalls(t, "CreateBracket", 1)
}

func TestAdminHandler_BonusRules(t *testing.T) {
	repo := new(mockRepository)
	repo.On("UpdateBonusRule", mock.Anything, mock.AnythingOfType("*incentives.BonusRule")).Return(nil)
	router := setupRouter(repo, sampleLines(), middleware.RoleAdmin)

	rule := BonusRule{Name: "ten orders", Period: PeriodMonthly, Metric: MetricOrders, Operator: OpGTE, Threshold: 10, Payout: 50}
	w := doJSON(router, http.MethodPut, "/api/v1/admin/incentives/bonus-rules/"+uuid.NewString(), rule)
	assert.Equal(t, http.StatusOK, w.Code)

	rule.Operator = "=>"
	w = doJSON(router, http.MethodPut, "/api/v1/admin/incentives/bonus-rules/"+uuid.NewString(), rule)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	rule.Operator = OpGTE
	rule.Metric = "margin"
	w = doJSON(router, http.MethodPut, "/api/v1/admin/incentives/bonus-rules/"+uuid.NewString(), rule)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	repo.AssertNumberOfCalls(t, "UpdateBonusRule", 1)
}

func TestAdminHandler_PointActionFailure(t *testing.T) {
	repo := new(mockRepository)
	repo.On("CreatePointAction", mock.Anything, mock.Anything).Return(errors.New("boom"))
	router := setupRouter(repo, sampleLines(), middleware.RoleAdmin)

	w := doJSON(router, http.MethodPost, "/api/v1/admin/incentives/point-actions",
		PointAction{Code: "visit", Name: "Visita", Points: 5})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

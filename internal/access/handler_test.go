package access

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) ListOverrides(ctx context.Context, userID string) ([]Permission, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]Permission)
	return items, args.Error(1)
}

func (m *mockRepository) SaveOverrides(ctx context.Context, userID string, perms []Permission, updatedBy string) error {
	return m.Called(ctx, userID, perms, updatedBy).Error(0)
}

func (m *mockRepository) DeleteOverrides(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockRepository) InsertLogEntry(ctx context.Context, e *LogEntry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockRepository) ListLog(ctx context.Context, f LogFilter, limit, offset int) ([]LogEntry, int64, error) {
	args := m.Called(ctx, f, limit, offset)
	items, _ := args.Get(0).([]LogEntry)
	return items, args.Get(1).(int64), args.Error(2)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func withClaims(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetClaims(c, &middleware.Claims{UserID: "u-7", Email: "ana@example.com", Name: "Ana", Role: role})
		c.Next()
	}
}

func setupRouter(repo *mockRepository, role string) *gin.Engine {
	router := gin.New()
	router.Use(withClaims(role))
	svc := NewService(repo)
	api := router.Group("/api/v1")
	NewHandler(svc).RegisterRoutes(api)
	NewAdminHandler(svc).RegisterRoutes(api.Group("/admin", middleware.RequireRole(middleware.RoleAdmin)))
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

func decodePermissions(t *testing.T, w *httptest.ResponseRecorder) UserPermissions {
	t.Helper()
	var resp struct {
		Data UserPermissions `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

func permissionOf(perms []Permission, section string) Permission {
	for _, p := range perms {
		if p.Section == section {
			return p
		}
	}
	return Permission{}
}

func TestHandler_MyPermissions(t *testing.T) {
	repo := new(mockRepository)
	repo.On("ListOverrides", mock.Anything, "u-7").Return([]Permission{{Section: SectionNotes, CanView: true, CanEdit: true}}, nil)

	w := doJSON(setupRouter(repo, middleware.RoleViewer), http.MethodGet, "/api/v1/access/me", nil)

	require.Equal(t, http.StatusOK, w.Code)
	perms := decodePermissions(t, w)
	assert.Equal(t, "u-7", perms.UserID)
	assert.Len(t, perms.Permissions, len(Sections))
	assert.Equal(t, Permission{Section: SectionNotes, CanView: true, CanEdit: true}, permissionOf(perms.Permissions, SectionNotes))
	assert.Equal(t, Permission{Section: SectionQuotes, CanView: true}, permissionOf(perms.Permissions, SectionQuotes))
	assert.Len(t, perms.Overrides, 1)
}

func TestAdminHandler_UpdatePermissions(t *testing.T) {
	repo := new(mockRepository)
	repo.On("SaveOverrides", mock.Anything, "u-9", []Permission{
		{Section: SectionQuotes, CanView: true, CanEdit: true},
		{Section: SectionNotes, CanView: false, CanEdit: false},
	}, "Ana").Return(nil)
	repo.On("ListOverrides", mock.Anything, "u-9").Return([]Permission{
		{Section: SectionNotes},
		{Section: SectionQuotes, CanView: true, CanEdit: true},
	}, nil)
	router := setupRouter(repo, middleware.RoleAdmin)

	body := UpdatePermissionsRequest{Permissions: []Permission{
		{Section: "quotes", CanView: true, CanEdit: true},
		{Section: " Notes ", CanView: false, CanEdit: true},
	}}
	w := doJSON(router, http.MethodPut, "/api/v1/admin/access/permissions/u-9?role=viewer", body)

	require.Equal(t, http.StatusOK, w.Code)
	perms := decodePermissions(t, w)
	assert.Equal(t, middleware.RoleViewer, perms.Role)
	assert.Equal(t, Permission{Section: SectionQuotes, CanView: true, CanEdit: true}, permissionOf(perms.Permissions, SectionQuotes))
	assert.Equal(t, Permission{Section: SectionNotes}, permissionOf(perms.Permissions, SectionNotes))

	w = doJSON(router, http.MethodPut, "/api/v1/admin/access/permissions/u-9",
		UpdatePermissionsRequest{Permissions: []Permission{{Section: "payroll", CanView: true}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPut, "/api/v1/admin/access/permissions/u-9?role=boss", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(setupRouter(repo, middleware.RoleComercial), http.MethodPut, "/api/v1/admin/access/permissions/u-9", body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	repo.AssertNumberOfCalls(t, "SaveOverrides", 1)
}

func TestAdminHandler_ResetPermissions(t *testing.T) {
	repo := new(mockRepository)
	repo.On("DeleteOverrides", mock.Anything, "u-9").Return(nil)

	w := doJSON(setupRouter(repo, middleware.RoleAdmin), http.MethodDelete, "/api/v1/admin/access/permissions/u-9", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
}

func TestAdminHandler_ListLog(t *testing.T) {
	entries := []LogEntry{
		{ID: 2, UserID: "u-7", Action: ActionDelete, Section: SectionNotes, Method: http.MethodDelete,
			Route: "/api/v1/notes/:id", Status: http.StatusOK, CreatedAt: time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)},
	}
	repo := new(mockRepository)
	repo.On("ListLog", mock.Anything, LogFilter{Action: ActionDelete, Section: SectionNotes}, 2, 0).Return(entries, int64(5), nil)
	router := setupRouter(repo, middleware.RoleAdmin)

	w := doJSON(router, http.MethodGet, "/api/v1/admin/access/log?action=delete&section=Notes&limit=2", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp common.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.([]interface{}), 1)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(5), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	w = doJSON(router, http.MethodGet, "/api/v1/admin/access/log?action=read", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertNumberOfCalls(t, "ListLog", 1)
}

func TestAdminHandler_ListSections(t *testing.T) {
	w := doJSON(setupRouter(new(mockRepository), middleware.RoleAdmin), http.MethodGet, "/api/v1/admin/access/sections", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp common.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.([]interface{}), len(Sections))
}

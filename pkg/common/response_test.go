package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestAppErrorResponse(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedMsg    string
	}{
		{"bad request", NewBadRequestError("invalid status", nil), http.StatusBadRequest, "invalid status"},
		{"not found", NewNotFoundError("quote not found", errors.New("no rows")), http.StatusNotFound, "quote not found"},
		{"wrapped app error", fmt.Errorf("outer: %w", NewConflictError("already exists")), http.StatusConflict, "already exists"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			AppErrorResponse(c, tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedMsg, resp.Error.Message)
		})
	}
}

func TestSuccessResponseWithStatus(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SuccessResponseWithStatus(c, http.StatusCreated, map[string]int{"id": 7}, "Season created")

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, "Season created", resp.Meta.Message)
}

func TestAppError_Error(t *testing.T) {
	err := NewNotFoundError("customer not found", errors.New("no rows in result set"))
	assert.Equal(t, "customer not found: no rows in result set", err.Error())
	assert.Equal(t, "forbidden", NewForbiddenError("forbidden").Error())
}

package importer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/cesarmartin1/crm-david/internal/customers"
	"github.com/cesarmartin1/crm-david/internal/quotes"
	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/storage"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockQuoteWriter struct {
	mock.Mock
}

func (m *mockQuoteWriter) ReplaceAll(ctx context.Context, lines []quotes.QuoteLine) (int, error) {
	args := m.Called(ctx, lines)
	return args.Int(0), args.Error(1)
}

type mockCustomerWriter struct {
	mock.Mock
}

func (m *mockCustomerWriter) UpsertCustomers(ctx context.Context, items []customers.Customer) (int, error) {
	args := m.Called(ctx, items)
	return args.Int(0), args.Error(1)
}

type brokenArchive struct {
	*storage.MemoryStorage
}

func (b brokenArchive) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*storage.UploadResult, error) {
	return nil, errors.New("bucket unreachable")
}

func newTestService(q *mockQuoteWriter, c *mockCustomerWriter, archive storage.Storage) *Service {
	svc := NewService(q, c, archive, "imports")
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func appCode(t *testing.T, err error) int {
	t.Helper()
	appErr, ok := common.AsAppError(err)
	require.True(t, ok, "expected an AppError, got %v", err)
	return appErr.Code
}

func TestService_ImportQuotes(t *testing.T) {
	q := new(mockQuoteWriter)
	q.On("ReplaceAll", mock.Anything, mock.MatchedBy(func(lines []quotes.QuoteLine) bool {
		return len(lines) == 2 && lines[1].CustomerCode == "90"
	})).Return(2, nil)
	archive := storage.NewMemoryStorage()
	svc := newTestService(q, new(mockCustomerWriter), archive)

	file := Upload{Name: "todos.xlsx", Data: workbook(t,
		quoteHeader,
		[]interface{}{1001, 77, "Colegio Sol", "A"},
		[]interface{}{1002, "", "Nuevo", "E"},
		[]interface{}{"", "", "", "R"},
	)}
	customerMap := &Upload{Name: "Servicios Discrecionales.xlsx", Data: workbook(t,
		[]interface{}{"Código presupuesto", "Código cliente"},
		[]interface{}{1002, 90},
	)}

	res, err := svc.ImportQuotes(context.Background(), file, customerMap)
	require.NoError(t, err)
	assert.Equal(t, KindQuotes, res.Kind)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, res.CustomerCodesFilled)
	assert.Len(t, res.Skipped, 1)
	require.True(t, strings.HasPrefix(res.ArchiveKey, "imports/quotes/2024/06/20240601-090000_"))

	ok, err := archive.Exists(context.Background(), res.ArchiveKey)
	require.NoError(t, err)
	assert.True(t, ok)
	q.AssertExpectations(t)
}

func TestService_ImportQuotes_Rejected(t *testing.T) {
	q := new(mockQuoteWriter)
	svc := newTestService(q, new(mockCustomerWriter), nil)

	tests := []struct {
		name string
		file Upload
	}{
		{"empty", Upload{Name: "todos.xlsx"}},
		{"wrong extension", Upload{Name: "todos.csv", Data: []byte("a,b")}},
		{"missing columns", Upload{Name: "todos.xlsx", Data: workbook(t, []interface{}{"Cliente"}, []interface{}{"X"})}},
		{"no lines", Upload{Name: "todos.xlsx", Data: workbook(t, quoteHeader)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ImportQuotes(context.Background(), tt.file, nil)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, appCode(t, err))
		})
	}
	q.AssertNotCalled(t, "ReplaceAll", mock.Anything, mock.Anything)
}

func TestService_ImportQuotes_BadCustomerMapCountsAsRejected(t *testing.T) {
	q := new(mockQuoteWriter)
	svc := newTestService(q, new(mockCustomerWriter), nil)
	rejectedQuotes := importsTotal.WithLabelValues(string(KindQuotes), "rejected")

	file := Upload{Name: "todos.xlsx", Data: workbook(t, quoteHeader, []interface{}{1001, 77, "Colegio Sol", "A"})}
	maps := []Upload{
		{Name: "mapa.xlsx"},
		{Name: "mapa.csv", Data: []byte("a,b")},
		{Name: "mapa.xlsx", Data: workbook(t, []interface{}{"Cliente"}, []interface{}{"X"})},
	}
	for _, m := range maps {
		before := testutil.ToFloat64(rejectedQuotes)
		customerMap := m
		_, err := svc.ImportQuotes(context.Background(), file, &customerMap)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, appCode(t, err))
		assert.Equal(t, before+1, testutil.ToFloat64(rejectedQuotes), m.Name)
	}
	q.AssertNotCalled(t, "ReplaceAll", mock.Anything, mock.Anything)
}

func TestService_ImportQuotes_StoreFailure(t *testing.T) {
	q := new(mockQuoteWriter)
	q.On("ReplaceAll", mock.Anything, mock.Anything).Return(0, errors.New("connection reset"))
	svc := newTestService(q, new(mockCustomerWriter), storage.NewMemoryStorage())

	file := Upload{Name: "todos.xlsx", Data: workbook(t, quoteHeader, []interface{}{1001, 77, "Colegio Sol", "A"})}
	_, err := svc.ImportQuotes(context.Background(), file, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, appCode(t, err))
}

func TestService_ImportCustomers_ArchiveFailureIsSoft(t *testing.T) {
	c := new(mockCustomerWriter)
	c.On("UpsertCustomers", mock.Anything, mock.MatchedBy(func(items []customers.Customer) bool {
		return len(items) == 1 && items[0].Code == "77" && items[0].Group == "COLEGIOS"
	})).Return(1, nil)
	svc := newTestService(new(mockQuoteWriter), c, brokenArchive{storage.NewMemoryStorage()})

	file := Upload{Name: "Clientes.xlsx", Data: workbook(t,
		[]interface{}{"Código", "Nombre", "Grupo cliente"},
		[]interface{}{77, "Colegio Sol", "COLEGIOS"},
	)}
	res, err := svc.ImportCustomers(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Empty(t, res.ArchiveKey)
	c.AssertExpectations(t)
}

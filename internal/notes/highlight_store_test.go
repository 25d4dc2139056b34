package notes

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cesarmartin1/crm-david/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*HighlightStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := NewHighlightStore(db)
	store.now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }
	return store, mock
}

func TestHighlightStore_MarkQuote(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO highlighted_quotes")).
		WithArgs("P-100", 3, "call back", "2024-06-01T10:00:00Z").
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := &HighlightedQuote{QuoteCode: "P-100", Priority: 3, Note: "call back"}
	require.NoError(t, store.MarkQuote(context.Background(), h))
	assert.Equal(t, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), h.MarkedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHighlightStore_UnmarkQuote(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM highlighted_quotes")).
		WithArgs("P-100").
		WillReturnResult(sqlmock.NewResult(0, 0))

	found, err := store.UnmarkQuote(context.Background(), "P-100")
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHighlightStore_GetCustomer_NotHighlighted(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM highlighted_customers WHERE customer_code = ?")).
		WithArgs("C1").
		WillReturnRows(sqlmock.NewRows([]string{"customer_code", "customer_name", "priority", "note", "marked_at"}))

	h, err := store.GetCustomer(context.Background(), "C1")
	require.NoError(t, err)
	assert.Nil(t, h)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHighlightStore_ListCustomers_Error(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM highlighted_customers")).
		WillReturnError(errors.New("disk I/O error"))

	_, err := store.ListCustomers(context.Background())
	assert.ErrorContains(t, err, "failed to list highlighted customers")
}

func TestHighlightStore_SQLite(t *testing.T) {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "crm_notas.db"))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	store := NewHighlightStore(db)
	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, store.EnsureSchema(ctx))

	clock := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	require.NoError(t, store.MarkQuote(ctx, &HighlightedQuote{QuoteCode: "A", Priority: 1}))
	clock = clock.Add(time.Hour)
	require.NoError(t, store.MarkQuote(ctx, &HighlightedQuote{QuoteCode: "B", Priority: 1}))
	clock = clock.Add(time.Hour)
	require.NoError(t, store.MarkQuote(ctx, &HighlightedQuote{QuoteCode: "C", Priority: 5, Note: "urgent"}))

	quotes, err := store.ListQuotes(ctx)
	require.NoError(t, err)
	require.Len(t, quotes, 3)
	assert.Equal(t, []string{"C", "B", "A"}, []string{quotes[0].QuoteCode, quotes[1].QuoteCode, quotes[2].QuoteCode})

	// marking again replaces the earlier mark
	clock = clock.Add(time.Hour)
	require.NoError(t, store.MarkQuote(ctx, &HighlightedQuote{QuoteCode: "A", Priority: 2, Note: "updated"}))
	got, err := store.GetQuote(ctx, "A")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Priority)
	assert.Equal(t, "updated", got.Note)
	assert.Equal(t, clock, got.MarkedAt)

	found, err := store.UnmarkQuote(ctx, "A")
	require.NoError(t, err)
	assert.True(t, found)
	got, err = store.GetQuote(ctx, "A")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.MarkCustomer(ctx, &HighlightedCustomer{CustomerCode: "C1", CustomerName: "Colegio Sol", Priority: 4}))
	customers, err := store.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "Colegio Sol", customers[0].CustomerName)

	found, err = store.UnmarkCustomer(ctx, "C1")
	require.NoError(t, err)
	assert.True(t, found)
	found, err = store.UnmarkCustomer(ctx, "C1")
	require.NoError(t, err)
	assert.False(t, found)
}

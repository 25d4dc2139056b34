package importer

import (
	"testing"
	"time"

	"github.com/cesarmartin1/crm-david/internal/quotes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows ...[]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &rows[i]))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

var quoteHeader = []interface{}{
	"Cod. Presupuesto", "Código", "Cliente", "Estado presupuesto", "Fecha alta", "Fecha Salida",
	"Total importe", "Atendido por", "Tipo Servicio", "Grupo de clientes", "Forma de contacto",
	"Conocido por?", "E-mail", "Teléfono", "Móvil",
}

func TestParseQuotes(t *testing.T) {
	created := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	data := workbook(t,
		quoteHeader,
		[]interface{}{1001, 77, "Colegio Sol", "a", created, "15/03/2024", 1250.5, "Ana", "excursion", "COLEGIOS", "Email", "Web", "info@sol.es", 961234567, 600111222},
		[]interface{}{1001, 77, "Colegio Sol", "A", created, "", "n/a", "Ana", "Traslado"},
		[]interface{}{"", 78, "Sin codigo", "R"},
		[]interface{}{},
		[]interface{}{1002, "", "Nuevo", "E", "not a date", "2024-05-10", 300, "Luis"},
	)

	lines, skipped, err := ParseQuotes(data)
	require.NoError(t, err)
	require.Len(t, lines, 3)

	first := lines[0]
	assert.Equal(t, "1001", first.QuoteCode)
	assert.Equal(t, "77", first.CustomerCode)
	assert.Equal(t, quotes.StatusAccepted, first.Status)
	assert.Equal(t, "EXCURSION", first.ServiceType)
	assert.Equal(t, 1250.5, first.Amount)
	require.NotNil(t, first.CreatedAt)
	assert.Equal(t, "2024-02-01", first.CreatedAt.Format("2006-01-02"))
	require.NotNil(t, first.ServiceDate)
	assert.Equal(t, "2024-03-15", first.ServiceDate.Format("2006-01-02"))
	assert.Equal(t, "COLEGIOS", first.CustomerGroup)
	assert.Equal(t, "Web", first.Source)
	assert.Equal(t, "961234567", first.Phone)

	assert.Equal(t, 0.0, lines[1].Amount, "unparseable amounts become 0")
	assert.Nil(t, lines[1].ServiceDate)
	assert.Equal(t, "TRASLADO", lines[1].ServiceType)

	assert.Nil(t, lines[2].CreatedAt, "unparseable dates become null")
	assert.Equal(t, "", lines[2].CustomerCode)

	require.Len(t, skipped, 1)
	assert.Equal(t, SkippedRow{Row: 4, Reason: "missing quote code"}, skipped[0])
}

func TestParseQuotes_MissingColumns(t *testing.T) {
	data := workbook(t, []interface{}{"Cliente", "Total importe"}, []interface{}{"X", 10})
	_, _, err := ParseQuotes(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cod. Presupuesto")
	assert.Contains(t, err.Error(), "Estado presupuesto")
}

func TestParseQuotes_NotAWorkbook(t *testing.T) {
	_, _, err := ParseQuotes([]byte("plain text"))
	assert.ErrorContains(t, err, "failed to open workbook")
}

func TestParseCustomerMap_FillCustomerCodes(t *testing.T) {
	data := workbook(t,
		[]interface{}{"Código presupuesto", "Código cliente"},
		[]interface{}{1002, 90},
		[]interface{}{1003, ""},
	)
	m, err := ParseCustomerMap(data)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1002": "90"}, m)

	lines := []quotes.QuoteLine{
		{QuoteCode: "1001", CustomerCode: "77"},
		{QuoteCode: "1002"},
		{QuoteCode: "1003"},
	}
	assert.Equal(t, 1, FillCustomerCodes(lines, map[string]string{"1001": "99", "1002": "90"}))
	assert.Equal(t, "77", lines[0].CustomerCode, "existing codes are kept")
	assert.Equal(t, "90", lines[1].CustomerCode)
	assert.Equal(t, "", lines[2].CustomerCode)
}

func TestParseCustomers(t *testing.T) {
	data := workbook(t,
		[]interface{}{"Código", "Nombre", "NIF", "Población", "Provincia", "Pais", "Mail", "Grupo cliente"},
		[]interface{}{77, "Colegio Sol", "B123", "Valencia", "Valencia", "España", "info@sol.es", "COLEGIOS"},
		[]interface{}{"", "Sin codigo"},
		[]interface{}{77, "Colegio Sol SL", "B123"},
	)

	items, skipped, err := ParseCustomers(data)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "77", items[0].Code)
	assert.Equal(t, "Colegio Sol SL", items[0].Name, "last row wins")
	require.Len(t, skipped, 1)
	assert.Equal(t, 3, skipped[0].Row)
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, "1234", normaliseCode(" 1234.0 "))
	assert.Equal(t, "A-1.0", normaliseCode("A-1.0"))
	assert.Equal(t, 0.0, parseAmount("1.234,56"))
	assert.Equal(t, 12.5, parseAmount("12.5"))
	assert.Equal(t, 0.0, parseAmount("NaN"))

	assert.Nil(t, parseDate(""))
	assert.Nil(t, parseDate("0"))
	d := parseDate("2024-06-01 08:30:00")
	require.NotNil(t, d)
	assert.Equal(t, time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC), *d)
}

package importer

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cesarmartin1/crm-david/internal/customers"
	"github.com/cesarmartin1/crm-david/internal/quotes"
	"github.com/xuri/excelize/v2"
)

// text dates found in exports that were saved as plain cells
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"2/1/2006",
	"02-01-2006",
}

// sheet is the first worksheet of a workbook with its header indexed by name
type sheet struct {
	header map[string]int
	rows   [][]string
}

func readSheet(data []byte) (*sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		key := headerKey(name)
		if _, dup := header[key]; key != "" && !dup {
			header[key] = i
		}
	}
	return &sheet{header: header, rows: rows[1:]}, nil
}

func headerKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (s *sheet) require(cols ...string) error {
	var missing []string
	for _, col := range cols {
		if _, ok := s.header[headerKey(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// cell returns the trimmed value of col in row, "" when the column or cell is absent
func (s *sheet) cell(row []string, col string) string {
	i, ok := s.header[headerKey(col)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parseAmount reads a numeric cell, 0 when it is not a number
func parseAmount(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// parseDate reads a date cell holding an Excel serial or a text date, nil when neither
func parseDate(v string) *time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		if serial <= 0 {
			return nil
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return nil
		}
		return &t
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}

// normaliseCode turns numeric codes read as floats ("1234.0") back into "1234"
func normaliseCode(v string) string {
	v = strings.TrimSpace(v)
	if whole, ok := strings.CutSuffix(v, ".0"); ok {
		if _, err := strconv.ParseInt(whole, 10, 64); err == nil {
			return whole
		}
	}
	return v
}

// ParseQuotes reads a quotes workbook into quote lines. Rows without a quote
// code are skipped and reported.
func ParseQuotes(data []byte) ([]quotes.QuoteLine, []SkippedRow, error) {
	s, err := readSheet(data)
	if err != nil {
		return nil, nil, err
	}
	if err := s.require(colQuoteCode, colStatus); err != nil {
		return nil, nil, err
	}

	lines := make([]quotes.QuoteLine, 0, len(s.rows))
	skipped := make([]SkippedRow, 0)
	for i, row := range s.rows {
		if blank(row) {
			continue
		}
		code := normaliseCode(s.cell(row, colQuoteCode))
		if code == "" {
			skipped = append(skipped, SkippedRow{Row: i + 2, Reason: "missing quote code"})
			continue
		}
		lines = append(lines, quotes.QuoteLine{
			QuoteCode:     code,
			CustomerCode:  normaliseCode(s.cell(row, colCustomerCode)),
			CustomerName:  s.cell(row, colCustomerName),
			CustomerGroup: s.cell(row, colCustomerGroup),
			Status:        quotes.Status(strings.ToUpper(s.cell(row, colStatus))),
			CreatedAt:     parseDate(s.cell(row, colCreatedAt)),
			ServiceDate:   parseDate(s.cell(row, colServiceDate)),
			Amount:        parseAmount(s.cell(row, colAmount)),
			Agent:         s.cell(row, colAgent),
			ServiceType:   strings.ToUpper(s.cell(row, colServiceType)),
			ContactMethod: s.cell(row, colContactMethod),
			Source:        s.cell(row, colSource),
			Email:         s.cell(row, colEmail),
			Phone:         normaliseCode(s.cell(row, colPhone)),
			Mobile:        normaliseCode(s.cell(row, colMobile)),
		})
	}
	return lines, skipped, nil
}

// ParseCustomerMap reads the quote code to customer code workbook. Rows
// missing either code are ignored.
func ParseCustomerMap(data []byte) (map[string]string, error) {
	s, err := readSheet(data)
	if err != nil {
		return nil, err
	}
	if err := s.require(colMapQuoteCode, colMapCustomerCode); err != nil {
		return nil, err
	}

	m := make(map[string]string, len(s.rows))
	for _, row := range s.rows {
		quote := normaliseCode(s.cell(row, colMapQuoteCode))
		customer := normaliseCode(s.cell(row, colMapCustomerCode))
		if quote == "" || customer == "" {
			continue
		}
		m[quote] = customer
	}
	return m, nil
}

// FillCustomerCodes sets the customer code of lines that have none from m
// and returns how many lines were filled
func FillCustomerCodes(lines []quotes.QuoteLine, m map[string]string) int {
	filled := 0
	for i := range lines {
		if lines[i].CustomerCode != "" {
			continue
		}
		if code, ok := m[lines[i].QuoteCode]; ok {
			lines[i].CustomerCode = code
			filled++
		}
	}
	return filled
}

// ParseCustomers reads a customers workbook. A code appearing twice keeps
// its last row.
func ParseCustomers(data []byte) ([]customers.Customer, []SkippedRow, error) {
	s, err := readSheet(data)
	if err != nil {
		return nil, nil, err
	}
	if err := s.require(colCode, colName); err != nil {
		return nil, nil, err
	}

	index := make(map[string]int)
	items := make([]customers.Customer, 0, len(s.rows))
	skipped := make([]SkippedRow, 0)
	for i, row := range s.rows {
		if blank(row) {
			continue
		}
		code := normaliseCode(s.cell(row, colCode))
		if code == "" {
			skipped = append(skipped, SkippedRow{Row: i + 2, Reason: "missing customer code"})
			continue
		}
		c := customers.Customer{
			Code:     code,
			Name:     s.cell(row, colName),
			TaxID:    s.cell(row, colTaxID),
			City:     s.cell(row, colCity),
			Province: s.cell(row, colProvince),
			Country:  s.cell(row, colCountry),
			Email:    s.cell(row, colMail),
			Group:    s.cell(row, colGroup),
		}
		if at, dup := index[code]; dup {
			items[at] = c
			continue
		}
		index[code] = len(items)
		items = append(items, c)
	}
	return items, skipped, nil
}

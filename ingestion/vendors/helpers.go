package vendors

import (
	"fmt"
	"strings"
	"time"

	"sellthrough-backend/config"
	"sellthrough-backend/db/models"
	"sellthrough-backend/ingestion/normalize"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// findSheet locates the first of the wanted sheet names in the file.
// A missing expected worksheet is a whole-file structural failure.
func findSheet(f *excelize.File, names ...string) (string, error) {
	for _, want := range names {
		for _, sheet := range f.GetSheetList() {
			if strings.EqualFold(sheet, want) {
				return sheet, nil
			}
		}
	}
	return "", fmt.Errorf("expected worksheet %q not found", names[0])
}

// headerIndex maps lowercased header captions to their column position.
func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, caption := range header {
		caption = strings.ToLower(strings.TrimSpace(caption))
		if caption != "" {
			index[caption] = i
		}
	}
	return index
}

// column finds a header whose caption contains the wanted name,
// case-insensitive, mirroring the detector's matching rule.
func column(index map[string]int, name string) (int, bool) {
	lower := strings.ToLower(name)
	if i, ok := index[lower]; ok {
		return i, true
	}
	for caption, i := range index {
		if strings.Contains(caption, lower) {
			return i, true
		}
	}
	return 0, false
}

// cell returns the trimmed cell at position i, tolerating short rows.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// tabularRows extracts header-mapped raw rows from one sheet. Column
// names are the captions the vendor's required columns match against.
func tabularRows(f *excelize.File, sheet string, columns map[string]string) ([]RawRow, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %q: %w", sheet, err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("sheet %q has no header row", sheet)
	}

	index := headerIndex(rows[0])
	positions := make(map[string]int, len(columns))
	for field, caption := range columns {
		i, ok := column(index, caption)
		if !ok {
			return nil, fmt.Errorf("required column %q not found in sheet %q", caption, sheet)
		}
		positions[field] = i
	}

	var raws []RawRow
	for rowNum, row := range rows[1:] {
		fields := make(map[string]string, len(positions))
		empty := true
		for field, i := range positions {
			value := cell(row, i)
			fields[field] = value
			if value != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		raws = append(raws, RawRow{
			SourceRow: rowNum + 2, // 1-based, after the header row
			Sheet:     sheet,
			Fields:    fields,
		})
	}
	return raws, nil
}

// rowFields is passed to buildFact after vendor-specific parsing.
type rowFields struct {
	EAN      string
	Quantity int
	Amount   decimal.Decimal
	SaleDate time.Time
	Channel  string
}

// buildFact assembles the canonical fact from parsed fields, applying
// the policies every vendor shares: quantity<0 marks a return with
// magnitude abs(quantity), amounts are stored non-negative, and the
// settlement amount uses the static multiplier table rounded to 2dp.
func buildFact(parsed rowFields, currency string, batchID uuid.UUID) *models.SalesFact {
	localAmount := parsed.Amount.Abs()
	year, month, quarter := normalize.DateParts(parsed.SaleDate)

	channel := parsed.Channel
	if channel == "" {
		channel = string(models.PhysicalStoreType)
	}

	return &models.SalesFact{
		ProductEAN:       parsed.EAN,
		SaleDate:         parsed.SaleDate,
		Quantity:         parsed.Quantity,
		IsReturn:         parsed.Quantity < 0,
		LocalAmount:      localAmount,
		SettlementAmount: config.ToSettlementAmount(localAmount, currency),
		CurrencyCode:     currency,
		Year:             year,
		Month:            month,
		Quarter:          quarter,
		SalesChannel:     channel,
		BatchID:          batchID,
		CompanyID:        config.DefaultCompanyID,
	}
}

// missingField reports a required field absent from a row.
func missingField(raw RawRow, field string) *RowError {
	return &RowError{
		RowNumber: raw.SourceRow,
		Field:     field,
		Type:      models.MissingFieldErrorType,
		Message:   fmt.Sprintf("missing required field %q", field),
		Raw:       raw.Fields,
	}
}

// badValue reports a field that was present but unparsable.
func badValue(raw RawRow, field, message string) *RowError {
	return &RowError{
		RowNumber: raw.SourceRow,
		Field:     field,
		Type:      models.FormatErrorType,
		Message:   message,
		Raw:       raw.Fields,
	}
}

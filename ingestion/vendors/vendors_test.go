package vendors_test

import (
	"testing"

	"sellthrough-backend/db/models"
	"sellthrough-backend/ingestion/vendors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"
)

// sheetWithRows builds a worksheet whose first row is the header.
func sheetWithRows(t *testing.T, f *excelize.File, sheet string, rows [][]interface{}) {
	t.Helper()
	_, err := f.NewSheet(sheet)
	assert.NoError(t, err)
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			assert.NoError(t, err)
			assert.NoError(t, f.SetCellValue(sheet, cell, value))
		}
	}
}

func workbook(t *testing.T, sheet string, rows [][]interface{}) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	sheetWithRows(t, f, sheet, rows)
	assert.NoError(t, f.DeleteSheet("Sheet1"))
	return f
}

// ---- mock resolvers for vendors with indirect identity ----

type mockProductResolver struct {
	mappings map[string]string // normalized input -> ean
}

func (m *mockProductResolver) Resolve(resellerID uuid.UUID, codeOrName string) (string, bool) {
	ean, ok := m.mappings[codeOrName]
	return ean, ok
}

type mockPriceLookup struct {
	prices map[string]string // ean -> price
}

func (m *mockPriceLookup) UnitPrice(resellerID uuid.UUID, ean string) (decimal.Decimal, bool) {
	raw, ok := m.prices[ean]
	if !ok {
		return decimal.Zero, false
	}
	return decimal.RequireFromString(raw), true
}

func TestIngramMicroBaseline(t *testing.T) {
	f := workbook(t, "Sell Through", [][]interface{}{
		{"EAN", "Store Code", "Quantity", "Sales Value", "Date"},
		{"4006381333931", "NYC-01", "3", "29.97", "2024-03-15"},
	})
	defer f.Close()

	vendor := vendors.NewIngramMicro()
	result, err := vendors.ProcessFile(f, vendor, uuid.New(), uuid.New())

	assert.NoError(t, err)
	assert.Equal(t, 1, result.TotalRows)
	assert.Len(t, result.Rows, 1)
	assert.Empty(t, result.RowErrors)

	fact := result.Rows[0].Fact
	assert.Equal(t, "4006381333931", fact.ProductEAN)
	assert.Equal(t, 3, fact.Quantity)
	assert.False(t, fact.IsReturn)
	assert.Equal(t, "USD", fact.CurrencyCode)
	// 29.97 USD at 0.92
	assert.Equal(t, "27.57", fact.SettlementAmount.StringFixed(2))
	assert.Equal(t, 2024, fact.Year)
	assert.Equal(t, 1, fact.Quarter)
	assert.Equal(t, "NYC-01", result.Rows[0].StoreCode)
}

func TestTDSynnexAccountingNotationReturns(t *testing.T) {
	f := workbook(t, "Weekly Sellout", [][]interface{}{
		{"Part Number", "Branch", "Units", "Net Amount", "Invoice Date"},
		{"4006381333931", "East", "(3)", "(29.97)", "2024-04-02"},
		{"4006381333931", "West", "5", "49.95", "2024-04-02"},
	})
	defer f.Close()

	vendor := vendors.NewTDSynnex()
	result, err := vendors.ProcessFile(f, vendor, uuid.New(), uuid.New())

	assert.NoError(t, err)
	assert.Len(t, result.Rows, 2)

	ret := result.Rows[0].Fact
	assert.Equal(t, -3, ret.Quantity)
	assert.True(t, ret.IsReturn)
	// Amounts are stored non-negative; direction lives in the flag.
	assert.False(t, ret.LocalAmount.IsNegative())

	sale := result.Rows[1].Fact
	assert.Equal(t, 5, sale.Quantity)
	assert.False(t, sale.IsReturn)
}

func TestAlsoHoldingSheetPerStore(t *testing.T) {
	f := excelize.NewFile()
	header := []interface{}{"EAN", "Qty", "Turnover", "Period"}
	sheetWithRows(t, f, "Summary", [][]interface{}{{"This sheet is workbook furniture"}})
	sheetWithRows(t, f, "Berlin", [][]interface{}{
		header,
		{"4006381333931", "2", "19.98", "2024-05-01"},
	})
	sheetWithRows(t, f, "Munich", [][]interface{}{
		header,
		{"4006381333931", "4", "39.96", "2024-05-01"},
	})
	assert.NoError(t, f.DeleteSheet("Sheet1"))
	defer f.Close()

	vendor := vendors.NewAlsoHolding()

	stores, err := vendor.ExtractStores(f)
	assert.NoError(t, err)
	assert.Len(t, stores, 2, "the Summary sheet must not become a store")

	result, err := vendors.ProcessFile(f, vendor, uuid.New(), uuid.New())
	assert.NoError(t, err)
	assert.Len(t, result.Rows, 2)
	assert.Equal(t, "Berlin", result.Rows[0].StoreCode)
	assert.Equal(t, "Munich", result.Rows[1].StoreCode)
	assert.Equal(t, "EUR", result.Rows[0].Fact.CurrencyCode)
}

func TestExertisPositionalStoreAndConversion(t *testing.T) {
	f := workbook(t, "Sales Data", [][]interface{}{
		{"", "Product Code", "Sold Qty", "Sell Price", "Week Ending"},
		{"WEB", "4006381333931", "1", "100.00", "2024-06-07"},
		{"Leeds", "4006381333931", "2", "50.00", "2024-06-07"},
	})
	defer f.Close()

	vendor := vendors.NewExertis()
	result, err := vendors.ProcessFile(f, vendor, uuid.New(), uuid.New())

	assert.NoError(t, err)
	assert.Len(t, result.Rows, 2)

	online := result.Rows[0].Fact
	assert.Equal(t, string(models.OnlineStoreType), online.SalesChannel)
	// 100 GBP at 1.17 settles at exactly 117.00
	assert.Equal(t, "117.00", online.SettlementAmount.StringFixed(2))

	physical := result.Rows[1].Fact
	assert.Equal(t, string(models.PhysicalStoreType), physical.SalesChannel)

	stores, err := vendor.ExtractStores(f)
	assert.NoError(t, err)
	byCode := map[string]models.StoreType{}
	for _, s := range stores {
		byCode[s.Code] = s.StoreType
	}
	assert.Equal(t, models.OnlineStoreType, byCode["WEB"])
	assert.Equal(t, models.PhysicalStoreType, byCode["Leeds"])
}

func TestElkoGroupResolvesProductsByName(t *testing.T) {
	f := workbook(t, "Sales Report", [][]interface{}{
		{"Product Name", "Warehouse", "Quantity", "Amount", "Document Date"},
		{"Stabilo Boss Highlighter Yellow", "Riga", "2", "7.98", "2024-02-20"},
		{"Unknown Gadget", "Riga", "1", "9.99", "2024-02-20"},
	})
	defer f.Close()

	resolver := &mockProductResolver{mappings: map[string]string{
		"Stabilo Boss Highlighter Yellow": "4006381333931",
	}}
	vendor := vendors.NewElkoGroup(uuid.New(), resolver)
	result, err := vendors.ProcessFile(f, vendor, uuid.New(), uuid.New())

	assert.NoError(t, err)
	assert.Equal(t, 2, result.TotalRows)
	assert.Len(t, result.Rows, 1)
	assert.Equal(t, "4006381333931", result.Rows[0].Fact.ProductEAN)

	// The unmappable name is a collected row error, not an abort.
	assert.Len(t, result.RowErrors, 1)
	assert.Equal(t, models.FormatErrorType, result.RowErrors[0].ErrorType)
}

func TestDespecPricesFromReferenceLookup(t *testing.T) {
	f := workbook(t, "Sell Out", [][]interface{}{
		{"EAN", "Outlet", "Pieces", "Date"},
		{"7318590000014", "Stockholm", "4", "2024-01-10"},
		{"5012345678900", "Stockholm", "1", "2024-01-10"},
	})
	defer f.Close()

	prices := &mockPriceLookup{prices: map[string]string{"7318590000014": "24.50"}}
	vendor := vendors.NewDespec(uuid.New(), prices)
	result, err := vendors.ProcessFile(f, vendor, uuid.New(), uuid.New())

	assert.NoError(t, err)
	assert.Len(t, result.Rows, 1)
	// 4 pieces at 24.50 reference price
	assert.Equal(t, "98.00", result.Rows[0].Fact.LocalAmount.StringFixed(2))

	// The unpriced product cannot be transformed.
	assert.Len(t, result.RowErrors, 1)
}

func TestWestcoastReturnsAndDuplicateRowsSurvive(t *testing.T) {
	f := workbook(t, "Sales & Returns", [][]interface{}{
		{"EAN", "Store", "Quantity", "Line Total", "Sold Date"},
		{"5012345678900", "Bristol", "2", "23.80", "2024-07-01"},
		{"5012345678900", "Bristol", "2", "23.80", "2024-07-01"},
		{"5012345678900", "Bristol", "(1)", "(11.90)", "2024-07-02"},
	})
	defer f.Close()

	vendor := vendors.NewWestcoast()
	result, err := vendors.ProcessFile(f, vendor, uuid.New(), uuid.New())

	assert.NoError(t, err)
	// Duplicate rows pass through extraction untouched; the inserter's
	// constraint fallback is what classifies them later.
	assert.Len(t, result.Rows, 3)
	assert.True(t, result.Rows[2].Fact.IsReturn)
	assert.Equal(t, "GBP", result.Rows[0].Fact.CurrencyCode)
}

func TestProcessFileAbortsOnMissingWorksheet(t *testing.T) {
	f := workbook(t, "Wrong Sheet", [][]interface{}{{"EAN"}})
	defer f.Close()

	vendor := vendors.NewIngramMicro()
	_, err := vendors.ProcessFile(f, vendor, uuid.New(), uuid.New())

	assert.Error(t, err)
}

func TestProcessFileCollectsRowErrors(t *testing.T) {
	f := workbook(t, "Sell Through", [][]interface{}{
		{"EAN", "Store Code", "Quantity", "Sales Value", "Date"},
		{"4006381333931", "NYC-01", "3", "29.97", "2024-03-15"},
		{"not-an-ean", "NYC-01", "1", "9.99", "2024-03-15"},
		{"4006381333931", "NYC-01", "two", "9.99", "2024-03-15"},
	})
	defer f.Close()

	vendor := vendors.NewIngramMicro()
	result, err := vendors.ProcessFile(f, vendor, uuid.New(), uuid.New())

	assert.NoError(t, err)
	assert.Equal(t, 3, result.TotalRows)
	assert.Len(t, result.Rows, 1)
	assert.Len(t, result.RowErrors, 2)
	assert.Equal(t, 3, result.RowErrors[0].RowNumber)
	assert.Equal(t, 4, result.RowErrors[1].RowNumber)
}

func TestRegistrySelectsByVendorID(t *testing.T) {
	registry := vendors.NewRegistry(vendors.Deps{ResellerID: uuid.New()})

	for _, id := range []string{
		"ingrammicro", "tdsynnex", "alsoholding", "exertis",
		"elkogroup", "despec", "aptecdist", "westcoastltd",
	} {
		vendor, err := registry.Get(id)
		assert.NoError(t, err)
		assert.Equal(t, id, vendor.VendorName())
	}

	_, err := registry.Get("unknownvendor")
	assert.Error(t, err)
}

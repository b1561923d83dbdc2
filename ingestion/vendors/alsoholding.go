package vendors

import (
	"fmt"
	"strings"

	"sellthrough-backend/db/models"
	"sellthrough-backend/ingestion/normalize"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// alsoHolding follows the worksheet-per-store convention: every
// non-system worksheet name denotes one store, and its rows all belong
// to that store.
type alsoHolding struct{}

func NewAlsoHolding() Vendor { return &alsoHolding{} }

func (v *alsoHolding) VendorName() string { return "alsoholding" }
func (v *alsoHolding) Currency() string   { return "EUR" }

// systemSheets are workbook furniture, never stores.
var alsoSystemSheets = map[string]struct{}{
	"summary":      {},
	"metadata":     {},
	"notes":        {},
	"instructions": {},
}

var alsoColumns = map[string]string{
	"ean":      "EAN",
	"quantity": "Qty",
	"amount":   "Turnover",
	"date":     "Period",
}

func (v *alsoHolding) storeSheets(f *excelize.File) []string {
	var sheets []string
	for _, sheet := range f.GetSheetList() {
		if _, system := alsoSystemSheets[strings.ToLower(strings.TrimSpace(sheet))]; system {
			continue
		}
		sheets = append(sheets, sheet)
	}
	return sheets
}

func (v *alsoHolding) ExtractRows(f *excelize.File) ([]RawRow, error) {
	sheets := v.storeSheets(f)
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no store worksheets")
	}

	var all []RawRow
	for _, sheet := range sheets {
		raws, err := tabularRows(f, sheet, alsoColumns)
		if err != nil {
			return nil, err
		}
		for i := range raws {
			raws[i].StoreCode = sheet
		}
		all = append(all, raws...)
	}
	return all, nil
}

func (v *alsoHolding) ExtractStores(f *excelize.File) ([]StoreCandidate, error) {
	var stores []StoreCandidate
	for _, sheet := range v.storeSheets(f) {
		stores = append(stores, StoreCandidate{
			Code:      sheet,
			Name:      sheet,
			StoreType: models.PhysicalStoreType,
		})
	}
	return stores, nil
}

func (v *alsoHolding) TransformRow(raw RawRow, batchID uuid.UUID) (*models.SalesFact, error) {
	ean := raw.Fields["ean"]
	if ean == "" {
		return nil, missingField(raw, "EAN")
	}
	if !normalize.IsValidEAN(ean) {
		return nil, badValue(raw, "EAN", "product identifier is not a 13-digit code")
	}

	if raw.Fields["quantity"] == "" {
		return nil, missingField(raw, "Qty")
	}
	quantity, err := normalize.ParseQuantity(raw.Fields["quantity"])
	if err != nil {
		return nil, badValue(raw, "Qty", err.Error())
	}

	if raw.Fields["amount"] == "" {
		return nil, missingField(raw, "Turnover")
	}
	amount, err := normalize.ParseAmount(raw.Fields["amount"])
	if err != nil {
		return nil, badValue(raw, "Turnover", err.Error())
	}

	if raw.Fields["date"] == "" {
		return nil, missingField(raw, "Period")
	}
	saleDate, err := normalize.ParseDate(raw.Fields["date"])
	if err != nil {
		return nil, badValue(raw, "Period", err.Error())
	}

	return buildFact(rowFields{
		EAN:      ean,
		Quantity: quantity,
		Amount:   amount,
		SaleDate: saleDate,
	}, v.Currency(), batchID), nil
}

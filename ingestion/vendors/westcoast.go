package vendors

import (
	"sellthrough-backend/db/models"
	"sellthrough-backend/ingestion/normalize"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// westcoast mixes sales and returns in one sheet: returns arrive as
// negative or parenthesized quantities with matching negative line
// totals. Files are cumulative, so repeated rows are left for the
// uniqueness constraint to settle.
type westcoast struct{}

func NewWestcoast() Vendor { return &westcoast{} }

func (v *westcoast) VendorName() string { return "westcoastltd" }
func (v *westcoast) Currency() string   { return "GBP" }

var westcoastColumns = map[string]string{
	"ean":      "EAN",
	"store":    "Store",
	"quantity": "Quantity",
	"amount":   "Line Total",
	"date":     "Sold Date",
}

func (v *westcoast) ExtractRows(f *excelize.File) ([]RawRow, error) {
	sheet, err := findSheet(f, "Sales & Returns")
	if err != nil {
		return nil, err
	}
	raws, err := tabularRows(f, sheet, westcoastColumns)
	if err != nil {
		return nil, err
	}
	for i := range raws {
		raws[i].StoreCode = raws[i].Fields["store"]
	}
	return raws, nil
}

func (v *westcoast) ExtractStores(f *excelize.File) ([]StoreCandidate, error) {
	raws, err := v.ExtractRows(f)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var stores []StoreCandidate
	for _, raw := range raws {
		code := raw.Fields["store"]
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		stores = append(stores, StoreCandidate{
			Code:      code,
			Name:      code,
			StoreType: models.PhysicalStoreType,
		})
	}
	return stores, nil
}

func (v *westcoast) TransformRow(raw RawRow, batchID uuid.UUID) (*models.SalesFact, error) {
	ean := raw.Fields["ean"]
	if ean == "" {
		return nil, missingField(raw, "EAN")
	}
	if !normalize.IsValidEAN(ean) {
		return nil, badValue(raw, "EAN", "product identifier is not a 13-digit code")
	}

	if raw.Fields["quantity"] == "" {
		return nil, missingField(raw, "Quantity")
	}
	quantity, err := normalize.ParseQuantity(raw.Fields["quantity"])
	if err != nil {
		return nil, badValue(raw, "Quantity", err.Error())
	}

	if raw.Fields["amount"] == "" {
		return nil, missingField(raw, "Line Total")
	}
	amount, err := normalize.ParseAmount(raw.Fields["amount"])
	if err != nil {
		return nil, badValue(raw, "Line Total", err.Error())
	}

	if raw.Fields["date"] == "" {
		return nil, missingField(raw, "Sold Date")
	}
	saleDate, err := normalize.ParseDate(raw.Fields["date"])
	if err != nil {
		return nil, badValue(raw, "Sold Date", err.Error())
	}

	return buildFact(rowFields{
		EAN:      ean,
		Quantity: quantity,
		Amount:   amount,
		SaleDate: saleDate,
	}, v.Currency(), batchID), nil
}

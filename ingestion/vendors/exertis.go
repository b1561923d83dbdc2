package vendors

import (
	"fmt"
	"strings"

	"sellthrough-backend/db/models"
	"sellthrough-backend/ingestion/normalize"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// exertis encodes the store in an unnamed first column. The sentinel
// value "WEB" in that column means the reseller's online store.
type exertis struct{}

func NewExertis() Vendor { return &exertis{} }

func (v *exertis) VendorName() string { return "exertis" }
func (v *exertis) Currency() string   { return "GBP" }

const exertisOnlineSentinel = "WEB"

var exertisColumns = map[string]string{
	"ean":      "Product Code",
	"quantity": "Sold Qty",
	"amount":   "Sell Price",
	"date":     "Week Ending",
}

func (v *exertis) ExtractRows(f *excelize.File) ([]RawRow, error) {
	sheet, err := findSheet(f, "Sales Data")
	if err != nil {
		return nil, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %q: %w", sheet, err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("sheet %q has no header row", sheet)
	}

	index := headerIndex(rows[0])
	positions := make(map[string]int, len(exertisColumns))
	for field, caption := range exertisColumns {
		i, ok := column(index, caption)
		if !ok {
			return nil, fmt.Errorf("required column %q not found in sheet %q", caption, sheet)
		}
		positions[field] = i
	}

	var raws []RawRow
	for rowNum, row := range rows[1:] {
		storeCode := cell(row, 0)
		fields := make(map[string]string, len(positions)+1)
		empty := storeCode == ""
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
		fields["store"] = storeCode
		raws = append(raws, RawRow{
			SourceRow: rowNum + 2,
			Sheet:     sheet,
			Fields:    fields,
			StoreCode: storeCode,
		})
	}
	return raws, nil
}

func (v *exertis) ExtractStores(f *excelize.File) ([]StoreCandidate, error) {
	raws, err := v.ExtractRows(f)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var stores []StoreCandidate
	for _, raw := range raws {
		code := raw.StoreCode
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}

		storeType := models.PhysicalStoreType
		if strings.EqualFold(code, exertisOnlineSentinel) {
			storeType = models.OnlineStoreType
		}
		stores = append(stores, StoreCandidate{
			Code:      code,
			Name:      code,
			StoreType: storeType,
		})
	}
	return stores, nil
}

func (v *exertis) TransformRow(raw RawRow, batchID uuid.UUID) (*models.SalesFact, error) {
	if raw.StoreCode == "" {
		return nil, missingField(raw, "store column")
	}

	ean := raw.Fields["ean"]
	if ean == "" {
		return nil, missingField(raw, "Product Code")
	}
	if !normalize.IsValidEAN(ean) {
		return nil, badValue(raw, "Product Code", "product identifier is not a 13-digit code")
	}

	if raw.Fields["quantity"] == "" {
		return nil, missingField(raw, "Sold Qty")
	}
	quantity, err := normalize.ParseQuantity(raw.Fields["quantity"])
	if err != nil {
		return nil, badValue(raw, "Sold Qty", err.Error())
	}

	if raw.Fields["amount"] == "" {
		return nil, missingField(raw, "Sell Price")
	}
	amount, err := normalize.ParseAmount(raw.Fields["amount"])
	if err != nil {
		return nil, badValue(raw, "Sell Price", err.Error())
	}

	if raw.Fields["date"] == "" {
		return nil, missingField(raw, "Week Ending")
	}
	saleDate, err := normalize.ParseDate(raw.Fields["date"])
	if err != nil {
		return nil, badValue(raw, "Week Ending", err.Error())
	}

	channel := string(models.PhysicalStoreType)
	if strings.EqualFold(raw.StoreCode, exertisOnlineSentinel) {
		channel = string(models.OnlineStoreType)
	}

	return buildFact(rowFields{
		EAN:      ean,
		Quantity: quantity,
		Amount:   amount,
		SaleDate: saleDate,
		Channel:  channel,
	}, v.Currency(), batchID), nil
}

package vendors

import (
	"sellthrough-backend/db/models"
	"sellthrough-backend/ingestion/normalize"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ingramMicro is the baseline format: one data sheet with explicit EAN
// and store-code columns, amounts in USD.
type ingramMicro struct{}

func NewIngramMicro() Vendor { return &ingramMicro{} }

func (v *ingramMicro) VendorName() string { return "ingrammicro" }
func (v *ingramMicro) Currency() string   { return "USD" }

var ingramColumns = map[string]string{
	"ean":       "EAN",
	"storeCode": "Store Code",
	"storeName": "Store Name",
	"quantity":  "Quantity",
	"amount":    "Sales Value",
	"date":      "Date",
}

func (v *ingramMicro) ExtractRows(f *excelize.File) ([]RawRow, error) {
	sheet, err := findSheet(f, "Sell Through", "Sellout")
	if err != nil {
		return nil, err
	}
	raws, err := tabularRows(f, sheet, ingramColumns)
	if err != nil {
		return nil, err
	}
	for i := range raws {
		raws[i].StoreCode = raws[i].Fields["storeCode"]
	}
	return raws, nil
}

func (v *ingramMicro) ExtractStores(f *excelize.File) ([]StoreCandidate, error) {
	raws, err := v.ExtractRows(f)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var stores []StoreCandidate
	for _, raw := range raws {
		code := raw.Fields["storeCode"]
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		stores = append(stores, StoreCandidate{
			Code:      code,
			Name:      raw.Fields["storeName"],
			StoreType: models.PhysicalStoreType,
		})
	}
	return stores, nil
}

func (v *ingramMicro) TransformRow(raw RawRow, batchID uuid.UUID) (*models.SalesFact, error) {
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
		return nil, missingField(raw, "Sales Value")
	}
	amount, err := normalize.ParseAmount(raw.Fields["amount"])
	if err != nil {
		return nil, badValue(raw, "Sales Value", err.Error())
	}

	if raw.Fields["date"] == "" {
		return nil, missingField(raw, "Date")
	}
	saleDate, err := normalize.ParseDate(raw.Fields["date"])
	if err != nil {
		return nil, badValue(raw, "Date", err.Error())
	}

	return buildFact(rowFields{
		EAN:      ean,
		Quantity: quantity,
		Amount:   amount,
		SaleDate: saleDate,
	}, v.Currency(), batchID), nil
}

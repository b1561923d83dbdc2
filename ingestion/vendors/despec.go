package vendors

import (
	"sellthrough-backend/db/models"
	"sellthrough-backend/ingestion/normalize"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// despec files carry quantities but no prices. The sale amount is
// computed as quantity times the reference unit price looked up per
// product, so a row without a priced mapping cannot be transformed.
type despec struct {
	resellerID uuid.UUID
	prices     PriceLookup
}

func NewDespec(resellerID uuid.UUID, prices PriceLookup) Vendor {
	return &despec{resellerID: resellerID, prices: prices}
}

func (v *despec) VendorName() string { return "despec" }
func (v *despec) Currency() string   { return "SEK" }

var despecColumns = map[string]string{
	"ean":      "EAN",
	"outlet":   "Outlet",
	"quantity": "Pieces",
	"date":     "Date",
}

func (v *despec) ExtractRows(f *excelize.File) ([]RawRow, error) {
	sheet, err := findSheet(f, "Sell Out")
	if err != nil {
		return nil, err
	}
	raws, err := tabularRows(f, sheet, despecColumns)
	if err != nil {
		return nil, err
	}
	for i := range raws {
		raws[i].StoreCode = raws[i].Fields["outlet"]
	}
	return raws, nil
}

func (v *despec) ExtractStores(f *excelize.File) ([]StoreCandidate, error) {
	raws, err := v.ExtractRows(f)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var stores []StoreCandidate
	for _, raw := range raws {
		code := raw.Fields["outlet"]
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

func (v *despec) TransformRow(raw RawRow, batchID uuid.UUID) (*models.SalesFact, error) {
	ean := raw.Fields["ean"]
	if ean == "" {
		return nil, missingField(raw, "EAN")
	}
	if !normalize.IsValidEAN(ean) {
		return nil, badValue(raw, "EAN", "product identifier is not a 13-digit code")
	}

	if raw.Fields["quantity"] == "" {
		return nil, missingField(raw, "Pieces")
	}
	quantity, err := normalize.ParseQuantity(raw.Fields["quantity"])
	if err != nil {
		return nil, badValue(raw, "Pieces", err.Error())
	}

	if raw.Fields["date"] == "" {
		return nil, missingField(raw, "Date")
	}
	saleDate, err := normalize.ParseDate(raw.Fields["date"])
	if err != nil {
		return nil, badValue(raw, "Date", err.Error())
	}

	unitPrice, ok := v.prices.UnitPrice(v.resellerID, ean)
	if !ok {
		return nil, badValue(raw, "EAN", "no reference unit price for product")
	}
	amount := unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)

	return buildFact(rowFields{
		EAN:      ean,
		Quantity: quantity,
		Amount:   amount,
		SaleDate: saleDate,
	}, v.Currency(), batchID), nil
}

package vendors

import (
	"sellthrough-backend/db/models"
	"sellthrough-backend/ingestion/normalize"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// aptecDist sends cumulative living documents: every upload repeats all
// previously reported rows. Repeated identical rows are tolerated here
// and resolved later by the fact table's uniqueness constraint, never
// deduplicated at extraction.
type aptecDist struct{}

func NewAptecDist() Vendor { return &aptecDist{} }

func (v *aptecDist) VendorName() string { return "aptecdist" }
func (v *aptecDist) Currency() string   { return "AED" }

var aptecColumns = map[string]string{
	"ean":      "EAN",
	"location": "Location",
	"quantity": "Qty Sold",
	"amount":   "Value",
	"date":     "Txn Date",
}

func (v *aptecDist) ExtractRows(f *excelize.File) ([]RawRow, error) {
	sheet, err := findSheet(f, "Cumulative Sales")
	if err != nil {
		return nil, err
	}
	raws, err := tabularRows(f, sheet, aptecColumns)
	if err != nil {
		return nil, err
	}
	for i := range raws {
		raws[i].StoreCode = raws[i].Fields["location"]
	}
	return raws, nil
}

func (v *aptecDist) ExtractStores(f *excelize.File) ([]StoreCandidate, error) {
	raws, err := v.ExtractRows(f)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var stores []StoreCandidate
	for _, raw := range raws {
		code := raw.Fields["location"]
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

func (v *aptecDist) TransformRow(raw RawRow, batchID uuid.UUID) (*models.SalesFact, error) {
	ean := raw.Fields["ean"]
	if ean == "" {
		return nil, missingField(raw, "EAN")
	}
	if !normalize.IsValidEAN(ean) {
		return nil, badValue(raw, "EAN", "product identifier is not a 13-digit code")
	}

	if raw.Fields["quantity"] == "" {
		return nil, missingField(raw, "Qty Sold")
	}
	quantity, err := normalize.ParseQuantity(raw.Fields["quantity"])
	if err != nil {
		return nil, badValue(raw, "Qty Sold", err.Error())
	}

	if raw.Fields["amount"] == "" {
		return nil, missingField(raw, "Value")
	}
	amount, err := normalize.ParseAmount(raw.Fields["amount"])
	if err != nil {
		return nil, badValue(raw, "Value", err.Error())
	}

	if raw.Fields["date"] == "" {
		return nil, missingField(raw, "Txn Date")
	}
	saleDate, err := normalize.ParseDate(raw.Fields["date"])
	if err != nil {
		return nil, badValue(raw, "Txn Date", err.Error())
	}

	return buildFact(rowFields{
		EAN:      ean,
		Quantity: quantity,
		Amount:   amount,
		SaleDate: saleDate,
	}, v.Currency(), batchID), nil
}

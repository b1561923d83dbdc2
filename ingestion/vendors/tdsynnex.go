package vendors

import (
	"sellthrough-backend/db/models"
	"sellthrough-backend/ingestion/normalize"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// tdSynnex reports weekly sellout per branch in accounting notation:
// returns arrive as parenthesized units and amounts, "(3)" meaning -3.
type tdSynnex struct{}

func NewTDSynnex() Vendor { return &tdSynnex{} }

func (v *tdSynnex) VendorName() string { return "tdsynnex" }
func (v *tdSynnex) Currency() string   { return "USD" }

var synnexColumns = map[string]string{
	"ean":      "Part Number",
	"branch":   "Branch",
	"quantity": "Units",
	"amount":   "Net Amount",
	"date":     "Invoice Date",
}

func (v *tdSynnex) ExtractRows(f *excelize.File) ([]RawRow, error) {
	sheet, err := findSheet(f, "Weekly Sellout")
	if err != nil {
		return nil, err
	}
	raws, err := tabularRows(f, sheet, synnexColumns)
	if err != nil {
		return nil, err
	}
	for i := range raws {
		raws[i].StoreCode = raws[i].Fields["branch"]
	}
	return raws, nil
}

func (v *tdSynnex) ExtractStores(f *excelize.File) ([]StoreCandidate, error) {
	raws, err := v.ExtractRows(f)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var stores []StoreCandidate
	for _, raw := range raws {
		branch := raw.Fields["branch"]
		if branch == "" {
			continue
		}
		if _, ok := seen[branch]; ok {
			continue
		}
		seen[branch] = struct{}{}
		stores = append(stores, StoreCandidate{
			Code:      branch,
			Name:      branch,
			StoreType: models.PhysicalStoreType,
		})
	}
	return stores, nil
}

func (v *tdSynnex) TransformRow(raw RawRow, batchID uuid.UUID) (*models.SalesFact, error) {
	ean := raw.Fields["ean"]
	if ean == "" {
		return nil, missingField(raw, "Part Number")
	}
	if !normalize.IsValidEAN(ean) {
		return nil, badValue(raw, "Part Number", "product identifier is not a 13-digit code")
	}

	if raw.Fields["quantity"] == "" {
		return nil, missingField(raw, "Units")
	}
	// ParseQuantity negates parenthesized values, so "(3)" comes back -3
	// and flows through as a return.
	quantity, err := normalize.ParseQuantity(raw.Fields["quantity"])
	if err != nil {
		return nil, badValue(raw, "Units", err.Error())
	}

	if raw.Fields["amount"] == "" {
		return nil, missingField(raw, "Net Amount")
	}
	amount, err := normalize.ParseAmount(raw.Fields["amount"])
	if err != nil {
		return nil, badValue(raw, "Net Amount", err.Error())
	}

	if raw.Fields["date"] == "" {
		return nil, missingField(raw, "Invoice Date")
	}
	saleDate, err := normalize.ParseDate(raw.Fields["date"])
	if err != nil {
		return nil, badValue(raw, "Invoice Date", err.Error())
	}

	return buildFact(rowFields{
		EAN:      ean,
		Quantity: quantity,
		Amount:   amount,
		SaleDate: saleDate,
	}, v.Currency(), batchID), nil
}

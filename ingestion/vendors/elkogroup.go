package vendors

import (
	"sellthrough-backend/db/models"
	"sellthrough-backend/ingestion/normalize"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// elkoGroup files carry no product codes at all, only free-text product
// names. Identity is resolved through the product mapper, exact then
// fuzzy, instead of being read from the file.
type elkoGroup struct {
	resellerID uuid.UUID
	products   ProductResolver
}

func NewElkoGroup(resellerID uuid.UUID, products ProductResolver) Vendor {
	return &elkoGroup{resellerID: resellerID, products: products}
}

func (v *elkoGroup) VendorName() string { return "elkogroup" }
func (v *elkoGroup) Currency() string   { return "EUR" }

var elkoColumns = map[string]string{
	"productName": "Product Name",
	"warehouse":   "Warehouse",
	"quantity":    "Quantity",
	"amount":      "Amount",
	"date":        "Document Date",
}

func (v *elkoGroup) ExtractRows(f *excelize.File) ([]RawRow, error) {
	sheet, err := findSheet(f, "Sales Report")
	if err != nil {
		return nil, err
	}
	raws, err := tabularRows(f, sheet, elkoColumns)
	if err != nil {
		return nil, err
	}
	for i := range raws {
		raws[i].StoreCode = raws[i].Fields["warehouse"]
	}
	return raws, nil
}

func (v *elkoGroup) ExtractStores(f *excelize.File) ([]StoreCandidate, error) {
	raws, err := v.ExtractRows(f)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var stores []StoreCandidate
	for _, raw := range raws {
		code := raw.Fields["warehouse"]
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

func (v *elkoGroup) TransformRow(raw RawRow, batchID uuid.UUID) (*models.SalesFact, error) {
	name := raw.Fields["productName"]
	if name == "" {
		return nil, missingField(raw, "Product Name")
	}

	ean, ok := v.products.Resolve(v.resellerID, name)
	if !ok {
		return nil, badValue(raw, "Product Name", "no product mapping found for name")
	}

	if raw.Fields["quantity"] == "" {
		return nil, missingField(raw, "Quantity")
	}
	quantity, err := normalize.ParseQuantity(raw.Fields["quantity"])
	if err != nil {
		return nil, badValue(raw, "Quantity", err.Error())
	}

	if raw.Fields["amount"] == "" {
		return nil, missingField(raw, "Amount")
	}
	amount, err := normalize.ParseAmount(raw.Fields["amount"])
	if err != nil {
		return nil, badValue(raw, "Amount", err.Error())
	}

	if raw.Fields["date"] == "" {
		return nil, missingField(raw, "Document Date")
	}
	saleDate, err := normalize.ParseDate(raw.Fields["date"])
	if err != nil {
		return nil, badValue(raw, "Document Date", err.Error())
	}

	return buildFact(rowFields{
		EAN:      ean,
		Quantity: quantity,
		Amount:   amount,
		SaleDate: saleDate,
	}, v.Currency(), batchID), nil
}

// Package vendors holds one extractor/transformer implementation per
// reseller file format, a registry to select them by vendor id, and the
// shared driver that runs extraction for a batch.
package vendors

import (
	"fmt"

	"sellthrough-backend/db/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// RawRow is one data row lifted out of a vendor spreadsheet before any
// canonical mapping. SourceRow is 1-based within the sheet, header
// included, so error reports point at the row the uploader sees.
type RawRow struct {
	SourceRow int
	Sheet     string
	Fields    map[string]string

	// StoreCode is pre-filled by vendors whose store identity lives
	// outside the row itself (sheet-per-store, positional first column).
	StoreCode string
}

// StoreCandidate describes a store sighted in a file, used by the store
// resolver for get-or-create.
type StoreCandidate struct {
	Code      string
	Name      string
	StoreType models.StoreType
	City      *string
	Region    *string
	Country   *string
}

// RowError marks a single row that could not be transformed. The batch
// continues past it.
type RowError struct {
	RowNumber int
	Field     string
	Type      models.RowErrorType
	Message   string
	Raw       map[string]string
}

func (e *RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d: field %q: %s", e.RowNumber, e.Field, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.RowNumber, e.Message)
}

// CanonicalRow pairs a transformed fact with the source bookkeeping the
// later stages need: the originating row number for error reporting and
// the store code still to be resolved to a store id.
type CanonicalRow struct {
	RowNumber int
	StoreCode string
	Raw       map[string]string
	Fact      *models.SalesFact
}

// Vendor is the shared capability surface every reseller format
// implements. Adding a vendor means adding one implementation and one
// fingerprint, never touching the pipeline.
type Vendor interface {
	VendorName() string
	Currency() string
	ExtractRows(f *excelize.File) ([]RawRow, error)
	ExtractStores(f *excelize.File) ([]StoreCandidate, error)
	TransformRow(raw RawRow, batchID uuid.UUID) (*models.SalesFact, error)
}

// ProductResolver resolves a reseller product code or name to a
// canonical EAN. Vendors with name-only product identity depend on it.
type ProductResolver interface {
	Resolve(resellerID uuid.UUID, codeOrName string) (string, bool)
}

// PriceLookup supplies reference unit prices for vendors whose files
// carry quantities but no amounts.
type PriceLookup interface {
	UnitPrice(resellerID uuid.UUID, ean string) (decimal.Decimal, bool)
}

// Package validator partitions canonical rows into accepted and
// rejected through two sequential passes: structural checks first, then
// referential existence checks for the survivors.
package validator

import (
	"fmt"

	"sellthrough-backend/config"
	"sellthrough-backend/db/models"
	"sellthrough-backend/ingestion/normalize"
	"sellthrough-backend/ingestion/vendors"

	"github.com/google/uuid"
)

const (
	minYear = 2000
	maxYear = 2100

	// snapshotMaxLen caps string lengths in rejected-row snapshots so
	// the payload is safe to surface back to the uploader.
	snapshotMaxLen = 120
)

// internalSnapshotKeys never leave the pipeline; they are stripped from
// snapshots before they reach the error payload.
var internalSnapshotKeys = map[string]struct{}{
	"batch_id":   {},
	"company_id": {},
	"_raw":       {},
}

// ReferenceChecker answers existence questions against the reference
// stores. Results are cached per unique id within one run.
type ReferenceChecker interface {
	ProductExists(ean string) (bool, error)
	ResellerExists(id uuid.UUID) (bool, error)
	StoreExists(id uuid.UUID) (bool, error)
}

// Result is the validator's partitioning outcome. AcceptedRows keep
// their original file order and are never mutated.
type Result struct {
	Total    int
	Valid    int
	Invalid  int
	Accepted []vendors.CanonicalRow
	Rejected []models.RowError
}

// Validator runs the two-phase check for one pipeline invocation.
type Validator struct {
	refs ReferenceChecker

	productCache  map[string]bool
	resellerCache map[uuid.UUID]bool
	storeCache    map[uuid.UUID]bool
}

func New(refs ReferenceChecker) *Validator {
	return &Validator{
		refs:          refs,
		productCache:  make(map[string]bool),
		resellerCache: make(map[uuid.UUID]bool),
		storeCache:    make(map[uuid.UUID]bool),
	}
}

// Validate partitions rows into accepted and rejected. Pre-transform
// failures already collected for the batch are folded into the rejected
// list so counts add up: valid + invalid = total.
func (v *Validator) Validate(rows []vendors.CanonicalRow, priorErrors []models.RowError) Result {
	result := Result{
		Total:    len(rows) + len(priorErrors),
		Rejected: append([]models.RowError{}, priorErrors...),
	}

	// Pass 1: structural
	var structurallyValid []vendors.CanonicalRow
	for _, row := range rows {
		if rowErr := v.checkStructural(row); rowErr != nil {
			result.Rejected = append(result.Rejected, *rowErr)
			continue
		}
		structurallyValid = append(structurallyValid, row)
	}

	// Pass 2: referential, on structural survivors only
	for _, row := range structurallyValid {
		if rowErr := v.checkReferential(row); rowErr != nil {
			result.Rejected = append(result.Rejected, *rowErr)
			continue
		}
		result.Accepted = append(result.Accepted, row)
	}

	result.Valid = len(result.Accepted)
	result.Invalid = result.Total - result.Valid
	return result
}

func (v *Validator) checkStructural(row vendors.CanonicalRow) *models.RowError {
	fact := row.Fact
	if fact == nil {
		return v.reject(row, models.BusinessRuleErrorType, "row has no canonical payload")
	}

	// Required fields
	if fact.ProductEAN == "" {
		return v.reject(row, models.MissingFieldErrorType, "product identifier is required")
	}
	if fact.ResellerID == uuid.Nil {
		return v.reject(row, models.MissingFieldErrorType, "reseller id is required")
	}
	if fact.SaleDate.IsZero() {
		return v.reject(row, models.MissingFieldErrorType, "sale date is required")
	}
	if fact.SettlementAmount.IsNegative() || fact.LocalAmount.IsNegative() {
		return v.reject(row, models.BusinessRuleErrorType, "amount must not be negative")
	}
	if fact.Year == 0 || fact.Month == 0 || fact.Quarter == 0 {
		return v.reject(row, models.MissingFieldErrorType, "year, month and quarter are required")
	}

	// Format checks
	if !normalize.IsValidEAN(fact.ProductEAN) {
		return v.reject(row, models.FormatErrorType, fmt.Sprintf("product identifier %q is not a 13-digit code", fact.ProductEAN))
	}

	// Business rules
	if fact.Quantity == 0 {
		return v.reject(row, models.BusinessRuleErrorType, "quantity must not be zero")
	}
	if fact.Quantity > 0 && fact.IsReturn {
		return v.reject(row, models.BusinessRuleErrorType, "positive quantity on a return row")
	}
	if fact.Quantity < 0 && !fact.IsReturn {
		return v.reject(row, models.BusinessRuleErrorType, "negative quantity without return flag")
	}
	if fact.Month < 1 || fact.Month > 12 {
		return v.reject(row, models.BusinessRuleErrorType, fmt.Sprintf("month %d out of range", fact.Month))
	}
	if fact.Quarter < 1 || fact.Quarter > 4 {
		return v.reject(row, models.BusinessRuleErrorType, fmt.Sprintf("quarter %d out of range", fact.Quarter))
	}
	if fact.Year < minYear || fact.Year > maxYear {
		return v.reject(row, models.BusinessRuleErrorType, fmt.Sprintf("year %d out of range", fact.Year))
	}

	// Tenant marker
	if fact.CompanyID != config.DefaultCompanyID {
		return v.reject(row, models.BusinessRuleErrorType, "row is scoped to an unexpected tenant")
	}

	return nil
}

func (v *Validator) checkReferential(row vendors.CanonicalRow) *models.RowError {
	fact := row.Fact

	productOK, err := v.productExists(fact.ProductEAN)
	if err != nil {
		return v.reject(row, models.ReferentialErrorType, fmt.Sprintf("product lookup failed: %v", err))
	}
	if !productOK {
		return v.reject(row, models.ReferentialErrorType, fmt.Sprintf("product %s does not exist", fact.ProductEAN))
	}

	resellerOK, err := v.resellerExists(fact.ResellerID)
	if err != nil {
		return v.reject(row, models.ReferentialErrorType, fmt.Sprintf("reseller lookup failed: %v", err))
	}
	if !resellerOK {
		return v.reject(row, models.ReferentialErrorType, fmt.Sprintf("reseller %s does not exist", fact.ResellerID))
	}

	if fact.StoreID != nil {
		storeOK, err := v.storeExists(*fact.StoreID)
		if err != nil {
			return v.reject(row, models.ReferentialErrorType, fmt.Sprintf("store lookup failed: %v", err))
		}
		if !storeOK {
			return v.reject(row, models.ReferentialErrorType, fmt.Sprintf("store %s does not exist", fact.StoreID))
		}
	}

	return nil
}

func (v *Validator) productExists(ean string) (bool, error) {
	if ok, cached := v.productCache[ean]; cached {
		return ok, nil
	}
	ok, err := v.refs.ProductExists(ean)
	if err != nil {
		return false, err
	}
	v.productCache[ean] = ok
	return ok, nil
}

func (v *Validator) resellerExists(id uuid.UUID) (bool, error) {
	if ok, cached := v.resellerCache[id]; cached {
		return ok, nil
	}
	ok, err := v.refs.ResellerExists(id)
	if err != nil {
		return false, err
	}
	v.resellerCache[id] = ok
	return ok, nil
}

func (v *Validator) storeExists(id uuid.UUID) (bool, error) {
	if ok, cached := v.storeCache[id]; cached {
		return ok, nil
	}
	ok, err := v.refs.StoreExists(id)
	if err != nil {
		return false, err
	}
	v.storeCache[id] = ok
	return ok, nil
}

func (v *Validator) reject(row vendors.CanonicalRow, errType models.RowErrorType, message string) *models.RowError {
	return &models.RowError{
		RowNumber: row.RowNumber,
		ErrorType: errType,
		Message:   message,
		Snapshot:  redactSnapshot(row.Raw),
	}
}

// redactSnapshot strips internal-only keys and truncates long values so
// the payload is safe to show the uploader.
func redactSnapshot(raw map[string]string) map[string]string {
	if raw == nil {
		return nil
	}
	snapshot := make(map[string]string, len(raw))
	for key, value := range raw {
		if _, internal := internalSnapshotKeys[key]; internal {
			continue
		}
		if runes := []rune(value); len(runes) > snapshotMaxLen {
			value = string(runes[:snapshotMaxLen]) + "…"
		}
		snapshot[key] = value
	}
	return snapshot
}

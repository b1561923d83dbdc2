package vendors

import (
	"errors"
	"fmt"

	"sellthrough-backend/db/models"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ExtractionResult is the driver's output: canonical rows in file order,
// the store candidates sighted, and the rows that failed to transform.
type ExtractionResult struct {
	Rows      []CanonicalRow
	Stores    []StoreCandidate
	RowErrors []models.RowError
	TotalRows int
}

// ProcessFile runs the shared extraction sequence for one batch:
// extractStores, extractRows, then transformRow per row. Per-row
// failures are collected without aborting; a whole-file structural
// problem aborts with zero rows attempted.
func ProcessFile(f *excelize.File, vendor Vendor, batchID, resellerID uuid.UUID) (*ExtractionResult, error) {
	stores, err := vendor.ExtractStores(f)
	if err != nil {
		return nil, fmt.Errorf("store extraction failed for %s: %w", vendor.VendorName(), err)
	}

	raws, err := vendor.ExtractRows(f)
	if err != nil {
		return nil, fmt.Errorf("row extraction failed for %s: %w", vendor.VendorName(), err)
	}

	result := &ExtractionResult{
		Stores:    stores,
		TotalRows: len(raws),
	}

	for _, raw := range raws {
		fact, err := vendor.TransformRow(raw, batchID)
		if err != nil {
			result.RowErrors = append(result.RowErrors, toRowError(raw, err))
			continue
		}
		fact.ResellerID = resellerID
		result.Rows = append(result.Rows, CanonicalRow{
			RowNumber: raw.SourceRow,
			StoreCode: raw.StoreCode,
			Raw:       raw.Fields,
			Fact:      fact,
		})
	}

	return result, nil
}

func toRowError(raw RawRow, err error) models.RowError {
	var re *RowError
	if errors.As(err, &re) {
		errType := re.Type
		if errType == "" {
			errType = models.TransformErrorType
		}
		return models.RowError{
			RowNumber: re.RowNumber,
			ErrorType: errType,
			Message:   re.Message,
			Snapshot:  re.Raw,
		}
	}
	return models.RowError{
		RowNumber: raw.SourceRow,
		ErrorType: models.TransformErrorType,
		Message:   err.Error(),
		Snapshot:  raw.Fields,
	}
}

// Package inserter commits accepted canonical rows in batches, falling
// back to per-row commits when a chunk trips the uniqueness constraint.
package inserter

import (
	"time"

	"sellthrough-backend/db/models"
	"sellthrough-backend/ingestion/repositories"
	"sellthrough-backend/ingestion/vendors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBatchSize is the chunk size rows are committed in.
const DefaultBatchSize = 1000

// Stats aggregates one insertion run. Duplicate is not an error count:
// re-uploaded living-document rows land there by design.
type Stats struct {
	Inserted  int               `json:"inserted"`
	Duplicate int               `json:"duplicate"`
	Failed    int               `json:"failed"`
	Errors    []models.RowError `json:"errors,omitempty"`
}

type Inserter struct {
	facts   repositories.SalesFactRepository
	batches repositories.BatchRepository
	stores  repositories.StoreRepository
	logger  *zap.Logger

	batchSize int
}

func New(
	facts repositories.SalesFactRepository,
	batches repositories.BatchRepository,
	stores repositories.StoreRepository,
	logger *zap.Logger,
) *Inserter {
	return &Inserter{
		facts:     facts,
		batches:   batches,
		stores:    stores,
		logger:    logger,
		batchSize: DefaultBatchSize,
	}
}

// Insert enriches and commits the accepted rows chunk by chunk. A
// uniqueness violation on a chunk falls back to per-row commits inside
// that chunk so duplicates and genuine failures are told apart; any
// other chunk-level failure marks every row in the chunk failed with
// the shared message, no per-row retry.
func (ins *Inserter) Insert(rows []vendors.CanonicalRow, batch *models.UploadBatch) Stats {
	stats := Stats{}
	storeGeo := make(map[uuid.UUID]*models.Store)

	for _, row := range rows {
		ins.enrich(row.Fact, batch, storeGeo)
	}

	for start := 0; start < len(rows); start += ins.batchSize {
		end := start + ins.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		ins.insertChunk(rows[start:end], &stats)
	}

	return stats
}

func (ins *Inserter) insertChunk(chunk []vendors.CanonicalRow, stats *Stats) {
	facts := make([]*models.SalesFact, len(chunk))
	for i, row := range chunk {
		facts[i] = row.Fact
	}

	if err := ins.facts.BulkCreate(facts); err != nil {
		if repositories.IsUniqueViolation(err) {
			ins.logger.Info("chunk hit uniqueness constraint, falling back to per-row commit",
				zap.Int("chunk_size", len(chunk)))
			ins.insertPerRow(chunk, stats)
			return
		}
		ins.logger.Error("chunk insert failed", zap.Error(err))
		ins.failChunk(chunk, stats, err.Error())
		return
	}

	stats.Inserted += len(chunk)
}

// insertPerRow commits each row of a conflicted chunk on its own,
// classifying constraint hits as expected duplicates and anything else
// as a failure with detail.
func (ins *Inserter) insertPerRow(chunk []vendors.CanonicalRow, stats *Stats) {
	for _, row := range chunk {
		// A fresh id per attempt; the chunk attempt may have consumed one.
		row.Fact.ID = uuid.Nil
		err := ins.facts.CreateOne(row.Fact)
		switch {
		case err == nil:
			stats.Inserted++
		case repositories.IsUniqueViolation(err):
			stats.Duplicate++
		default:
			stats.Failed++
			stats.Errors = append(stats.Errors, models.RowError{
				RowNumber: row.RowNumber,
				ErrorType: models.InsertionErrorType,
				Message:   err.Error(),
			})
		}
	}
}

func (ins *Inserter) failChunk(chunk []vendors.CanonicalRow, stats *Stats, message string) {
	stats.Failed += len(chunk)
	for _, row := range chunk {
		stats.Errors = append(stats.Errors, models.RowError{
			RowNumber: row.RowNumber,
			ErrorType: models.InsertionErrorType,
			Message:   message,
		})
	}
}

// enrich stamps the denormalized and defaulted columns just before
// commit: reseller name, geo copied from the resolved store only where
// the row does not already carry it, timestamps when absent.
func (ins *Inserter) enrich(fact *models.SalesFact, batch *models.UploadBatch, storeGeo map[uuid.UUID]*models.Store) {
	if batch.Reseller != nil && fact.ResellerName == "" {
		fact.ResellerName = batch.Reseller.Name
	}

	if fact.StoreID != nil {
		store, ok := storeGeo[*fact.StoreID]
		if !ok {
			var err error
			store, err = ins.stores.GetByID(*fact.StoreID)
			if err != nil {
				ins.logger.Warn("geo enrichment lookup failed",
					zap.String("store_id", fact.StoreID.String()), zap.Error(err))
				store = nil
			}
			storeGeo[*fact.StoreID] = store
		}
		if store != nil {
			if fact.City == nil {
				fact.City = store.City
			}
			if fact.Region == nil {
				fact.Region = store.Region
			}
			if fact.Country == nil {
				fact.Country = store.Country
			}
		}
	}

	now := time.Now()
	if fact.CreatedAt.IsZero() {
		fact.CreatedAt = now
	}
	if fact.UpdatedAt.IsZero() {
		fact.UpdatedAt = now
	}
}

// DeriveStatus maps insertion stats onto the final batch status:
// failed when nothing landed and something failed, partial when both
// sides are non-empty, completed when nothing failed.
func DeriveStatus(stats Stats) models.BatchStatus {
	switch {
	case stats.Inserted == 0 && stats.Failed > 0:
		return models.FailedBatchStatus
	case stats.Inserted > 0 && stats.Failed > 0:
		return models.PartialBatchStatus
	default:
		return models.CompletedBatchStatus
	}
}

// Finalize persists the run's counters and terminal status on the batch.
func (ins *Inserter) Finalize(batchID uuid.UUID, total, valid int, stats Stats) (models.BatchStatus, error) {
	status := DeriveStatus(stats)
	if err := ins.batches.UpdateBatchCounters(batchID, total, valid, stats.Inserted, stats.Duplicate, stats.Failed); err != nil {
		return status, err
	}
	if err := ins.batches.MarkCompleted(batchID, status); err != nil {
		return status, err
	}
	return status, nil
}

// Rollback deletes every fact committed for the batch and resets its
// status, the only cross-row reconciliation the pipeline supports.
func (ins *Inserter) Rollback(batchID uuid.UUID) (int64, error) {
	deleted, err := ins.facts.DeleteByBatch(batchID)
	if err != nil {
		return deleted, err
	}
	if err := ins.batches.UpdateBatchCounters(batchID, 0, 0, 0, 0, 0); err != nil {
		return deleted, err
	}
	if err := ins.batches.UpdateBatchStatus(batchID, models.RolledBackBatchStatus); err != nil {
		return deleted, err
	}
	ins.logger.Info("batch rolled back",
		zap.String("batch_id", batchID.String()), zap.Int64("deleted_rows", deleted))
	return deleted, nil
}

// GetInsertionStatistics returns the batch's current persisted counters.
func (ins *Inserter) GetInsertionStatistics(batchID uuid.UUID) (*models.UploadBatch, error) {
	return ins.batches.GetBatch(batchID)
}

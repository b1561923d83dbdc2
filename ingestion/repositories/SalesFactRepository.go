package repositories

import (
	"sellthrough-backend/db/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SalesFactRepository interface {
	BulkCreate(facts []*models.SalesFact) error
	CreateOne(fact *models.SalesFact) error
	DeleteByBatch(batchID uuid.UUID) (int64, error)
}

type salesFactRepository struct {
	db *gorm.DB
}

func NewSalesFactRepository(db *gorm.DB) SalesFactRepository {
	return &salesFactRepository{db: db}
}

// BulkCreate inserts a chunk of facts inside one transaction. A
// uniqueness violation rolls back the whole chunk; the inserter falls
// back to per-row commits to classify duplicates.
func (r *salesFactRepository) BulkCreate(facts []*models.SalesFact) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(facts).Error
	})
}

func (r *salesFactRepository) CreateOne(fact *models.SalesFact) error {
	return r.db.Create(fact).Error
}

// DeleteByBatch removes every fact committed for a batch, supporting
// per-batch rollback.
func (r *salesFactRepository) DeleteByBatch(batchID uuid.UUID) (int64, error) {
	result := r.db.Delete(&models.SalesFact{}, "batch_id = ?", batchID)
	return result.RowsAffected, result.Error
}

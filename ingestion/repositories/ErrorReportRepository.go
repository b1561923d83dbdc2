package repositories

import (
	"errors"
	"time"

	"sellthrough-backend/db/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ErrorReportRepository interface {
	Create(log *models.ErrorReportLog) error
	GetLatestByBatch(batchID uuid.UUID) (*models.ErrorReportLog, error)
	ListOlderThan(cutoff time.Time) ([]models.ErrorReportLog, error)
	Delete(id uuid.UUID) error
}

type errorReportRepository struct {
	db *gorm.DB
}

func NewErrorReportRepository(db *gorm.DB) ErrorReportRepository {
	return &errorReportRepository{db: db}
}

func (r *errorReportRepository) Create(log *models.ErrorReportLog) error {
	return r.db.Create(log).Error
}

func (r *errorReportRepository) GetLatestByBatch(batchID uuid.UUID) (*models.ErrorReportLog, error) {
	var log models.ErrorReportLog
	err := r.db.Where("batch_id = ?", batchID).Order("generated_at DESC").First(&log).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &log, nil
}

func (r *errorReportRepository) ListOlderThan(cutoff time.Time) ([]models.ErrorReportLog, error) {
	var logs []models.ErrorReportLog
	err := r.db.Where("generated_at < ?", cutoff).Find(&logs).Error
	return logs, err
}

func (r *errorReportRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&models.ErrorReportLog{}, "id = ?", id).Error
}

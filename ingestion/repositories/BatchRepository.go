package repositories

import (
	"errors"
	"strings"
	"time"

	"sellthrough-backend/db/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BatchRepository interface {
	CreateBatch(batch *models.UploadBatch) error
	GetBatch(id uuid.UUID) (*models.UploadBatch, error)
	UpdateBatchStatus(id uuid.UUID, status models.BatchStatus) error
	UpdateBatchCounters(id uuid.UUID, total, valid, inserted, duplicate, failed int) error
	MarkProcessingStarted(id uuid.UUID) error
	MarkCompleted(id uuid.UUID, status models.BatchStatus) error
	GetFilteredBatches(pageSize int, offset int, filters map[string]string) ([]models.UploadBatch, int64, error)
	SweepStuckBatches(olderThan time.Duration) (int64, error)

	CreateStagingRecord(record *models.StagingRecord) error
	GetStagingRecord(batchID uuid.UUID) (*models.StagingRecord, error)
	UpdateStagingStage(batchID uuid.UUID, stage models.PipelineStage) error
	UpdateStagingDetection(batchID uuid.UUID, vendor string, confidence float64, metadata datatypes.JSON) error
	UpdateStagingValidationErrors(batchID uuid.UUID, payload datatypes.JSON) error

	GetReseller(id uuid.UUID) (*models.Reseller, error)
	GetResellerByCode(code string) (*models.Reseller, error)
}

type batchRepository struct {
	db *gorm.DB
}

func NewBatchRepository(db *gorm.DB) BatchRepository {
	return &batchRepository{db: db}
}

func (r *batchRepository) CreateBatch(batch *models.UploadBatch) error {
	return r.db.Create(batch).Error
}

func (r *batchRepository) GetBatch(id uuid.UUID) (*models.UploadBatch, error) {
	var batch models.UploadBatch
	err := r.db.Preload("Reseller").First(&batch, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

func (r *batchRepository) UpdateBatchStatus(id uuid.UUID, status models.BatchStatus) error {
	return r.db.Model(&models.UploadBatch{}).Where("id = ?", id).Update("status", status).Error
}

func (r *batchRepository) UpdateBatchCounters(id uuid.UUID, total, valid, inserted, duplicate, failed int) error {
	return r.db.Model(&models.UploadBatch{}).Where("id = ?", id).Updates(map[string]interface{}{
		"total_rows":     total,
		"valid_rows":     valid,
		"inserted_rows":  inserted,
		"duplicate_rows": duplicate,
		"failed_rows":    failed,
	}).Error
}

func (r *batchRepository) MarkProcessingStarted(id uuid.UUID) error {
	now := time.Now()
	return r.db.Model(&models.UploadBatch{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":                models.ProcessingBatchStatus,
		"processing_started_at": &now,
	}).Error
}

func (r *batchRepository) MarkCompleted(id uuid.UUID, status models.BatchStatus) error {
	now := time.Now()
	return r.db.Model(&models.UploadBatch{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       status,
		"completed_at": &now,
	}).Error
}

// GetFilteredBatches retrieves upload batches with filtering and pagination
func (r *batchRepository) GetFilteredBatches(pageSize int, offset int, filters map[string]string) ([]models.UploadBatch, int64, error) {
	var batches []models.UploadBatch
	var total int64

	db := r.db.Model(&models.UploadBatch{})

	for key, value := range filters {
		switch key {
		case "status":
			db = db.Where("status = ?", value)
		case "reseller_id":
			db = db.Where("reseller_id = ?", value)
		case "start_date":
			db = db.Where("Date(created_at) >= ?", value)
		case "end_date":
			db = db.Where("Date(created_at) <= ?", value)
		case "filename":
			db = db.Where("source_filename ILIKE ?", "%"+value+"%")
		case "created_by":
			db = db.Where("created_by ILIKE ?", "%"+value+"%")
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Reseller").Limit(pageSize).Offset(offset).Order("created_at DESC").Find(&batches).Error; err != nil {
		return nil, 0, err
	}

	return batches, total, nil
}

// SweepStuckBatches fails batches left in processing beyond the age
// threshold. Runs are synchronous and never yield, so anything older
// than the threshold died without reaching a terminal state.
func (r *batchRepository) SweepStuckBatches(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result := r.db.Model(&models.UploadBatch{}).
		Where("status = ? AND processing_started_at < ?", models.ProcessingBatchStatus, cutoff).
		Update("status", models.FailedBatchStatus)
	return result.RowsAffected, result.Error
}

func (r *batchRepository) CreateStagingRecord(record *models.StagingRecord) error {
	return r.db.Create(record).Error
}

func (r *batchRepository) GetStagingRecord(batchID uuid.UUID) (*models.StagingRecord, error) {
	var record models.StagingRecord
	err := r.db.First(&record, "batch_id = ?", batchID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *batchRepository) UpdateStagingStage(batchID uuid.UUID, stage models.PipelineStage) error {
	return r.db.Model(&models.StagingRecord{}).Where("batch_id = ?", batchID).
		Update("pipeline_stage", stage).Error
}

func (r *batchRepository) UpdateStagingDetection(batchID uuid.UUID, vendor string, confidence float64, metadata datatypes.JSON) error {
	return r.db.Model(&models.StagingRecord{}).Where("batch_id = ?", batchID).Updates(map[string]interface{}{
		"detected_vendor":      vendor,
		"detection_confidence": confidence,
		"detection_metadata":   metadata,
	}).Error
}

func (r *batchRepository) UpdateStagingValidationErrors(batchID uuid.UUID, payload datatypes.JSON) error {
	return r.db.Model(&models.StagingRecord{}).Where("batch_id = ?", batchID).
		Update("validation_errors", payload).Error
}

func (r *batchRepository) GetReseller(id uuid.UUID) (*models.Reseller, error) {
	var reseller models.Reseller
	err := r.db.First(&reseller, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reseller, nil
}

func (r *batchRepository) GetResellerByCode(code string) (*models.Reseller, error) {
	var reseller models.Reseller
	err := r.db.First(&reseller, "reseller_code = ?", strings.TrimSpace(code)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reseller, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BatchStatus tracks an upload batch through the ingestion pipeline.
// failed, completed and rolled_back are terminal.
type BatchStatus string

const (
	PendingBatchStatus    BatchStatus = "pending"
	StagedBatchStatus     BatchStatus = "staged"
	ProcessingBatchStatus BatchStatus = "processing"
	ValidatedBatchStatus  BatchStatus = "validated"
	CompletedBatchStatus  BatchStatus = "completed"
	PartialBatchStatus    BatchStatus = "partial"
	FailedBatchStatus     BatchStatus = "failed"
	RolledBackBatchStatus BatchStatus = "rolled_back"
)

// UploadBatch represents one submitted sell-through file. It is created
// on submission and mutated by the pipeline orchestrator at every stage.
type UploadBatch struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	CompanyID  int       `gorm:"not null;index" json:"company_id"`
	ResellerID uuid.UUID `gorm:"type:uuid;not null;index" json:"reseller_id"`

	SourceFilename string `gorm:"not null" json:"source_filename"`
	StoredPath     string `json:"stored_path"`
	FileSizeBytes  int64  `json:"file_size_bytes"`
	FileHash       string `gorm:"index" json:"file_hash"`

	Status BatchStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`

	// Row counters, persisted by the inserter finalization
	TotalRows     int `gorm:"default:0" json:"total_rows"`
	ValidRows     int `gorm:"default:0" json:"valid_rows"`
	InsertedRows  int `gorm:"default:0" json:"inserted_rows"`
	DuplicateRows int `gorm:"default:0" json:"duplicate_rows"`
	FailedRows    int `gorm:"default:0" json:"failed_rows"`

	ProcessingStartedAt *time.Time `json:"processing_started_at"`
	CompletedAt         *time.Time `json:"completed_at"`

	Reseller *Reseller `gorm:"foreignKey:ResellerID" json:"reseller,omitempty"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (b *UploadBatch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// IsTerminal reports whether the batch can no longer change state.
func (b *UploadBatch) IsTerminal() bool {
	switch b.Status {
	case FailedBatchStatus, CompletedBatchStatus, RolledBackBatchStatus:
		return true
	default:
		return false
	}
}

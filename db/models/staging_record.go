package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PipelineStage names the last stage the orchestrator persisted for a
// batch. The trail it leaves makes a stopped run diagnosable without
// re-parsing the source file.
type PipelineStage string

const (
	PendingStage           PipelineStage = "pending"
	StagedStage            PipelineStage = "staged"
	VendorDetectedStage    PipelineStage = "vendor_detected"
	ProcessedStage         PipelineStage = "processed"
	StoresResolvedStage    PipelineStage = "stores_resolved"
	ValidatedStage         PipelineStage = "validated"
	ValidationFailedStage  PipelineStage = "validation_failed"
	ForeignKeyCheckedStage PipelineStage = "foreign_key_checked"
	InsertedStage          PipelineStage = "inserted"
	CompletedStage         PipelineStage = "completed"
	FailedStage            PipelineStage = "failed"
)

// StagingRecord captures raw structural metadata about an uploaded file
// plus, later, the detection result and validation-error payload. It is
// 1:1 with its batch and append-only after creation: stages add fields,
// none rewrites what an earlier stage stored.
type StagingRecord struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	BatchID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"batch_id"`

	// Raw structure captured at staging time
	SheetNames   datatypes.JSON `json:"sheet_names"`
	RowCount     int            `json:"row_count"`
	ColumnCount  int            `json:"column_count"`
	HeaderSample datatypes.JSON `json:"header_sample"`

	// Detection output
	DetectedVendor      string         `json:"detected_vendor"`
	DetectionConfidence float64        `json:"detection_confidence"`
	DetectionMetadata   datatypes.JSON `json:"detection_metadata"`

	// Orchestration trail
	PipelineStage PipelineStage `gorm:"type:varchar(30);default:'pending'" json:"pipeline_stage"`

	// Validation-error payload, serialized row errors for the reporter
	ValidationErrors datatypes.JSON `json:"validation_errors"`

	CompanyID int `gorm:"not null;index" json:"company_id"`

	Batch *UploadBatch `gorm:"foreignKey:BatchID" json:"batch,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *StagingRecord) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

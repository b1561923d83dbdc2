package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RowErrorType classifies a single failed row inside a batch.
type RowErrorType string

const (
	MissingFieldErrorType RowErrorType = "missing_field"
	FormatErrorType       RowErrorType = "format_error"
	BusinessRuleErrorType RowErrorType = "business_rule"
	ReferentialErrorType  RowErrorType = "referential"
	TransformErrorType    RowErrorType = "transform_error"
	InsertionErrorType    RowErrorType = "insertion_error"
)

// RowError is a row-scoped failure record. It only ever exists inside a
// batch's aggregated error payload and the generated report, never as an
// independently persisted row.
type RowError struct {
	RowNumber int               `json:"row_number"`
	ErrorType RowErrorType      `json:"error_type"`
	Message   string            `json:"message"`
	Snapshot  map[string]string `json:"snapshot,omitempty"`
}

// ErrorReportLog records a generated error-report artifact so retention
// cleanup can find and expire it.
type ErrorReportLog struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	BatchID uuid.UUID `gorm:"type:uuid;not null;index" json:"batch_id"`

	ArtifactPath string `gorm:"not null" json:"artifact_path"`
	DownloadLink string `json:"download_link"`
	InvalidRows  int    `json:"invalid_rows"`

	CompanyID int `gorm:"not null;index" json:"company_id"`

	GeneratedAt time.Time `gorm:"autoCreateTime" json:"generated_at"`
}

func (e *ErrorReportLog) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

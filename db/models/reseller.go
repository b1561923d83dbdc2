package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reseller represents a channel partner that submits periodic
// sell-through reports in its own spreadsheet format.
type Reseller struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	Name         string    `gorm:"not null;index" json:"name"`
	ResellerCode string    `gorm:"unique;not null;index" json:"reseller_code"`

	// VendorID ties the reseller to its registered file-format implementation.
	VendorID string `gorm:"index" json:"vendor_id"`

	// DefaultCurrency is the local currency the reseller reports in.
	DefaultCurrency string `gorm:"type:varchar(3)" json:"default_currency"`

	Country   *string `json:"country"`
	IsActive  bool    `gorm:"default:true" json:"is_active"`
	CompanyID int     `gorm:"not null;index" json:"company_id"`

	// Audit fields
	CreatedBy string         `gorm:"not null" json:"created_by"`
	UpdatedBy *string        `json:"updated_by"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *Reseller) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

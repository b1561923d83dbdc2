package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StoreType classifies a reseller location
type StoreType string

const (
	PhysicalStoreType StoreType = "physical"
	OnlineStoreType   StoreType = "online"
)

// Store represents a reseller-scoped sales location. Stores are lazily
// created the first time a code appears in an uploaded file and enriched
// afterwards; they are deactivated rather than deleted.
type Store struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	ResellerID uuid.UUID `gorm:"type:uuid;not null;index:idx_store_reseller_code,unique" json:"reseller_id"`
	StoreCode  string    `gorm:"not null;index:idx_store_reseller_code,unique" json:"store_code"`

	Name      string    `json:"name"`
	StoreType StoreType `gorm:"type:varchar(20);default:'physical'" json:"store_type"`

	// Geographic information, filled in when the source file carries it
	City    *string `json:"city"`
	Region  *string `json:"region"`
	Country *string `json:"country"`

	IsActive  bool `gorm:"default:true" json:"is_active"`
	CompanyID int  `gorm:"not null;index" json:"company_id"`

	Reseller *Reseller `gorm:"foreignKey:ResellerID" json:"reseller,omitempty"`

	// Audit fields
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Store) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

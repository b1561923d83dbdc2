package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the canonical catalogue entry all vendor rows resolve to,
// keyed by its 13-digit EAN.
type Product struct {
	ID  uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	EAN string    `gorm:"type:varchar(13);unique;not null;index" json:"ean"`

	Name     string  `gorm:"not null;index" json:"name"`
	Brand    *string `json:"brand"`
	IsActive bool    `gorm:"default:true" json:"is_active"`

	CompanyID int `gorm:"not null;index" json:"company_id"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// MappingSource records how a product mapping came to exist.
type MappingSource string

const (
	ExplicitMappingSource MappingSource = "explicit"
	FuzzyMappingSource    MappingSource = "fuzzy"
)

// ProductMapping maps a reseller's own product code or name to a
// canonical EAN. Fuzzy-inferred mappings are persisted so later uploads
// hit them exactly.
type ProductMapping struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	ResellerID uuid.UUID `gorm:"type:uuid;not null;index:idx_mapping_reseller_code,unique" json:"reseller_id"`

	// NormalizedCode is the trimmed, lowercased, whitespace-collapsed form
	// of the reseller's product code or name.
	NormalizedCode string `gorm:"not null;index:idx_mapping_reseller_code,unique" json:"normalized_code"`

	ProductEAN string        `gorm:"type:varchar(13);not null;index" json:"product_ean"`
	Source     MappingSource `gorm:"type:varchar(20);default:'explicit'" json:"source"`

	// UnitPrice backs vendors whose files carry no amounts; for those the
	// settlement amount is quantity times this reference price.
	UnitPrice *decimal.Decimal `gorm:"type:decimal(18,4)" json:"unit_price"`

	IsActive  bool `gorm:"default:true" json:"is_active"`
	CompanyID int  `gorm:"not null;index" json:"company_id"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m *ProductMapping) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

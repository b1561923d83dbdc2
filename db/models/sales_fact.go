package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalesFact is one committed sell-through event: a normalized,
// vendor-agnostic sale or return. The composite unique index on
// (reseller, product, sale date, store, quantity) is the sole
// de-duplication mechanism for re-uploaded living documents.
type SalesFact struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`

	ProductEAN string     `gorm:"type:varchar(13);not null;index:idx_sales_dedup,unique" json:"product_ean"`
	ResellerID uuid.UUID  `gorm:"type:uuid;not null;index:idx_sales_dedup,unique" json:"reseller_id"`
	StoreID    *uuid.UUID `gorm:"type:uuid;index:idx_sales_dedup,unique" json:"store_id"`
	SaleDate   time.Time  `gorm:"type:date;not null;index:idx_sales_dedup,unique" json:"sale_date"`

	// Quantity is signed: negative means a return with magnitude
	// abs(quantity). IsReturn is derived, never set independently.
	Quantity int  `gorm:"not null;index:idx_sales_dedup,unique" json:"quantity"`
	IsReturn bool `gorm:"default:false" json:"is_return"`

	LocalAmount      decimal.Decimal `gorm:"type:decimal(18,4)" json:"local_amount"`
	SettlementAmount decimal.Decimal `gorm:"type:decimal(18,4)" json:"settlement_amount"`
	CurrencyCode     string          `gorm:"type:varchar(3)" json:"currency_code"`

	Year    int `gorm:"not null" json:"year"`
	Month   int `gorm:"not null" json:"month"`
	Quarter int `gorm:"not null" json:"quarter"`

	SalesChannel string `gorm:"type:varchar(20)" json:"sales_channel"`

	// Denormalized for reporting; filled during insertion enrichment
	ResellerName string  `json:"reseller_name"`
	City         *string `json:"city"`
	Region       *string `json:"region"`
	Country      *string `json:"country"`

	BatchID   uuid.UUID `gorm:"type:uuid;not null;index" json:"batch_id"`
	CompanyID int       `gorm:"not null;index" json:"company_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *SalesFact) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

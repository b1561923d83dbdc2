package seeds

import (
	"errors"
	"fmt"

	"sellthrough-backend/config"
	"sellthrough-backend/db/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SeedResellers seeds the channel partners whose file formats the
// vendor registry knows how to read.
func SeedResellers(db *gorm.DB) error {
	config.Logger.Info("Starting reseller seeding...")

	resellers := []models.Reseller{
		{Name: "Ingram Micro", ResellerCode: "INGRAM", VendorID: "ingrammicro", DefaultCurrency: "USD", Country: stringPtr("US")},
		{Name: "TD Synnex", ResellerCode: "TDSYNNEX", VendorID: "tdsynnex", DefaultCurrency: "USD", Country: stringPtr("US")},
		{Name: "Also Holding", ResellerCode: "ALSO", VendorID: "alsoholding", DefaultCurrency: "EUR", Country: stringPtr("CH")},
		{Name: "Exertis", ResellerCode: "EXERTIS", VendorID: "exertis", DefaultCurrency: "GBP", Country: stringPtr("GB")},
		{Name: "ELKO Group", ResellerCode: "ELKO", VendorID: "elkogroup", DefaultCurrency: "EUR", Country: stringPtr("LV")},
		{Name: "Despec", ResellerCode: "DESPEC", VendorID: "despec", DefaultCurrency: "SEK", Country: stringPtr("SE")},
		{Name: "Aptec Distribution", ResellerCode: "APTEC", VendorID: "aptecdist", DefaultCurrency: "AED", Country: stringPtr("AE")},
		{Name: "Westcoast", ResellerCode: "WESTCOAST", VendorID: "westcoastltd", DefaultCurrency: "GBP", Country: stringPtr("GB")},
	}

	createdCount := 0
	for i := range resellers {
		resellers[i].IsActive = true
		resellers[i].CompanyID = config.DefaultCompanyID
		resellers[i].CreatedBy = "system"

		var existing models.Reseller
		result := db.Where("reseller_code = ?", resellers[i].ResellerCode).First(&existing)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				if err := db.Create(&resellers[i]).Error; err != nil {
					config.Logger.Error("Failed to create reseller",
						zap.String("code", resellers[i].ResellerCode), zap.Error(err))
					return fmt.Errorf("failed to create reseller %s: %w", resellers[i].ResellerCode, err)
				}
				createdCount++
			} else {
				return fmt.Errorf("error checking for reseller %s: %w", resellers[i].ResellerCode, result.Error)
			}
		}
	}

	config.Logger.Info("Reseller seeding completed", zap.Int("created", createdCount))
	return nil
}

// SeedSampleCatalogue seeds a small product catalogue with explicit
// mappings so a fresh environment can process demo uploads end to end.
func SeedSampleCatalogue(db *gorm.DB) error {
	config.Logger.Info("Starting sample catalogue seeding...")

	products := []models.Product{
		{EAN: "4006381333931", Name: "Stabilo Boss Highlighter Yellow", Brand: stringPtr("Stabilo")},
		{EAN: "7318590000014", Name: "Ink Cartridge 950XL Black", Brand: stringPtr("Nordic Ink")},
		{EAN: "5012345678900", Name: "Wireless Mouse M310", Brand: stringPtr("Clickline")},
	}

	createdCount := 0
	for i := range products {
		products[i].IsActive = true
		products[i].CompanyID = config.DefaultCompanyID

		var existing models.Product
		result := db.Where("ean = ?", products[i].EAN).First(&existing)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				if err := db.Create(&products[i]).Error; err != nil {
					return fmt.Errorf("failed to create product %s: %w", products[i].EAN, err)
				}
				createdCount++
			} else {
				return fmt.Errorf("error checking for product %s: %w", products[i].EAN, result.Error)
			}
		}
	}

	config.Logger.Info("Sample catalogue seeding completed", zap.Int("created", createdCount))
	return nil
}

// SeedSampleMappings gives each seeded reseller an explicit mapping for
// the sample products, including reference prices for vendors whose
// files carry none.
func SeedSampleMappings(db *gorm.DB) error {
	config.Logger.Info("Starting sample mapping seeding...")

	type mappingSeed struct {
		resellerCode   string
		normalizedCode string
		productEAN     string
		unitPrice      *decimal.Decimal
	}

	price := func(v string) *decimal.Decimal {
		d, _ := decimal.NewFromString(v)
		return &d
	}

	mappings := []mappingSeed{
		{"INGRAM", "im-4006381333931", "4006381333931", nil},
		{"TDSYNNEX", "tds-333931", "4006381333931", nil},
		{"ELKO", "stabilo boss highlighter yellow", "4006381333931", nil},
		{"DESPEC", "dsp-950xl-blk", "7318590000014", price("24.5000")},
		{"DESPEC", "dsp-m310", "5012345678900", price("11.9000")},
		{"WESTCOAST", "wc-m310", "5012345678900", nil},
	}

	createdCount := 0
	for _, m := range mappings {
		var reseller models.Reseller
		if err := db.Where("reseller_code = ?", m.resellerCode).First(&reseller).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return fmt.Errorf("error loading reseller %s: %w", m.resellerCode, err)
		}

		var existing models.ProductMapping
		result := db.Where("reseller_id = ? AND normalized_code = ?", reseller.ID, m.normalizedCode).First(&existing)
		if result.Error == nil {
			continue
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return fmt.Errorf("error checking for mapping %s: %w", m.normalizedCode, result.Error)
		}

		mapping := models.ProductMapping{
			ResellerID:     reseller.ID,
			NormalizedCode: m.normalizedCode,
			ProductEAN:     m.productEAN,
			Source:         models.ExplicitMappingSource,
			UnitPrice:      m.unitPrice,
			IsActive:       true,
			CompanyID:      config.DefaultCompanyID,
			CreatedBy:      "system",
		}
		if err := db.Create(&mapping).Error; err != nil {
			return fmt.Errorf("failed to create mapping %s: %w", m.normalizedCode, err)
		}
		createdCount++
	}

	config.Logger.Info("Sample mapping seeding completed", zap.Int("created", createdCount))
	return nil
}

// SeedSellThroughAll runs every seeder in dependency order.
func SeedSellThroughAll(db *gorm.DB) error {
	if err := SeedResellers(db); err != nil {
		return err
	}
	if err := SeedSampleCatalogue(db); err != nil {
		return err
	}
	return SeedSampleMappings(db)
}

func stringPtr(s string) *string {
	return &s
}

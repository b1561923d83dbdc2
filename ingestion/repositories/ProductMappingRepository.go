package repositories

import (
	"errors"

	"sellthrough-backend/db/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductMappingRepository interface {
	GetByNormalizedCode(resellerID uuid.UUID, normalizedCode string) (*models.ProductMapping, error)
	ListActiveByReseller(resellerID uuid.UUID) ([]models.ProductMapping, error)
	Create(mapping *models.ProductMapping) error
	Update(mapping *models.ProductMapping) error
	Delete(id uuid.UUID) error
	ProductExists(ean string) (bool, error)
	ResellerExists(id uuid.UUID) (bool, error)
}

type productMappingRepository struct {
	db *gorm.DB
}

func NewProductMappingRepository(db *gorm.DB) ProductMappingRepository {
	return &productMappingRepository{db: db}
}

func (r *productMappingRepository) GetByNormalizedCode(resellerID uuid.UUID, normalizedCode string) (*models.ProductMapping, error) {
	var mapping models.ProductMapping
	err := r.db.First(&mapping, "reseller_id = ? AND normalized_code = ? AND is_active = ?", resellerID, normalizedCode, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &mapping, nil
}

func (r *productMappingRepository) ListActiveByReseller(resellerID uuid.UUID) ([]models.ProductMapping, error) {
	var mappings []models.ProductMapping
	err := r.db.Where("reseller_id = ? AND is_active = ?", resellerID, true).Find(&mappings).Error
	return mappings, err
}

func (r *productMappingRepository) Create(mapping *models.ProductMapping) error {
	return r.db.Create(mapping).Error
}

func (r *productMappingRepository) Update(mapping *models.ProductMapping) error {
	return r.db.Save(mapping).Error
}

func (r *productMappingRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&models.ProductMapping{}, "id = ?", id).Error
}

func (r *productMappingRepository) ProductExists(ean string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Product{}).Where("ean = ? AND is_active = ?", ean, true).Count(&count).Error
	return count > 0, err
}

func (r *productMappingRepository) ResellerExists(id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&models.Reseller{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

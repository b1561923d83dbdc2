package repositories

import (
	"errors"
	"strings"

	"sellthrough-backend/db/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IsUniqueViolation reports whether err is a uniqueness-constraint hit.
// The postgres driver translates most of these to gorm.ErrDuplicatedKey;
// the message check covers raw pgconn errors that slip through.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key value violates unique constraint")
}

type StoreRepository interface {
	GetByResellerAndCode(resellerID uuid.UUID, storeCode string) (*models.Store, error)
	GetByID(id uuid.UUID) (*models.Store, error)
	Create(store *models.Store) error
	Deactivate(id uuid.UUID) error
	Exists(id uuid.UUID) (bool, error)
}

type storeRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) GetByResellerAndCode(resellerID uuid.UUID, storeCode string) (*models.Store, error) {
	var store models.Store
	err := r.db.First(&store, "reseller_id = ? AND store_code = ?", resellerID, storeCode).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) GetByID(id uuid.UUID) (*models.Store, error) {
	var store models.Store
	err := r.db.First(&store, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) Create(store *models.Store) error {
	return r.db.Create(store).Error
}

// Deactivate soft-disables a store; stores are never hard-deleted.
func (r *storeRepository) Deactivate(id uuid.UUID) error {
	return r.db.Model(&models.Store{}).Where("id = ?", id).Update("is_active", false).Error
}

func (r *storeRepository) Exists(id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&models.Store{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

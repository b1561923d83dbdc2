// Package resolvers houses the per-run reference-entity services: the
// store resolver and the product mapper. Both carry caches scoped to a
// single pipeline invocation and are never shared across batches.
package resolvers

import (
	"fmt"

	"sellthrough-backend/config"
	"sellthrough-backend/db/models"
	"sellthrough-backend/ingestion/repositories"
	"sellthrough-backend/ingestion/vendors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StoreResolver lazily creates reseller stores on first sighting and
// caches their ids for the rest of the run.
type StoreResolver struct {
	stores repositories.StoreRepository
	logger *zap.Logger

	// cache is keyed by resellerID|storeCode and only ever invalidated
	// wholesale.
	cache map[string]uuid.UUID
}

func NewStoreResolver(stores repositories.StoreRepository, logger *zap.Logger) *StoreResolver {
	return &StoreResolver{
		stores: stores,
		logger: logger,
		cache:  make(map[string]uuid.UUID),
	}
}

func cacheKey(resellerID uuid.UUID, storeCode string) string {
	return fmt.Sprintf("%s|%s", resellerID, storeCode)
}

// GetOrCreate resolves a store descriptor to its id, creating the store
// on first sighting. Concurrent first-creation is settled optimistically:
// attempt the insert and, on a uniqueness violation, re-select the row
// another batch created in the meantime.
func (r *StoreResolver) GetOrCreate(resellerID uuid.UUID, candidate vendors.StoreCandidate) (uuid.UUID, error) {
	if candidate.Code == "" {
		return uuid.Nil, fmt.Errorf("store candidate has no code")
	}

	key := cacheKey(resellerID, candidate.Code)
	if id, ok := r.cache[key]; ok {
		return id, nil
	}

	store, err := r.stores.GetByResellerAndCode(resellerID, candidate.Code)
	if err != nil {
		return uuid.Nil, err
	}
	if store != nil {
		r.cache[key] = store.ID
		return store.ID, nil
	}

	storeType := candidate.StoreType
	if storeType == "" {
		storeType = models.PhysicalStoreType
	}
	created := &models.Store{
		ResellerID: resellerID,
		StoreCode:  candidate.Code,
		Name:       candidate.Name,
		StoreType:  storeType,
		City:       candidate.City,
		Region:     candidate.Region,
		Country:    candidate.Country,
		IsActive:   true,
		CompanyID:  config.DefaultCompanyID,
	}

	if err := r.stores.Create(created); err != nil {
		if repositories.IsUniqueViolation(err) {
			existing, selErr := r.stores.GetByResellerAndCode(resellerID, candidate.Code)
			if selErr != nil {
				return uuid.Nil, selErr
			}
			if existing == nil {
				return uuid.Nil, fmt.Errorf("store %q vanished after duplicate-key insert", candidate.Code)
			}
			r.cache[key] = existing.ID
			return existing.ID, nil
		}
		return uuid.Nil, err
	}

	r.cache[key] = created.ID
	return created.ID, nil
}

// BulkGetOrCreate resolves a batch of candidates, skipping individually
// failing descriptors rather than aborting the run.
func (r *StoreResolver) BulkGetOrCreate(resellerID uuid.UUID, candidates []vendors.StoreCandidate) map[string]uuid.UUID {
	resolved := make(map[string]uuid.UUID, len(candidates))
	for _, candidate := range candidates {
		id, err := r.GetOrCreate(resellerID, candidate)
		if err != nil {
			r.logger.Warn("skipping unresolvable store candidate",
				zap.String("store_code", candidate.Code),
				zap.String("reseller_id", resellerID.String()),
				zap.Error(err))
			continue
		}
		resolved[candidate.Code] = id
	}
	return resolved
}

// InvalidateCache drops the whole cache; entries are never evicted
// selectively.
func (r *StoreResolver) InvalidateCache() {
	r.cache = make(map[string]uuid.UUID)
}

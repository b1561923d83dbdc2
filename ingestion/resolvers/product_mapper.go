package resolvers

import (
	"fmt"

	"sellthrough-backend/config"
	"sellthrough-backend/db/models"
	"sellthrough-backend/ingestion/normalize"
	"sellthrough-backend/ingestion/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FuzzyMatchThreshold is the minimum similarity ratio at which a
// near-duplicate product name is accepted as the same product.
const FuzzyMatchThreshold = 0.85

// ProductMapper resolves reseller product codes and names to canonical
// EANs, exact first, then fuzzy against the reseller's active mappings.
type ProductMapper struct {
	mappings     repositories.ProductMappingRepository
	logger       *zap.Logger
	fuzzyEnabled bool

	// cache keys are resellerID|normalizedCode; invalidated wholesale on
	// any mapping mutation.
	cache map[string]string

	// prices memoizes a reseller's reference price list so price-less
	// vendor files cost one scan per run, not one per row.
	prices map[uuid.UUID]map[string]decimal.Decimal
}

func NewProductMapper(mappings repositories.ProductMappingRepository, logger *zap.Logger, fuzzyEnabled bool) *ProductMapper {
	return &ProductMapper{
		mappings:     mappings,
		logger:       logger,
		fuzzyEnabled: fuzzyEnabled,
		cache:        make(map[string]string),
		prices:       make(map[uuid.UUID]map[string]decimal.Decimal),
	}
}

// Resolve maps a product code or free-text name to a canonical EAN.
// The boolean is false when neither an exact nor a fuzzy match exists.
func (m *ProductMapper) Resolve(resellerID uuid.UUID, codeOrName string) (string, bool) {
	normalized := normalize.NormalizeCode(codeOrName)
	if normalized == "" {
		return "", false
	}

	key := fmt.Sprintf("%s|%s", resellerID, normalized)
	if ean, ok := m.cache[key]; ok {
		return ean, true
	}

	mapping, err := m.mappings.GetByNormalizedCode(resellerID, normalized)
	if err != nil {
		m.logger.Warn("product mapping lookup failed",
			zap.String("code", normalized), zap.Error(err))
		return "", false
	}
	if mapping != nil {
		m.cache[key] = mapping.ProductEAN
		return mapping.ProductEAN, true
	}

	if !m.fuzzyEnabled {
		return "", false
	}
	return m.resolveFuzzy(resellerID, normalized, key)
}

// resolveFuzzy scores the normalized code against every active mapping
// for the reseller and accepts the best candidate at or above the
// threshold. Accepted matches are persisted as fuzzy-inferred mappings
// so the next upload hits them exactly.
func (m *ProductMapper) resolveFuzzy(resellerID uuid.UUID, normalized, key string) (string, bool) {
	mappings, err := m.mappings.ListActiveByReseller(resellerID)
	if err != nil {
		m.logger.Warn("fuzzy mapping scan failed", zap.Error(err))
		return "", false
	}

	bestRatio := 0.0
	var best *models.ProductMapping
	for i := range mappings {
		ratio := SimilarityRatio(normalized, mappings[i].NormalizedCode)
		if ratio > bestRatio {
			bestRatio = ratio
			best = &mappings[i]
		}
	}

	if best == nil || bestRatio < FuzzyMatchThreshold {
		return "", false
	}

	inferred := &models.ProductMapping{
		ResellerID:     resellerID,
		NormalizedCode: normalized,
		ProductEAN:     best.ProductEAN,
		Source:         models.FuzzyMappingSource,
		UnitPrice:      best.UnitPrice,
		IsActive:       true,
		CompanyID:      config.DefaultCompanyID,
		CreatedBy:      "pipeline",
	}
	if err := m.mappings.Create(inferred); err != nil && !repositories.IsUniqueViolation(err) {
		m.logger.Warn("failed to persist fuzzy-inferred mapping",
			zap.String("code", normalized), zap.Error(err))
	}
	m.InvalidateCache()

	m.cache[key] = best.ProductEAN
	return best.ProductEAN, true
}

// UnitPrice returns the reference unit price recorded on a mapping for
// the product, backing vendors whose files carry no amounts.
func (m *ProductMapper) UnitPrice(resellerID uuid.UUID, ean string) (decimal.Decimal, bool) {
	priceList, ok := m.prices[resellerID]
	if !ok {
		mappings, err := m.mappings.ListActiveByReseller(resellerID)
		if err != nil {
			m.logger.Warn("unit price scan failed", zap.Error(err))
			return decimal.Zero, false
		}
		priceList = make(map[string]decimal.Decimal)
		for i := range mappings {
			if mappings[i].UnitPrice == nil {
				continue
			}
			if _, seen := priceList[mappings[i].ProductEAN]; !seen {
				priceList[mappings[i].ProductEAN] = *mappings[i].UnitPrice
			}
		}
		m.prices[resellerID] = priceList
	}

	price, ok := priceList[ean]
	if !ok {
		return decimal.Zero, false
	}
	return price, true
}

// CreateMapping registers an explicit mapping. The canonical id must be
// a 13-digit numeric code.
func (m *ProductMapper) CreateMapping(resellerID uuid.UUID, codeOrName, ean, createdBy string) (*models.ProductMapping, error) {
	if !normalize.IsValidEAN(ean) {
		return nil, fmt.Errorf("invalid product identifier %q: must be a 13-digit numeric code", ean)
	}
	normalized := normalize.NormalizeCode(codeOrName)
	if normalized == "" {
		return nil, fmt.Errorf("empty product code")
	}

	mapping := &models.ProductMapping{
		ResellerID:     resellerID,
		NormalizedCode: normalized,
		ProductEAN:     ean,
		Source:         models.ExplicitMappingSource,
		IsActive:       true,
		CompanyID:      config.DefaultCompanyID,
		CreatedBy:      createdBy,
	}
	if err := m.mappings.Create(mapping); err != nil {
		return nil, err
	}
	m.InvalidateCache()
	return mapping, nil
}

// DeleteMapping removes a mapping and drops the cache.
func (m *ProductMapper) DeleteMapping(id uuid.UUID) error {
	if err := m.mappings.Delete(id); err != nil {
		return err
	}
	m.InvalidateCache()
	return nil
}

// InvalidateCache drops the whole cache, never selective entries.
func (m *ProductMapper) InvalidateCache() {
	m.cache = make(map[string]string)
	m.prices = make(map[uuid.UUID]map[string]decimal.Decimal)
}

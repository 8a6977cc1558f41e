package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/catalog"
	"github.com/wms/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormStockedItemRepository implements catalog.StockedItemRepository using GORM
type GormStockedItemRepository struct {
	db *gorm.DB
}

// NewGormStockedItemRepository creates a new GormStockedItemRepository
func NewGormStockedItemRepository(db *gorm.DB) *GormStockedItemRepository {
	return &GormStockedItemRepository{db: db}
}

// FindByID finds a stocked item by its ID
func (r *GormStockedItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.StockedItem, error) {
	var item catalog.StockedItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindBySKU finds a stocked item by its canonical SKU
func (r *GormStockedItemRepository) FindBySKU(ctx context.Context, sku string) (*catalog.StockedItem, error) {
	var item catalog.StockedItem
	if err := r.db.WithContext(ctx).
		First(&item, "sku = ?", strings.ToUpper(strings.TrimSpace(sku))).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindByIDs finds multiple stocked items by their IDs
func (r *GormStockedItemRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.StockedItem, error) {
	if len(ids) == 0 {
		return []catalog.StockedItem{}, nil
	}
	var items []catalog.StockedItem
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Save creates or updates a stocked item
func (r *GormStockedItemRepository) Save(ctx context.Context, item *catalog.StockedItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// GormStorageBinRepository implements catalog.StorageBinRepository using GORM
type GormStorageBinRepository struct {
	db *gorm.DB
}

// NewGormStorageBinRepository creates a new GormStorageBinRepository
func NewGormStorageBinRepository(db *gorm.DB) *GormStorageBinRepository {
	return &GormStorageBinRepository{db: db}
}

// FindByID finds a storage bin by its ID
func (r *GormStorageBinRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.StorageBin, error) {
	var bin catalog.StorageBin
	if err := r.db.WithContext(ctx).First(&bin, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &bin, nil
}

// FindByCode finds a storage bin by its code
func (r *GormStorageBinRepository) FindByCode(ctx context.Context, code string) (*catalog.StorageBin, error) {
	var bin catalog.StorageBin
	if err := r.db.WithContext(ctx).First(&bin, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &bin, nil
}

// FindByZone finds all bins in a zone ordered along the pick path
func (r *GormStorageBinRepository) FindByZone(ctx context.Context, zone string) ([]catalog.StorageBin, error) {
	var bins []catalog.StorageBin
	if err := r.db.WithContext(ctx).
		Where("zone = ?", zone).
		Order("pick_sequence ASC").
		Find(&bins).Error; err != nil {
		return nil, err
	}
	return bins, nil
}

// Save creates or updates a storage bin
func (r *GormStorageBinRepository) Save(ctx context.Context, bin *catalog.StorageBin) error {
	return r.db.WithContext(ctx).Save(bin).Error
}

// Ensure interfaces are implemented
var (
	_ catalog.StockedItemRepository = (*GormStockedItemRepository)(nil)
	_ catalog.StorageBinRepository  = (*GormStorageBinRepository)(nil)
)

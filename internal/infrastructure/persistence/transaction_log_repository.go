package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/ledger"
	"github.com/wms/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormTransactionRepository implements ledger.TransactionRepository using
// GORM. The log is append-only: this repository never updates or deletes.
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Create appends a transaction entry to the log
func (r *GormTransactionRepository) Create(ctx context.Context, tx *ledger.TransactionEntry) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// FindByID finds a transaction entry by its ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.TransactionEntry, error) {
	var tx ledger.TransactionEntry
	if err := r.db.WithContext(ctx).First(&tx, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// FindByReference finds all entries caused by one business event
func (r *GormTransactionRepository) FindByReference(ctx context.Context, refType ledger.ReferenceType, refID string) ([]ledger.TransactionEntry, error) {
	var txs []ledger.TransactionEntry
	if err := r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		Order("transaction_date ASC, created_at ASC").
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// FindByReferenceLine finds all entries caused by one order line. This is the
// idempotency lookup: a retried operation folds these to learn what already
// happened before writing anything new.
func (r *GormTransactionRepository) FindByReferenceLine(ctx context.Context, refType ledger.ReferenceType, refID, lineID string) ([]ledger.TransactionEntry, error) {
	var txs []ledger.TransactionEntry
	if err := r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ? AND reference_line_id = ?", refType, refID, lineID).
		Order("transaction_date ASC, created_at ASC").
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// FindByItemAndBin finds entries touching one item-bin pair, newest first
func (r *GormTransactionRepository) FindByItemAndBin(ctx context.Context, itemID, binID uuid.UUID, filter shared.Filter) ([]ledger.TransactionEntry, error) {
	var txs []ledger.TransactionEntry
	query := r.db.WithContext(ctx).
		Where("item_id = ? AND bin_id = ?", itemID, binID).
		Order("transaction_date DESC, created_at DESC")

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// FindAllOrdered returns the full log in replay order. Reconciliation folds
// this from the beginning; ordering must be deterministic.
func (r *GormTransactionRepository) FindAllOrdered(ctx context.Context) ([]ledger.TransactionEntry, error) {
	var txs []ledger.TransactionEntry
	if err := r.db.WithContext(ctx).
		Order("transaction_date ASC, created_at ASC, id ASC").
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// FindAll finds transaction entries with pagination, newest first
func (r *GormTransactionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]ledger.TransactionEntry, error) {
	var txs []ledger.TransactionEntry
	query := r.applyFilters(r.db.WithContext(ctx).Model(&ledger.TransactionEntry{}), filter).
		Order("transaction_date DESC, created_at DESC")

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// Count counts transaction entries matching the filter
func (r *GormTransactionRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilters(r.db.WithContext(ctx).Model(&ledger.TransactionEntry{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormTransactionRepository) applyFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "item_id":
			query = query.Where("item_id = ?", value)
		case "bin_id":
			query = query.Where("bin_id = ?", value)
		case "transaction_type":
			query = query.Where("transaction_type = ?", value)
		case "reference_type":
			query = query.Where("reference_type = ?", value)
		case "reference_id":
			query = query.Where("reference_id = ?", value)
		}
	}
	return query
}

// Ensure GormTransactionRepository implements TransactionRepository
var _ ledger.TransactionRepository = (*GormTransactionRepository)(nil)

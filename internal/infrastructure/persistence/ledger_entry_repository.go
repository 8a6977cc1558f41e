package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wms/backend/internal/domain/ledger"
	"github.com/wms/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLedgerEntryRepository implements ledger.EntryRepository using GORM.
//
// All quantity mutations are single-row conditional UPDATEs: the availability
// precondition is re-checked by the database at write time, so two concurrent
// writers can never over-commit a bin regardless of what they read earlier.
// RowsAffected == 0 means the precondition no longer held.
type GormLedgerEntryRepository struct {
	db *gorm.DB
}

// NewGormLedgerEntryRepository creates a new GormLedgerEntryRepository
func NewGormLedgerEntryRepository(db *gorm.DB) *GormLedgerEntryRepository {
	return &GormLedgerEntryRepository{db: db}
}

// FindByItemAndBin finds the ledger entry for an item-bin pair
func (r *GormLedgerEntryRepository) FindByItemAndBin(ctx context.Context, itemID, binID uuid.UUID) (*ledger.LedgerEntry, error) {
	var entry ledger.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("item_id = ? AND bin_id = ?", itemID, binID).
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// FindByItem finds all ledger entries for an item
func (r *GormLedgerEntryRepository) FindByItem(ctx context.Context, itemID uuid.UUID) ([]ledger.LedgerEntry, error) {
	var entries []ledger.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindAvailableByItem lists bins holding available stock for an item, ordered
// along the pick path. This is the allocator's candidate listing; it is a
// point-in-time read and writers re-validate availability at write time.
func (r *GormLedgerEntryRepository) FindAvailableByItem(ctx context.Context, itemID uuid.UUID) ([]ledger.AvailableStock, error) {
	var stocks []ledger.AvailableStock
	if err := r.db.WithContext(ctx).
		Table("ledger_entries AS le").
		Select("le.item_id, le.bin_id, sb.code AS bin_code, sb.zone, sb.pick_sequence, le.on_hand, le.reserved, le.picked").
		Joins("JOIN storage_bins sb ON sb.id = le.bin_id").
		Where("le.item_id = ? AND le.on_hand - le.reserved - le.picked > 0", itemID).
		Order("sb.pick_sequence ASC").
		Scan(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

// FindAll finds all ledger entries. A filter with PageSize <= 0 performs an
// unpaginated full scan; reconciliation depends on this.
func (r *GormLedgerEntryRepository) FindAll(ctx context.Context, filter shared.Filter) ([]ledger.LedgerEntry, error) {
	var entries []ledger.LedgerEntry
	query := r.db.WithContext(ctx).Model(&ledger.LedgerEntry{})

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	query = applyOrdering(query, filter, "item_id ASC, bin_id ASC")

	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// GetOrCreate gets the existing entry or creates a zero-quantity one.
// ON CONFLICT DO NOTHING absorbs the create race; the loser re-reads.
func (r *GormLedgerEntryRepository) GetOrCreate(ctx context.Context, itemID, binID uuid.UUID) (*ledger.LedgerEntry, error) {
	entry, err := r.FindByItemAndBin(ctx, itemID, binID)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	entry, err = ledger.NewLedgerEntry(itemID, binID)
	if err != nil {
		return nil, err
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_id"}, {Name: "bin_id"}},
			DoNothing: true,
		}).
		Create(entry)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return r.FindByItemAndBin(ctx, itemID, binID)
	}
	return entry, nil
}

// Reserve commits qty of available stock. The availability check and the
// increment are one atomic statement; RowsAffected == 0 means another writer
// consumed the availability first.
func (r *GormLedgerEntryRepository) Reserve(ctx context.Context, itemID, binID uuid.UUID, qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Reserve quantity must be positive")
	}

	result := r.db.WithContext(ctx).Model(&ledger.LedgerEntry{}).
		Where("item_id = ? AND bin_id = ? AND on_hand - reserved - picked >= ?", itemID, binID, qty).
		Updates(map[string]interface{}{
			"reserved":   gorm.Expr("reserved + ?", qty),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrInsufficientStock
	}
	return nil
}

// Unreserve releases up to qty of reserved stock and returns the quantity
// actually released (min of qty and the current reservation)
func (r *GormLedgerEntryRepository) Unreserve(ctx context.Context, itemID, binID uuid.UUID, qty decimal.Decimal) (decimal.Decimal, error) {
	if qty.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, shared.NewDomainError("INVALID_QUANTITY", "Unreserve quantity must be positive")
	}

	entry, err := r.FindByItemAndBin(ctx, itemID, binID)
	if err != nil {
		return decimal.Zero, err
	}

	released := decimal.Min(qty, entry.Reserved)
	if released.IsZero() {
		return decimal.Zero, nil
	}

	result := r.db.WithContext(ctx).Model(&ledger.LedgerEntry{}).
		Where("item_id = ? AND bin_id = ? AND reserved >= ?", itemID, binID, released).
		Updates(map[string]interface{}{
			"reserved":   gorm.Expr("reserved - ?", released),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return decimal.Zero, result.Error
	}
	if result.RowsAffected == 0 {
		return decimal.Zero, shared.ErrConcurrentModification
	}
	return released, nil
}

// CommitPick moves qty from reserved to picked
func (r *GormLedgerEntryRepository) CommitPick(ctx context.Context, itemID, binID uuid.UUID, qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Pick quantity must be positive")
	}

	result := r.db.WithContext(ctx).Model(&ledger.LedgerEntry{}).
		Where("item_id = ? AND bin_id = ? AND reserved >= ?", itemID, binID, qty).
		Updates(map[string]interface{}{
			"reserved":   gorm.Expr("reserved - ?", qty),
			"picked":     gorm.Expr("picked + ?", qty),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrInsufficientStock
	}
	return nil
}

// ShortReserve releases qty of reserved stock without picking it
func (r *GormLedgerEntryRepository) ShortReserve(ctx context.Context, itemID, binID uuid.UUID, qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Short quantity must be positive")
	}

	result := r.db.WithContext(ctx).Model(&ledger.LedgerEntry{}).
		Where("item_id = ? AND bin_id = ? AND reserved >= ?", itemID, binID, qty).
		Updates(map[string]interface{}{
			"reserved":   gorm.Expr("reserved - ?", qty),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrInsufficientStock
	}
	return nil
}

// Receive increases on-hand stock. The row must already exist; callers go
// through GetOrCreate first.
func (r *GormLedgerEntryRepository) Receive(ctx context.Context, itemID, binID uuid.UUID, qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Receive quantity must be positive")
	}

	result := r.db.WithContext(ctx).Model(&ledger.LedgerEntry{}).
		Where("item_id = ? AND bin_id = ?", itemID, binID).
		Updates(map[string]interface{}{
			"on_hand":    gorm.Expr("on_hand + ?", qty),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Adjust applies a signed correction to on-hand. The resulting on-hand may
// not drop below what is already committed to orders.
func (r *GormLedgerEntryRepository) Adjust(ctx context.Context, itemID, binID uuid.UUID, delta decimal.Decimal) error {
	if delta.IsZero() {
		return shared.NewDomainError("INVALID_QUANTITY", "Adjustment delta cannot be zero")
	}

	result := r.db.WithContext(ctx).Model(&ledger.LedgerEntry{}).
		Where("item_id = ? AND bin_id = ? AND on_hand + ? >= reserved + picked", itemID, binID, delta).
		Updates(map[string]interface{}{
			"on_hand":    gorm.Expr("on_hand + ?", delta),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrInsufficientStock
	}
	return nil
}

// Restate overwrites the stored counters with externally recomputed values.
// Used only by reconciliation, where the transaction log is authoritative.
func (r *GormLedgerEntryRepository) Restate(ctx context.Context, itemID, binID uuid.UUID, onHand, reserved, picked decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&ledger.LedgerEntry{}).
		Where("item_id = ? AND bin_id = ?", itemID, binID).
		Updates(map[string]interface{}{
			"on_hand":    onHand,
			"reserved":   reserved,
			"picked":     picked,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyOrdering applies filter ordering with a fallback default
func applyOrdering(query *gorm.DB, filter shared.Filter, defaultOrder string) *gorm.DB {
	if filter.OrderBy == "" {
		return query.Order(defaultOrder)
	}
	orderDir := "ASC"
	if strings.ToLower(filter.OrderDir) == "desc" {
		orderDir = "DESC"
	}
	return query.Order(filter.OrderBy + " " + orderDir)
}

// Ensure GormLedgerEntryRepository implements EntryRepository
var _ ledger.EntryRepository = (*GormLedgerEntryRepository)(nil)

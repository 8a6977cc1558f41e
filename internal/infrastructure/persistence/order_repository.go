package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/fulfillment"
	"github.com/wms/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormOrderRepository implements fulfillment.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create persists a new order with its lines
func (r *GormOrderRepository) Create(ctx context.Context, order *fulfillment.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID finds an order with its lines ordered by line number
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.Order, error) {
	var order fulfillment.Order
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_number ASC")
		}).
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByOrderNumber finds an order by its business number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*fulfillment.Order, error) {
	var order fulfillment.Order
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_number ASC")
		}).
		First(&order, "order_number = ?", orderNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// Save updates an order guarded by its version. The aggregate incremented
// Version before this is called; a stale read loses here.
func (r *GormOrderRepository) Save(ctx context.Context, order *fulfillment.Order) error {
	result := r.db.WithContext(ctx).
		Model(order).
		Where("id = ? AND version = ?", order.ID, order.Version-1).
		Updates(map[string]interface{}{
			"status":       order.Status,
			"worker_id":    order.WorkerID,
			"claimed_at":   order.ClaimedAt,
			"completed_at": order.CompletedAt,
			"ready_at":     order.ReadyAt,
			"version":      order.Version,
			"updated_at":   order.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrentModification
	}
	return nil
}

// SaveLine updates a single order line
func (r *GormOrderRepository) SaveLine(ctx context.Context, line *fulfillment.OrderLine) error {
	result := r.db.WithContext(ctx).
		Model(line).
		Where("id = ?", line.ID).
		Updates(map[string]interface{}{
			"allocated_quantity": line.AllocatedQuantity,
			"picked_quantity":    line.PickedQuantity,
			"status":             line.Status,
			"short_reason":       line.ShortReason,
			"bin_id":             line.BinID,
			"needs_attention":    line.NeedsAttention,
			"updated_at":         line.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindNextQueued returns the queued order offered next: rush before high
// before normal, FIFO within a priority band
func (r *GormOrderRepository) FindNextQueued(ctx context.Context) (*fulfillment.Order, error) {
	var order fulfillment.Order
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_number ASC")
		}).
		Where("status = ?", fulfillment.OrderStatusQueued).
		Order("CASE priority WHEN 'rush' THEN 0 WHEN 'high' THEN 1 ELSE 2 END, created_at ASC").
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByStatus lists orders in a status with pagination
func (r *GormOrderRepository) FindByStatus(ctx context.Context, status fulfillment.OrderStatus, filter shared.Filter) ([]fulfillment.Order, error) {
	var orders []fulfillment.Order
	query := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_number ASC")
		}).
		Where("status = ?", status).
		Order("created_at DESC")

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindExceptions lists orders flagged for exception review
func (r *GormOrderRepository) FindExceptions(ctx context.Context, filter shared.Filter) ([]fulfillment.Order, error) {
	return r.FindByStatus(ctx, fulfillment.OrderStatusException, filter)
}

// CountByStatus counts orders in a status
func (r *GormOrderRepository) CountByStatus(ctx context.Context, status fulfillment.OrderStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&fulfillment.Order{}).
		Where("status = ?", status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Claim moves a queued order to claimed for workerID. The status condition
// decides the claim race: of two simultaneous claimants exactly one UPDATE
// matches the queued row.
func (r *GormOrderRepository) Claim(ctx context.Context, orderID, workerID uuid.UUID, claimedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&fulfillment.Order{}).
		Where("id = ? AND status = ?", orderID, fulfillment.OrderStatusQueued).
		Updates(map[string]interface{}{
			"status":     fulfillment.OrderStatusClaimed,
			"worker_id":  workerID,
			"claimed_at": claimedAt,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// zero rows covers both a lost race and a missing order; re-read to
		// tell them apart
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&fulfillment.Order{}).
			Where("id = ?", orderID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrAlreadyClaimed
	}
	return nil
}

// Release returns a claimed order to queued. Conditioned on the order still
// being claimed; the zero-progress guard runs in the aggregate before this.
func (r *GormOrderRepository) Release(ctx context.Context, orderID uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&fulfillment.Order{}).
		Where("id = ? AND status = ?", orderID, fulfillment.OrderStatusClaimed).
		Updates(map[string]interface{}{
			"status":     fulfillment.OrderStatusQueued,
			"worker_id":  nil,
			"claimed_at": nil,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrInvalidState
	}
	return nil
}

// Ensure GormOrderRepository implements OrderRepository
var _ fulfillment.OrderRepository = (*GormOrderRepository)(nil)

package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/fulfillment"
	"github.com/wms/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormClaimRepository implements fulfillment.ClaimRepository using GORM.
// The unique index on order_id is the second half of the claim race guard:
// even if two writers somehow pass the conditional status update, only one
// claim row can exist.
type GormClaimRepository struct {
	db *gorm.DB
}

// NewGormClaimRepository creates a new GormClaimRepository
func NewGormClaimRepository(db *gorm.DB) *GormClaimRepository {
	return &GormClaimRepository{db: db}
}

// Create persists a claim row
func (r *GormClaimRepository) Create(ctx context.Context, claim *fulfillment.Claim) error {
	if err := r.db.WithContext(ctx).Create(claim).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyClaimed
		}
		return err
	}
	return nil
}

// FindByOrderID finds the active claim for an order
func (r *GormClaimRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*fulfillment.Claim, error) {
	var claim fulfillment.Claim
	if err := r.db.WithContext(ctx).
		First(&claim, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &claim, nil
}

// DeleteByOrderID removes the active claim for an order
func (r *GormClaimRepository) DeleteByOrderID(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&fulfillment.Claim{}, "order_id = ?", orderID).Error
}

// FindExpired lists claims whose lease lapsed before now
func (r *GormClaimRepository) FindExpired(ctx context.Context, now time.Time) ([]fulfillment.Claim, error) {
	var claims []fulfillment.Claim
	if err := r.db.WithContext(ctx).
		Where("lease_expires_at < ?", now).
		Order("lease_expires_at ASC").
		Find(&claims).Error; err != nil {
		return nil, err
	}
	return claims, nil
}

// isUniqueViolation reports whether err is a unique constraint violation.
// Matches both the pq/pgx message and SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "23505")
}

// Ensure GormClaimRepository implements ClaimRepository
var _ fulfillment.ClaimRepository = (*GormClaimRepository)(nil)

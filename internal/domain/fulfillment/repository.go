package fulfillment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/shared"
)

// OrderRepository defines persistence for orders and their lines.
//
// Claim and Release are conditional single-row primitives in the style of the
// ledger repository: the status check and the transition happen in one
// UPDATE, so two workers racing for the same order see exactly one winner.
type OrderRepository interface {
	// Create persists a new order with its lines
	Create(ctx context.Context, order *Order) error

	// FindByID finds an order with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByOrderNumber finds an order by its business number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)

	// Save updates an order guarded by its version; a stale version
	// surfaces as shared.ErrConcurrentModification
	Save(ctx context.Context, order *Order) error

	// SaveLine updates a single order line
	SaveLine(ctx context.Context, line *OrderLine) error

	// FindNextQueued returns the queued order offered next: priority
	// rush > high > normal, then FIFO by creation time. Returns
	// shared.ErrNotFound when the queue is empty.
	FindNextQueued(ctx context.Context) (*Order, error)

	// FindByStatus lists orders in a status with pagination
	FindByStatus(ctx context.Context, status OrderStatus, filter shared.Filter) ([]Order, error)

	// FindExceptions lists orders flagged for exception review
	FindExceptions(ctx context.Context, filter shared.Filter) ([]Order, error)

	// CountByStatus counts orders in a status
	CountByStatus(ctx context.Context, status OrderStatus) (int64, error)

	// Claim atomically moves a queued order to claimed for workerID,
	// conditioned on the order still being queued. A lost race surfaces as
	// shared.ErrAlreadyClaimed.
	Claim(ctx context.Context, orderID, workerID uuid.UUID, claimedAt time.Time) error

	// Release atomically returns a claimed order to queued, conditioned on
	// it being claimed and untouched. The zero-progress guard is checked by
	// the caller against the aggregate before invoking this.
	Release(ctx context.Context, orderID uuid.UUID) error
}

// ClaimRepository defines persistence for claim rows
type ClaimRepository interface {
	// Create persists a claim; a second active claim for the same order
	// violates the unique index and surfaces as shared.ErrAlreadyClaimed
	Create(ctx context.Context, claim *Claim) error

	// FindByOrderID finds the active claim for an order
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*Claim, error)

	// DeleteByOrderID removes the active claim for an order
	DeleteByOrderID(ctx context.Context, orderID uuid.UUID) error

	// FindExpired lists claims whose lease lapsed before now
	FindExpired(ctx context.Context, now time.Time) ([]Claim, error)
}

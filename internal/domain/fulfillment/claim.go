package fulfillment

import (
	"time"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/shared"
)

// Claim grants one worker exclusive working rights over one order. At most
// one active claim exists per order (unique index); the row is created in the
// same transaction that flips the order to claimed and removed on release or
// completion.
type Claim struct {
	shared.BaseEntity
	OrderID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	WorkerID  uuid.UUID `gorm:"type:uuid;not null;index"`
	ClaimedAt time.Time `gorm:"type:timestamptz;not null"`
	// LeaseExpiresAt bounds an untouched claim. The sweeper releases expired
	// claims only when the order shows zero progress; a claim with progress
	// stays sticky regardless of the lease.
	LeaseExpiresAt time.Time `gorm:"type:timestamptz;not null;index"`
}

// TableName returns the table name for GORM
func (Claim) TableName() string {
	return "order_claims"
}

// NewClaim creates a claim with the given lease duration
func NewClaim(orderID, workerID uuid.UUID, leaseDuration time.Duration) (*Claim, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if workerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WORKER", "Worker ID cannot be empty")
	}
	if leaseDuration <= 0 {
		return nil, shared.NewDomainError("INVALID_LEASE", "Lease duration must be positive")
	}

	now := time.Now()
	return &Claim{
		BaseEntity:     shared.NewBaseEntity(),
		OrderID:        orderID,
		WorkerID:       workerID,
		ClaimedAt:      now,
		LeaseExpiresAt: now.Add(leaseDuration),
	}, nil
}

// IsExpired reports whether the lease has lapsed
func (c *Claim) IsExpired(now time.Time) bool {
	return now.After(c.LeaseExpiresAt)
}

// HeldBy reports whether the claim belongs to the given worker
func (c *Claim) HeldBy(workerID uuid.UUID) bool {
	return c.WorkerID == workerID
}

package fulfillment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wms/backend/internal/domain/shared"
)

// LineStatus represents the pick state of a single order line
type LineStatus string

const (
	LineStatusPending    LineStatus = "pending"
	LineStatusInProgress LineStatus = "in_progress"
	LineStatusCompleted  LineStatus = "completed"
	LineStatusShort      LineStatus = "short"
)

// String returns the string representation of LineStatus
func (s LineStatus) String() string {
	return string(s)
}

// IsValid returns true if the line status is valid
func (s LineStatus) IsValid() bool {
	switch s {
	case LineStatusPending, LineStatusInProgress, LineStatusCompleted, LineStatusShort:
		return true
	}
	return false
}

// IsTerminal returns true once the line can no longer transition
func (s LineStatus) IsTerminal() bool {
	return s == LineStatusCompleted || s == LineStatusShort
}

// ShortReason classifies why a line could not be fully picked
type ShortReason string

const (
	ShortReasonNotFound  ShortReason = "not_found"
	ShortReasonDamaged   ShortReason = "damaged"
	ShortReasonWrongItem ShortReason = "wrong_item"
	ShortReasonPartial   ShortReason = "partial"
)

// String returns the string representation of ShortReason
func (r ShortReason) String() string {
	return string(r)
}

// IsValid returns true if the short reason is valid
func (r ShortReason) IsValid() bool {
	switch r {
	case ShortReasonNotFound, ShortReasonDamaged, ShortReasonWrongItem, ShortReasonPartial:
		return true
	}
	return false
}

// OrderLine is one stocked item requirement within an order. The allocator
// fills AllocatedQuantity and the primary bin; the pick state machine drives
// Status from pending through to completed or short.
type OrderLine struct {
	shared.BaseEntity
	OrderID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNumber        int             `gorm:"not null"`
	ItemID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	RequiredQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AllocatedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PickedQuantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status            LineStatus      `gorm:"type:varchar(20);not null;default:'pending';index"`
	ShortReason       *ShortReason    `gorm:"type:varchar(20)"`
	// BinID is the primary allocated bin (first bin the allocator reserved
	// from); a split allocation's remaining bins are recoverable from the
	// transaction log by reference line.
	BinID          *uuid.UUID `gorm:"type:uuid"`
	NeedsAttention bool       `gorm:"not null;default:false"` // partial allocation flag
}

// TableName returns the table name for GORM
func (OrderLine) TableName() string {
	return "order_lines"
}

// NewOrderLine creates a pending line for an item requirement
func NewOrderLine(itemID uuid.UUID, requiredQty decimal.Decimal) (*OrderLine, error) {
	if itemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item ID cannot be empty")
	}
	if requiredQty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Required quantity must be positive")
	}

	return &OrderLine{
		BaseEntity:        shared.NewBaseEntity(),
		ItemID:            itemID,
		RequiredQuantity:  requiredQty,
		AllocatedQuantity: decimal.Zero,
		PickedQuantity:    decimal.Zero,
		Status:            LineStatusPending,
	}, nil
}

// RemainingQuantity returns what is still required
func (l *OrderLine) RemainingQuantity() decimal.Decimal {
	return l.RequiredQuantity.Sub(l.PickedQuantity)
}

// IsFullyAllocated reports whether reservations cover the requirement
func (l *OrderLine) IsFullyAllocated() bool {
	return l.AllocatedQuantity.GreaterThanOrEqual(l.RequiredQuantity)
}

// RecordAllocation accumulates a reservation made for this line. The first
// allocated bin becomes the line's primary bin on the pick path.
func (l *OrderLine) RecordAllocation(binID uuid.UUID, qty decimal.Decimal) error {
	if l.Status.IsTerminal() {
		return shared.ErrInvalidState
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Allocation quantity must be positive")
	}

	l.AllocatedQuantity = l.AllocatedQuantity.Add(qty)
	if l.BinID == nil {
		bin := binID
		l.BinID = &bin
	}
	l.UpdatedAt = time.Now()
	return nil
}

// FlagForAttention marks a partial allocation for manual follow-up
func (l *OrderLine) FlagForAttention() {
	l.NeedsAttention = true
	l.UpdatedAt = time.Now()
}

// ConfirmPick records qty picked against the line. The line moves to
// in_progress, or to completed once the requirement is met. A terminal line
// never transitions again.
func (l *OrderLine) ConfirmPick(qty decimal.Decimal) error {
	if l.Status.IsTerminal() {
		return shared.ErrInvalidState
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Pick quantity must be positive")
	}
	if qty.GreaterThan(l.RemainingQuantity()) {
		return shared.NewDomainError("EXCESS_PICK", "Pick quantity exceeds remaining requirement")
	}

	l.PickedQuantity = l.PickedQuantity.Add(qty)
	if l.PickedQuantity.GreaterThanOrEqual(l.RequiredQuantity) {
		l.Status = LineStatusCompleted
		l.ShortReason = nil
	} else {
		l.Status = LineStatusInProgress
	}
	l.UpdatedAt = time.Now()
	return nil
}

// Short terminates the line with less than the required quantity picked.
// totalPicked is the final picked quantity (current picks plus whatever the
// worker confirms alongside the short); it must stay below the requirement
// and cannot undo picks already recorded.
func (l *OrderLine) Short(totalPicked decimal.Decimal, reason ShortReason) error {
	if l.Status.IsTerminal() {
		return shared.ErrInvalidState
	}
	if !reason.IsValid() {
		return shared.NewDomainError("INVALID_SHORT_REASON", "Invalid short reason")
	}
	if totalPicked.IsNegative() || totalPicked.LessThan(l.PickedQuantity) {
		return shared.NewDomainError("INVALID_QUANTITY", "Short pick cannot reduce the picked quantity")
	}
	if totalPicked.GreaterThanOrEqual(l.RequiredQuantity) {
		return shared.NewDomainError("INVALID_QUANTITY", "Short pick must leave the line under its requirement")
	}

	l.PickedQuantity = totalPicked
	l.Status = LineStatusShort
	l.ShortReason = &reason
	l.UpdatedAt = time.Now()
	return nil
}

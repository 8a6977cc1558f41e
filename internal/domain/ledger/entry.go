package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wms/backend/internal/domain/shared"
)

// LedgerEntry tracks physical stock for a (stocked item, storage bin) pair.
// It is the single source of truth for availability.
//
// Invariant: Reserved + Picked <= OnHand at all times, so
// Available = OnHand - Reserved - Picked is never negative.
//
// Entries are never deleted; a zero-quantity entry remains valid and keeps
// the audit trail continuous. Concurrent safety comes from single-row
// conditional updates in the repository, not from in-process locking - the
// methods here express the same preconditions for in-memory use and tests.
type LedgerEntry struct {
	shared.BaseAggregateRoot
	ItemID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_item_bin,priority:1"`
	BinID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_item_bin,priority:2"`
	OnHand   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Reserved decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Picked   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// NewLedgerEntry creates a zero-quantity ledger entry for an item-bin pair
func NewLedgerEntry(itemID, binID uuid.UUID) (*LedgerEntry, error) {
	if itemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item ID cannot be empty")
	}
	if binID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BIN", "Bin ID cannot be empty")
	}
	return &LedgerEntry{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ItemID:            itemID,
		BinID:             binID,
		OnHand:            decimal.Zero,
		Reserved:          decimal.Zero,
		Picked:            decimal.Zero,
	}, nil
}

// Available returns the quantity not yet committed to any order
func (e *LedgerEntry) Available() decimal.Decimal {
	return e.OnHand.Sub(e.Reserved).Sub(e.Picked)
}

// CanReserve returns true if the available quantity covers the request
func (e *LedgerEntry) CanReserve(qty decimal.Decimal) bool {
	return e.Available().GreaterThanOrEqual(qty)
}

// Reserve commits qty of available stock to an order. Fails with
// ErrInsufficientStock when availability no longer covers the request; the
// caller re-reads and retries against a different bin or a smaller quantity.
func (e *LedgerEntry) Reserve(qty decimal.Decimal, refType ReferenceType, refID string) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Reserve quantity must be positive")
	}
	if !e.CanReserve(qty) {
		return shared.ErrInsufficientStock
	}

	e.Reserved = e.Reserved.Add(qty)
	e.UpdatedAt = time.Now()
	e.IncrementVersion()

	e.AddDomainEvent(NewStockReservedEvent(e, qty, refType, refID))
	return nil
}

// Unreserve releases up to qty of reserved stock back to availability and
// returns the quantity actually released (min of qty and Reserved). Used when
// an order is cancelled or a reservation abandoned before any pick.
func (e *LedgerEntry) Unreserve(qty decimal.Decimal, refType ReferenceType, refID string) (decimal.Decimal, error) {
	if qty.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, shared.NewDomainError("INVALID_QUANTITY", "Unreserve quantity must be positive")
	}

	released := decimal.Min(qty, e.Reserved)
	if released.IsZero() {
		return decimal.Zero, nil
	}

	e.Reserved = e.Reserved.Sub(released)
	e.UpdatedAt = time.Now()
	e.IncrementVersion()

	e.AddDomainEvent(NewStockUnreservedEvent(e, released, refType, refID))
	return released, nil
}

// CommitPick moves qty from reserved to picked. Fails when the reservation
// no longer covers the request.
func (e *LedgerEntry) CommitPick(qty decimal.Decimal, refType ReferenceType, refID string) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Pick quantity must be positive")
	}
	if e.Reserved.LessThan(qty) {
		return shared.ErrInsufficientStock
	}

	e.Reserved = e.Reserved.Sub(qty)
	e.Picked = e.Picked.Add(qty)
	e.UpdatedAt = time.Now()
	e.IncrementVersion()

	e.AddDomainEvent(NewPickCommittedEvent(e, qty, refType, refID))
	return nil
}

// ShortReserve releases qty of reserved stock without picking it - the
// physical unit was not found or not usable. The stock becomes available for
// other orders; a later Adjust corrects OnHand if the shortage was real
// shrinkage rather than misplacement.
func (e *LedgerEntry) ShortReserve(qty decimal.Decimal, refType ReferenceType, refID string) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Short quantity must be positive")
	}
	if e.Reserved.LessThan(qty) {
		return shared.ErrInsufficientStock
	}

	e.Reserved = e.Reserved.Sub(qty)
	e.UpdatedAt = time.Now()
	e.IncrementVersion()

	e.AddDomainEvent(NewStockShortedEvent(e, qty, refType, refID))
	return nil
}

// Receive increases on-hand stock; called by inbound receiving workflows.
func (e *LedgerEntry) Receive(qty decimal.Decimal, refType ReferenceType, refID string) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Receive quantity must be positive")
	}

	e.OnHand = e.OnHand.Add(qty)
	e.UpdatedAt = time.Now()
	e.IncrementVersion()

	e.AddDomainEvent(NewStockReceivedEvent(e, qty, refType, refID))
	return nil
}

// Adjust applies a signed manual correction to on-hand stock. The resulting
// on-hand may not drop below what is already committed.
func (e *LedgerEntry) Adjust(delta decimal.Decimal, reason string, refType ReferenceType, refID string) error {
	if delta.IsZero() {
		return shared.NewDomainError("INVALID_QUANTITY", "Adjustment delta cannot be zero")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Adjustment reason is required")
	}

	newOnHand := e.OnHand.Add(delta)
	if newOnHand.LessThan(e.Reserved.Add(e.Picked)) {
		return shared.ErrInsufficientStock
	}

	e.OnHand = newOnHand
	e.UpdatedAt = time.Now()
	e.IncrementVersion()

	e.AddDomainEvent(NewStockAdjustedEvent(e, delta, reason, refType, refID))
	return nil
}

// InvariantHolds reports whether Reserved + Picked <= OnHand and no counter
// is negative.
func (e *LedgerEntry) InvariantHolds() bool {
	if e.OnHand.IsNegative() || e.Reserved.IsNegative() || e.Picked.IsNegative() {
		return false
	}
	return e.Reserved.Add(e.Picked).LessThanOrEqual(e.OnHand)
}

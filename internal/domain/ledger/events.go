package ledger

import (
	"github.com/shopspring/decimal"
	"github.com/wms/backend/internal/domain/shared"
)

// Event type constants for the ledger aggregate
const (
	EventTypeStockReserved   = "ledger.stock_reserved"
	EventTypeStockUnreserved = "ledger.stock_unreserved"
	EventTypePickCommitted   = "ledger.pick_committed"
	EventTypeStockShorted    = "ledger.stock_shorted"
	EventTypeStockReceived   = "ledger.stock_received"
	EventTypeStockAdjusted   = "ledger.stock_adjusted"
)

const aggregateTypeLedgerEntry = "LedgerEntry"

// StockMovementEvent carries the fields shared by all ledger events
type StockMovementEvent struct {
	shared.BaseDomainEvent
	ItemID        string          `json:"item_id"`
	BinID         string          `json:"bin_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   string          `json:"reference_id"`
	OnHand        decimal.Decimal `json:"on_hand"`
	Reserved      decimal.Decimal `json:"reserved"`
	Picked        decimal.Decimal `json:"picked"`
}

func newStockMovementEvent(eventType string, e *LedgerEntry, qty decimal.Decimal, refType ReferenceType, refID string) StockMovementEvent {
	return StockMovementEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, aggregateTypeLedgerEntry, e.ID),
		ItemID:          e.ItemID.String(),
		BinID:           e.BinID.String(),
		Quantity:        qty,
		ReferenceType:   refType.String(),
		ReferenceID:     refID,
		OnHand:          e.OnHand,
		Reserved:        e.Reserved,
		Picked:          e.Picked,
	}
}

// StockReservedEvent is emitted when available stock is committed to an order
type StockReservedEvent struct {
	StockMovementEvent
}

// NewStockReservedEvent creates a StockReservedEvent
func NewStockReservedEvent(e *LedgerEntry, qty decimal.Decimal, refType ReferenceType, refID string) *StockReservedEvent {
	return &StockReservedEvent{newStockMovementEvent(EventTypeStockReserved, e, qty, refType, refID)}
}

// StockUnreservedEvent is emitted when a reservation returns to availability
type StockUnreservedEvent struct {
	StockMovementEvent
}

// NewStockUnreservedEvent creates a StockUnreservedEvent
func NewStockUnreservedEvent(e *LedgerEntry, qty decimal.Decimal, refType ReferenceType, refID string) *StockUnreservedEvent {
	return &StockUnreservedEvent{newStockMovementEvent(EventTypeStockUnreserved, e, qty, refType, refID)}
}

// PickCommittedEvent is emitted when reserved stock becomes picked stock
type PickCommittedEvent struct {
	StockMovementEvent
}

// NewPickCommittedEvent creates a PickCommittedEvent
func NewPickCommittedEvent(e *LedgerEntry, qty decimal.Decimal, refType ReferenceType, refID string) *PickCommittedEvent {
	return &PickCommittedEvent{newStockMovementEvent(EventTypePickCommitted, e, qty, refType, refID)}
}

// StockShortedEvent is emitted when reserved stock is released unpicked
type StockShortedEvent struct {
	StockMovementEvent
}

// NewStockShortedEvent creates a StockShortedEvent
func NewStockShortedEvent(e *LedgerEntry, qty decimal.Decimal, refType ReferenceType, refID string) *StockShortedEvent {
	return &StockShortedEvent{newStockMovementEvent(EventTypeStockShorted, e, qty, refType, refID)}
}

// StockReceivedEvent is emitted when inbound stock arrives
type StockReceivedEvent struct {
	StockMovementEvent
}

// NewStockReceivedEvent creates a StockReceivedEvent
func NewStockReceivedEvent(e *LedgerEntry, qty decimal.Decimal, refType ReferenceType, refID string) *StockReceivedEvent {
	return &StockReceivedEvent{newStockMovementEvent(EventTypeStockReceived, e, qty, refType, refID)}
}

// StockAdjustedEvent is emitted when an operator corrects on-hand stock
type StockAdjustedEvent struct {
	StockMovementEvent
	Reason string `json:"reason"`
}

// NewStockAdjustedEvent creates a StockAdjustedEvent
func NewStockAdjustedEvent(e *LedgerEntry, delta decimal.Decimal, reason string, refType ReferenceType, refID string) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		StockMovementEvent: newStockMovementEvent(EventTypeStockAdjusted, e, delta, refType, refID),
		Reason:             reason,
	}
}

package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wms/backend/internal/domain/shared"
)

// TransactionType classifies a quantity mutation in the transaction log
type TransactionType string

const (
	// TransactionTypeReserve commits available stock to an order
	TransactionTypeReserve TransactionType = "RESERVE"
	// TransactionTypeUnreserve releases a reservation back to availability
	TransactionTypeUnreserve TransactionType = "UNRESERVE"
	// TransactionTypePick converts reserved stock into picked stock
	TransactionTypePick TransactionType = "PICK"
	// TransactionTypeShort releases reserved stock that could not be picked
	TransactionTypeShort TransactionType = "SHORT"
	// TransactionTypeReceive records inbound stock
	TransactionTypeReceive TransactionType = "RECEIVE"
	// TransactionTypeAdjust records a signed manual correction to on-hand
	TransactionTypeAdjust TransactionType = "ADJUST"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeReserve,
		TransactionTypeUnreserve,
		TransactionTypePick,
		TransactionTypeShort,
		TransactionTypeReceive,
		TransactionTypeAdjust:
		return true
	}
	return false
}

// ReferenceType identifies the kind of business event a transaction
// originated from
type ReferenceType string

const (
	// ReferenceTypeOrder points at a fulfillment order
	ReferenceTypeOrder ReferenceType = "ORDER"
	// ReferenceTypeReceipt points at an inbound receipt document
	ReferenceTypeReceipt ReferenceType = "RECEIPT"
	// ReferenceTypeManual marks an operator-initiated adjustment
	ReferenceTypeManual ReferenceType = "MANUAL"
)

// String returns the string representation of ReferenceType
func (r ReferenceType) String() string {
	return string(r)
}

// IsValid returns true if the reference type is valid
func (r ReferenceType) IsValid() bool {
	switch r {
	case ReferenceTypeOrder, ReferenceTypeReceipt, ReferenceTypeManual:
		return true
	}
	return false
}

// TransactionEntry is an immutable, append-only record of a single quantity
// mutation. Once created it is never updated or deleted - corrections are new
// entries. The log is the durability anchor: ledger quantities are
// reconstructible by replaying it (see Replayer), and the reference columns
// make retried operations detectable for idempotency.
type TransactionEntry struct {
	shared.BaseEntity
	ItemID          uuid.UUID       `gorm:"type:uuid;not null;index:idx_tx_item_bin,priority:1"`
	BinID           uuid.UUID       `gorm:"type:uuid;not null;index:idx_tx_item_bin,priority:2"`
	TransactionType TransactionType `gorm:"type:varchar(20);not null;index"`
	// Delta is signed: positive when the counter the type touches grows,
	// negative when it shrinks. See Replayer for the per-type semantics.
	Delta           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReferenceType   ReferenceType   `gorm:"type:varchar(20);not null;index:idx_tx_reference,priority:1"`
	ReferenceID     string          `gorm:"type:varchar(64);not null;index:idx_tx_reference,priority:2"`
	ReferenceLineID string          `gorm:"type:varchar(64);index:idx_tx_reference,priority:3"` // originating order line (optional)
	Note            string          `gorm:"type:varchar(255)"`
	WorkerID        *uuid.UUID      `gorm:"type:uuid"` // worker who caused the mutation (optional)
	TransactionDate time.Time       `gorm:"type:timestamptz;not null;index"`
}

// TableName returns the table name for GORM
func (TransactionEntry) TableName() string {
	return "ledger_transactions"
}

// NewTransactionEntry creates a new transaction log entry
func NewTransactionEntry(
	itemID, binID uuid.UUID,
	txType TransactionType,
	delta decimal.Decimal,
	refType ReferenceType,
	refID string,
) (*TransactionEntry, error) {
	if itemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item ID cannot be empty")
	}
	if binID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BIN", "Bin ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid transaction type")
	}
	if delta.IsZero() {
		return nil, shared.NewDomainError("INVALID_DELTA", "Delta cannot be zero")
	}
	if !refType.IsValid() {
		return nil, shared.NewDomainError("INVALID_REFERENCE_TYPE", "Invalid reference type")
	}
	if refID == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE_ID", "Reference ID cannot be empty")
	}

	return &TransactionEntry{
		BaseEntity:      shared.NewBaseEntity(),
		ItemID:          itemID,
		BinID:           binID,
		TransactionType: txType,
		Delta:           delta,
		ReferenceType:   refType,
		ReferenceID:     refID,
		TransactionDate: time.Now(),
	}, nil
}

// WithReferenceLine sets the originating order line for the entry
func (t *TransactionEntry) WithReferenceLine(lineID string) *TransactionEntry {
	t.ReferenceLineID = lineID
	return t
}

// WithNote sets the free-text note for the entry
func (t *TransactionEntry) WithNote(note string) *TransactionEntry {
	t.Note = note
	return t
}

// WithWorker sets the worker who caused the mutation
func (t *TransactionEntry) WithWorker(workerID uuid.UUID) *TransactionEntry {
	t.WorkerID = &workerID
	return t
}

// Magnitude returns the absolute quantity moved
func (t *TransactionEntry) Magnitude() decimal.Decimal {
	return t.Delta.Abs()
}

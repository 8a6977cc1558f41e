package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wms/backend/internal/domain/ledger"
)

// ReceiveStockRequest records inbound stock into a bin
type ReceiveStockRequest struct {
	ItemID      uuid.UUID       `json:"item_id" binding:"required"`
	BinID       uuid.UUID       `json:"bin_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	ReferenceID string          `json:"reference_id" binding:"required"` // inbound receipt document
	Note        string          `json:"note"`
	WorkerID    *uuid.UUID      `json:"worker_id"`
}

// AdjustStockRequest applies a signed manual correction to on-hand stock
type AdjustStockRequest struct {
	ItemID      uuid.UUID       `json:"item_id" binding:"required"`
	BinID       uuid.UUID       `json:"bin_id" binding:"required"`
	Delta       decimal.Decimal `json:"delta" binding:"required"`
	Reason      string          `json:"reason" binding:"required"`
	ReferenceID string          `json:"reference_id" binding:"required"` // cycle count or incident id
	Note        string          `json:"note"`
	WorkerID    *uuid.UUID      `json:"worker_id"`
}

// LedgerEntryResponse is the read model for one ledger entry
type LedgerEntryResponse struct {
	ItemID    uuid.UUID       `json:"item_id"`
	BinID     uuid.UUID       `json:"bin_id"`
	OnHand    decimal.Decimal `json:"on_hand"`
	Reserved  decimal.Decimal `json:"reserved"`
	Picked    decimal.Decimal `json:"picked"`
	Available decimal.Decimal `json:"available"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewLedgerEntryResponse converts a ledger entry to its response shape
func NewLedgerEntryResponse(e *ledger.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ItemID:    e.ItemID,
		BinID:     e.BinID,
		OnHand:    e.OnHand,
		Reserved:  e.Reserved,
		Picked:    e.Picked,
		Available: e.Available(),
		UpdatedAt: e.UpdatedAt,
	}
}

// AvailabilityResponse is one row of the per-bin availability listing,
// ordered by pick sequence
type AvailabilityResponse struct {
	BinID        uuid.UUID       `json:"bin_id"`
	BinCode      string          `json:"bin_code"`
	Zone         string          `json:"zone"`
	PickSequence int             `json:"pick_sequence"`
	OnHand       decimal.Decimal `json:"on_hand"`
	Reserved     decimal.Decimal `json:"reserved"`
	Picked       decimal.Decimal `json:"picked"`
	Available    decimal.Decimal `json:"available"`
}

// NewAvailabilityResponse converts the allocator read model to its response shape
func NewAvailabilityResponse(s *ledger.AvailableStock) AvailabilityResponse {
	return AvailabilityResponse{
		BinID:        s.BinID,
		BinCode:      s.BinCode,
		Zone:         s.Zone,
		PickSequence: s.PickSequence,
		OnHand:       s.OnHand,
		Reserved:     s.Reserved,
		Picked:       s.Picked,
		Available:    s.Available(),
	}
}

// TransactionResponse is the read model for one transaction log entry
type TransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	ItemID          uuid.UUID       `json:"item_id"`
	BinID           uuid.UUID       `json:"bin_id"`
	TransactionType string          `json:"transaction_type"`
	Delta           decimal.Decimal `json:"delta"`
	ReferenceType   string          `json:"reference_type"`
	ReferenceID     string          `json:"reference_id"`
	ReferenceLineID string          `json:"reference_line_id,omitempty"`
	Note            string          `json:"note,omitempty"`
	WorkerID        *uuid.UUID      `json:"worker_id,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
}

// NewTransactionResponse converts a transaction entry to its response shape
func NewTransactionResponse(tx *ledger.TransactionEntry) TransactionResponse {
	return TransactionResponse{
		ID:              tx.ID,
		ItemID:          tx.ItemID,
		BinID:           tx.BinID,
		TransactionType: tx.TransactionType.String(),
		Delta:           tx.Delta,
		ReferenceType:   tx.ReferenceType.String(),
		ReferenceID:     tx.ReferenceID,
		ReferenceLineID: tx.ReferenceLineID,
		Note:            tx.Note,
		WorkerID:        tx.WorkerID,
		TransactionDate: tx.TransactionDate,
	}
}

// DriftResponse reports one reconciliation divergence
type DriftResponse struct {
	ItemID             uuid.UUID       `json:"item_id"`
	BinID              uuid.UUID       `json:"bin_id"`
	StoredOnHand       decimal.Decimal `json:"stored_on_hand"`
	StoredReserved     decimal.Decimal `json:"stored_reserved"`
	StoredPicked       decimal.Decimal `json:"stored_picked"`
	RecomputedOnHand   decimal.Decimal `json:"recomputed_on_hand"`
	RecomputedReserved decimal.Decimal `json:"recomputed_reserved"`
	RecomputedPicked   decimal.Decimal `json:"recomputed_picked"`
	Repaired           bool            `json:"repaired"`
}

package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wms/backend/internal/domain/shared"
)

// AvailableStock is the allocator's read model: one ledger entry joined with
// its bin's pick-path position. Ordered ascending by PickSequence.
type AvailableStock struct {
	ItemID       uuid.UUID       `json:"item_id"`
	BinID        uuid.UUID       `json:"bin_id"`
	BinCode      string          `json:"bin_code"`
	Zone         string          `json:"zone"`
	PickSequence int             `json:"pick_sequence"`
	OnHand       decimal.Decimal `json:"on_hand"`
	Reserved     decimal.Decimal `json:"reserved"`
	Picked       decimal.Decimal `json:"picked"`
}

// Available returns the uncommitted quantity for this bin
func (a *AvailableStock) Available() decimal.Decimal {
	return a.OnHand.Sub(a.Reserved).Sub(a.Picked)
}

// EntryRepository defines persistence for ledger entries.
//
// The Reserve/Unreserve/CommitPick/ShortReserve/Receive/Adjust primitives are
// the only sanctioned mutations. Each is a single-row conditional update that
// re-checks its precondition at the instant of the write, so concurrent
// callers cannot jointly violate the ledger invariant. A failed precondition
// surfaces as shared.ErrInsufficientStock (quantity no longer covered) - a
// typed failure, not an exception - and the caller decides whether to retry
// against another bin.
type EntryRepository interface {
	// FindByItemAndBin finds the entry for an item-bin pair
	FindByItemAndBin(ctx context.Context, itemID, binID uuid.UUID) (*LedgerEntry, error)

	// FindByItem finds all entries for an item
	FindByItem(ctx context.Context, itemID uuid.UUID) ([]LedgerEntry, error)

	// FindAvailableByItem lists entries with available > 0 for an item,
	// joined with bin identity, ordered ascending by pick sequence
	FindAvailableByItem(ctx context.Context, itemID uuid.UUID) ([]AvailableStock, error)

	// FindAll lists entries with pagination (operator/audit surface)
	FindAll(ctx context.Context, filter shared.Filter) ([]LedgerEntry, error)

	// GetOrCreate returns the entry for an item-bin pair, creating a
	// zero-quantity row when none exists yet
	GetOrCreate(ctx context.Context, itemID, binID uuid.UUID) (*LedgerEntry, error)

	// Reserve increments reserved by qty, conditioned on
	// on_hand - reserved - picked >= qty at the instant of the write
	Reserve(ctx context.Context, itemID, binID uuid.UUID, qty decimal.Decimal) error

	// Unreserve decrements reserved by min(qty, reserved) and returns the
	// quantity actually released
	Unreserve(ctx context.Context, itemID, binID uuid.UUID, qty decimal.Decimal) (decimal.Decimal, error)

	// CommitPick moves qty from reserved to picked, conditioned on
	// reserved >= qty
	CommitPick(ctx context.Context, itemID, binID uuid.UUID, qty decimal.Decimal) error

	// ShortReserve decrements reserved by qty without picking, conditioned
	// on reserved >= qty
	ShortReserve(ctx context.Context, itemID, binID uuid.UUID, qty decimal.Decimal) error

	// Receive increments on_hand by qty
	Receive(ctx context.Context, itemID, binID uuid.UUID, qty decimal.Decimal) error

	// Adjust applies a signed delta to on_hand, conditioned on the result
	// still covering reserved + picked
	Adjust(ctx context.Context, itemID, binID uuid.UUID, delta decimal.Decimal) error

	// Restate overwrites all three counters with values recomputed from the
	// transaction log. Reserved for reconciliation; never part of the
	// operational write path.
	Restate(ctx context.Context, itemID, binID uuid.UUID, onHand, reserved, picked decimal.Decimal) error
}

// TransactionRepository defines persistence for the append-only transaction
// log. Entries are never updated or deleted.
type TransactionRepository interface {
	// Create appends a new transaction entry
	Create(ctx context.Context, tx *TransactionEntry) error

	// FindByID finds a transaction entry by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*TransactionEntry, error)

	// FindByReference finds entries by originating business event, used for
	// idempotency checks before re-running an operation
	FindByReference(ctx context.Context, refType ReferenceType, refID string) ([]TransactionEntry, error)

	// FindByReferenceLine narrows FindByReference to one order line
	FindByReferenceLine(ctx context.Context, refType ReferenceType, refID, lineID string) ([]TransactionEntry, error)

	// FindByItemAndBin lists entries for an item-bin pair with pagination
	FindByItemAndBin(ctx context.Context, itemID, binID uuid.UUID, filter shared.Filter) ([]TransactionEntry, error)

	// FindAllOrdered streams the full log ordered by transaction date, for
	// replay/reconciliation
	FindAllOrdered(ctx context.Context) ([]TransactionEntry, error)

	// FindAll lists entries with pagination (audit surface)
	FindAll(ctx context.Context, filter shared.Filter) ([]TransactionEntry, error)

	// Count counts entries matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

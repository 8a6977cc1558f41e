package allocation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wms/backend/internal/application/inventory"
	"github.com/wms/backend/internal/domain/fulfillment"
	"github.com/wms/backend/internal/domain/ledger"
	"github.com/wms/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// maxConflictRetries bounds how many consecutive losing conditional updates
// the allocator absorbs before giving up on a candidate list.
const maxConflictRetries = 3

// BinAllocation is one reservation the allocator made for a line
type BinAllocation struct {
	BinID    uuid.UUID       `json:"bin_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Result describes the outcome of one allocator invocation
type Result struct {
	Allocations []BinAllocation `json:"allocations"`
	Requested   decimal.Decimal `json:"requested"`
	Reserved    decimal.Decimal `json:"reserved"`
	Shortfall   decimal.Decimal `json:"shortfall"`
}

// FullyAllocated reports whether the requirement was covered
func (r *Result) FullyAllocated() bool {
	return r.Shortfall.IsZero()
}

// Allocator converts an order line's requirement into ledger reservations.
//
// Bin choice walks availability ascending by pick sequence: the first bin
// that covers the whole requirement wins (single-bin fulfillment, minimal
// pick travel); otherwise the requirement is split across bins in pick-path
// order. Each bin's reserve plus its log append is one transaction, and no
// transaction spans two bins - a partially applied multi-bin allocation is a
// valid, resumable state. Re-invocation against the same order line is
// idempotent: quantity already reserved for the line (per the transaction
// log) is subtracted from the requirement before any new reservation.
type Allocator struct {
	txScope inventory.TransactionScope
	logger  *zap.Logger
}

// NewAllocator creates a new Allocator
func NewAllocator(txScope inventory.TransactionScope, logger *zap.Logger) *Allocator {
	return &Allocator{
		txScope: txScope,
		logger:  logger,
	}
}

// AllocateLine reserves stock for one order line, best effort. It never
// blocks or waits; when total availability falls short the line is flagged
// for manual attention and the shortfall reported. The line's allocation
// bookkeeping is updated in memory and persisted by the final SaveLine.
func (a *Allocator) AllocateLine(ctx context.Context, orderID uuid.UUID, line *fulfillment.OrderLine) (*Result, error) {
	if line == nil {
		return nil, shared.NewDomainError("INVALID_LINE", "Order line is required")
	}

	result := &Result{
		Requested: line.RequiredQuantity,
		Reserved:  decimal.Zero,
		Shortfall: decimal.Zero,
	}

	remaining, err := a.remainingToReserve(ctx, orderID, line)
	if err != nil {
		return nil, err
	}
	if remaining.LessThanOrEqual(decimal.Zero) {
		result.Reserved = line.RequiredQuantity
		return result, nil
	}

	conflicts := 0
	for remaining.IsPositive() {
		candidates, err := a.candidates(ctx, line.ItemID)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			break
		}

		reserved, binID, err := a.reserveFromCandidates(ctx, orderID, line, candidates, remaining)
		if err != nil {
			if errors.Is(err, shared.ErrConcurrentModification) || errors.Is(err, shared.ErrInsufficientStock) {
				// every candidate lost its race; re-read availability a
				// bounded number of times before giving up
				conflicts++
				if conflicts > maxConflictRetries {
					break
				}
				continue
			}
			return nil, err
		}
		conflicts = 0

		if err := line.RecordAllocation(binID, reserved); err != nil {
			return nil, err
		}
		result.Allocations = append(result.Allocations, BinAllocation{BinID: binID, Quantity: reserved})
		result.Reserved = result.Reserved.Add(reserved)
		remaining = remaining.Sub(reserved)
	}

	result.Shortfall = remaining
	if remaining.IsPositive() {
		line.FlagForAttention()
		a.logger.Warn("Order line allocated partially",
			zap.String("order_id", orderID.String()),
			zap.String("line_id", line.ID.String()),
			zap.String("item_id", line.ItemID.String()),
			zap.String("shortfall", remaining.String()),
		)
	}

	return result, nil
}

// remainingToReserve subtracts quantity already reserved for this line from
// its requirement, making re-invocation after a partial prior success safe.
func (a *Allocator) remainingToReserve(ctx context.Context, orderID uuid.UUID, line *fulfillment.OrderLine) (decimal.Decimal, error) {
	remaining := line.RequiredQuantity

	err := a.txScope.Execute(ctx, func(repos inventory.TransactionalRepositories) error {
		prior, err := repos.TransactionLogRepo().FindByReferenceLine(
			ctx, ledger.ReferenceTypeOrder, orderID.String(), line.ID.String(),
		)
		if err != nil {
			return err
		}

		alreadyReserved := decimal.Zero
		for i := range prior {
			switch prior[i].TransactionType {
			case ledger.TransactionTypeReserve, ledger.TransactionTypeUnreserve:
				alreadyReserved = alreadyReserved.Add(prior[i].Delta)
			}
		}
		remaining = line.RequiredQuantity.Sub(alreadyReserved)
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return remaining, nil
}

// candidates lists bins with availability for the item, ascending by pick
// sequence. A point-in-time read; every reserve re-validates at write time.
func (a *Allocator) candidates(ctx context.Context, itemID uuid.UUID) ([]ledger.AvailableStock, error) {
	var stocks []ledger.AvailableStock
	err := a.txScope.Execute(ctx, func(repos inventory.TransactionalRepositories) error {
		var err error
		stocks, err = repos.LedgerRepo().FindAvailableByItem(ctx, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stocks, nil
}

// reserveFromCandidates tries candidates in order and returns the first
// successful reservation. The preferred candidate is the first bin covering
// the whole remaining quantity; failing that, the first bin with anything,
// taking the lesser of its availability and the requirement. A reserve that
// loses to a concurrent change moves on to the next candidate.
func (a *Allocator) reserveFromCandidates(
	ctx context.Context,
	orderID uuid.UUID,
	line *fulfillment.OrderLine,
	candidates []ledger.AvailableStock,
	remaining decimal.Decimal,
) (decimal.Decimal, uuid.UUID, error) {
	ordered := preferCovering(candidates, remaining)

	var lastErr error = shared.ErrInsufficientStock
	for i := range ordered {
		candidate := &ordered[i]
		qty := decimal.Min(candidate.Available(), remaining)
		if !qty.IsPositive() {
			continue
		}

		err := a.reserveOne(ctx, orderID, line, candidate.BinID, qty)
		if err == nil {
			return qty, candidate.BinID, nil
		}
		if errors.Is(err, shared.ErrInsufficientStock) || errors.Is(err, shared.ErrConcurrentModification) {
			lastErr = err
			continue
		}
		return decimal.Zero, uuid.Nil, err
	}
	return decimal.Zero, uuid.Nil, lastErr
}

// reserveOne commits one bin's reservation and its log entry atomically
func (a *Allocator) reserveOne(ctx context.Context, orderID uuid.UUID, line *fulfillment.OrderLine, binID uuid.UUID, qty decimal.Decimal) error {
	return a.txScope.Execute(ctx, func(repos inventory.TransactionalRepositories) error {
		if err := repos.LedgerRepo().Reserve(ctx, line.ItemID, binID, qty); err != nil {
			return err
		}

		tx, err := ledger.NewTransactionEntry(
			line.ItemID, binID,
			ledger.TransactionTypeReserve, qty,
			ledger.ReferenceTypeOrder, orderID.String(),
		)
		if err != nil {
			return err
		}
		tx.WithReferenceLine(line.ID.String())
		return repos.TransactionLogRepo().Create(ctx, tx)
	})
}

// preferCovering moves the first candidate able to cover the whole remaining
// quantity to the front, keeping pick-sequence order otherwise.
func preferCovering(candidates []ledger.AvailableStock, remaining decimal.Decimal) []ledger.AvailableStock {
	for i := range candidates {
		if candidates[i].Available().GreaterThanOrEqual(remaining) {
			if i == 0 {
				return candidates
			}
			ordered := make([]ledger.AvailableStock, 0, len(candidates))
			ordered = append(ordered, candidates[i])
			ordered = append(ordered, candidates[:i]...)
			ordered = append(ordered, candidates[i+1:]...)
			return ordered
		}
	}
	return candidates
}

package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wms/backend/internal/domain/ledger"
	"github.com/wms/backend/internal/domain/shared"
)

// LedgerService exposes the ledger boundary operations used by receiving
// workflows and operators: receive, adjust, availability and history reads.
// Reservation and pick mutations go through the allocator and pick service,
// not through here.
type LedgerService struct {
	txScope        TransactionScope
	entryRepo      ledger.EntryRepository
	txRepo         ledger.TransactionRepository
	eventPublisher shared.EventPublisher
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	txScope TransactionScope,
	entryRepo ledger.EntryRepository,
	txRepo ledger.TransactionRepository,
) *LedgerService {
	return &LedgerService{
		txScope:   txScope,
		entryRepo: entryRepo,
		txRepo:    txRepo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// ReceiveStock records inbound stock against a bin. The ledger increment and
// the receive log entry commit in one transaction.
func (s *LedgerService) ReceiveStock(ctx context.Context, req ReceiveStockRequest) (*LedgerEntryResponse, error) {
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Receive quantity must be positive")
	}

	var entry *ledger.LedgerEntry
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entry, err = repos.LedgerRepo().GetOrCreate(ctx, req.ItemID, req.BinID)
		if err != nil {
			return err
		}

		if err := repos.LedgerRepo().Receive(ctx, req.ItemID, req.BinID, req.Quantity); err != nil {
			return err
		}

		tx, err := ledger.NewTransactionEntry(
			req.ItemID, req.BinID,
			ledger.TransactionTypeReceive, req.Quantity,
			ledger.ReferenceTypeReceipt, req.ReferenceID,
		)
		if err != nil {
			return err
		}
		tx.WithNote(req.Note)
		if req.WorkerID != nil {
			tx.WithWorker(*req.WorkerID)
		}
		if err := repos.TransactionLogRepo().Create(ctx, tx); err != nil {
			return err
		}

		entry, err = repos.LedgerRepo().FindByItemAndBin(ctx, req.ItemID, req.BinID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishMovement(ctx, ledger.NewStockReceivedEvent(entry, req.Quantity, ledger.ReferenceTypeReceipt, req.ReferenceID))

	resp := NewLedgerEntryResponse(entry)
	return &resp, nil
}

// AdjustStock applies a signed manual correction. A negative delta that would
// drop on-hand below what is already committed fails with InsufficientStock.
func (s *LedgerService) AdjustStock(ctx context.Context, req AdjustStockRequest) (*LedgerEntryResponse, error) {
	if req.Delta.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Adjustment delta cannot be zero")
	}
	if req.Reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Adjustment reason is required")
	}

	var entry *ledger.LedgerEntry
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entry, err = repos.LedgerRepo().GetOrCreate(ctx, req.ItemID, req.BinID)
		if err != nil {
			return err
		}

		if err := repos.LedgerRepo().Adjust(ctx, req.ItemID, req.BinID, req.Delta); err != nil {
			return err
		}

		tx, err := ledger.NewTransactionEntry(
			req.ItemID, req.BinID,
			ledger.TransactionTypeAdjust, req.Delta,
			ledger.ReferenceTypeManual, req.ReferenceID,
		)
		if err != nil {
			return err
		}
		note := req.Reason
		if req.Note != "" {
			note = req.Reason + ": " + req.Note
		}
		tx.WithNote(note)
		if req.WorkerID != nil {
			tx.WithWorker(*req.WorkerID)
		}
		if err := repos.TransactionLogRepo().Create(ctx, tx); err != nil {
			return err
		}

		entry, err = repos.LedgerRepo().FindByItemAndBin(ctx, req.ItemID, req.BinID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishMovement(ctx, ledger.NewStockAdjustedEvent(entry, req.Delta, req.Reason, ledger.ReferenceTypeManual, req.ReferenceID))

	resp := NewLedgerEntryResponse(entry)
	return &resp, nil
}

// GetAvailability lists per-bin availability for an item ordered by pick
// sequence. The listing is a point-in-time read; writers re-validate at
// write time.
func (s *LedgerService) GetAvailability(ctx context.Context, itemID uuid.UUID) ([]AvailabilityResponse, error) {
	if itemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item ID cannot be empty")
	}

	stocks, err := s.entryRepo.FindAvailableByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	out := make([]AvailabilityResponse, 0, len(stocks))
	for i := range stocks {
		out = append(out, NewAvailabilityResponse(&stocks[i]))
	}
	return out, nil
}

// GetEntry returns one ledger entry
func (s *LedgerService) GetEntry(ctx context.Context, itemID, binID uuid.UUID) (*LedgerEntryResponse, error) {
	entry, err := s.entryRepo.FindByItemAndBin(ctx, itemID, binID)
	if err != nil {
		return nil, err
	}
	resp := NewLedgerEntryResponse(entry)
	return &resp, nil
}

// ListTransactions lists transaction log entries with pagination
func (s *LedgerService) ListTransactions(ctx context.Context, filter shared.Filter) (*shared.Paginated[TransactionResponse], error) {
	txs, err := s.txRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.txRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]TransactionResponse, 0, len(txs))
	for i := range txs {
		items = append(items, NewTransactionResponse(&txs[i]))
	}

	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

func (s *LedgerService) publishMovement(ctx context.Context, event shared.DomainEvent) {
	if s.eventPublisher == nil {
		return
	}
	// Publish errors are logged by the event bus, not propagated
	_ = s.eventPublisher.Publish(ctx, event)
}

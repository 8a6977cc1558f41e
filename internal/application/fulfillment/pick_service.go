package fulfillment

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appinventory "github.com/wms/backend/internal/application/inventory"
	"github.com/wms/backend/internal/domain/catalog"
	"github.com/wms/backend/internal/domain/fulfillment"
	"github.com/wms/backend/internal/domain/ledger"
	"github.com/wms/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PickService drives the pick execution state machine. Workers send intent
// (confirm with a scan or manual count, short with a reason) and the service
// converts reserved ledger quantity into picked quantity, or releases it,
// advancing the line and order state machines.
type PickService struct {
	txScope        appinventory.TransactionScope
	orderRepo      fulfillment.OrderRepository
	itemRepo       catalog.StockedItemRepository
	txLogRepo      ledger.TransactionRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewPickService creates a new PickService
func NewPickService(
	txScope appinventory.TransactionScope,
	orderRepo fulfillment.OrderRepository,
	itemRepo catalog.StockedItemRepository,
	txLogRepo ledger.TransactionRepository,
	logger *zap.Logger,
) *PickService {
	return &PickService{
		txScope:   txScope,
		orderRepo: orderRepo,
		itemRepo:  itemRepo,
		txLogRepo: txLogRepo,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PickService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// ExecutePick applies a worker's intent to one order line
func (s *PickService) ExecutePick(ctx context.Context, orderID, lineID uuid.UUID, req PickRequest) (*OrderResponse, error) {
	switch req.Action {
	case PickActionConfirm:
		return s.confirmPick(ctx, orderID, lineID, req)
	case PickActionShort:
		return s.shortPick(ctx, orderID, lineID, req)
	default:
		return nil, shared.NewDomainError("INVALID_ACTION", "Pick action must be confirm or short")
	}
}

// ReadyToShip records the external ready-to-ship confirmation on a terminal
// order
func (s *PickService) ReadyToShip(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.MarkReady(); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, order)
	resp := NewOrderResponse(order)
	return &resp, nil
}

// confirmPick converts reserved stock into picked stock for one line. A scan
// code, when present, must match the line item's SKU after normalization; a
// mismatch changes nothing and surfaces as a wrong-item scan for the client
// to signal.
func (s *PickService) confirmPick(ctx context.Context, orderID, lineID uuid.UUID, req PickRequest) (*OrderResponse, error) {
	order, line, err := s.loadWorkableLine(ctx, orderID, lineID, req.WorkerID)
	if err != nil {
		return nil, err
	}

	qty := req.Quantity
	if qty.IsZero() {
		// a bare scan confirms a single unit
		qty = decimal.NewFromInt(1)
	}
	if qty.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Pick quantity must be positive")
	}

	if req.ScannedCode != "" {
		item, err := s.itemRepo.FindByID(ctx, line.ItemID)
		if err != nil {
			return nil, err
		}
		if err := item.VerifyScan(req.ScannedCode); err != nil {
			// no state change on a wrong-item scan
			return nil, err
		}
	}

	// validate against the line before touching the ledger
	if qty.GreaterThan(line.RemainingQuantity()) {
		return nil, shared.NewDomainError("EXCESS_PICK", "Pick quantity exceeds remaining requirement")
	}

	if err := s.commitAgainstReservations(ctx, orderID, line, qty, req.WorkerID); err != nil {
		return nil, err
	}
	if err := line.ConfirmPick(qty); err != nil {
		return nil, err
	}

	return s.persistTransition(ctx, order, line)
}

// shortPick terminates a line below its requirement. req.Quantity is the
// final total picked quantity a (a < required): the delta beyond what was
// already picked is committed, and every remaining reservation held for the
// line is released back to availability.
func (s *PickService) shortPick(ctx context.Context, orderID, lineID uuid.UUID, req PickRequest) (*OrderResponse, error) {
	reason := fulfillment.ShortReason(req.ShortReason)
	if !reason.IsValid() {
		return nil, shared.NewDomainError("INVALID_SHORT_REASON", "Invalid short reason")
	}

	order, line, err := s.loadWorkableLine(ctx, orderID, lineID, req.WorkerID)
	if err != nil {
		return nil, err
	}

	totalPicked := req.Quantity
	additional := totalPicked.Sub(line.PickedQuantity)
	if additional.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Short pick cannot reduce the picked quantity")
	}
	if totalPicked.GreaterThanOrEqual(line.RequiredQuantity) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Short pick must leave the line under its requirement")
	}

	if additional.IsPositive() {
		if err := s.commitAgainstReservations(ctx, orderID, line, additional, req.WorkerID); err != nil {
			return nil, err
		}
	}
	if err := s.releaseRemainingReservations(ctx, orderID, line, reason, req.WorkerID); err != nil {
		return nil, err
	}
	if err := line.Short(totalPicked, reason); err != nil {
		return nil, err
	}

	s.logger.Info("Order line shorted",
		zap.String("order_id", orderID.String()),
		zap.String("line_id", line.ID.String()),
		zap.String("reason", reason.String()),
		zap.String("picked", totalPicked.String()),
		zap.String("required", line.RequiredQuantity.String()),
	)

	return s.persistTransition(ctx, order, line)
}

// loadWorkableLine loads the order and line and verifies the acting worker
// holds the claim
func (s *PickService) loadWorkableLine(ctx context.Context, orderID, lineID, workerID uuid.UUID) (*fulfillment.Order, *fulfillment.OrderLine, error) {
	if workerID == uuid.Nil {
		return nil, nil, shared.NewDomainError("INVALID_WORKER", "Worker ID cannot be empty")
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order.Status != fulfillment.OrderStatusClaimed && order.Status != fulfillment.OrderStatusInProgress {
		return nil, nil, shared.ErrInvalidState
	}
	if order.WorkerID == nil || *order.WorkerID != workerID {
		return nil, nil, shared.NewDomainError("NOT_CLAIM_HOLDER", "Order is claimed by another worker")
	}

	line := order.LineByID(lineID)
	if line == nil {
		return nil, nil, shared.ErrNotFound
	}
	return order, line, nil
}

// binReservation is one bin's outstanding reserved quantity for a line
type binReservation struct {
	binID       uuid.UUID
	outstanding decimal.Decimal
}

// outstandingReservations folds the line's transaction log entries into
// per-bin reserved-but-unpicked quantity, in the order the bins were first
// reserved (pick-path order).
func (s *PickService) outstandingReservations(ctx context.Context, orderID uuid.UUID, line *fulfillment.OrderLine) ([]binReservation, error) {
	entries, err := s.txLogRepo.FindByReferenceLine(ctx, ledger.ReferenceTypeOrder, orderID.String(), line.ID.String())
	if err != nil {
		return nil, err
	}

	index := make(map[uuid.UUID]int)
	out := make([]binReservation, 0, 2)
	for i := range entries {
		e := &entries[i]
		pos, ok := index[e.BinID]
		if !ok {
			pos = len(out)
			index[e.BinID] = pos
			out = append(out, binReservation{binID: e.BinID, outstanding: decimal.Zero})
		}

		switch e.TransactionType {
		case ledger.TransactionTypeReserve, ledger.TransactionTypeUnreserve, ledger.TransactionTypeShort:
			out[pos].outstanding = out[pos].outstanding.Add(e.Delta)
		case ledger.TransactionTypePick:
			out[pos].outstanding = out[pos].outstanding.Sub(e.Delta)
		}
	}
	return out, nil
}

// commitAgainstReservations walks the line's reserved bins in pick-path
// order, moving qty from reserved to picked. Each bin's commit and its log
// append are one transaction; no transaction spans two bins.
func (s *PickService) commitAgainstReservations(ctx context.Context, orderID uuid.UUID, line *fulfillment.OrderLine, qty decimal.Decimal, workerID uuid.UUID) error {
	reservations, err := s.outstandingReservations(ctx, orderID, line)
	if err != nil {
		return err
	}

	// the reservations must cover the whole pick before the first commit;
	// failing between bins would leave the ledger ahead of the line
	covered := decimal.Zero
	for i := range reservations {
		if reservations[i].outstanding.IsPositive() {
			covered = covered.Add(reservations[i].outstanding)
		}
	}
	if covered.LessThan(qty) {
		return shared.ErrInsufficientStock
	}

	remaining := qty
	for i := range reservations {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(reservations[i].outstanding, remaining)
		if !take.IsPositive() {
			continue
		}

		binID := reservations[i].binID
		err := s.txScope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
			if err := repos.LedgerRepo().CommitPick(ctx, line.ItemID, binID, take); err != nil {
				return err
			}
			tx, err := ledger.NewTransactionEntry(
				line.ItemID, binID,
				ledger.TransactionTypePick, take,
				ledger.ReferenceTypeOrder, orderID.String(),
			)
			if err != nil {
				return err
			}
			tx.WithReferenceLine(line.ID.String()).WithWorker(workerID)
			return repos.TransactionLogRepo().Create(ctx, tx)
		})
		if err != nil {
			return err
		}
		remaining = remaining.Sub(take)
	}
	return nil
}

// releaseRemainingReservations shorts every reservation still held for the
// line, returning the stock to availability for other orders
func (s *PickService) releaseRemainingReservations(ctx context.Context, orderID uuid.UUID, line *fulfillment.OrderLine, reason fulfillment.ShortReason, workerID uuid.UUID) error {
	reservations, err := s.outstandingReservations(ctx, orderID, line)
	if err != nil {
		return err
	}

	for i := range reservations {
		release := reservations[i].outstanding
		if !release.IsPositive() {
			continue
		}

		binID := reservations[i].binID
		err := s.txScope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
			if err := repos.LedgerRepo().ShortReserve(ctx, line.ItemID, binID, release); err != nil {
				return err
			}
			tx, err := ledger.NewTransactionEntry(
				line.ItemID, binID,
				ledger.TransactionTypeShort, release.Neg(),
				ledger.ReferenceTypeOrder, orderID.String(),
			)
			if err != nil {
				return err
			}
			tx.WithReferenceLine(line.ID.String()).WithNote(reason.String()).WithWorker(workerID)
			return repos.TransactionLogRepo().Create(ctx, tx)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// persistTransition saves the line and order after a pick transition and
// removes the claim once the order reaches a terminal status
func (s *PickService) persistTransition(ctx context.Context, order *fulfillment.Order, line *fulfillment.OrderLine) (*OrderResponse, error) {
	if err := order.StartProgress(); err != nil {
		return nil, err
	}
	order.RefreshCompletion()

	err := s.txScope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		if err := repos.OrderRepo().SaveLine(ctx, line); err != nil {
			return err
		}
		if err := repos.OrderRepo().Save(ctx, order); err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return repos.ClaimRepo().DeleteByOrderID(ctx, order.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, order)
	resp := NewOrderResponse(order)
	return &resp, nil
}

func (s *PickService) publishDomainEvents(ctx context.Context, order *fulfillment.Order) {
	if s.eventPublisher == nil {
		return
	}
	events := order.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	order.ClearDomainEvents()
}

package fulfillment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/wms/backend/internal/application/allocation"
	"github.com/wms/backend/internal/domain/catalog"
	"github.com/wms/backend/internal/domain/fulfillment"
	"github.com/wms/backend/internal/domain/ledger"
	"github.com/wms/backend/internal/domain/shared"
)

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) Create(ctx context.Context, order *fulfillment.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.Order), args.Error(1)
}

func (m *mockOrderRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (*fulfillment.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.Order), args.Error(1)
}

func (m *mockOrderRepo) Save(ctx context.Context, order *fulfillment.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepo) SaveLine(ctx context.Context, line *fulfillment.OrderLine) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}

func (m *mockOrderRepo) FindNextQueued(ctx context.Context) (*fulfillment.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.Order), args.Error(1)
}

func (m *mockOrderRepo) FindByStatus(ctx context.Context, status fulfillment.OrderStatus, filter shared.Filter) ([]fulfillment.Order, error) {
	args := m.Called(ctx, status, filter)
	return args.Get(0).([]fulfillment.Order), args.Error(1)
}

func (m *mockOrderRepo) FindExceptions(ctx context.Context, filter shared.Filter) ([]fulfillment.Order, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]fulfillment.Order), args.Error(1)
}

func (m *mockOrderRepo) CountByStatus(ctx context.Context, status fulfillment.OrderStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockOrderRepo) Claim(ctx context.Context, orderID, workerID uuid.UUID, claimedAt time.Time) error {
	args := m.Called(ctx, orderID, workerID, claimedAt)
	return args.Error(0)
}

func (m *mockOrderRepo) Release(ctx context.Context, orderID uuid.UUID) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

type mockClaimRepo struct {
	mock.Mock
}

func (m *mockClaimRepo) Create(ctx context.Context, claim *fulfillment.Claim) error {
	args := m.Called(ctx, claim)
	return args.Error(0)
}

func (m *mockClaimRepo) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*fulfillment.Claim, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.Claim), args.Error(1)
}

func (m *mockClaimRepo) DeleteByOrderID(ctx context.Context, orderID uuid.UUID) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *mockClaimRepo) FindExpired(ctx context.Context, now time.Time) ([]fulfillment.Claim, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]fulfillment.Claim), args.Error(1)
}

type mockItemRepo struct {
	mock.Mock
}

func (m *mockItemRepo) FindByID(ctx context.Context, id uuid.UUID) (*catalog.StockedItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.StockedItem), args.Error(1)
}

func (m *mockItemRepo) FindBySKU(ctx context.Context, sku string) (*catalog.StockedItem, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.StockedItem), args.Error(1)
}

func (m *mockItemRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.StockedItem, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.StockedItem), args.Error(1)
}

func (m *mockItemRepo) Save(ctx context.Context, item *catalog.StockedItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

type mockEntryRepo struct {
	mock.Mock
}

func (m *mockEntryRepo) FindByItemAndBin(ctx context.Context, itemID, binID uuid.UUID) (*ledger.LedgerEntry, error) {
	args := m.Called(ctx, itemID, binID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.LedgerEntry), args.Error(1)
}

func (m *mockEntryRepo) FindByItem(ctx context.Context, itemID uuid.UUID) ([]ledger.LedgerEntry, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0).([]ledger.LedgerEntry), args.Error(1)
}

func (m *mockEntryRepo) FindAvailableByItem(ctx context.Context, itemID uuid.UUID) ([]ledger.AvailableStock, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0).([]ledger.AvailableStock), args.Error(1)
}

func (m *mockEntryRepo) FindAll(ctx context.Context, filter shared.Filter) ([]ledger.LedgerEntry, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]ledger.LedgerEntry), args.Error(1)
}

func (m *mockEntryRepo) GetOrCreate(ctx context.Context, itemID, binID uuid.UUID) (*ledger.LedgerEntry, error) {
	args := m.Called(ctx, itemID, binID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.LedgerEntry), args.Error(1)
}

func (m *mockEntryRepo) Reserve(ctx context.Context, itemID, binID uuid.UUID, qty decimal.Decimal) error {
	args := m.Called(ctx, itemID, binID, qty)
	return args.Error(0)
}

func (m *mockEntryRepo) Unreserve(ctx context.Context, itemID, binID uuid.UUID, qty decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, itemID, binID, qty)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockEntryRepo) CommitPick(ctx context.Context, itemID, binID uuid.UUID, qty decimal.Decimal) error {
	args := m.Called(ctx, itemID, binID, qty)
	return args.Error(0)
}

func (m *mockEntryRepo) ShortReserve(ctx context.Context, itemID, binID uuid.UUID, qty decimal.Decimal) error {
	args := m.Called(ctx, itemID, binID, qty)
	return args.Error(0)
}

func (m *mockEntryRepo) Receive(ctx context.Context, itemID, binID uuid.UUID, qty decimal.Decimal) error {
	args := m.Called(ctx, itemID, binID, qty)
	return args.Error(0)
}

func (m *mockEntryRepo) Adjust(ctx context.Context, itemID, binID uuid.UUID, delta decimal.Decimal) error {
	args := m.Called(ctx, itemID, binID, delta)
	return args.Error(0)
}

func (m *mockEntryRepo) Restate(ctx context.Context, itemID, binID uuid.UUID, onHand, reserved, picked decimal.Decimal) error {
	args := m.Called(ctx, itemID, binID, onHand, reserved, picked)
	return args.Error(0)
}

type mockTxLogRepo struct {
	mock.Mock
}

func (m *mockTxLogRepo) Create(ctx context.Context, tx *ledger.TransactionEntry) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *mockTxLogRepo) FindByID(ctx context.Context, id uuid.UUID) (*ledger.TransactionEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.TransactionEntry), args.Error(1)
}

func (m *mockTxLogRepo) FindByReference(ctx context.Context, refType ledger.ReferenceType, refID string) ([]ledger.TransactionEntry, error) {
	args := m.Called(ctx, refType, refID)
	return args.Get(0).([]ledger.TransactionEntry), args.Error(1)
}

func (m *mockTxLogRepo) FindByReferenceLine(ctx context.Context, refType ledger.ReferenceType, refID, lineID string) ([]ledger.TransactionEntry, error) {
	args := m.Called(ctx, refType, refID, lineID)
	return args.Get(0).([]ledger.TransactionEntry), args.Error(1)
}

func (m *mockTxLogRepo) FindByItemAndBin(ctx context.Context, itemID, binID uuid.UUID, filter shared.Filter) ([]ledger.TransactionEntry, error) {
	args := m.Called(ctx, itemID, binID, filter)
	return args.Get(0).([]ledger.TransactionEntry), args.Error(1)
}

func (m *mockTxLogRepo) FindAllOrdered(ctx context.Context) ([]ledger.TransactionEntry, error) {
	args := m.Called(ctx)
	return args.Get(0).([]ledger.TransactionEntry), args.Error(1)
}

func (m *mockTxLogRepo) FindAll(ctx context.Context, filter shared.Filter) ([]ledger.TransactionEntry, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]ledger.TransactionEntry), args.Error(1)
}

func (m *mockTxLogRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

type mockAllocator struct {
	mock.Mock
}

func (m *mockAllocator) AllocateLine(ctx context.Context, orderID uuid.UUID, line *fulfillment.OrderLine) (*allocation.Result, error) {
	args := m.Called(ctx, orderID, line)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*allocation.Result), args.Error(1)
}

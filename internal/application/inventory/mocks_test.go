package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/wms/backend/internal/domain/ledger"
	"github.com/wms/backend/internal/domain/shared"
)

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

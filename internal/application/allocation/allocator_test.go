package allocation

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	appinventory "github.com/wms/backend/internal/application/inventory"
	"github.com/wms/backend/internal/domain/fulfillment"
	"github.com/wms/backend/internal/domain/ledger"
	"github.com/wms/backend/internal/domain/shared"
	"go.uber.org/zap"
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

type mockTxRepo struct {
	mock.Mock
}

func (m *mockTxRepo) Create(ctx context.Context, tx *ledger.TransactionEntry) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *mockTxRepo) FindByID(ctx context.Context, id uuid.UUID) (*ledger.TransactionEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.TransactionEntry), args.Error(1)
}

func (m *mockTxRepo) FindByReference(ctx context.Context, refType ledger.ReferenceType, refID string) ([]ledger.TransactionEntry, error) {
	args := m.Called(ctx, refType, refID)
	return args.Get(0).([]ledger.TransactionEntry), args.Error(1)
}

func (m *mockTxRepo) FindByReferenceLine(ctx context.Context, refType ledger.ReferenceType, refID, lineID string) ([]ledger.TransactionEntry, error) {
	args := m.Called(ctx, refType, refID, lineID)
	return args.Get(0).([]ledger.TransactionEntry), args.Error(1)
}

func (m *mockTxRepo) FindByItemAndBin(ctx context.Context, itemID, binID uuid.UUID, filter shared.Filter) ([]ledger.TransactionEntry, error) {
	args := m.Called(ctx, itemID, binID, filter)
	return args.Get(0).([]ledger.TransactionEntry), args.Error(1)
}

func (m *mockTxRepo) FindAllOrdered(ctx context.Context) ([]ledger.TransactionEntry, error) {
	args := m.Called(ctx)
	return args.Get(0).([]ledger.TransactionEntry), args.Error(1)
}

func (m *mockTxRepo) FindAll(ctx context.Context, filter shared.Filter) ([]ledger.TransactionEntry, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]ledger.TransactionEntry), args.Error(1)
}

func (m *mockTxRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// contendedBinLedger is a single-bin ledger whose Reserve re-checks
// availability under a lock, the way the conditional UPDATE does.
type contendedBinLedger struct {
	ledger.EntryRepository

	mu       sync.Mutex
	itemID   uuid.UUID
	binID    uuid.UUID
	onHand   decimal.Decimal
	reserved decimal.Decimal
}

func (l *contendedBinLedger) FindAvailableByItem(ctx context.Context, itemID uuid.UUID) ([]ledger.AvailableStock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.onHand.Sub(l.reserved).IsPositive() {
		return []ledger.AvailableStock{}, nil
	}
	return []ledger.AvailableStock{{
		ItemID:       l.itemID,
		BinID:        l.binID,
		PickSequence: 10,
		OnHand:       l.onHand,
		Reserved:     l.reserved,
		Picked:       decimal.Zero,
	}}, nil
}

func (l *contendedBinLedger) Reserve(ctx context.Context, itemID, binID uuid.UUID, qty decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.onHand.Sub(l.reserved).LessThan(qty) {
		return shared.ErrInsufficientStock
	}
	l.reserved = l.reserved.Add(qty)
	return nil
}

// countingTxLog counts appended entries and reports no prior history
type countingTxLog struct {
	ledger.TransactionRepository

	mu      sync.Mutex
	created int
}

func (l *countingTxLog) Create(ctx context.Context, tx *ledger.TransactionEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.created++
	return nil
}

func (l *countingTxLog) FindByReferenceLine(ctx context.Context, refType ledger.ReferenceType, refID, lineID string) ([]ledger.TransactionEntry, error) {
	return nil, nil
}

func available(itemID, binID uuid.UUID, seq int, onHand, reserved int64) ledger.AvailableStock {
	return ledger.AvailableStock{
		ItemID:       itemID,
		BinID:        binID,
		PickSequence: seq,
		OnHand:       decimal.NewFromInt(onHand),
		Reserved:     decimal.NewFromInt(reserved),
		Picked:       decimal.Zero,
	}
}

func newTestAllocator(entryRepo *mockEntryRepo, txRepo *mockTxRepo) *Allocator {
	scope := appinventory.NewNoOpTransactionScope(entryRepo, txRepo, nil, nil)
	return NewAllocator(scope, zap.NewNop())
}

func newTestLine(t *testing.T, itemID uuid.UUID, qty int64) *fulfillment.OrderLine {
	t.Helper()
	line, err := fulfillment.NewOrderLine(itemID, decimal.NewFromInt(qty))
	require.NoError(t, err)
	return line
}

func TestAllocator_AllocateLine(t *testing.T) {
	ctx := context.Background()
	itemID := uuid.New()
	orderID := uuid.New()
	noPrior := []ledger.TransactionEntry{}

	t.Run("prefers the single bin covering the whole requirement", func(t *testing.T) {
		entryRepo := new(mockEntryRepo)
		txRepo := new(mockTxRepo)
		binSmall := uuid.New()
		binCovering := uuid.New()
		line := newTestLine(t, itemID, 5)

		txRepo.On("FindByReferenceLine", ctx, ledger.ReferenceTypeOrder, orderID.String(), line.ID.String()).Return(noPrior, nil)
		entryRepo.On("FindAvailableByItem", ctx, itemID).Return([]ledger.AvailableStock{
			available(itemID, binSmall, 10, 2, 0),
			available(itemID, binCovering, 20, 8, 0),
		}, nil).Once()
		entryRepo.On("Reserve", ctx, itemID, binCovering, decimal.NewFromInt(5)).Return(nil).Once()
		txRepo.On("Create", ctx, mock.AnythingOfType("*ledger.TransactionEntry")).Return(nil).Once()

		result, err := newTestAllocator(entryRepo, txRepo).AllocateLine(ctx, orderID, line)

		require.NoError(t, err)
		assert.True(t, result.FullyAllocated())
		require.Len(t, result.Allocations, 1)
		assert.Equal(t, binCovering, result.Allocations[0].BinID)
		require.NotNil(t, line.BinID)
		assert.Equal(t, binCovering, *line.BinID)
		assert.False(t, line.NeedsAttention)
		entryRepo.AssertExpectations(t)
		txRepo.AssertExpectations(t)
	})

	t.Run("splits across bins in pick-path order when no bin covers", func(t *testing.T) {
		entryRepo := new(mockEntryRepo)
		txRepo := new(mockTxRepo)
		binA := uuid.New()
		binB := uuid.New()
		line := newTestLine(t, itemID, 3)

		txRepo.On("FindByReferenceLine", ctx, ledger.ReferenceTypeOrder, orderID.String(), line.ID.String()).Return(noPrior, nil)
		entryRepo.On("FindAvailableByItem", ctx, itemID).Return([]ledger.AvailableStock{
			available(itemID, binA, 10, 2, 0),
			available(itemID, binB, 20, 2, 0),
		}, nil).Once()
		entryRepo.On("Reserve", ctx, itemID, binA, decimal.NewFromInt(2)).Return(nil).Once()
		entryRepo.On("FindAvailableByItem", ctx, itemID).Return([]ledger.AvailableStock{
			available(itemID, binB, 20, 2, 0),
		}, nil).Once()
		entryRepo.On("Reserve", ctx, itemID, binB, decimal.NewFromInt(1)).Return(nil).Once()
		txRepo.On("Create", ctx, mock.AnythingOfType("*ledger.TransactionEntry")).Return(nil).Twice()

		result, err := newTestAllocator(entryRepo, txRepo).AllocateLine(ctx, orderID, line)

		require.NoError(t, err)
		assert.True(t, result.FullyAllocated())
		require.Len(t, result.Allocations, 2)
		assert.Equal(t, binA, result.Allocations[0].BinID)
		assert.Equal(t, binB, result.Allocations[1].BinID)
		assert.Equal(t, binA, *line.BinID)
		assert.Equal(t, decimal.NewFromInt(3), line.AllocatedQuantity)
	})

	t.Run("flags the line when total availability falls short", func(t *testing.T) {
		entryRepo := new(mockEntryRepo)
		txRepo := new(mockTxRepo)
		binA := uuid.New()
		line := newTestLine(t, itemID, 5)

		txRepo.On("FindByReferenceLine", ctx, ledger.ReferenceTypeOrder, orderID.String(), line.ID.String()).Return(noPrior, nil)
		entryRepo.On("FindAvailableByItem", ctx, itemID).Return([]ledger.AvailableStock{
			available(itemID, binA, 10, 2, 0),
		}, nil).Once()
		entryRepo.On("Reserve", ctx, itemID, binA, decimal.NewFromInt(2)).Return(nil).Once()
		entryRepo.On("FindAvailableByItem", ctx, itemID).Return([]ledger.AvailableStock{}, nil).Once()
		txRepo.On("Create", ctx, mock.AnythingOfType("*ledger.TransactionEntry")).Return(nil).Once()

		result, err := newTestAllocator(entryRepo, txRepo).AllocateLine(ctx, orderID, line)

		require.NoError(t, err)
		assert.False(t, result.FullyAllocated())
		assert.Equal(t, decimal.NewFromInt(3), result.Shortfall)
		assert.True(t, line.NeedsAttention)
	})

	t.Run("retries the next candidate when a reserve loses its race", func(t *testing.T) {
		entryRepo := new(mockEntryRepo)
		txRepo := new(mockTxRepo)
		binA := uuid.New()
		binB := uuid.New()
		line := newTestLine(t, itemID, 2)

		txRepo.On("FindByReferenceLine", ctx, ledger.ReferenceTypeOrder, orderID.String(), line.ID.String()).Return(noPrior, nil)
		entryRepo.On("FindAvailableByItem", ctx, itemID).Return([]ledger.AvailableStock{
			available(itemID, binA, 10, 2, 0),
			available(itemID, binB, 20, 2, 0),
		}, nil).Once()
		// bin A lost to a concurrent reservation between read and write
		entryRepo.On("Reserve", ctx, itemID, binA, decimal.NewFromInt(2)).Return(shared.ErrInsufficientStock).Once()
		entryRepo.On("Reserve", ctx, itemID, binB, decimal.NewFromInt(2)).Return(nil).Once()
		txRepo.On("Create", ctx, mock.AnythingOfType("*ledger.TransactionEntry")).Return(nil).Once()

		result, err := newTestAllocator(entryRepo, txRepo).AllocateLine(ctx, orderID, line)

		require.NoError(t, err)
		assert.True(t, result.FullyAllocated())
		assert.Equal(t, binB, result.Allocations[0].BinID)
	})

	t.Run("gives up after bounded conflict retries", func(t *testing.T) {
		entryRepo := new(mockEntryRepo)
		txRepo := new(mockTxRepo)
		binA := uuid.New()
		line := newTestLine(t, itemID, 2)

		txRepo.On("FindByReferenceLine", ctx, ledger.ReferenceTypeOrder, orderID.String(), line.ID.String()).Return(noPrior, nil)
		entryRepo.On("FindAvailableByItem", ctx, itemID).Return([]ledger.AvailableStock{
			available(itemID, binA, 10, 2, 0),
		}, nil)
		entryRepo.On("Reserve", ctx, itemID, binA, decimal.NewFromInt(2)).Return(shared.ErrConcurrentModification)

		result, err := newTestAllocator(entryRepo, txRepo).AllocateLine(ctx, orderID, line)

		require.NoError(t, err)
		assert.False(t, result.FullyAllocated())
		assert.True(t, line.NeedsAttention)
		entryRepo.AssertNumberOfCalls(t, "Reserve", maxConflictRetries+1)
	})

	t.Run("re-invocation with a prior full reservation is a no-op", func(t *testing.T) {
		entryRepo := new(mockEntryRepo)
		txRepo := new(mockTxRepo)
		binA := uuid.New()
		line := newTestLine(t, itemID, 3)

		prior, err := ledger.NewTransactionEntry(itemID, binA, ledger.TransactionTypeReserve, decimal.NewFromInt(3), ledger.ReferenceTypeOrder, orderID.String())
		require.NoError(t, err)
		txRepo.On("FindByReferenceLine", ctx, ledger.ReferenceTypeOrder, orderID.String(), line.ID.String()).Return([]ledger.TransactionEntry{*prior}, nil)

		result, err := newTestAllocator(entryRepo, txRepo).AllocateLine(ctx, orderID, line)

		require.NoError(t, err)
		assert.True(t, result.FullyAllocated())
		assert.Empty(t, result.Allocations)
		entryRepo.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("simultaneous allocations never reserve beyond availability", func(t *testing.T) {
		// eight workers contend for five units in one bin; the write-time
		// availability check decides each race
		itemID := uuid.New()
		stock := &contendedBinLedger{
			itemID: itemID,
			binID:  uuid.New(),
			onHand: decimal.NewFromInt(5),
		}
		txLog := &countingTxLog{}
		allocator := NewAllocator(appinventory.NewNoOpTransactionScope(stock, txLog, nil, nil), zap.NewNop())

		const workers = 8
		lines := make([]*fulfillment.OrderLine, workers)
		for w := range lines {
			lines[w] = newTestLine(t, itemID, 1)
		}

		results := make([]*Result, workers)
		errs := make([]error, workers)
		var wg sync.WaitGroup
		wg.Add(workers)
		for w := 0; w < workers; w++ {
			go func(w int) {
				defer wg.Done()
				results[w], errs[w] = allocator.AllocateLine(ctx, orderID, lines[w])
			}(w)
		}
		wg.Wait()

		fully := 0
		for w := 0; w < workers; w++ {
			require.NoError(t, errs[w])
			if results[w].FullyAllocated() {
				fully++
			}
		}
		assert.Equal(t, 5, fully)
		assert.True(t, stock.reserved.Equal(decimal.NewFromInt(5)),
			"reserved %s beyond the 5 available", stock.reserved)
		assert.Equal(t, 5, txLog.created)
	})

	t.Run("re-invocation after a partial prior success reserves only the remainder", func(t *testing.T) {
		entryRepo := new(mockEntryRepo)
		txRepo := new(mockTxRepo)
		binA := uuid.New()
		binB := uuid.New()
		line := newTestLine(t, itemID, 5)

		prior, err := ledger.NewTransactionEntry(itemID, binA, ledger.TransactionTypeReserve, decimal.NewFromInt(3), ledger.ReferenceTypeOrder, orderID.String())
		require.NoError(t, err)
		txRepo.On("FindByReferenceLine", ctx, ledger.ReferenceTypeOrder, orderID.String(), line.ID.String()).Return([]ledger.TransactionEntry{*prior}, nil)
		entryRepo.On("FindAvailableByItem", ctx, itemID).Return([]ledger.AvailableStock{
			available(itemID, binB, 20, 4, 0),
		}, nil).Once()
		entryRepo.On("Reserve", ctx, itemID, binB, decimal.NewFromInt(2)).Return(nil).Once()
		txRepo.On("Create", ctx, mock.AnythingOfType("*ledger.TransactionEntry")).Return(nil).Once()

		result, err := newTestAllocator(entryRepo, txRepo).AllocateLine(ctx, orderID, line)

		require.NoError(t, err)
		assert.True(t, result.FullyAllocated())
		require.Len(t, result.Allocations, 1)
		assert.Equal(t, decimal.NewFromInt(2), result.Allocations[0].Quantity)
	})
}

package fulfillment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wms/backend/internal/domain/shared"
)

func testLines(t *testing.T, requiredQtys ...int64) []OrderLine {
	t.Helper()
	lines := make([]OrderLine, 0, len(requiredQtys))
	for _, qty := range requiredQtys {
		line, err := NewOrderLine(uuid.New(), decimal.NewFromInt(qty))
		require.NoError(t, err)
		lines = append(lines, *line)
	}
	return lines
}

func createTestOrder(t *testing.T, requiredQtys ...int64) *Order {
	t.Helper()
	if len(requiredQtys) == 0 {
		requiredQtys = []int64{3}
	}
	order, err := NewOrder("ORD-1001", PriorityNormal, testLines(t, requiredQtys...))
	require.NoError(t, err)
	order.ClearDomainEvents()
	return order
}

func TestNewOrder(t *testing.T) {
	t.Run("creates queued order and numbers its lines", func(t *testing.T) {
		order, err := NewOrder("ORD-1001", PriorityRush, testLines(t, 3, 5))

		require.NoError(t, err)
		assert.Equal(t, OrderStatusQueued, order.Status)
		assert.Equal(t, PriorityRush, order.Priority)
		require.Len(t, order.Lines, 2)
		assert.Equal(t, 1, order.Lines[0].LineNumber)
		assert.Equal(t, 2, order.Lines[1].LineNumber)
		assert.Equal(t, order.ID, order.Lines[0].OrderID)
		assert.Len(t, order.GetDomainEvents(), 1)
	})

	t.Run("fails with empty order number", func(t *testing.T) {
		order, err := NewOrder("", PriorityNormal, testLines(t, 1))

		require.Error(t, err)
		assert.Nil(t, order)
	})

	t.Run("fails with invalid priority", func(t *testing.T) {
		order, err := NewOrder("ORD-1001", Priority("urgent"), testLines(t, 1))

		require.Error(t, err)
		assert.Nil(t, order)
	})

	t.Run("fails without lines", func(t *testing.T) {
		order, err := NewOrder("ORD-1001", PriorityNormal, nil)

		require.Error(t, err)
		assert.Nil(t, order)
	})
}

func TestPriority_Rank(t *testing.T) {
	assert.Less(t, PriorityRush.Rank(), PriorityHigh.Rank())
	assert.Less(t, PriorityHigh.Rank(), PriorityNormal.Rank())
}

func TestOrder_Claim(t *testing.T) {
	workerID := uuid.New()

	t.Run("claims a queued order", func(t *testing.T) {
		order := createTestOrder(t)

		err := order.Claim(workerID)

		require.NoError(t, err)
		assert.Equal(t, OrderStatusClaimed, order.Status)
		require.NotNil(t, order.WorkerID)
		assert.Equal(t, workerID, *order.WorkerID)
		assert.NotNil(t, order.ClaimedAt)
	})

	t.Run("fails when already claimed", func(t *testing.T) {
		order := createTestOrder(t)
		require.NoError(t, order.Claim(workerID))

		err := order.Claim(uuid.New())

		assert.ErrorIs(t, err, shared.ErrAlreadyClaimed)
		assert.Equal(t, workerID, *order.WorkerID)
	})

	t.Run("fails on a terminal order", func(t *testing.T) {
		order := createTestOrder(t)
		order.Status = OrderStatusCompleted

		err := order.Claim(workerID)

		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("fails with nil worker", func(t *testing.T) {
		order := createTestOrder(t)

		err := order.Claim(uuid.Nil)

		require.Error(t, err)
		assert.Equal(t, OrderStatusQueued, order.Status)
	})
}

func TestOrder_Release(t *testing.T) {
	t.Run("releases an untouched claim back to the queue", func(t *testing.T) {
		order := createTestOrder(t)
		require.NoError(t, order.Claim(uuid.New()))

		err := order.Release()

		require.NoError(t, err)
		assert.Equal(t, OrderStatusQueued, order.Status)
		assert.Nil(t, order.WorkerID)
		assert.Nil(t, order.ClaimedAt)
	})

	t.Run("refuses release once a pick happened", func(t *testing.T) {
		order := createTestOrder(t, 3)
		require.NoError(t, order.Claim(uuid.New()))
		require.NoError(t, order.Lines[0].ConfirmPick(decimal.NewFromInt(1)))

		err := order.Release()

		assert.ErrorIs(t, err, shared.ErrReleaseRefused)
		assert.Equal(t, OrderStatusClaimed, order.Status)
		assert.NotNil(t, order.WorkerID)
	})

	t.Run("refuses release once a line is short", func(t *testing.T) {
		order := createTestOrder(t, 3)
		require.NoError(t, order.Claim(uuid.New()))
		require.NoError(t, order.Lines[0].Short(decimal.Zero, ShortReasonNotFound))

		err := order.Release()

		assert.ErrorIs(t, err, shared.ErrReleaseRefused)
	})

	t.Run("fails on an unclaimed order", func(t *testing.T) {
		order := createTestOrder(t)

		err := order.Release()

		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestOrder_StartProgress(t *testing.T) {
	order := createTestOrder(t)
	require.NoError(t, order.Claim(uuid.New()))

	require.NoError(t, order.StartProgress())
	assert.Equal(t, OrderStatusInProgress, order.Status)

	// idempotent once in progress
	require.NoError(t, order.StartProgress())
	assert.Equal(t, OrderStatusInProgress, order.Status)
}

func TestOrder_NextPendingLine(t *testing.T) {
	t.Run("starts at the first line", func(t *testing.T) {
		order := createTestOrder(t, 1, 2, 3)

		line := order.NextPendingLine(0)

		require.NotNil(t, line)
		assert.Equal(t, 1, line.LineNumber)
	})

	t.Run("advances past the current line", func(t *testing.T) {
		order := createTestOrder(t, 1, 2, 3)

		line := order.NextPendingLine(1)

		require.NotNil(t, line)
		assert.Equal(t, 2, line.LineNumber)
	})

	t.Run("wraps around over terminal lines", func(t *testing.T) {
		order := createTestOrder(t, 1, 2, 3)
		require.NoError(t, order.Lines[1].ConfirmPick(decimal.NewFromInt(2)))
		require.NoError(t, order.Lines[2].Short(decimal.Zero, ShortReasonDamaged))

		line := order.NextPendingLine(1)

		require.NotNil(t, line)
		assert.Equal(t, 1, line.LineNumber)
	})

	t.Run("returns nil when all lines are terminal", func(t *testing.T) {
		order := createTestOrder(t, 1)
		require.NoError(t, order.Lines[0].ConfirmPick(decimal.NewFromInt(1)))

		assert.Nil(t, order.NextPendingLine(1))
	})
}

func TestOrder_RefreshCompletion(t *testing.T) {
	t.Run("no-op while lines remain open", func(t *testing.T) {
		order := createTestOrder(t, 1, 2)
		require.NoError(t, order.Lines[0].ConfirmPick(decimal.NewFromInt(1)))

		order.RefreshCompletion()

		assert.Equal(t, OrderStatusQueued, order.Status)
		assert.Nil(t, order.CompletedAt)
	})

	t.Run("completes when all lines are fully picked", func(t *testing.T) {
		order := createTestOrder(t, 1, 2)
		require.NoError(t, order.Claim(uuid.New()))
		require.NoError(t, order.StartProgress())
		require.NoError(t, order.Lines[0].ConfirmPick(decimal.NewFromInt(1)))
		require.NoError(t, order.Lines[1].ConfirmPick(decimal.NewFromInt(2)))

		order.RefreshCompletion()

		assert.Equal(t, OrderStatusCompleted, order.Status)
		assert.NotNil(t, order.CompletedAt)
	})

	t.Run("flags exception when any line is short", func(t *testing.T) {
		order := createTestOrder(t, 1, 3)
		require.NoError(t, order.Claim(uuid.New()))
		require.NoError(t, order.StartProgress())
		require.NoError(t, order.Lines[0].ConfirmPick(decimal.NewFromInt(1)))
		require.NoError(t, order.Lines[1].Short(decimal.NewFromInt(1), ShortReasonPartial))

		order.RefreshCompletion()

		assert.Equal(t, OrderStatusException, order.Status)
	})

	t.Run("terminal status never transitions again", func(t *testing.T) {
		order := createTestOrder(t, 1)
		require.NoError(t, order.Claim(uuid.New()))
		require.NoError(t, order.Lines[0].ConfirmPick(decimal.NewFromInt(1)))
		order.RefreshCompletion()
		completedAt := order.CompletedAt

		order.RefreshCompletion()

		assert.Equal(t, OrderStatusCompleted, order.Status)
		assert.Equal(t, completedAt, order.CompletedAt)
	})
}

func TestOrder_MarkReady(t *testing.T) {
	t.Run("marks a completed order ready to ship", func(t *testing.T) {
		order := createTestOrder(t, 1)
		require.NoError(t, order.Claim(uuid.New()))
		require.NoError(t, order.Lines[0].ConfirmPick(decimal.NewFromInt(1)))
		order.RefreshCompletion()

		err := order.MarkReady()

		require.NoError(t, err)
		assert.NotNil(t, order.ReadyAt)
	})

	t.Run("an exception order still ships", func(t *testing.T) {
		order := createTestOrder(t, 2)
		require.NoError(t, order.Claim(uuid.New()))
		require.NoError(t, order.Lines[0].Short(decimal.NewFromInt(1), ShortReasonNotFound))
		order.RefreshCompletion()

		err := order.MarkReady()

		require.NoError(t, err)
		assert.NotNil(t, order.ReadyAt)
	})

	t.Run("refused before the order is terminal", func(t *testing.T) {
		order := createTestOrder(t, 1)

		err := order.MarkReady()

		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

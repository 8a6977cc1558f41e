package fulfillment

import (
	"context"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/application/allocation"
	"github.com/wms/backend/internal/domain/catalog"
	"github.com/wms/backend/internal/domain/fulfillment"
	"github.com/wms/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LineAllocator reserves stock for one order line. Implemented by the
// reservation allocator; an interface here keeps the queue service testable.
type LineAllocator interface {
	AllocateLine(ctx context.Context, orderID uuid.UUID, line *fulfillment.OrderLine) (*allocation.Result, error)
}

// QueueService handles order intake and queue offering: orders enter queued,
// stock is reserved per line, and workers are offered the highest-priority
// queued order.
type QueueService struct {
	orderRepo      fulfillment.OrderRepository
	itemRepo       catalog.StockedItemRepository
	allocator      LineAllocator
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewQueueService creates a new QueueService
func NewQueueService(
	orderRepo fulfillment.OrderRepository,
	itemRepo catalog.StockedItemRepository,
	allocator LineAllocator,
	logger *zap.Logger,
) *QueueService {
	return &QueueService{
		orderRepo: orderRepo,
		itemRepo:  itemRepo,
		allocator: allocator,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *QueueService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// EnqueueOrder creates a queued order from an order-source message and runs
// the allocator for every line. Allocation is best effort; a shortfall flags
// the line, never fails the intake.
func (s *QueueService) EnqueueOrder(ctx context.Context, req EnqueueOrderRequest) (*OrderResponse, error) {
	if existing, err := s.orderRepo.FindByOrderNumber(ctx, req.OrderNumber); err == nil && existing != nil {
		// order source redelivered the same order
		resp := NewOrderResponse(existing)
		return &resp, nil
	}

	priority := fulfillment.Priority(req.Priority)
	if req.Priority == "" {
		priority = fulfillment.PriorityNormal
	}
	if !priority.IsValid() {
		return nil, shared.NewDomainError("INVALID_PRIORITY", "Invalid order priority")
	}

	lines := make([]fulfillment.OrderLine, 0, len(req.Lines))
	for _, lineReq := range req.Lines {
		item, err := s.itemRepo.FindBySKU(ctx, lineReq.SKU)
		if err != nil {
			return nil, shared.NewDomainError("UNKNOWN_SKU", "No stocked item with SKU "+lineReq.SKU)
		}
		line, err := fulfillment.NewOrderLine(item.ID, lineReq.Quantity)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}

	order, err := fulfillment.NewOrder(req.OrderNumber, priority, lines)
	if err != nil {
		return nil, err
	}
	order.ExternalRef = req.ExternalRef

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	for i := range order.Lines {
		line := &order.Lines[i]
		if _, err := s.allocator.AllocateLine(ctx, order.ID, line); err != nil {
			// allocation is re-runnable; log and keep the order queued
			s.logger.Error("Line allocation failed",
				zap.String("order_id", order.ID.String()),
				zap.String("line_id", line.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if err := s.orderRepo.SaveLine(ctx, line); err != nil {
			return nil, err
		}
	}

	s.publishDomainEvents(ctx, order)

	s.logger.Info("Order enqueued",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("priority", order.Priority.String()),
		zap.Int("lines", len(order.Lines)),
	)

	resp := NewOrderResponse(order)
	return &resp, nil
}

// NextOrder returns the queued order offered next: rush before high before
// normal, FIFO within a priority. ErrNotFound when the queue is empty.
func (s *QueueService) NextOrder(ctx context.Context) (*OrderResponse, error) {
	order, err := s.orderRepo.FindNextQueued(ctx)
	if err != nil {
		return nil, err
	}
	resp := NewOrderResponse(order)
	return &resp, nil
}

// GetOrder returns the authoritative state of one order
func (s *QueueService) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := NewOrderResponse(order)
	return &resp, nil
}

// ListExceptions lists orders flagged for exception review
func (s *QueueService) ListExceptions(ctx context.Context, filter shared.Filter) (*shared.Paginated[OrderResponse], error) {
	orders, err := s.orderRepo.FindExceptions(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.orderRepo.CountByStatus(ctx, fulfillment.OrderStatusException)
	if err != nil {
		return nil, err
	}

	items := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, NewOrderResponse(&orders[i]))
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

func (s *QueueService) publishDomainEvents(ctx context.Context, order *fulfillment.Order) {
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

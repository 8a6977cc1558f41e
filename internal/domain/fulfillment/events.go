package fulfillment

import (
	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/shared"
)

// Event type constants for the fulfillment aggregate
const (
	EventTypeOrderQueued    = "fulfillment.order_queued"
	EventTypeOrderClaimed   = "fulfillment.order_claimed"
	EventTypeOrderReleased  = "fulfillment.order_released"
	EventTypeOrderCompleted = "fulfillment.order_completed"
	EventTypeOrderReady     = "fulfillment.order_ready"
	EventTypeLineShorted    = "fulfillment.line_shorted"
)

const aggregateTypeOrder = "Order"

// OrderQueuedEvent is emitted when an order enters the queue
type OrderQueuedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string `json:"order_number"`
	Priority    string `json:"priority"`
	LineCount   int    `json:"line_count"`
}

// NewOrderQueuedEvent creates an OrderQueuedEvent
func NewOrderQueuedEvent(o *Order) *OrderQueuedEvent {
	return &OrderQueuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderQueued, aggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		Priority:        o.Priority.String(),
		LineCount:       len(o.Lines),
	}
}

// OrderClaimedEvent is emitted when a worker wins the claim race
type OrderClaimedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string `json:"order_number"`
	WorkerID    string `json:"worker_id"`
}

// NewOrderClaimedEvent creates an OrderClaimedEvent
func NewOrderClaimedEvent(o *Order, workerID uuid.UUID) *OrderClaimedEvent {
	return &OrderClaimedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderClaimed, aggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		WorkerID:        workerID.String(),
	}
}

// OrderReleasedEvent is emitted when a claim is returned to the queue
type OrderReleasedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string `json:"order_number"`
	WorkerID    string `json:"worker_id,omitempty"`
}

// NewOrderReleasedEvent creates an OrderReleasedEvent
func NewOrderReleasedEvent(o *Order, workerID *uuid.UUID) *OrderReleasedEvent {
	event := &OrderReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderReleased, aggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
	}
	if workerID != nil {
		event.WorkerID = workerID.String()
	}
	return event
}

// OrderCompletedEvent is emitted when every line reaches a terminal state
type OrderCompletedEvent struct {
	shared.BaseDomainEvent
	OrderNumber     string `json:"order_number"`
	ExceptionReview bool   `json:"exception_review"`
}

// NewOrderCompletedEvent creates an OrderCompletedEvent
func NewOrderCompletedEvent(o *Order, exceptionReview bool) *OrderCompletedEvent {
	return &OrderCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCompleted, aggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		ExceptionReview: exceptionReview,
	}
}

// OrderReadyEvent is emitted on the ready-to-ship confirmation
type OrderReadyEvent struct {
	shared.BaseDomainEvent
	OrderNumber string `json:"order_number"`
}

// NewOrderReadyEvent creates an OrderReadyEvent
func NewOrderReadyEvent(o *Order) *OrderReadyEvent {
	return &OrderReadyEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderReady, aggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
	}
}

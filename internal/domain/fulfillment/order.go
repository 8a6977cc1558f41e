package fulfillment

import (
	"time"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/shared"
)

// OrderStatus represents the lifecycle status of an order
type OrderStatus string

const (
	// OrderStatusQueued means the order awaits a worker claim
	OrderStatusQueued OrderStatus = "queued"
	// OrderStatusClaimed means one worker holds exclusive rights
	OrderStatusClaimed OrderStatus = "claimed"
	// OrderStatusInProgress means picking has started
	OrderStatusInProgress OrderStatus = "in_progress"
	// OrderStatusCompleted means every line reached a terminal state fully picked
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusException means every line is terminal but at least one is
	// short; the order still ships partially and is surfaced for review
	OrderStatusException OrderStatus = "exception"
)

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid returns true if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusQueued, OrderStatusClaimed, OrderStatusInProgress,
		OrderStatusCompleted, OrderStatusException:
		return true
	}
	return false
}

// IsTerminal returns true once the order can no longer be worked
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusException
}

// Priority governs which order the queue offers next
type Priority string

const (
	PriorityRush   Priority = "rush"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
)

// String returns the string representation of Priority
func (p Priority) String() string {
	return string(p)
}

// IsValid returns true if the priority is valid
func (p Priority) IsValid() bool {
	switch p {
	case PriorityRush, PriorityHigh, PriorityNormal:
		return true
	}
	return false
}

// Rank returns the queue ordering key, lower is offered first
func (p Priority) Rank() int {
	switch p {
	case PriorityRush:
		return 0
	case PriorityHigh:
		return 1
	default:
		return 2
	}
}

// Order is a unit of fulfillment work entering the core from an external
// order source. The order itself is the authoritative state machine: clients
// send intent (claim, release, confirm, short) and re-render from the latest
// read, never from a local copy.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber string      `gorm:"type:varchar(64);not null;uniqueIndex"`
	ExternalRef string      `gorm:"type:varchar(128)"` // id at the order source
	Priority    Priority    `gorm:"type:varchar(10);not null;default:'normal';index"`
	Status      OrderStatus `gorm:"type:varchar(20);not null;default:'queued';index"`
	WorkerID    *uuid.UUID  `gorm:"type:uuid;index"` // current claimant
	ClaimedAt   *time.Time  `gorm:"type:timestamptz"`
	CompletedAt *time.Time  `gorm:"type:timestamptz"`
	ReadyAt     *time.Time  `gorm:"type:timestamptz"` // ready-to-ship confirmation
	Lines       []OrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates a queued order with its lines
func NewOrder(orderNumber string, priority Priority, lines []OrderLine) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if !priority.IsValid() {
		return nil, shared.NewDomainError("INVALID_PRIORITY", "Invalid order priority")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_ORDER", "Order must have at least one line")
	}

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		Priority:          priority,
		Status:            OrderStatusQueued,
		Lines:             lines,
	}
	for i := range order.Lines {
		order.Lines[i].OrderID = order.ID
		order.Lines[i].LineNumber = i + 1
	}

	order.AddDomainEvent(NewOrderQueuedEvent(order))
	return order, nil
}

// Claim grants workerID exclusive rights over the order. Fails with
// ErrAlreadyClaimed when another worker already holds it. The persistence
// layer enforces the same condition atomically; this method expresses it for
// in-memory use and keeps the aggregate consistent after a won race.
func (o *Order) Claim(workerID uuid.UUID) error {
	if workerID == uuid.Nil {
		return shared.NewDomainError("INVALID_WORKER", "Worker ID cannot be empty")
	}
	if o.Status != OrderStatusQueued {
		if o.Status == OrderStatusClaimed || o.Status == OrderStatusInProgress {
			return shared.ErrAlreadyClaimed
		}
		return shared.ErrInvalidState
	}

	now := time.Now()
	o.Status = OrderStatusClaimed
	o.WorkerID = &workerID
	o.ClaimedAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderClaimedEvent(o, workerID))
	return nil
}

// HasProgress reports whether any picking work has happened. A claim is
// sticky once progress exists.
func (o *Order) HasProgress() bool {
	for i := range o.Lines {
		line := &o.Lines[i]
		if line.PickedQuantity.IsPositive() || line.Status.IsTerminal() {
			return true
		}
	}
	return false
}

// Release returns a claimed order to the queue. Refused with
// ErrReleaseRefused when any line shows progress - releasing then would
// silently orphan partially picked reservations.
func (o *Order) Release() error {
	if o.Status != OrderStatusClaimed && o.Status != OrderStatusInProgress {
		return shared.ErrInvalidState
	}
	if o.HasProgress() {
		return shared.ErrReleaseRefused
	}

	releasedWorker := o.WorkerID
	o.Status = OrderStatusQueued
	o.WorkerID = nil
	o.ClaimedAt = nil
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderReleasedEvent(o, releasedWorker))
	return nil
}

// StartProgress marks the first pick action on a claimed order
func (o *Order) StartProgress() error {
	if o.Status == OrderStatusInProgress {
		return nil
	}
	if o.Status != OrderStatusClaimed {
		return shared.ErrInvalidState
	}

	o.Status = OrderStatusInProgress
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// LineByID finds a line by its ID
func (o *Order) LineByID(lineID uuid.UUID) *OrderLine {
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			return &o.Lines[i]
		}
	}
	return nil
}

// NextPendingLine returns the next non-terminal line after the given line
// number, wrapping around to the start of the list. Pass 0 to begin at the
// first line. Returns nil when every line is terminal.
func (o *Order) NextPendingLine(afterLineNumber int) *OrderLine {
	n := len(o.Lines)
	for offset := 0; offset < n; offset++ {
		idx := (afterLineNumber + offset) % n
		if !o.Lines[idx].Status.IsTerminal() {
			return &o.Lines[idx]
		}
	}
	return nil
}

// RefreshCompletion transitions the order to its terminal status once every
// line is terminal: exception when any line is short, completed otherwise.
// Safe to call after every line transition; a no-op while lines remain open.
func (o *Order) RefreshCompletion() {
	if o.Status.IsTerminal() || len(o.Lines) == 0 {
		return
	}

	anyShort := false
	for i := range o.Lines {
		if !o.Lines[i].Status.IsTerminal() {
			return
		}
		if o.Lines[i].Status == LineStatusShort {
			anyShort = true
		}
	}

	now := time.Now()
	if anyShort {
		o.Status = OrderStatusException
	} else {
		o.Status = OrderStatusCompleted
	}
	o.CompletedAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderCompletedEvent(o, anyShort))
}

// MarkReady records the ready-to-ship confirmation. Allowed only once the
// order is terminal; an exception order still ships partially.
func (o *Order) MarkReady() error {
	if !o.Status.IsTerminal() {
		return shared.ErrInvalidState
	}
	if o.ReadyAt != nil {
		return nil
	}

	now := time.Now()
	o.ReadyAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderReadyEvent(o))
	return nil
}

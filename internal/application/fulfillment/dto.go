package fulfillment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wms/backend/internal/domain/fulfillment"
)

// EnqueueOrderLineRequest is one item requirement of an incoming order
type EnqueueOrderLineRequest struct {
	SKU      string          `json:"sku" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

// EnqueueOrderRequest is an incoming order from the order source
type EnqueueOrderRequest struct {
	OrderNumber string                    `json:"order_number" binding:"required"`
	ExternalRef string                    `json:"external_ref"`
	Priority    string                    `json:"priority"`
	Lines       []EnqueueOrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ClaimRequest identifies the worker attempting to claim or release
type ClaimRequest struct {
	WorkerID uuid.UUID `json:"worker_id" binding:"required"`
}

// PickActionConfirm and PickActionShort are the two line transitions a
// worker can request
const (
	PickActionConfirm = "confirm"
	PickActionShort   = "short"
)

// PickRequest is a worker's intent against one order line
type PickRequest struct {
	Action      string          `json:"action" binding:"required,oneof=confirm short"`
	WorkerID    uuid.UUID       `json:"worker_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	ScannedCode string          `json:"scanned_code"`
	ShortReason string          `json:"short_reason"`
}

// OrderLineResponse is the read model for one order line
type OrderLineResponse struct {
	ID                uuid.UUID       `json:"id"`
	LineNumber        int             `json:"line_number"`
	ItemID            uuid.UUID       `json:"item_id"`
	RequiredQuantity  decimal.Decimal `json:"required_quantity"`
	AllocatedQuantity decimal.Decimal `json:"allocated_quantity"`
	PickedQuantity    decimal.Decimal `json:"picked_quantity"`
	Status            string          `json:"status"`
	ShortReason       string          `json:"short_reason,omitempty"`
	BinID             *uuid.UUID      `json:"bin_id,omitempty"`
	NeedsAttention    bool            `json:"needs_attention"`
}

// OrderResponse is the authoritative read model clients re-render from
type OrderResponse struct {
	ID          uuid.UUID           `json:"id"`
	OrderNumber string              `json:"order_number"`
	ExternalRef string              `json:"external_ref,omitempty"`
	Priority    string              `json:"priority"`
	Status      string              `json:"status"`
	WorkerID    *uuid.UUID          `json:"worker_id,omitempty"`
	ClaimedAt   *time.Time          `json:"claimed_at,omitempty"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	ReadyAt     *time.Time          `json:"ready_at,omitempty"`
	Lines       []OrderLineResponse `json:"lines"`
	// NextLineNumber points at the next non-terminal line on the pick path,
	// zero once all lines are terminal
	NextLineNumber int `json:"next_line_number"`
}

// NewOrderLineResponse converts an order line to its response shape
func NewOrderLineResponse(l *fulfillment.OrderLine) OrderLineResponse {
	resp := OrderLineResponse{
		ID:                l.ID,
		LineNumber:        l.LineNumber,
		ItemID:            l.ItemID,
		RequiredQuantity:  l.RequiredQuantity,
		AllocatedQuantity: l.AllocatedQuantity,
		PickedQuantity:    l.PickedQuantity,
		Status:            l.Status.String(),
		BinID:             l.BinID,
		NeedsAttention:    l.NeedsAttention,
	}
	if l.ShortReason != nil {
		resp.ShortReason = l.ShortReason.String()
	}
	return resp
}

// NewOrderResponse converts an order to its response shape
func NewOrderResponse(o *fulfillment.Order) OrderResponse {
	resp := OrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		ExternalRef: o.ExternalRef,
		Priority:    o.Priority.String(),
		Status:      o.Status.String(),
		WorkerID:    o.WorkerID,
		ClaimedAt:   o.ClaimedAt,
		CompletedAt: o.CompletedAt,
		ReadyAt:     o.ReadyAt,
		Lines:       make([]OrderLineResponse, 0, len(o.Lines)),
	}
	for i := range o.Lines {
		resp.Lines = append(resp.Lines, NewOrderLineResponse(&o.Lines[i]))
	}
	if next := o.NextPendingLine(0); next != nil {
		resp.NextLineNumber = next.LineNumber
	}
	return resp
}

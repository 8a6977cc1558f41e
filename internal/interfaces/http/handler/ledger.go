package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appinventory "github.com/wms/backend/internal/application/inventory"
	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/interfaces/http/dto"
)

// LedgerHandler exposes stock receipt, adjustment, availability, the
// transaction log, and reconciliation
type LedgerHandler struct {
	BaseHandler
	ledgerService    *appinventory.LedgerService
	reconcileService *appinventory.ReconcileService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *appinventory.LedgerService, reconcileService *appinventory.ReconcileService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService:    ledgerService,
		reconcileService: reconcileService,
	}
}

// RegisterRoutes registers inventory routes
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	inventory := rg.Group("/inventory")
	{
		inventory.POST("/receive", h.ReceiveStock)
		inventory.POST("/adjust", h.AdjustStock)
		inventory.GET("/items/:itemId/availability", h.GetAvailability)
		inventory.GET("/items/:itemId/bins/:binId", h.GetEntry)
		inventory.GET("/transactions", h.ListTransactions)
		inventory.POST("/reconcile", h.Reconcile)
	}
}

// ReceiveStock handles POST /inventory/receive
func (h *LedgerHandler) ReceiveStock(c *gin.Context) {
	var req appinventory.ReceiveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid receive request: "+err.Error())
		return
	}

	entry, err := h.ledgerService.ReceiveStock(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// AdjustStock handles POST /inventory/adjust
func (h *LedgerHandler) AdjustStock(c *gin.Context) {
	var req appinventory.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid adjustment request: "+err.Error())
		return
	}

	entry, err := h.ledgerService.AdjustStock(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// GetAvailability handles GET /inventory/items/:itemId/availability
func (h *LedgerHandler) GetAvailability(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID")
		return
	}

	availability, err := h.ledgerService.GetAvailability(c.Request.Context(), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, availability)
}

// GetEntry handles GET /inventory/items/:itemId/bins/:binId
func (h *LedgerHandler) GetEntry(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID")
		return
	}
	binID, err := uuid.Parse(c.Param("binId"))
	if err != nil {
		h.BadRequest(c, "Invalid bin ID")
		return
	}

	entry, err := h.ledgerService.GetEntry(c.Request.Context(), itemID, binID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// ListTransactions handles GET /inventory/transactions
func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	var listReq dto.ListRequest
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, "Invalid list parameters: "+err.Error())
		return
	}
	listReq = listReq.WithDefaults()

	filter := shared.Filter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		OrderBy:  listReq.OrderBy,
		OrderDir: listReq.OrderDir,
		Filters:  make(map[string]interface{}),
	}
	for _, key := range []string{"item_id", "bin_id", "transaction_type", "reference_type", "reference_id"} {
		if value := c.Query(key); value != "" {
			filter.Filters[key] = value
		}
	}

	page, err := h.ledgerService.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Reconcile handles POST /inventory/reconcile. With repair=true the stored
// entries are restated from the transaction log; without it the run only
// reports drifts.
func (h *LedgerHandler) Reconcile(c *gin.Context) {
	repair := c.Query("repair") == "true"

	report, err := h.reconcileService.Run(c.Request.Context(), repair)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

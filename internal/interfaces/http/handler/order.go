package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appfulfillment "github.com/wms/backend/internal/application/fulfillment"
	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/interfaces/http/dto"
)

// OrderHandler exposes the order lifecycle: intake, queue offering, claim and
// release, line picks, ready-to-ship, and the exception review listing
type OrderHandler struct {
	BaseHandler
	queueService *appfulfillment.QueueService
	claimService *appfulfillment.ClaimService
	pickService  *appfulfillment.PickService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(
	queueService *appfulfillment.QueueService,
	claimService *appfulfillment.ClaimService,
	pickService *appfulfillment.PickService,
) *OrderHandler {
	return &OrderHandler{
		queueService: queueService,
		claimService: claimService,
		pickService:  pickService,
	}
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("", h.EnqueueOrder)
		orders.GET("/next", h.NextOrder)
		orders.GET("/exceptions", h.ListExceptions)
		orders.GET("/:id", h.GetOrder)
		orders.POST("/:id/claim", h.ClaimOrder)
		orders.POST("/:id/release", h.ReleaseOrder)
		orders.POST("/:id/ready", h.ReadyToShip)
		orders.POST("/:id/lines/:lineId/pick", h.ExecutePick)
	}
}

// EnqueueOrder handles POST /orders
func (h *OrderHandler) EnqueueOrder(c *gin.Context) {
	var req appfulfillment.EnqueueOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid order request: "+err.Error())
		return
	}

	order, err := h.queueService.EnqueueOrder(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// NextOrder handles GET /orders/next. It offers the next queued order but
// does not claim it; the worker claims explicitly and may lose the race.
func (h *OrderHandler) NextOrder(c *gin.Context) {
	order, err := h.queueService.NextOrder(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	order, err := h.queueService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// ClaimOrder handles POST /orders/:id/claim
func (h *OrderHandler) ClaimOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	var req appfulfillment.ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid claim request: "+err.Error())
		return
	}

	order, err := h.claimService.ClaimOrder(c.Request.Context(), orderID, req.WorkerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// ReleaseOrder handles POST /orders/:id/release
func (h *OrderHandler) ReleaseOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	var req appfulfillment.ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid release request: "+err.Error())
		return
	}

	order, err := h.claimService.ReleaseOrder(c.Request.Context(), orderID, &req.WorkerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// ExecutePick handles POST /orders/:id/lines/:lineId/pick
func (h *OrderHandler) ExecutePick(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}
	lineID, err := uuid.Parse(c.Param("lineId"))
	if err != nil {
		h.BadRequest(c, "Invalid line ID")
		return
	}

	var req appfulfillment.PickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid pick request: "+err.Error())
		return
	}

	order, err := h.pickService.ExecutePick(c.Request.Context(), orderID, lineID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// ReadyToShip handles POST /orders/:id/ready
func (h *OrderHandler) ReadyToShip(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	order, err := h.pickService.ReadyToShip(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// ListExceptions handles GET /orders/exceptions
func (h *OrderHandler) ListExceptions(c *gin.Context) {
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
	}

	page, err := h.queueService.ListExceptions(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

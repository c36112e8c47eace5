package handlers

import (
	"errors"
	"net/http"

	"pos_manager/internal/models"
	"pos_manager/internal/repository"
	"pos_manager/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type POSHandler struct {
	orderService services.OrderService
}

func NewPOSHandler(orderService services.OrderService) *POSHandler {
	return &POSHandler{orderService: orderService}
}

func (h *POSHandler) ListTables(c *gin.Context) {
	restaurantID := c.Query("restaurant_id")
	if restaurantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "restaurant_id is required"})
		return
	}

	list, err := h.orderService.ListTables(restaurantID)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": list.Payload, "cached": list.Cached})
}

func (h *POSHandler) ListOrders(c *gin.Context) {
	restaurantID := c.Query("restaurant_id")
	if restaurantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "restaurant_id is required"})
		return
	}

	filter := repository.OrderFilter{
		Status:    c.Query("status"),
		OrderType: c.Query("order_type"),
	}
	list, err := h.orderService.ListOrders(restaurantID, filter)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list.Payload, "cached": list.Cached})
}

func (h *POSHandler) CreateOrder(c *gin.Context) {
	var input services.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result, err := h.orderService.CreateOrder(input)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": result.Order, "queued_offline": result.QueuedOffline})
}

func (h *POSHandler) OpenTable(c *gin.Context) {
	var input services.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result, err := h.orderService.OpenTable(c.Param("id"), input)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"order":            result.Order,
		"queued_offline":   result.QueuedOffline,
		"table_unverified": result.TableUnverified,
	})
}

func (h *POSHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Param("id"))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *POSHandler) AddItem(c *gin.Context) {
	var item services.LineItemInput
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	order, err := h.orderService.AddItem(c.Param("id"), item)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *POSHandler) SetItemQuantity(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	order, err := h.orderService.SetItemQuantity(c.Param("id"), c.Param("itemId"), req.Quantity)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *POSHandler) RemoveItem(c *gin.Context) {
	order, err := h.orderService.RemoveItem(c.Param("id"), c.Param("itemId"))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *POSHandler) ApplyDiscount(c *gin.Context) {
	var req struct {
		Discount float64 `json:"discount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	order, err := h.orderService.ApplyDiscount(c.Param("id"), req.Discount)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *POSHandler) Transition(c *gin.Context) {
	var req struct {
		Event string `json:"event" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	order, applied, err := h.orderService.Transition(c.Param("id"), models.OrderEvent(req.Event))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	// applied=false means the order was already terminal; the UI raced a
	// stale view, which is not an error.
	c.JSON(http.StatusOK, gin.H{"order": order, "applied": applied})
}

func (h *POSHandler) PreviewSplit(c *gin.Context) {
	var req services.SplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result, err := h.orderService.PreviewSplit(c.Param("id"), req)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"split": result})
}

func (h *POSHandler) ExecuteSplit(c *gin.Context) {
	var req services.SplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	order, err := h.orderService.ExecuteSplit(c.Param("id"), req)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *POSHandler) serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, services.ErrEmptyOrder),
		errors.Is(err, services.ErrInvalidSplitMode),
		errors.Is(err, services.ErrNoGuests),
		errors.Is(err, services.ErrItemNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrTableOccupied),
		errors.Is(err, models.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrOffline):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Offline and no cached data available"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

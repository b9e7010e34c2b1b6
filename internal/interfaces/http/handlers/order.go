// internal/interfaces/http/handlers/order.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService *order.Service
	config       *config.Config
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(svc *order.Service, cfg *config.Config) *OrderHandler {
	return &OrderHandler{
		orderService: svc,
		config:       cfg,
	}
}

// GetOrders handles GET /orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User identity required",
		})
		return
	}

	var req order.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	response, err := h.orderService.GetUserOrders(*userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    response,
	})
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order ID",
		})
		return
	}

	found, err := h.orderService.GetOrder(uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	if !h.ownsOrder(c, found) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Resource not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    found,
	})
}

// GetOrderByNumber handles GET /orders/number/:number
func (h *OrderHandler) GetOrderByNumber(c *gin.Context) {
	found, err := h.orderService.GetOrderByNumber(c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}

	if !h.ownsOrder(c, found) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Resource not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    found,
	})
}

// CancelOrder handles POST /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order ID",
		})
		return
	}

	found, err := h.orderService.GetOrder(uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	if !h.ownsOrder(c, found) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Resource not found",
		})
		return
	}

	if !found.CanBeCancelled() {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Order can no longer be cancelled",
		})
		return
	}

	if err := h.orderService.UpdateStatus(uint(id), order.StatusCancelled); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled successfully",
	})
}

// ownsOrder reports whether the request identity owns the order. Orders
// placed by a logged-in user match on user ID, guest orders match on
// session ID.
func (h *OrderHandler) ownsOrder(c *gin.Context, o *order.Order) bool {
	if userID, ok := middleware.GetUserIDFromContext(c); ok && o.UserID != nil {
		return *o.UserID == *userID
	}
	if sessionID := middleware.GetSessionIDFromContext(c); sessionID != "" {
		return o.SessionID == sessionID
	}
	return false
}

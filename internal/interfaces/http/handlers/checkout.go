// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
)

// CheckoutHandler handles checkout endpoints
type CheckoutHandler struct {
	coordinator *checkout.Coordinator
	config      *config.Config
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(coordinator *checkout.Coordinator, cfg *config.Config) *CheckoutHandler {
	return &CheckoutHandler{
		coordinator: coordinator,
		config:      cfg,
	}
}

// PlaceOrder handles POST /checkout
func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	var req checkout.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	placed, err := h.coordinator.PlaceOrder(c.Request.Context(), cartOwner(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"data":    placed,
	})
}

// GetState handles GET /checkout/state
func (h *CheckoutHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout state retrieved successfully",
		"data": gin.H{
			"state": h.coordinator.State(cartOwner(c)),
		},
	})
}

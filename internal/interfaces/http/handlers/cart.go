// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	store  *cart.Store
	config *config.Config
}

// NewCartHandler creates a new cart handler
func NewCartHandler(store *cart.Store, cfg *config.Config) *CartHandler {
	return &CartHandler{
		store:  store,
		config: cfg,
	}
}

// cartOwner resolves the cart owner from the request identity
func cartOwner(c *gin.Context) cart.Owner {
	userID, _ := middleware.GetUserIDFromContext(c)
	return cart.Owner{
		UserID:    userID,
		SessionID: middleware.GetSessionIDFromContext(c),
	}
}

type addLineRequest struct {
	ProductID  uint   `json:"product_id" binding:"required"`
	VariantIDs []uint `json:"variant_ids"`
	Quantity   int    `json:"quantity" binding:"required"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type updateVariantsRequest struct {
	VariantIDs []uint `json:"variant_ids"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	view, err := h.store.Load(c.Request.Context(), cartOwner(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    view,
	})
}

// AddLine handles POST /cart/lines
func (h *CartHandler) AddLine(c *gin.Context) {
	var req addLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	view, err := h.store.Add(c.Request.Context(), cartOwner(c), req.ProductID, req.VariantIDs, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"data":    view,
	})
}

// UpdateQuantity handles PUT /cart/lines/:id/quantity
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	lineID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid line ID",
		})
		return
	}

	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	view, err := h.store.UpdateQuantity(c.Request.Context(), cartOwner(c), uint(lineID), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart updated successfully",
		"data":    view,
	})
}

// UpdateVariants handles PUT /cart/lines/:id/variants
func (h *CartHandler) UpdateVariants(c *gin.Context) {
	lineID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid line ID",
		})
		return
	}

	var req updateVariantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	view, err := h.store.UpdateVariants(c.Request.Context(), cartOwner(c), uint(lineID), req.VariantIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart updated successfully",
		"data":    view,
	})
}

// RemoveLine handles DELETE /cart/lines/:id
func (h *CartHandler) RemoveLine(c *gin.Context) {
	lineID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid line ID",
		})
		return
	}

	view, err := h.store.Remove(c.Request.Context(), cartOwner(c), uint(lineID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"data":    view,
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.store.Clear(c.Request.Context(), cartOwner(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
	})
}

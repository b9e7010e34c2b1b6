// internal/interfaces/http/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
)

// respondError maps domain errors to HTTP responses
func respondError(c *gin.Context, err error) {
	var validationErr *checkout.ValidationError
	var outOfStockErr *checkout.OutOfStockError
	var insufficientErr *checkout.InsufficientStockError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
	case errors.As(err, &outOfStockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":      outOfStockErr.Error(),
			"product_id": outOfStockErr.ProductID,
		})
	case errors.As(err, &insufficientErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":      insufficientErr.Error(),
			"product_id": insufficientErr.ProductID,
			"available":  insufficientErr.Available,
		})
	case errors.Is(err, pricing.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
	case errors.Is(err, cart.ErrLineNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Cart line not found",
		})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Resource not found",
		})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Service temporarily unavailable, please retry",
		})
	}
}

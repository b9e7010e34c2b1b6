// internal/interfaces/http/handlers/promotion.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/promotion"
)

// PromotionHandler handles promotion endpoints
type PromotionHandler struct {
	promotionService *promotion.Service
	catalogService   *catalog.Service
	config           *config.Config
}

// NewPromotionHandler creates a new promotion handler
func NewPromotionHandler(svc *promotion.Service, catalogSvc *catalog.Service, cfg *config.Config) *PromotionHandler {
	return &PromotionHandler{
		promotionService: svc,
		catalogService:   catalogSvc,
		config:           cfg,
	}
}

// GetActivePromotions handles GET /promotions
func (h *PromotionHandler) GetActivePromotions(c *gin.Context) {
	promotions, err := h.promotionService.Active(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Promotions retrieved successfully",
		"data":    promotions,
	})
}

// GetProductPromotions handles GET /products/:id/promotions
func (h *PromotionHandler) GetProductPromotions(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product ID",
		})
		return
	}

	product, err := h.catalogService.GetProduct(uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	promotions, err := h.promotionService.ForProduct(c.Request.Context(), product.ID, product.CategoryID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Promotions retrieved successfully",
		"data":    promotions,
	})
}

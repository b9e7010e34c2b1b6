// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/promotion"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
)

// SetupRoutes wires the domain services once and registers all API
// routes. Cart state and checkout coordination are stateful, so their
// services must be shared across requests rather than rebuilt per
// handler.
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log *logrus.Logger) {
	catalogService := catalog.NewService(db, cfg)
	promotionService := promotion.NewService(db, cfg)
	orderService := order.NewService(db, cfg, log)

	userCarts := cart.NewGormRepository(db)
	sessionCarts := cart.NewSessionRepository(redisClient, db, cfg.Checkout.SessionCartTTL)
	store := cart.NewStore(userCarts, sessionCarts, catalogService, promotionService, log)

	coordinator := checkout.NewCoordinator(store, catalogService, orderService,
		cfg.Checkout.PickupLeadDays, cfg.Checkout.StockCheckTimeout, log)

	setupCatalogRoutes(rg, catalogService, cfg)
	setupPromotionRoutes(rg, promotionService, catalogService, cfg)
	setupCartRoutes(rg, store, cfg)
	setupCheckoutRoutes(rg, coordinator, cfg)
	setupOrderRoutes(rg, orderService, cfg)
}

// setupCatalogRoutes sets up product and category routes
func setupCatalogRoutes(rg *gin.RouterGroup, svc *catalog.Service, cfg *config.Config) {
	catalogHandler := handlers.NewCatalogHandler(svc, cfg)

	products := rg.Group("/products")
	{
		products.GET("", catalogHandler.GetProducts)
		products.GET("/:id", catalogHandler.GetProduct)
		products.GET("/:id/variants", catalogHandler.GetProductVariants)
	}

	rg.GET("/categories", catalogHandler.GetCategories)
}

// setupPromotionRoutes sets up promotion routes
func setupPromotionRoutes(rg *gin.RouterGroup, svc *promotion.Service, catalogSvc *catalog.Service, cfg *config.Config) {
	promotionHandler := handlers.NewPromotionHandler(svc, catalogSvc, cfg)

	rg.GET("/promotions", promotionHandler.GetActivePromotions)
	rg.GET("/products/:id/promotions", promotionHandler.GetProductPromotions)
}

// setupCartRoutes sets up cart routes
func setupCartRoutes(rg *gin.RouterGroup, store *cart.Store, cfg *config.Config) {
	cartHandler := handlers.NewCartHandler(store, cfg)

	carts := rg.Group("/cart")
	{
		carts.GET("", cartHandler.GetCart)
		carts.POST("/lines", cartHandler.AddLine)
		carts.PUT("/lines/:id/quantity", cartHandler.UpdateQuantity)
		carts.PUT("/lines/:id/variants", cartHandler.UpdateVariants)
		carts.DELETE("/lines/:id", cartHandler.RemoveLine)
		carts.DELETE("", cartHandler.ClearCart)
	}
}

// setupCheckoutRoutes sets up checkout routes
func setupCheckoutRoutes(rg *gin.RouterGroup, coordinator *checkout.Coordinator, cfg *config.Config) {
	checkoutHandler := handlers.NewCheckoutHandler(coordinator, cfg)

	co := rg.Group("/checkout")
	{
		co.POST("", checkoutHandler.PlaceOrder)
		co.GET("/state", checkoutHandler.GetState)
	}
}

// setupOrderRoutes sets up order routes
func setupOrderRoutes(rg *gin.RouterGroup, svc *order.Service, cfg *config.Config) {
	orderHandler := handlers.NewOrderHandler(svc, cfg)

	orders := rg.Group("/orders")
	{
		orders.GET("", orderHandler.GetOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.GET("/number/:number", orderHandler.GetOrderByNumber)
		orders.POST("/:id/cancel", orderHandler.CancelOrder)
	}
}

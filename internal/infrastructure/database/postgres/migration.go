// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"
	"time"

	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/promotion"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Define all models that need migration in dependency order
	models := []interface{}{
		// Catalog domain - Base tables
		&catalog.Category{},
		&catalog.Product{},
		&catalog.ProductImage{},
		&catalog.Variant{},

		// Promotion domain
		&promotion.Promotion{},

		// Cart domain
		&cart.CartLine{},

		// Order domain - Dependent tables
		&order.Order{},
		&order.OrderItem{},
	}

	// Run auto-migration for each model
	for _, model := range models {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_base_price ON products(base_price)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",

		// Category indexes
		"CREATE INDEX IF NOT EXISTS idx_categories_sort_order ON categories(sort_order)",

		// Product variant indexes
		"CREATE INDEX IF NOT EXISTS idx_product_variants_product_active ON product_variants(product_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_product_variants_type ON product_variants(product_id, type)",

		// Product image indexes
		"CREATE INDEX IF NOT EXISTS idx_product_images_product_primary ON product_images(product_id, is_primary)",
		"CREATE INDEX IF NOT EXISTS idx_product_images_sort_order ON product_images(product_id, sort_order)",

		// Promotion indexes
		"CREATE INDEX IF NOT EXISTS idx_promotions_window ON promotions(is_active, starts_at, ends_at)",
		"CREATE INDEX IF NOT EXISTS idx_promotions_product ON promotions(product_id)",
		"CREATE INDEX IF NOT EXISTS idx_promotions_category ON promotions(category_id)",

		// Cart indexes
		"CREATE INDEX IF NOT EXISTS idx_cart_lines_user_product ON cart_lines(user_id, product_id)",
		"CREATE INDEX IF NOT EXISTS idx_cart_lines_created_at ON cart_lines(created_at)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_order_number ON orders(order_number)",
		"CREATE INDEX IF NOT EXISTS idx_orders_pickup_date ON orders(pickup_date)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",

		// Order items indexes
		"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
			failCount++
		} else {
			successCount++
		}
	}

	log.Printf("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData inserts initial data into the database
func (m *Migration) SeedInitialData() error {
	log.Println("🌱 Seeding initial data...")

	if err := m.seedCategories(); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	if err := m.seedProducts(); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	if err := m.seedPromotions(); err != nil {
		return fmt.Errorf("failed to seed promotions: %w", err)
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}

// seedCategories creates default product categories
func (m *Migration) seedCategories() error {
	log.Println("🏷️ Seeding categories...")

	categories := []catalog.Category{
		{
			Name:        "Coffee",
			Slug:        "coffee",
			Description: "Beans, ground coffee, and cold brew",
			SortOrder:   1,
			IsActive:    true,
		},
		{
			Name:        "Pastries",
			Slug:        "pastries",
			Description: "Fresh baked goods for same-day pickup",
			SortOrder:   2,
			IsActive:    true,
		},
		{
			Name:        "Merchandise",
			Slug:        "merchandise",
			Description: "Mugs, tumblers, and branded goods",
			SortOrder:   3,
			IsActive:    true,
		},
	}

	for _, category := range categories {
		var existing catalog.Category
		result := m.db.Where("slug = ?", category.Slug).First(&existing)
		if result.Error == gorm.ErrRecordNotFound {
			if err := m.db.Create(&category).Error; err != nil {
				return err
			}
			log.Printf("Created category: %s", category.Name)
		}
	}

	return nil
}

// seedProducts creates sample products with variants for development
func (m *Migration) seedProducts() error {
	log.Println("📦 Seeding products...")

	var coffee catalog.Category
	if err := m.db.Where("slug = ?", "coffee").First(&coffee).Error; err != nil {
		return err
	}

	var count int64
	m.db.Model(&catalog.Product{}).Count(&count)
	if count > 0 {
		return nil
	}

	products := []catalog.Product{
		{
			SKU:         "COF-HOUSE-001",
			Name:        "House Blend",
			Description: "Medium roast, chocolate and hazelnut notes",
			BasePrice:   85000,
			CategoryID:  coffee.ID,
			IsActive:    true,
			Quantity:    40,
		},
		{
			SKU:         "COF-SINGLE-002",
			Name:        "Single Origin Gayo",
			Description: "Light roast from the Gayo highlands",
			BasePrice:   120000,
			CategoryID:  coffee.ID,
			IsActive:    true,
			Quantity:    15,
		},
	}

	for i := range products {
		if err := m.db.Create(&products[i]).Error; err != nil {
			return err
		}

		variants := []catalog.Variant{
			{ProductID: products[i].ID, Type: "size", Value: "250g", PriceAdjustment: 0, IsActive: true},
			{ProductID: products[i].ID, Type: "size", Value: "500g", PriceAdjustment: 60000, IsActive: true},
			{ProductID: products[i].ID, Type: "grind", Value: "whole bean", PriceAdjustment: 0, IsActive: true},
			{ProductID: products[i].ID, Type: "grind", Value: "espresso", PriceAdjustment: 5000, IsActive: true},
		}
		for _, v := range variants {
			if err := m.db.Create(&v).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

// seedPromotions creates a sample time-windowed promotion
func (m *Migration) seedPromotions() error {
	log.Println("🎟️ Seeding promotions...")

	var count int64
	m.db.Model(&promotion.Promotion{}).Count(&count)
	if count > 0 {
		return nil
	}

	var coffee catalog.Category
	if err := m.db.Where("slug = ?", "coffee").First(&coffee).Error; err != nil {
		return err
	}

	now := time.Now().UTC()
	promo := promotion.Promotion{
		Name:          "Coffee week",
		CategoryID:    &coffee.ID,
		DiscountType:  promotion.DiscountTypePercentage,
		DiscountValue: 10,
		StartsAt:      now.AddDate(0, 0, -1),
		EndsAt:        now.AddDate(0, 0, 6),
		IsActive:      true,
	}

	return m.db.Create(&promo).Error
}

// GetTableInfo logs row counts for the main tables, development only
func (m *Migration) GetTableInfo() {
	tables := []string{"categories", "products", "product_variants", "promotions", "cart_lines", "orders", "order_items"}

	for _, table := range tables {
		var count int64
		if err := m.db.Table(table).Count(&count).Error; err != nil {
			log.Printf("Table %s: error counting rows: %v", table, err)
			continue
		}
		log.Printf("Table %s: %d rows", table, count)
	}
}

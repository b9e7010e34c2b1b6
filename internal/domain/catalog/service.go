// internal/domain/catalog/service.go
package catalog

import (
	"context"
	"fmt"

	"github.com/your-org/storefront-backend/internal/config"
	"gorm.io/gorm"
)

// Service handles catalog read logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new catalog service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Page       int    `form:"page,default=1"`
	Limit      int    `form:"limit,default=20"`
	CategoryID uint   `form:"category_id"`
	Search     string `form:"search"`
	SortBy     string `form:"sort_by,default=created_at"`
	SortOrder  string `form:"sort_order,default=desc"`
}

// ProductListResponse represents product response with pagination
type ProductListResponse struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// GetProducts retrieves active products with filtering and pagination
func (s *Service) GetProducts(req *ProductListRequest) (*ProductListResponse, error) {
	var products []Product
	var total int64

	query := s.db.Model(&Product{}).
		Where("is_active = ?", true).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, sort_order ASC, id ASC")
		}).
		Preload("Variants", "is_active = ?", true)

	if req.CategoryID > 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}

	if req.Search != "" {
		query = query.Where("name ILIKE ? OR description ILIKE ?", "%"+req.Search+"%", "%"+req.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	query = query.Order(s.buildOrderClause(req.SortBy, req.SortOrder))

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	offset := (req.Page - 1) * req.Limit
	if err := query.Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ProductListResponse{
		Products: products,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// GetProduct retrieves a single product with images and active variants
func (s *Service) GetProduct(id uint) (*Product, error) {
	var product Product
	result := s.db.
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, sort_order ASC, id ASC")
		}).
		Preload("Variants", "is_active = ?", true).
		Where("id = ? AND is_active = ?", id, true).
		First(&product)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("product not found: %w", result.Error)
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}

	return &product, nil
}

// GetCategories retrieves active categories ordered for display
func (s *Service) GetCategories() ([]Category, error) {
	var categories []Category
	err := s.db.Where("is_active = ?", true).
		Order("sort_order ASC, name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}
	return categories, nil
}

// VariantsFor returns the active variants of a product grouped by type.
// Selection rules (one variant per distinct type) are enforced by the cart.
func (s *Service) VariantsFor(ctx context.Context, productID uint) (map[string][]Variant, error) {
	var variants []Variant
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND is_active = ?", productID, true).
		Order("type ASC, value ASC").
		Find(&variants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve variants: %w", err)
	}

	grouped := make(map[string][]Variant)
	for _, v := range variants {
		grouped[v.Type] = append(grouped[v.Type], v)
	}
	return grouped, nil
}

// GetVariants loads specific variants by id, verifying they belong to the
// product and are active.
func (s *Service) GetVariants(ctx context.Context, productID uint, variantIDs []uint) ([]Variant, error) {
	if len(variantIDs) == 0 {
		return nil, nil
	}

	var variants []Variant
	err := s.db.WithContext(ctx).
		Where("id IN ? AND product_id = ? AND is_active = ?", variantIDs, productID, true).
		Find(&variants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve variants: %w", err)
	}

	if len(variants) != len(variantIDs) {
		return nil, fmt.Errorf("one or more variants not found or inactive")
	}

	return variants, nil
}

// StockQuantity reads the current stock quantity for a product directly
// from the database. Used by checkout to revalidate stock at the moment
// of order placement rather than trusting a cart snapshot.
func (s *Service) StockQuantity(ctx context.Context, productID uint) (int, error) {
	var product Product
	err := s.db.WithContext(ctx).
		Select("id", "quantity").
		Where("id = ?", productID).
		First(&product).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, fmt.Errorf("product %d not found", productID)
		}
		return 0, fmt.Errorf("failed to read stock: %w", err)
	}
	return product.Quantity, nil
}

func (s *Service) buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"base_price": true,
		"name":       true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s", sortBy, sortOrder)
}

// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"gorm.io/gorm"
)

// Product represents the product entity
type Product struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	SKU               string         `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name              string         `gorm:"not null;size:255" json:"name"`
	Description       string         `gorm:"type:text" json:"description"`
	BasePrice         int64          `gorm:"not null" json:"base_price"` // Price in minor units
	CategoryID        uint           `gorm:"not null;index" json:"category_id"`
	IsActive          bool           `gorm:"default:true" json:"is_active"`
	Quantity          int            `gorm:"default:0;check:quantity >= 0" json:"quantity"`
	LowStockThreshold int            `gorm:"default:5" json:"low_stock_threshold"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Category Category       `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category"`
	Images   []ProductImage `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"images,omitempty"`
	Variants []Variant      `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"variants,omitempty"`
}

// Category represents product categories
type Category struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string         `gorm:"size:500" json:"description"`
	Image       string         `gorm:"size:500" json:"image"`
	SortOrder   int            `gorm:"default:0" json:"sort_order"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// ProductImage represents product images, ordered by SortOrder
type ProductImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	URL       string    `gorm:"not null;size:500" json:"url"`
	AltText   string    `gorm:"size:255" json:"alt_text"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	IsPrimary bool      `gorm:"default:false" json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Variant represents a selectable product option (size, color, etc.).
// PriceAdjustment is a signed amount added to the product's base price
// when the variant is selected.
type Variant struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	ProductID       uint           `gorm:"not null;index" json:"product_id"`
	Type            string         `gorm:"not null;size:100;index" json:"type"`
	Value           string         `gorm:"not null;size:255" json:"value"`
	PriceAdjustment int64          `gorm:"default:0" json:"price_adjustment"` // In minor units, may be negative
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides
func (Product) TableName() string      { return "products" }
func (Category) TableName() string     { return "categories" }
func (ProductImage) TableName() string { return "product_images" }
func (Variant) TableName() string      { return "product_variants" }

// Business methods for Product

func (p *Product) IsInStock() bool {
	return p.Quantity > 0
}

func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.LowStockThreshold
}

func (p *Product) GetFormattedPrice() float64 {
	return float64(p.BasePrice) / 100
}

// PrimaryImage returns the primary image URL, falling back to the first
// image in sort order, or empty when the product has no images.
func (p *Product) PrimaryImage() string {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

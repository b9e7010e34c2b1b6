// internal/domain/promotion/entity.go
package promotion

import (
	"time"

	"gorm.io/gorm"
)

// DiscountType represents how a promotion's discount is expressed
type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "percentage"
	DiscountTypeFixedAmount DiscountType = "fixed_amount"
)

// Promotion represents a time-windowed discount rule scoped to either a
// specific product or a whole category. Exactly one of ProductID and
// CategoryID is set.
type Promotion struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"not null;size:255" json:"name"`
	ProductID     *uint          `gorm:"index" json:"product_id,omitempty"`
	CategoryID    *uint          `gorm:"index" json:"category_id,omitempty"`
	DiscountType  DiscountType   `gorm:"not null;size:20" json:"discount_type"`
	DiscountValue int64          `gorm:"not null" json:"discount_value"` // Percent (0-100) or amount in minor units
	StartsAt      time.Time      `gorm:"not null;index" json:"starts_at"`
	EndsAt        time.Time      `gorm:"not null;index" json:"ends_at"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Promotion) TableName() string {
	return "promotions"
}

// IsActiveAt reports whether the promotion applies at the given instant:
// the active flag is set and the instant falls within [StartsAt, EndsAt].
func (p *Promotion) IsActiveAt(now time.Time) bool {
	return p.IsActive && !now.Before(p.StartsAt) && !now.After(p.EndsAt)
}

// AppliesTo reports whether the promotion matches a product either
// directly or through its category.
func (p *Promotion) AppliesTo(productID, categoryID uint) bool {
	if p.ProductID != nil {
		return *p.ProductID == productID
	}
	if p.CategoryID != nil {
		return *p.CategoryID == categoryID
	}
	return false
}

// IsDirectMatch reports whether the promotion targets the product itself
// rather than its category. Direct matches take precedence in pricing.
func (p *Promotion) IsDirectMatch(productID uint) bool {
	return p.ProductID != nil && *p.ProductID == productID
}

// DiscountedPrice applies the promotion's discount expression to a unit
// price, clamping at zero.
func (p *Promotion) DiscountedPrice(price int64) int64 {
	var discounted int64
	switch p.DiscountType {
	case DiscountTypePercentage:
		discounted = price - price*p.DiscountValue/100
	case DiscountTypeFixedAmount:
		discounted = price - p.DiscountValue
	default:
		discounted = price
	}
	if discounted < 0 {
		return 0
	}
	return discounted
}

// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// CartLine represents a cart line stored in database for authenticated users
type CartLine struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	ProductID uint           `gorm:"not null;index" json:"product_id"`
	Quantity  int            `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Product  catalog.Product   `gorm:"foreignKey:ProductID" json:"product"`
	Variants []catalog.Variant `gorm:"many2many:cart_line_variants;" json:"variants,omitempty"`
}

// TableName overrides the table name
func (CartLine) TableName() string {
	return "cart_lines"
}

// SessionCart represents a cart for guest sessions (stored in Redis)
type SessionCart struct {
	SessionID string            `json:"session_id"`
	Lines     []SessionCartLine `json:"lines"`
	NextID    uint              `json:"next_id"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// SessionCartLine represents a cart line for guest sessions
type SessionCartLine struct {
	ID         uint      `json:"id"`
	ProductID  uint      `json:"product_id"`
	VariantIDs []uint    `json:"variant_ids,omitempty"`
	Quantity   int       `json:"quantity"`
	AddedAt    time.Time `json:"added_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Line is the authoritative cart line shape handed to pricing and
// checkout, with product and variant details embedded. Repositories
// return lines in creation order.
type Line struct {
	ID        uint              `json:"id"`
	ProductID uint              `json:"product_id"`
	Quantity  int               `json:"quantity"`
	Product   catalog.Product   `json:"product"`
	Variants  []catalog.Variant `json:"variants,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// VariantIDs returns the ids of the line's selected variants
func (l Line) VariantIDs() []uint {
	ids := make([]uint, len(l.Variants))
	for i, v := range l.Variants {
		ids[i] = v.ID
	}
	return ids
}

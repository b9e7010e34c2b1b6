// internal/domain/order/entity.go
package order

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Status represents the order status. Payment settles physically at
// pickup, so there is no online payment state here.
type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusReadyForPickup Status = "ready_for_pickup"
	StatusPickedUp       Status = "picked_up"
	StatusCancelled      Status = "cancelled"
)

// PaymentMethod represents how the buyer will settle at pickup
type PaymentMethod string

const (
	PaymentMethodCash    PaymentMethod = "cash"
	PaymentMethodCard    PaymentMethod = "card"
	PaymentMethodEWallet PaymentMethod = "e_wallet"
)

// ValidPaymentMethod reports whether the given method is one we accept
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodEWallet:
		return true
	}
	return false
}

// Order represents a placed order. It is immutable once created except
// for status transitions.
type Order struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderNumber string `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	UserID      *uint  `gorm:"index" json:"user_id,omitempty"` // Nullable for guest orders
	SessionID   string `gorm:"size:100;index" json:"-"`
	Status      Status `gorm:"not null;default:'pending'" json:"status"`

	// Pickup schedule and contact info
	ContactName   string        `gorm:"not null;size:255" json:"contact_name"`
	ContactPhone  string        `gorm:"not null;size:30" json:"contact_phone"`
	PickupDate    time.Time     `gorm:"not null" json:"pickup_date"`
	PickupNotes   string        `gorm:"type:text" json:"pickup_notes"`
	PaymentMethod PaymentMethod `gorm:"not null;size:20" json:"payment_method"`

	// Financial information, in minor units, fixed at submission time
	OriginalAmount int64 `gorm:"not null" json:"original_amount"`
	DiscountAmount int64 `gorm:"default:0" json:"discount_amount"`
	TotalAmount    int64 `gorm:"not null" json:"total_amount"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// OrderItem is the immutable line snapshot captured at submission:
// prices here are the engine-derived prices at the moment the order was
// placed, never re-derived later.
type OrderItem struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	OrderID           uint      `gorm:"not null;index" json:"order_id"`
	ProductID         uint      `gorm:"not null;index" json:"product_id"`
	SKU               string    `gorm:"not null;size:100" json:"sku"`
	Name              string    `gorm:"not null;size:255" json:"name"`
	VariantSummary    string    `gorm:"size:500" json:"variant_summary"` // e.g. "size: L, color: red"
	Quantity          int       `gorm:"not null" json:"quantity"`
	OriginalUnitPrice int64     `gorm:"not null" json:"original_unit_price"`
	FinalUnitPrice    int64     `gorm:"not null" json:"final_unit_price"`
	TotalPrice        int64     `gorm:"not null" json:"total_price"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName overrides
func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }

// Business methods for Order

// GetFormattedTotal returns total amount as float
func (o *Order) GetFormattedTotal() float64 {
	return float64(o.TotalAmount) / 100
}

// CanBeCancelled checks if order can be cancelled
func (o *Order) CanBeCancelled() bool {
	return o.Status == StatusPending || o.Status == StatusConfirmed
}

// CanTransitionTo reports whether a status change is allowed
func (o *Order) CanTransitionTo(next Status) bool {
	allowed := map[Status][]Status{
		StatusPending:        {StatusConfirmed, StatusCancelled},
		StatusConfirmed:      {StatusReadyForPickup, StatusCancelled},
		StatusReadyForPickup: {StatusPickedUp, StatusCancelled},
	}

	for _, s := range allowed[o.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// FormatOrderNumber builds an order number from a prefix and order id
func FormatOrderNumber(prefix string, id uint, at time.Time) string {
	return fmt.Sprintf("%s-%s-%05d", prefix, at.Format("20060102"), id)
}

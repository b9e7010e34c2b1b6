// internal/domain/order/service.go
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// Service handles order business logic. Create is the order-creation
// collaborator invoked by checkout; it is atomic from the caller's
// point of view.
type Service struct {
	db     *gorm.DB
	config *config.Config
	log    *logrus.Entry
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{
		db:     db,
		config: cfg,
		log:    log.WithField("component", "order_service"),
	}
}

// LineSnapshot captures one cart line at submission time with its
// engine-derived prices.
type LineSnapshot struct {
	ProductID         uint
	SKU               string
	Name              string
	VariantSummary    string
	Quantity          int
	OriginalUnitPrice int64
	FinalUnitPrice    int64
}

// CreateInput carries everything checkout finalized: pickup schedule,
// contact info, payment method, the line snapshot, and the totals
// computed at submission time.
type CreateInput struct {
	UserID         *uint
	SessionID      string
	ContactName    string
	ContactPhone   string
	PickupDate     time.Time
	PickupNotes    string
	PaymentMethod  PaymentMethod
	Lines          []LineSnapshot
	OriginalAmount int64
	DiscountAmount int64
	TotalAmount    int64
}

// OrderListRequest represents order list query parameters
type OrderListRequest struct {
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=20"`
	Status Status `form:"status"`
}

// OrderListResponse represents order response with pagination
type OrderListResponse struct {
	Orders     []Order            `json:"orders"`
	Pagination catalog.Pagination `json:"pagination"`
}

// Create durably creates an order with its item snapshot, decrementing
// product stock inside the same transaction. The stock decrement is
// conditional: if another buyer won the race after checkout's
// revalidation, the whole transaction rolls back and no partial order
// exists.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Order, error) {
	if len(input.Lines) == 0 {
		return nil, fmt.Errorf("cannot create an order with no lines")
	}

	var created Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Decrement stock first; a conditional update loses the race
		// cleanly instead of going negative.
		for _, line := range input.Lines {
			result := tx.Model(&catalog.Product{}).
				Where("id = ? AND quantity >= ?", line.ProductID, line.Quantity).
				UpdateColumn("quantity", gorm.Expr("quantity - ?", line.Quantity))
			if result.Error != nil {
				return fmt.Errorf("failed to decrement stock: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("stock changed for %q during order creation", line.Name)
			}
		}

		created = Order{
			UserID:         input.UserID,
			SessionID:      input.SessionID,
			Status:         StatusPending,
			ContactName:    input.ContactName,
			ContactPhone:   input.ContactPhone,
			PickupDate:     input.PickupDate,
			PickupNotes:    input.PickupNotes,
			PaymentMethod:  input.PaymentMethod,
			OriginalAmount: input.OriginalAmount,
			DiscountAmount: input.DiscountAmount,
			TotalAmount:    input.TotalAmount,
		}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		created.OrderNumber = FormatOrderNumber(s.config.Checkout.OrderNumberPrefix, created.ID, time.Now().UTC())
		if err := tx.Model(&created).Update("order_number", created.OrderNumber).Error; err != nil {
			return fmt.Errorf("failed to set order number: %w", err)
		}

		for _, line := range input.Lines {
			item := OrderItem{
				OrderID:           created.ID,
				ProductID:         line.ProductID,
				SKU:               line.SKU,
				Name:              line.Name,
				VariantSummary:    line.VariantSummary,
				Quantity:          line.Quantity,
				OriginalUnitPrice: line.OriginalUnitPrice,
				FinalUnitPrice:    line.FinalUnitPrice,
				TotalPrice:        line.FinalUnitPrice * int64(line.Quantity),
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Preload("Items").First(&created, created.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load created order: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"order_number": created.OrderNumber,
		"total_amount": created.TotalAmount,
		"items":        len(created.Items),
	}).Info("order created")

	return &created, nil
}

// GetOrder retrieves a single order by ID
func (s *Service) GetOrder(id uint) (*Order, error) {
	var order Order
	result := s.db.Preload("Items").Where("id = ?", id).First(&order)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order not found: %w", result.Error)
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", result.Error)
	}
	return &order, nil
}

// GetOrderByNumber retrieves a single order by order number
func (s *Service) GetOrderByNumber(orderNumber string) (*Order, error) {
	var order Order
	result := s.db.Preload("Items").Where("order_number = ?", orderNumber).First(&order)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order not found: %w", result.Error)
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", result.Error)
	}
	return &order, nil
}

// GetUserOrders retrieves orders for a specific user with pagination
func (s *Service) GetUserOrders(userID uint, req *OrderListRequest) (*OrderListResponse, error) {
	var orders []Order
	var total int64

	query := s.db.Model(&Order{}).Preload("Items").Where("user_id = ?", userID)
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	offset := (req.Page - 1) * req.Limit
	err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &OrderListResponse{
		Orders: orders,
		Pagination: catalog.Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// UpdateStatus transitions an order's status, restoring stock when the
// order is cancelled.
func (s *Service) UpdateStatus(orderID uint, next Status) error {
	var order Order
	if err := s.db.Preload("Items").First(&order, orderID).Error; err != nil {
		return fmt.Errorf("order not found: %w", err)
	}

	if !order.CanTransitionTo(next) {
		return fmt.Errorf("invalid status transition from %s to %s", order.Status, next)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if next == StatusCancelled {
			for _, item := range order.Items {
				result := tx.Model(&catalog.Product{}).
					Where("id = ?", item.ProductID).
					UpdateColumn("quantity", gorm.Expr("quantity + ?", item.Quantity))
				if result.Error != nil {
					return fmt.Errorf("failed to restore stock: %w", result.Error)
				}
			}
		}

		if err := tx.Model(&order).Update("status", next).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		s.log.WithFields(logrus.Fields{
			"order_number": order.OrderNumber,
			"from":         order.Status,
			"to":           next,
		}).Info("order status updated")
		return nil
	})
}

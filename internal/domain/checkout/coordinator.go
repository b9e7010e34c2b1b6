// internal/domain/checkout/coordinator.go
package checkout

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"golang.org/x/sync/singleflight"
)

// State represents where a checkout attempt currently is
type State string

const (
	StateIdle            State = "idle"
	StateValidatingForm  State = "validating_form"
	StateValidatingStock State = "validating_stock"
	StateSubmitting      State = "submitting"
	StateSucceeded       State = "succeeded"
)

// CartReader supplies the priced cart for the owner placing the order
type CartReader interface {
	Load(ctx context.Context, owner cart.Owner) (*cart.View, error)
	Clear(ctx context.Context, owner cart.Owner) error
}

// StockReader reads live stock for a product, fresh from the backend.
// Checkout never trusts the quantities embedded in the cart snapshot.
type StockReader interface {
	StockQuantity(ctx context.Context, productID uint) (int, error)
}

// OrderCreator durably creates the order, atomically
type OrderCreator interface {
	Create(ctx context.Context, input order.CreateInput) (*order.Order, error)
}

// Request carries the checkout form: pickup schedule, contact info,
// payment method.
type Request struct {
	ContactName   string              `json:"contact_name" binding:"required"`
	ContactPhone  string              `json:"contact_phone" binding:"required"`
	PickupDate    time.Time           `json:"pickup_date" binding:"required"`
	PickupNotes   string              `json:"pickup_notes"`
	PaymentMethod order.PaymentMethod `json:"payment_method" binding:"required"`
}

// Coordinator orchestrates order placement: form validation, per-line
// stock revalidation against live inventory, then atomic submission.
// One pipeline runs per owner at a time; a second trigger while one is
// in flight joins the first instead of running concurrently, so a
// double-tap cannot place two orders.
type Coordinator struct {
	carts             CartReader
	stock             StockReader
	orders            OrderCreator
	pickupLeadDays    int
	stockCheckTimeout time.Duration
	log               *logrus.Entry
	now               func() time.Time

	group  singleflight.Group
	mu     sync.Mutex
	states map[string]State
}

// NewCoordinator creates a new checkout coordinator. stockCheckTimeout
// bounds each per-line stock read; zero disables the bound.
func NewCoordinator(carts CartReader, stock StockReader, orders OrderCreator, pickupLeadDays int, stockCheckTimeout time.Duration, log *logrus.Logger) *Coordinator {
	return &Coordinator{
		carts:             carts,
		stock:             stock,
		orders:            orders,
		pickupLeadDays:    pickupLeadDays,
		stockCheckTimeout: stockCheckTimeout,
		log:               log.WithField("component", "checkout"),
		now:               time.Now,
		states:            make(map[string]State),
	}
}

// State returns the owner's current checkout state for the UI
func (c *Coordinator) State(owner cart.Owner) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.states[owner.Key()]; ok {
		return s
	}
	return StateIdle
}

// PlaceOrder runs the checkout pipeline and returns the created order.
// On any failure the state returns to idle and no order exists. If ctx
// is cancelled mid-pipeline the in-flight backend work is allowed to
// finish but its result is discarded and no state is applied.
func (c *Coordinator) PlaceOrder(ctx context.Context, owner cart.Owner, req Request) (*order.Order, error) {
	result, err, _ := c.group.Do(owner.Key(), func() (interface{}, error) {
		// The reset bypasses the cancellation guard: a cancelled
		// attempt is over, and observers must not keep seeing its
		// in-flight stage.
		defer c.clearState(owner)
		return c.run(ctx, owner, req)
	})
	if err != nil {
		return nil, err
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return result.(*order.Order), nil
}

func (c *Coordinator) run(ctx context.Context, owner cart.Owner, req Request) (*order.Order, error) {
	c.setState(ctx, owner, StateValidatingForm)
	if err := c.validateForm(req); err != nil {
		return nil, err
	}

	view, err := c.carts.Load(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(view.Lines) == 0 {
		return nil, &ValidationError{Field: "cart", Message: "cart is empty"}
	}

	c.setState(ctx, owner, StateValidatingStock)
	if err := c.validateStock(ctx, view.Lines); err != nil {
		c.log.WithError(err).Info("checkout blocked by stock validation")
		return nil, err
	}

	c.setState(ctx, owner, StateSubmitting)
	input := c.buildInput(owner, req, view)
	created, err := c.orders.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	if ctx.Err() != nil {
		// Cancelled mid-submission: the order may exist, but the
		// caller asked us to stop. Leave the cart alone and report
		// nothing back.
		return nil, ctx.Err()
	}

	c.setState(ctx, owner, StateSucceeded)
	if err := c.carts.Clear(ctx, owner); err != nil {
		c.log.WithError(err).Warn("failed to clear cart after order creation")
	}

	return created, nil
}

// validateForm runs the pure, synchronous required-field checks
func (c *Coordinator) validateForm(req Request) error {
	if strings.TrimSpace(req.ContactName) == "" {
		return &ValidationError{Field: "contact_name", Message: "contact name is required"}
	}
	if strings.TrimSpace(req.ContactPhone) == "" {
		return &ValidationError{Field: "contact_phone", Message: "contact phone is required"}
	}
	if !order.ValidPaymentMethod(req.PaymentMethod) {
		return &ValidationError{Field: "payment_method", Message: "unknown payment method"}
	}

	if req.PickupDate.IsZero() {
		return &ValidationError{Field: "pickup_date", Message: "pickup date is required"}
	}
	if req.PickupDate.Before(c.minPickupDate()) {
		return &ValidationError{
			Field:   "pickup_date",
			Message: fmt.Sprintf("pickup date must be at least %d day(s) from today", c.pickupLeadDays),
		}
	}

	return nil
}

// validateStock re-reads live stock for every line, in cart order,
// short-circuiting on the first violation.
func (c *Coordinator) validateStock(ctx context.Context, lines []cart.PricedLine) error {
	for _, line := range lines {
		available, err := c.readStock(ctx, line.ProductID)
		if err != nil {
			return fmt.Errorf("stock check failed for %q: %w", line.Product.Name, err)
		}

		if available == 0 {
			return &OutOfStockError{ProductID: line.ProductID, ProductName: line.Product.Name}
		}
		if line.Quantity > available {
			return &InsufficientStockError{
				ProductID:   line.ProductID,
				ProductName: line.Product.Name,
				Requested:   line.Quantity,
				Available:   available,
			}
		}
	}
	return nil
}

// readStock performs one live stock read under the configured per-line
// deadline, so a stalled inventory backend fails the attempt instead of
// pinning the pipeline.
func (c *Coordinator) readStock(ctx context.Context, productID uint) (int, error) {
	if c.stockCheckTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.stockCheckTimeout)
		defer cancel()
	}
	return c.stock.StockQuantity(ctx, productID)
}

// buildInput freezes the priced cart into the order-creation input.
// The totals are the engine's output at this moment; they are never
// re-derived after submission.
func (c *Coordinator) buildInput(owner cart.Owner, req Request, view *cart.View) order.CreateInput {
	lines := make([]order.LineSnapshot, len(view.Lines))
	for i, line := range view.Lines {
		lines[i] = order.LineSnapshot{
			ProductID:         line.ProductID,
			SKU:               line.Product.SKU,
			Name:              line.Product.Name,
			VariantSummary:    variantSummary(line),
			Quantity:          line.Quantity,
			OriginalUnitPrice: line.Price.OriginalUnitPrice,
			FinalUnitPrice:    line.Price.FinalUnitPrice,
		}
	}

	return order.CreateInput{
		UserID:         owner.UserID,
		SessionID:      owner.SessionID,
		ContactName:    strings.TrimSpace(req.ContactName),
		ContactPhone:   strings.TrimSpace(req.ContactPhone),
		PickupDate:     req.PickupDate,
		PickupNotes:    req.PickupNotes,
		PaymentMethod:  req.PaymentMethod,
		Lines:          lines,
		OriginalAmount: view.Totals.OriginalTotal,
		DiscountAmount: view.Totals.Discount,
		TotalAmount:    view.Totals.SubTotal,
	}
}

// minPickupDate returns the earliest allowed pickup date: local
// midnight plus the configured lead, so "tomorrow" by default.
func (c *Coordinator) minPickupDate() time.Time {
	now := c.now()
	year, month, day := now.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, now.Location()).AddDate(0, 0, c.pickupLeadDays)
}

// setState records the owner's pipeline state unless the attempt was
// cancelled, in which case observers must not see further progress.
func (c *Coordinator) setState(ctx context.Context, owner cart.Owner, state State) {
	if ctx.Err() != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[owner.Key()] = state
}

// clearState returns the owner to idle once an attempt finishes, however
// it finished.
func (c *Coordinator) clearState(owner cart.Owner) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, owner.Key())
}

func variantSummary(line cart.PricedLine) string {
	if len(line.Variants) == 0 {
		return ""
	}

	parts := make([]string, len(line.Variants))
	for i, v := range line.Variants {
		parts[i] = fmt.Sprintf("%s: %s", v.Type, v.Value)
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

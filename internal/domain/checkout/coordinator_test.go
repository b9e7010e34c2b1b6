// internal/domain/checkout/coordinator_test.go
package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
)

type fakeCarts struct {
	mu      sync.Mutex
	view    *cart.View
	loadErr error
	cleared int
}

func (f *fakeCarts) Load(ctx context.Context, owner cart.Owner) (*cart.View, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.view, nil
}

func (f *fakeCarts) Clear(ctx context.Context, owner cart.Owner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	return nil
}

type fakeStock struct {
	mu        sync.Mutex
	levels    map[uint]int
	err       error
	checked   []uint
	checkGate chan struct{} // when set, each check waits for a tick
}

func (f *fakeStock) StockQuantity(ctx context.Context, productID uint) (int, error) {
	f.mu.Lock()
	f.checked = append(f.checked, productID)
	f.mu.Unlock()

	if f.checkGate != nil {
		<-f.checkGate
	}
	if f.err != nil {
		return 0, f.err
	}
	return f.levels[productID], nil
}

func (f *fakeStock) checkedProducts() []uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]uint, len(f.checked))
	copy(out, f.checked)
	return out
}

type fakeOrders struct {
	mu      sync.Mutex
	created []order.CreateInput
	err     error
	nextID  uint
}

func (f *fakeOrders) Create(ctx context.Context, input order.CreateInput) (*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, input)
	f.nextID++
	return &order.Order{
		ID:          f.nextID,
		OrderNumber: "ORD-20260831-00001",
		TotalAmount: input.TotalAmount,
	}, nil
}

func (f *fakeOrders) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func pricedLine(id, productID uint, name string, qty int, unit int64) cart.PricedLine {
	return cart.PricedLine{
		Line: cart.Line{
			ID:        id,
			ProductID: productID,
			Quantity:  qty,
			Product:   catalog.Product{ID: productID, Name: name, SKU: "SKU-" + name, BasePrice: unit},
		},
		Price: pricing.Breakdown{
			OriginalUnitPrice: unit,
			FinalUnitPrice:    unit,
			Quantity:          qty,
			LineTotal:         unit * int64(qty),
		},
	}
}

func twoLineView() *cart.View {
	lines := []cart.PricedLine{
		pricedLine(1, 1, "House Blend", 1, 100),
		pricedLine(2, 2, "Single Origin", 10, 120),
	}
	return &cart.View{
		Lines: lines,
		Totals: pricing.CartTotals{
			ItemCount:     2,
			TotalQuantity: 11,
			OriginalTotal: 1300,
			SubTotal:      1300,
		},
	}
}

func validRequest(pickup time.Time) Request {
	return Request{
		ContactName:   "Ada",
		ContactPhone:  "+62-812-000",
		PickupDate:    pickup,
		PaymentMethod: order.PaymentMethodCash,
	}
}

func testCoordinator(carts *fakeCarts, stock StockReader, orders *fakeOrders) *Coordinator {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	c := NewCoordinator(carts, stock, orders, 1, 0, log)
	c.now = func() time.Time {
		return time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC)
	}
	return c
}

func tomorrow() time.Time {
	return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
}

func sessionOwner() cart.Owner {
	return cart.Owner{SessionID: "sess-1"}
}

func TestPlaceOrderSucceeds(t *testing.T) {
	carts := &fakeCarts{view: twoLineView()}
	stock := &fakeStock{levels: map[uint]int{1: 5, 2: 20}}
	orders := &fakeOrders{}
	c := testCoordinator(carts, stock, orders)

	placed, err := c.PlaceOrder(context.Background(), sessionOwner(), validRequest(tomorrow()))
	require.NoError(t, err)
	require.NotNil(t, placed)

	require.Equal(t, 1, orders.createdCount())
	input := orders.created[0]
	assert.Equal(t, "sess-1", input.SessionID)
	assert.Equal(t, int64(1300), input.TotalAmount)
	assert.Len(t, input.Lines, 2)
	assert.Equal(t, 1, carts.cleared)
	assert.Equal(t, StateIdle, c.State(sessionOwner()))
}

func TestPlaceOrderRejectsMissingContact(t *testing.T) {
	c := testCoordinator(&fakeCarts{view: twoLineView()}, &fakeStock{}, &fakeOrders{})

	req := validRequest(tomorrow())
	req.ContactName = "   "

	_, err := c.PlaceOrder(context.Background(), sessionOwner(), req)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "contact_name", verr.Field)
}

func TestPlaceOrderRejectsUnknownPaymentMethod(t *testing.T) {
	c := testCoordinator(&fakeCarts{view: twoLineView()}, &fakeStock{}, &fakeOrders{})

	req := validRequest(tomorrow())
	req.PaymentMethod = "barter"

	_, err := c.PlaceOrder(context.Background(), sessionOwner(), req)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "payment_method", verr.Field)
}

func TestPlaceOrderRejectsEarlyPickupDate(t *testing.T) {
	c := testCoordinator(&fakeCarts{view: twoLineView()}, &fakeStock{}, &fakeOrders{})

	// Later today is still before tomorrow's midnight cutoff.
	req := validRequest(time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC))

	_, err := c.PlaceOrder(context.Background(), sessionOwner(), req)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "pickup_date", verr.Field)
}

func TestPlaceOrderRejectsEmptyCart(t *testing.T) {
	carts := &fakeCarts{view: &cart.View{}}
	orders := &fakeOrders{}
	c := testCoordinator(carts, &fakeStock{}, orders)

	_, err := c.PlaceOrder(context.Background(), sessionOwner(), validRequest(tomorrow()))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "cart", verr.Field)
	assert.Zero(t, orders.createdCount())
}

func TestPlaceOrderShortCircuitsOnFirstStockViolation(t *testing.T) {
	carts := &fakeCarts{view: twoLineView()}
	stock := &fakeStock{levels: map[uint]int{1: 5, 2: 2}}
	orders := &fakeOrders{}
	c := testCoordinator(carts, stock, orders)

	_, err := c.PlaceOrder(context.Background(), sessionOwner(), validRequest(tomorrow()))

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, uint(2), insufficient.ProductID)
	assert.Equal(t, 10, insufficient.Requested)
	assert.Equal(t, 2, insufficient.Available)

	// Both lines were checked in cart order, the order was never created
	// and the cart survives for the buyer to adjust.
	assert.Equal(t, []uint{1, 2}, stock.checkedProducts())
	assert.Zero(t, orders.createdCount())
	assert.Zero(t, carts.cleared)
}

func TestPlaceOrderReportsOutOfStock(t *testing.T) {
	carts := &fakeCarts{view: twoLineView()}
	stock := &fakeStock{levels: map[uint]int{1: 0, 2: 20}}
	c := testCoordinator(carts, stock, &fakeOrders{})

	_, err := c.PlaceOrder(context.Background(), sessionOwner(), validRequest(tomorrow()))

	var oos *OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, uint(1), oos.ProductID)

	// The second line is never checked.
	assert.Equal(t, []uint{1}, stock.checkedProducts())
}

// stalledStock never answers until its context expires
type stalledStock struct{}

func (stalledStock) StockQuantity(ctx context.Context, productID uint) (int, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestPlaceOrderBoundsEachStockCheck(t *testing.T) {
	carts := &fakeCarts{view: twoLineView()}
	orders := &fakeOrders{}

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	c := NewCoordinator(carts, stalledStock{}, orders, 1, 20*time.Millisecond, log)
	c.now = func() time.Time {
		return time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC)
	}

	_, err := c.PlaceOrder(context.Background(), sessionOwner(), validRequest(tomorrow()))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, orders.createdCount())
}

func TestPlaceOrderWrapsStockBackendFailure(t *testing.T) {
	carts := &fakeCarts{view: twoLineView()}
	backendErr := errors.New("inventory service down")
	stock := &fakeStock{err: backendErr}
	c := testCoordinator(carts, stock, &fakeOrders{})

	_, err := c.PlaceOrder(context.Background(), sessionOwner(), validRequest(tomorrow()))
	assert.ErrorIs(t, err, backendErr)
}

func TestPlaceOrderKeepsCartWhenCreationFails(t *testing.T) {
	carts := &fakeCarts{view: twoLineView()}
	stock := &fakeStock{levels: map[uint]int{1: 5, 2: 20}}
	orders := &fakeOrders{err: errors.New("write failed")}
	c := testCoordinator(carts, stock, orders)

	_, err := c.PlaceOrder(context.Background(), sessionOwner(), validRequest(tomorrow()))
	require.Error(t, err)

	assert.Zero(t, carts.cleared)
	assert.Equal(t, StateIdle, c.State(sessionOwner()))
}

func TestPlaceOrderValidationIsIdempotent(t *testing.T) {
	carts := &fakeCarts{view: twoLineView()}
	stock := &fakeStock{levels: map[uint]int{1: 5, 2: 2}}
	orders := &fakeOrders{}
	c := testCoordinator(carts, stock, orders)

	_, err1 := c.PlaceOrder(context.Background(), sessionOwner(), validRequest(tomorrow()))
	_, err2 := c.PlaceOrder(context.Background(), sessionOwner(), validRequest(tomorrow()))

	var first, second *InsufficientStockError
	require.ErrorAs(t, err1, &first)
	require.ErrorAs(t, err2, &second)
	assert.Equal(t, *first, *second)
	assert.Zero(t, orders.createdCount())
}

func TestPlaceOrderSuppressesDuplicateTrigger(t *testing.T) {
	carts := &fakeCarts{view: twoLineView()}
	stock := &fakeStock{
		levels:    map[uint]int{1: 5, 2: 20},
		checkGate: make(chan struct{}),
	}
	orders := &fakeOrders{}
	c := testCoordinator(carts, stock, orders)

	var wg sync.WaitGroup
	results := make([]*order.Order, 2)
	place := func(i int) {
		defer wg.Done()
		placed, err := c.PlaceOrder(context.Background(), sessionOwner(), validRequest(tomorrow()))
		assert.NoError(t, err)
		results[i] = placed
	}

	wg.Add(1)
	go place(0)

	// The gate send only completes once the first pipeline is blocked
	// inside its stock check, so the second trigger below arrives while
	// the first is still in flight.
	stock.checkGate <- struct{}{}

	wg.Add(1)
	go place(1)
	time.Sleep(100 * time.Millisecond)

	close(stock.checkGate)
	wg.Wait()

	assert.Equal(t, 1, orders.createdCount())
	require.NotNil(t, results[0])
	require.NotNil(t, results[1])
	assert.Equal(t, results[0].ID, results[1].ID)
}

func TestPlaceOrderDiscardsResultOnCancelledContext(t *testing.T) {
	carts := &fakeCarts{view: twoLineView()}
	stock := &fakeStock{levels: map[uint]int{1: 5, 2: 20}}
	orders := &fakeOrders{}
	c := testCoordinator(carts, stock, orders)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	placed, err := c.PlaceOrder(ctx, sessionOwner(), validRequest(tomorrow()))
	assert.Nil(t, placed)
	assert.ErrorIs(t, err, context.Canceled)

	// The cart is never cleared for a cancelled attempt.
	assert.Zero(t, carts.cleared)
}

func TestPlaceOrderReturnsToIdleAfterCancelledAttempt(t *testing.T) {
	carts := &fakeCarts{view: twoLineView()}
	stock := &fakeStock{
		levels:    map[uint]int{1: 5, 2: 20},
		checkGate: make(chan struct{}),
	}
	orders := &fakeOrders{}
	c := testCoordinator(carts, stock, orders)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.PlaceOrder(ctx, sessionOwner(), validRequest(tomorrow()))
		done <- err
	}()

	// First gate tick lands while the pipeline is validating stock;
	// cancel it there and let it drain.
	stock.checkGate <- struct{}{}
	cancel()
	stock.checkGate <- struct{}{}

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)

	// A cancelled attempt must not leave a phantom in-flight stage for
	// pollers.
	assert.Equal(t, StateIdle, c.State(sessionOwner()))
	assert.Zero(t, carts.cleared)
}

func TestStateDefaultsToIdle(t *testing.T) {
	c := testCoordinator(&fakeCarts{view: twoLineView()}, &fakeStock{}, &fakeOrders{})
	assert.Equal(t, StateIdle, c.State(sessionOwner()))
}

func TestVariantSummaryIsSortedAndStable(t *testing.T) {
	line := pricedLine(1, 1, "House Blend", 1, 100)
	line.Variants = []catalog.Variant{
		{Type: "size", Value: "large"},
		{Type: "grind", Value: "espresso"},
	}

	assert.Equal(t, "grind: espresso, size: large", variantSummary(line))
}

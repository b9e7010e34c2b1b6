// internal/domain/cart/store.go
package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
	"github.com/your-org/storefront-backend/internal/domain/promotion"
)

// CatalogReader supplies product and variant details for cart validation
type CatalogReader interface {
	GetProduct(id uint) (*catalog.Product, error)
	GetVariants(ctx context.Context, productID uint, variantIDs []uint) ([]catalog.Variant, error)
}

// PromotionReader supplies the currently active promotion snapshot
type PromotionReader interface {
	Active(ctx context.Context) ([]promotion.Promotion, error)
}

// PricedLine is a cart line with its derived price breakdown
type PricedLine struct {
	Line
	Price pricing.Breakdown `json:"price"`
}

// View is the priced cart handed to the UI layer. It is derived fresh
// from the confirmed lines and the active promotion snapshot on every
// read; nothing in it is cached across renders.
type View struct {
	Lines  []PricedLine       `json:"lines"`
	Totals pricing.CartTotals `json:"totals"`
}

// Store owns the cart line collection for each owner. Persistence is
// delegated to a Repository; the store keeps the last confirmed line
// list, serializes mutations per line, and re-derives pricing after
// every successful mutation. A failed mutation leaves the confirmed
// state exactly as it was.
type Store struct {
	userRepo    Repository
	sessionRepo Repository
	catalog     CatalogReader
	promotions  PromotionReader
	log         *logrus.Entry

	mu        sync.Mutex
	confirmed map[string][]Line
	lineLocks sync.Map // owner key + line id -> *sync.Mutex
}

// NewStore creates a new cart store
func NewStore(userRepo, sessionRepo Repository, catalogReader CatalogReader, promotions PromotionReader, log *logrus.Logger) *Store {
	return &Store{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		catalog:     catalogReader,
		promotions:  promotions,
		log:         log.WithField("component", "cart_store"),
		confirmed:   make(map[string][]Line),
	}
}

// Load hydrates the owner's cart from the repository and returns the
// priced view.
func (s *Store) Load(ctx context.Context, owner Owner) (*View, error) {
	if !owner.Valid() {
		return nil, fmt.Errorf("cart owner required")
	}

	lines, err := s.repoFor(owner).Read(ctx, owner)
	if err != nil {
		return nil, err
	}

	s.commit(ctx, owner, lines)
	return s.price(ctx, lines)
}

// Add puts a product with a variant selection into the cart. Quantity
// must be positive; the variant selection may hold at most one variant
// per type. Stock is checked best-effort here, authoritatively again at
// checkout.
func (s *Store) Add(ctx context.Context, owner Owner, productID uint, variantIDs []uint, quantity int) (*View, error) {
	if quantity <= 0 {
		return nil, pricing.ErrInvalidQuantity
	}

	product, err := s.catalog.GetProduct(productID)
	if err != nil {
		return nil, err
	}

	variants, err := s.catalog.GetVariants(ctx, productID, variantIDs)
	if err != nil {
		return nil, err
	}
	if err := oneVariantPerType(variants); err != nil {
		return nil, err
	}

	if product.Quantity < quantity {
		return nil, fmt.Errorf("insufficient stock for %q. Available: %d", product.Name, product.Quantity)
	}

	unlock := s.lockLine(owner, 0)
	defer unlock()

	if err := s.repoFor(owner).Add(ctx, owner, productID, variantIDs, quantity); err != nil {
		s.log.WithError(err).WithField("product_id", productID).Warn("cart add failed")
		return nil, err
	}

	return s.reload(ctx, owner)
}

// UpdateQuantity sets a line's quantity. A non-positive quantity is
// equivalent to removing the line, which normalizes the decrement-past-
// zero edge case into one code path.
func (s *Store) UpdateQuantity(ctx context.Context, owner Owner, lineID uint, quantity int) (*View, error) {
	if quantity <= 0 {
		return s.Remove(ctx, owner, lineID)
	}

	line, ok := s.findConfirmed(owner, lineID)
	if ok && line.Product.Quantity < quantity {
		return nil, fmt.Errorf("insufficient stock for %q. Available: %d", line.Product.Name, line.Product.Quantity)
	}

	unlock := s.lockLine(owner, lineID)
	defer unlock()

	if err := s.repoFor(owner).UpdateQuantity(ctx, owner, lineID, quantity); err != nil {
		s.log.WithError(err).WithField("line_id", lineID).Warn("cart quantity update failed")
		return nil, err
	}

	return s.reload(ctx, owner)
}

// UpdateVariants replaces a line's variant selection. The new selection
// must belong to the line's product, be active, and hold at most one
// variant per type; the line is read back from the repository when the
// confirmed snapshot does not have it yet.
func (s *Store) UpdateVariants(ctx context.Context, owner Owner, lineID uint, variantIDs []uint) (*View, error) {
	line, ok := s.findConfirmed(owner, lineID)
	if !ok {
		lines, err := s.repoFor(owner).Read(ctx, owner)
		if err != nil {
			return nil, err
		}
		s.commit(ctx, owner, lines)

		for _, l := range lines {
			if l.ID == lineID {
				line, ok = l, true
				break
			}
		}
		if !ok {
			return nil, ErrLineNotFound
		}
	}

	variants, err := s.catalog.GetVariants(ctx, line.ProductID, variantIDs)
	if err != nil {
		return nil, err
	}
	if err := oneVariantPerType(variants); err != nil {
		return nil, err
	}

	unlock := s.lockLine(owner, lineID)
	defer unlock()

	if err := s.repoFor(owner).UpdateVariants(ctx, owner, lineID, variantIDs); err != nil {
		s.log.WithError(err).WithField("line_id", lineID).Warn("cart variant update failed")
		return nil, err
	}

	return s.reload(ctx, owner)
}

// Remove deletes a line from the cart
func (s *Store) Remove(ctx context.Context, owner Owner, lineID uint) (*View, error) {
	unlock := s.lockLine(owner, lineID)
	defer unlock()

	if err := s.repoFor(owner).Remove(ctx, owner, lineID); err != nil {
		s.log.WithError(err).WithField("line_id", lineID).Warn("cart remove failed")
		return nil, err
	}

	return s.reload(ctx, owner)
}

// Clear empties the owner's cart, typically after a successful order
func (s *Store) Clear(ctx context.Context, owner Owner) error {
	if err := s.repoFor(owner).Clear(ctx, owner); err != nil {
		s.log.WithError(err).Warn("cart clear failed")
		return err
	}

	s.commit(ctx, owner, nil)
	return nil
}

// Snapshot returns the last confirmed line list without touching the
// repository. Checkout uses it as the line set to validate and submit.
func (s *Store) Snapshot(owner Owner) []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.confirmed[owner.Key()]
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}

// reload re-reads the authoritative line list after a successful write
// and prices it. The write already happened; a read failure here is
// reported but does not undo it.
func (s *Store) reload(ctx context.Context, owner Owner) (*View, error) {
	lines, err := s.repoFor(owner).Read(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("cart updated but re-read failed: %w", err)
	}

	s.commit(ctx, owner, lines)
	return s.price(ctx, lines)
}

// commit replaces the confirmed snapshot unless the caller's context
// was cancelled mid-flight, in which case the result is discarded.
func (s *Store) commit(ctx context.Context, owner Owner, lines []Line) {
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmed[owner.Key()] = lines
}

// price derives breakdowns and totals for the given lines against a
// fresh active-promotion snapshot.
func (s *Store) price(ctx context.Context, lines []Line) (*View, error) {
	promos, err := s.promotions.Active(ctx)
	if err != nil {
		return nil, err
	}

	view := &View{Lines: make([]PricedLine, len(lines))}
	breakdowns := make([]pricing.Breakdown, len(lines))
	for i, line := range lines {
		breakdown, err := pricing.PriceFor(line.Product, line.Variants, promos, line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to price line %d: %w", line.ID, err)
		}
		view.Lines[i] = PricedLine{Line: line, Price: breakdown}
		breakdowns[i] = breakdown
	}

	view.Totals = pricing.Aggregate(breakdowns)
	return view, nil
}

func (s *Store) repoFor(owner Owner) Repository {
	if owner.UserID != nil {
		return s.userRepo
	}
	return s.sessionRepo
}

func (s *Store) findConfirmed(owner Owner, lineID uint) (Line, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, line := range s.confirmed[owner.Key()] {
		if line.ID == lineID {
			return line, true
		}
	}
	return Line{}, false
}

// lockLine serializes mutations per owner and line id. A second
// mutation on the same line waits for the first; writes to different
// lines proceed independently. Line id 0 serializes adds.
func (s *Store) lockLine(owner Owner, lineID uint) func() {
	key := fmt.Sprintf("%s/%d", owner.Key(), lineID)
	actual, _ := s.lineLocks.LoadOrStore(key, &sync.Mutex{})
	mu := actual.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func oneVariantPerType(variants []catalog.Variant) error {
	seen := make(map[string]bool, len(variants))
	for _, v := range variants {
		if seen[v.Type] {
			return fmt.Errorf("duplicate variant selection for type %q", v.Type)
		}
		seen[v.Type] = true
	}
	return nil
}

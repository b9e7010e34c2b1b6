// internal/domain/pricing/pricing.go
package pricing

import (
	"errors"
	"math"

	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/promotion"
)

// ErrInvalidQuantity is returned when a caller prices a line with a
// non-positive quantity. This is a caller contract violation, not a
// backend failure.
var ErrInvalidQuantity = errors.New("quantity must be positive")

// Breakdown represents the derived price of a single cart line. It is
// computed fresh on every read and never persisted: promotions expire
// and activate between renders, so a cached breakdown would silently
// misprice the order.
type Breakdown struct {
	OriginalUnitPrice int64 `json:"original_unit_price"` // Base price plus variant adjustments
	FinalUnitPrice    int64 `json:"final_unit_price"`    // After best applicable promotion
	HasDiscount       bool  `json:"has_discount"`
	Quantity          int   `json:"quantity"`
	LineTotal         int64 `json:"line_total"`
}

// CartTotals represents the cart-level aggregate over line breakdowns
type CartTotals struct {
	ItemCount     int   `json:"item_count"`     // Number of lines
	TotalQuantity int   `json:"total_quantity"` // Sum of all quantities
	OriginalTotal int64 `json:"original_total"` // Before promotions
	SubTotal      int64 `json:"sub_total"`      // After promotions
	Discount      int64 `json:"discount"`       // OriginalTotal - SubTotal
}

// DiscountPercent returns the cart discount as a whole percentage of
// the original total, rounded to the nearest integer.
func (t CartTotals) DiscountPercent() int {
	if t.OriginalTotal <= 0 {
		return 0
	}
	return int(math.Round(float64(t.Discount) / float64(t.OriginalTotal) * 100))
}

// PriceFor computes the effective price of one cart line from the
// product, its selected variants, and the currently active promotion
// set. It is a pure function: no I/O, no state.
//
// Rules:
//   - The best applicable promotion wins. Promotions targeting the
//     product directly take precedence over category-wide ones; among
//     promotions of equal precedence the one yielding the lowest final
//     price wins, with the lowest promotion id breaking exact price ties.
//   - Variant price adjustments apply identically to the original and
//     the discounted price.
//   - The final unit price is clamped at zero.
func PriceFor(product catalog.Product, selectedVariants []catalog.Variant, activePromotions []promotion.Promotion, quantity int) (Breakdown, error) {
	if quantity <= 0 {
		return Breakdown{}, ErrInvalidQuantity
	}

	basePrice := product.BasePrice
	discountedBase := basePrice
	best := bestPromotion(product, activePromotions)
	if best != nil {
		discountedBase = best.DiscountedPrice(basePrice)
	}

	var adjustment int64
	for _, v := range selectedVariants {
		adjustment += v.PriceAdjustment
	}

	originalUnit := clampPrice(basePrice + adjustment)
	finalUnit := clampPrice(discountedBase + adjustment)

	return Breakdown{
		OriginalUnitPrice: originalUnit,
		FinalUnitPrice:    finalUnit,
		HasDiscount:       best != nil && discountedBase < basePrice,
		Quantity:          quantity,
		LineTotal:         finalUnit * int64(quantity),
	}, nil
}

// Aggregate recomputes cart totals from scratch over the given line
// breakdowns. There is deliberately no incremental variant of this:
// every cart or promotion change reprices the whole cart.
func Aggregate(lines []Breakdown) CartTotals {
	var totals CartTotals

	totals.ItemCount = len(lines)
	for _, line := range lines {
		totals.TotalQuantity += line.Quantity
		totals.OriginalTotal += line.OriginalUnitPrice * int64(line.Quantity)
		totals.SubTotal += line.LineTotal
	}
	totals.Discount = totals.OriginalTotal - totals.SubTotal

	return totals
}

// bestPromotion selects the applicable promotion yielding the lowest
// discounted base price. The fold is deterministic and independent of
// input order.
func bestPromotion(product catalog.Product, promotions []promotion.Promotion) *promotion.Promotion {
	var best *promotion.Promotion
	var bestPrice int64
	var bestDirect bool

	for i := range promotions {
		p := &promotions[i]
		if !p.AppliesTo(product.ID, product.CategoryID) {
			continue
		}

		direct := p.IsDirectMatch(product.ID)
		price := p.DiscountedPrice(product.BasePrice)

		switch {
		case best == nil:
		case direct && !bestDirect:
		case !direct && bestDirect:
			continue
		case price < bestPrice:
		case price == bestPrice && p.ID < best.ID:
		default:
			continue
		}

		best = p
		bestPrice = price
		bestDirect = direct
	}

	return best
}

func clampPrice(price int64) int64 {
	if price < 0 {
		return 0
	}
	return price
}

// internal/domain/pricing/pricing_test.go
package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/promotion"
)

func uintPtr(v uint) *uint { return &v }

func testProduct() catalog.Product {
	return catalog.Product{
		ID:         1,
		Name:       "House Blend",
		BasePrice:  100,
		CategoryID: 10,
	}
}

func percentPromo(id uint, value int64) promotion.Promotion {
	return promotion.Promotion{
		ID:            id,
		ProductID:     uintPtr(1),
		DiscountType:  promotion.DiscountTypePercentage,
		DiscountValue: value,
	}
}

func TestPriceForWithoutPromotions(t *testing.T) {
	b, err := PriceFor(testProduct(), nil, nil, 2)
	require.NoError(t, err)

	assert.Equal(t, int64(100), b.OriginalUnitPrice)
	assert.Equal(t, int64(100), b.FinalUnitPrice)
	assert.False(t, b.HasDiscount)
	assert.Equal(t, int64(200), b.LineTotal)
}

func TestPriceForInvalidQuantity(t *testing.T) {
	_, err := PriceFor(testProduct(), nil, nil, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = PriceFor(testProduct(), nil, nil, -3)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestPriceForVariantAdjustmentsApplyToBothPrices(t *testing.T) {
	variants := []catalog.Variant{
		{ID: 5, ProductID: 1, Type: "size", Value: "large", PriceAdjustment: 15},
	}
	promos := []promotion.Promotion{percentPromo(1, 20)}

	b, err := PriceFor(testProduct(), variants, promos, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(115), b.OriginalUnitPrice)
	assert.Equal(t, int64(95), b.FinalUnitPrice)
	assert.True(t, b.HasDiscount)
}

func TestPriceForNegativeAdjustmentClampsAtZero(t *testing.T) {
	variants := []catalog.Variant{
		{ID: 5, ProductID: 1, Type: "size", Value: "sample", PriceAdjustment: -150},
	}

	b, err := PriceFor(testProduct(), variants, nil, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(0), b.OriginalUnitPrice)
	assert.Equal(t, int64(0), b.FinalUnitPrice)
	assert.Equal(t, int64(0), b.LineTotal)
}

func TestPriceForFixedDiscountLargerThanPriceClampsAtZero(t *testing.T) {
	promos := []promotion.Promotion{
		{
			ID:            1,
			ProductID:     uintPtr(1),
			DiscountType:  promotion.DiscountTypeFixedAmount,
			DiscountValue: 500,
		},
	}

	b, err := PriceFor(testProduct(), nil, promos, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(0), b.FinalUnitPrice)
	assert.True(t, b.HasDiscount)
}

func TestPriceForPicksLowestFinalPrice(t *testing.T) {
	promos := []promotion.Promotion{
		percentPromo(1, 10),
		percentPromo(2, 30),
		percentPromo(3, 20),
	}

	b, err := PriceFor(testProduct(), nil, promos, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(70), b.FinalUnitPrice)
}

func TestPriceForDirectMatchBeatsCategoryMatch(t *testing.T) {
	promos := []promotion.Promotion{
		{
			ID:            1,
			CategoryID:    uintPtr(10),
			DiscountType:  promotion.DiscountTypePercentage,
			DiscountValue: 50,
		},
		percentPromo(2, 10),
	}

	b, err := PriceFor(testProduct(), nil, promos, 1)
	require.NoError(t, err)

	// The direct product promotion wins even though the category one
	// discounts deeper.
	assert.Equal(t, int64(90), b.FinalUnitPrice)
}

func TestPriceForTieBreaksOnLowestPromotionID(t *testing.T) {
	promos := []promotion.Promotion{
		percentPromo(7, 20),
		percentPromo(3, 20),
	}

	b, err := PriceFor(testProduct(), nil, promos, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(80), b.FinalUnitPrice)

	// Selection is order independent.
	reversed := []promotion.Promotion{promos[1], promos[0]}
	b2, err := PriceFor(testProduct(), nil, reversed, 1)
	require.NoError(t, err)
	assert.Equal(t, b, b2)
}

func TestPriceForIgnoresNonApplicablePromotions(t *testing.T) {
	promos := []promotion.Promotion{
		{
			ID:            1,
			ProductID:     uintPtr(99),
			DiscountType:  promotion.DiscountTypePercentage,
			DiscountValue: 50,
		},
		{
			ID:            2,
			CategoryID:    uintPtr(42),
			DiscountType:  promotion.DiscountTypePercentage,
			DiscountValue: 50,
		},
	}

	b, err := PriceFor(testProduct(), nil, promos, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(100), b.FinalUnitPrice)
	assert.False(t, b.HasDiscount)
}

func TestAggregate(t *testing.T) {
	lines := []Breakdown{
		{OriginalUnitPrice: 100, FinalUnitPrice: 80, HasDiscount: true, Quantity: 2, LineTotal: 160},
		{OriginalUnitPrice: 50, FinalUnitPrice: 50, Quantity: 1, LineTotal: 50},
	}

	totals := Aggregate(lines)

	assert.Equal(t, 2, totals.ItemCount)
	assert.Equal(t, 3, totals.TotalQuantity)
	assert.Equal(t, int64(250), totals.OriginalTotal)
	assert.Equal(t, int64(210), totals.SubTotal)
	assert.Equal(t, int64(40), totals.Discount)
}

func TestAggregateEmptyCart(t *testing.T) {
	totals := Aggregate(nil)

	assert.Equal(t, CartTotals{}, totals)
	assert.Equal(t, 0, totals.DiscountPercent())
}

func TestDiscountPercentRounds(t *testing.T) {
	tests := []struct {
		name     string
		totals   CartTotals
		expected int
	}{
		{"no discount", CartTotals{OriginalTotal: 100}, 0},
		{"exact fifth", CartTotals{OriginalTotal: 250, Discount: 50}, 20},
		{"rounds up", CartTotals{OriginalTotal: 300, Discount: 50}, 17},
		{"rounds down", CartTotals{OriginalTotal: 700, Discount: 170}, 24},
		{"full discount", CartTotals{OriginalTotal: 80, Discount: 80}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.totals.DiscountPercent())
		})
	}
}

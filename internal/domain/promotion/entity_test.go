// internal/domain/promotion/entity_test.go
package promotion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func uintPtr(v uint) *uint { return &v }

func TestIsActiveAt(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

	p := Promotion{IsActive: true, StartsAt: start, EndsAt: end}

	assert.False(t, p.IsActiveAt(start.Add(-time.Second)))
	assert.True(t, p.IsActiveAt(start))
	assert.True(t, p.IsActiveAt(start.AddDate(0, 0, 3)))
	assert.True(t, p.IsActiveAt(end))
	assert.False(t, p.IsActiveAt(end.Add(time.Second)))

	p.IsActive = false
	assert.False(t, p.IsActiveAt(start.AddDate(0, 0, 3)))
}

func TestAppliesTo(t *testing.T) {
	direct := Promotion{ProductID: uintPtr(7)}
	assert.True(t, direct.AppliesTo(7, 1))
	assert.False(t, direct.AppliesTo(8, 1))

	category := Promotion{CategoryID: uintPtr(3)}
	assert.True(t, category.AppliesTo(99, 3))
	assert.False(t, category.AppliesTo(99, 4))

	unscoped := Promotion{}
	assert.False(t, unscoped.AppliesTo(7, 3))
}

func TestIsDirectMatch(t *testing.T) {
	direct := Promotion{ProductID: uintPtr(7)}
	assert.True(t, direct.IsDirectMatch(7))
	assert.False(t, direct.IsDirectMatch(8))

	category := Promotion{CategoryID: uintPtr(3)}
	assert.False(t, category.IsDirectMatch(7))
}

func TestDiscountedPrice(t *testing.T) {
	tests := []struct {
		name     string
		promo    Promotion
		price    int64
		expected int64
	}{
		{"percentage", Promotion{DiscountType: DiscountTypePercentage, DiscountValue: 20}, 100, 80},
		{"percentage truncates", Promotion{DiscountType: DiscountTypePercentage, DiscountValue: 33}, 100, 67},
		{"fixed amount", Promotion{DiscountType: DiscountTypeFixedAmount, DiscountValue: 30}, 100, 70},
		{"fixed amount clamps", Promotion{DiscountType: DiscountTypeFixedAmount, DiscountValue: 150}, 100, 0},
		{"unknown type is a no-op", Promotion{DiscountType: "bogus", DiscountValue: 50}, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.promo.DiscountedPrice(tt.price))
		})
	}
}

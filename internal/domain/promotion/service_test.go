// internal/domain/promotion/service_test.go
package promotion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	window := func(p Promotion) Promotion {
		p.IsActive = true
		p.StartsAt = now.AddDate(0, 0, -1)
		p.EndsAt = now.AddDate(0, 0, 1)
		return p
	}

	direct := window(Promotion{ID: 1, ProductID: uintPtr(7)})
	category := window(Promotion{ID: 2, CategoryID: uintPtr(3)})
	otherProduct := window(Promotion{ID: 3, ProductID: uintPtr(8)})
	expired := Promotion{
		ID:         4,
		ProductID:  uintPtr(7),
		IsActive:   true,
		StartsAt:   now.AddDate(0, 0, -10),
		EndsAt:     now.AddDate(0, 0, -5),
	}

	promos := []Promotion{direct, category, otherProduct, expired}

	matched := Match(promos, 7, 3, now)
	assert.Equal(t, []Promotion{direct, category}, matched)

	// A promotion whose window closed between the snapshot query and
	// evaluation is dropped.
	assert.Empty(t, Match([]Promotion{expired}, 7, 3, now))

	assert.Empty(t, Match(nil, 7, 3, now))
}

// internal/domain/promotion/service.go
package promotion

import (
	"context"
	"fmt"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
	"gorm.io/gorm"
)

// Service handles promotion read logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new promotion service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// Active returns the promotions whose window contains now and whose
// active flag is set. The result is a fresh snapshot on every call;
// pricing must never hold on to it across renders because windows
// open and close continuously.
func (s *Service) Active(ctx context.Context) ([]Promotion, error) {
	now := time.Now().UTC()

	var promotions []Promotion
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND starts_at <= ? AND ends_at >= ?", true, now, now).
		Order("id ASC").
		Find(&promotions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve active promotions: %w", err)
	}

	return promotions, nil
}

// ForProduct returns the active promotions matching a product, directly
// or via its category. The window is re-checked at evaluation time: a
// promotion can expire between the snapshot query and this call.
func (s *Service) ForProduct(ctx context.Context, productID, categoryID uint) ([]Promotion, error) {
	active, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}
	return Match(active, productID, categoryID, time.Now().UTC()), nil
}

// Match filters a promotion snapshot down to those applying to the
// product at the given instant.
func Match(promotions []Promotion, productID, categoryID uint, now time.Time) []Promotion {
	var matched []Promotion
	for i := range promotions {
		p := &promotions[i]
		if p.IsActiveAt(now) && p.AppliesTo(productID, categoryID) {
			matched = append(matched, *p)
		}
	}
	return matched
}

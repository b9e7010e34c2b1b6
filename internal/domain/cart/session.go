// internal/domain/cart/session.go
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// SessionRepository persists guest carts in Redis with a sliding TTL,
// hydrating product and variant details from the catalog on read.
type SessionRepository struct {
	client *redis.Client
	db     *gorm.DB
	ttl    time.Duration
}

// NewSessionRepository creates a new Redis-backed cart repository
func NewSessionRepository(client *redis.Client, db *gorm.DB, ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		client: client,
		db:     db,
		ttl:    ttl,
	}
}

func sessionCartKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

// Read retrieves the session's cart lines in creation order
func (r *SessionRepository) Read(ctx context.Context, owner Owner) ([]Line, error) {
	sessionCart, err := r.load(ctx, owner)
	if err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(sessionCart.Lines))
	for _, item := range sessionCart.Lines {
		line, err := r.hydrate(ctx, item)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Add creates a new line, or merges into an existing line holding the
// same product with the same variant selection.
func (r *SessionRepository) Add(ctx context.Context, owner Owner, productID uint, variantIDs []uint, quantity int) error {
	sessionCart, err := r.load(ctx, owner)
	if err != nil {
		return err
	}

	if err := r.validateVariants(ctx, productID, variantIDs); err != nil {
		return err
	}

	now := time.Now().UTC()
	merged := false
	for i := range sessionCart.Lines {
		if sessionCart.Lines[i].ProductID == productID && sameIDSet(sessionCart.Lines[i].VariantIDs, variantIDs) {
			sessionCart.Lines[i].Quantity += quantity
			sessionCart.Lines[i].UpdatedAt = now
			merged = true
			break
		}
	}

	if !merged {
		sessionCart.NextID++
		sessionCart.Lines = append(sessionCart.Lines, SessionCartLine{
			ID:         sessionCart.NextID,
			ProductID:  productID,
			VariantIDs: variantIDs,
			Quantity:   quantity,
			AddedAt:    now,
			UpdatedAt:  now,
		})
	}

	return r.save(ctx, owner, sessionCart)
}

// UpdateQuantity sets the quantity of an existing line
func (r *SessionRepository) UpdateQuantity(ctx context.Context, owner Owner, lineID uint, quantity int) error {
	sessionCart, err := r.load(ctx, owner)
	if err != nil {
		return err
	}

	for i := range sessionCart.Lines {
		if sessionCart.Lines[i].ID == lineID {
			sessionCart.Lines[i].Quantity = quantity
			sessionCart.Lines[i].UpdatedAt = time.Now().UTC()
			return r.save(ctx, owner, sessionCart)
		}
	}
	return ErrLineNotFound
}

// UpdateVariants replaces the variant selection of an existing line
func (r *SessionRepository) UpdateVariants(ctx context.Context, owner Owner, lineID uint, variantIDs []uint) error {
	sessionCart, err := r.load(ctx, owner)
	if err != nil {
		return err
	}

	for i := range sessionCart.Lines {
		if sessionCart.Lines[i].ID == lineID {
			if err := r.validateVariants(ctx, sessionCart.Lines[i].ProductID, variantIDs); err != nil {
				return err
			}
			sessionCart.Lines[i].VariantIDs = variantIDs
			sessionCart.Lines[i].UpdatedAt = time.Now().UTC()
			return r.save(ctx, owner, sessionCart)
		}
	}
	return ErrLineNotFound
}

// Remove deletes a line from the session's cart
func (r *SessionRepository) Remove(ctx context.Context, owner Owner, lineID uint) error {
	sessionCart, err := r.load(ctx, owner)
	if err != nil {
		return err
	}

	for i := range sessionCart.Lines {
		if sessionCart.Lines[i].ID == lineID {
			sessionCart.Lines = append(sessionCart.Lines[:i], sessionCart.Lines[i+1:]...)
			return r.save(ctx, owner, sessionCart)
		}
	}
	return ErrLineNotFound
}

// Clear removes the session's cart entirely
func (r *SessionRepository) Clear(ctx context.Context, owner Owner) error {
	if owner.SessionID == "" {
		return fmt.Errorf("session cart requires a session id")
	}

	if err := r.client.Del(ctx, sessionCartKey(owner.SessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session cart: %w", err)
	}
	return nil
}

func (r *SessionRepository) load(ctx context.Context, owner Owner) (*SessionCart, error) {
	if owner.SessionID == "" {
		return nil, fmt.Errorf("session cart requires a session id")
	}

	data, err := r.client.Get(ctx, sessionCartKey(owner.SessionID)).Result()
	if err == redis.Nil {
		now := time.Now().UTC()
		return &SessionCart{
			SessionID: owner.SessionID,
			Lines:     []SessionCartLine{},
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read session cart: %w", err)
	}

	var sessionCart SessionCart
	if err := json.Unmarshal([]byte(data), &sessionCart); err != nil {
		return nil, fmt.Errorf("failed to decode session cart: %w", err)
	}
	return &sessionCart, nil
}

func (r *SessionRepository) save(ctx context.Context, owner Owner, sessionCart *SessionCart) error {
	sessionCart.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(sessionCart)
	if err != nil {
		return fmt.Errorf("failed to encode session cart: %w", err)
	}

	if err := r.client.Set(ctx, sessionCartKey(owner.SessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session cart: %w", err)
	}
	return nil
}

// validateVariants verifies a variant id selection belongs to the
// product and is active before it is stored. Session carts persist raw
// ids, so invalid ids accepted here would surface later as another
// product's price adjustments.
func (r *SessionRepository) validateVariants(ctx context.Context, productID uint, variantIDs []uint) error {
	if len(variantIDs) == 0 {
		return nil
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&catalog.Variant{}).
		Where("id IN ? AND product_id = ? AND is_active = ?", variantIDs, productID, true).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to validate variants: %w", err)
	}
	if count != int64(len(variantIDs)) {
		return fmt.Errorf("one or more variants not found or inactive")
	}
	return nil
}

func (r *SessionRepository) hydrate(ctx context.Context, item SessionCartLine) (Line, error) {
	var product catalog.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, sort_order ASC, id ASC")
		}).
		Where("id = ?", item.ProductID).
		First(&product).Error
	if err != nil {
		return Line{}, fmt.Errorf("failed to load product %d: %w", item.ProductID, err)
	}

	var variants []catalog.Variant
	if len(item.VariantIDs) > 0 {
		err := r.db.WithContext(ctx).
			Where("id IN ?", item.VariantIDs).
			Find(&variants).Error
		if err != nil {
			return Line{}, fmt.Errorf("failed to load variants: %w", err)
		}
	}

	return Line{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Product:   product,
		Variants:  variants,
		CreatedAt: item.AddedAt,
		UpdatedAt: item.UpdatedAt,
	}, nil
}

func sameIDSet(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	have := make(map[uint]bool, len(a))
	for _, id := range a {
		have[id] = true
	}
	for _, id := range b {
		if !have[id] {
			return false
		}
	}
	return true
}

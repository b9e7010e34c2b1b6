// internal/domain/cart/postgres.go
package cart

import (
	"context"
	"fmt"

	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// GormRepository persists authenticated users' carts in Postgres
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new database-backed cart repository
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Read retrieves the user's cart lines in creation order
func (r *GormRepository) Read(ctx context.Context, owner Owner) ([]Line, error) {
	if owner.UserID == nil {
		return nil, fmt.Errorf("user cart requires a user id")
	}

	var rows []CartLine
	err := r.db.WithContext(ctx).
		Where("user_id = ?", *owner.UserID).
		Preload("Product").
		Preload("Product.Category").
		Preload("Product.Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, sort_order ASC, id ASC")
		}).
		Preload("Variants").
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	lines := make([]Line, len(rows))
	for i, row := range rows {
		lines[i] = Line{
			ID:        row.ID,
			ProductID: row.ProductID,
			Quantity:  row.Quantity,
			Product:   row.Product,
			Variants:  row.Variants,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		}
	}
	return lines, nil
}

// Add creates a new line, or merges into an existing line holding the
// same product with the same variant selection.
func (r *GormRepository) Add(ctx context.Context, owner Owner, productID uint, variantIDs []uint, quantity int) error {
	if owner.UserID == nil {
		return fmt.Errorf("user cart requires a user id")
	}

	variants, err := r.loadVariants(ctx, productID, variantIDs)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []CartLine
		if err := tx.Where("user_id = ? AND product_id = ?", *owner.UserID, productID).
			Preload("Variants").
			Find(&existing).Error; err != nil {
			return fmt.Errorf("failed to check existing lines: %w", err)
		}

		for i := range existing {
			if sameVariantSet(existing[i].Variants, variantIDs) {
				existing[i].Quantity += quantity
				if err := tx.Save(&existing[i]).Error; err != nil {
					return fmt.Errorf("failed to update cart line: %w", err)
				}
				return nil
			}
		}

		line := CartLine{
			UserID:    *owner.UserID,
			ProductID: productID,
			Quantity:  quantity,
		}
		if err := tx.Create(&line).Error; err != nil {
			return fmt.Errorf("failed to create cart line: %w", err)
		}
		if len(variants) > 0 {
			if err := tx.Model(&line).Association("Variants").Replace(variants); err != nil {
				return fmt.Errorf("failed to attach variants: %w", err)
			}
		}
		return nil
	})
}

// UpdateQuantity sets the quantity of an existing line
func (r *GormRepository) UpdateQuantity(ctx context.Context, owner Owner, lineID uint, quantity int) error {
	if owner.UserID == nil {
		return fmt.Errorf("user cart requires a user id")
	}

	result := r.db.WithContext(ctx).Model(&CartLine{}).
		Where("id = ? AND user_id = ?", lineID, *owner.UserID).
		Update("quantity", quantity)
	if result.Error != nil {
		return fmt.Errorf("failed to update quantity: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrLineNotFound
	}
	return nil
}

// UpdateVariants replaces the variant selection of an existing line
func (r *GormRepository) UpdateVariants(ctx context.Context, owner Owner, lineID uint, variantIDs []uint) error {
	if owner.UserID == nil {
		return fmt.Errorf("user cart requires a user id")
	}

	var line CartLine
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", lineID, *owner.UserID).
		First(&line).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrLineNotFound
		}
		return fmt.Errorf("failed to load cart line: %w", err)
	}

	variants, err := r.loadVariants(ctx, line.ProductID, variantIDs)
	if err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Model(&line).Association("Variants").Replace(variants); err != nil {
		return fmt.Errorf("failed to replace variants: %w", err)
	}
	return nil
}

// Remove deletes a line from the user's cart
func (r *GormRepository) Remove(ctx context.Context, owner Owner, lineID uint) error {
	if owner.UserID == nil {
		return fmt.Errorf("user cart requires a user id")
	}

	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", lineID, *owner.UserID).
		Delete(&CartLine{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove cart line: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrLineNotFound
	}
	return nil
}

// Clear removes every line from the user's cart
func (r *GormRepository) Clear(ctx context.Context, owner Owner) error {
	if owner.UserID == nil {
		return fmt.Errorf("user cart requires a user id")
	}

	err := r.db.WithContext(ctx).
		Where("user_id = ?", *owner.UserID).
		Delete(&CartLine{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (r *GormRepository) loadVariants(ctx context.Context, productID uint, variantIDs []uint) ([]catalog.Variant, error) {
	if len(variantIDs) == 0 {
		return nil, nil
	}

	var variants []catalog.Variant
	err := r.db.WithContext(ctx).
		Where("id IN ? AND product_id = ? AND is_active = ?", variantIDs, productID, true).
		Find(&variants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load variants: %w", err)
	}
	if len(variants) != len(variantIDs) {
		return nil, fmt.Errorf("one or more variants not found or inactive")
	}
	return variants, nil
}

// sameVariantSet compares a line's variants against a requested id set,
// order-insensitively.
func sameVariantSet(variants []catalog.Variant, variantIDs []uint) bool {
	if len(variants) != len(variantIDs) {
		return false
	}
	have := make(map[uint]bool, len(variants))
	for _, v := range variants {
		have[v.ID] = true
	}
	for _, id := range variantIDs {
		if !have[id] {
			return false
		}
	}
	return true
}

// internal/domain/cart/repository.go
package cart

import (
	"context"
	"errors"
	"fmt"
)

// ErrLineNotFound is returned when a mutation targets a line id that is
// not in the owner's cart.
var ErrLineNotFound = errors.New("cart line not found")

// Owner identifies whose cart is being read or mutated: an
// authenticated user id, or a guest session id.
type Owner struct {
	UserID    *uint
	SessionID string
}

// Key returns a stable identifier for the owner, used for per-owner
// bookkeeping inside the store.
func (o Owner) Key() string {
	if o.UserID != nil {
		return fmt.Sprintf("user:%d", *o.UserID)
	}
	return "session:" + o.SessionID
}

// Valid reports whether the owner identifies anyone at all
func (o Owner) Valid() bool {
	return o.UserID != nil || o.SessionID != ""
}

// Repository is the cart persistence collaborator. The store treats it
// as external and fallible: any error leaves the previously confirmed
// cart state untouched.
//
// Read returns lines in creation order with product and variant details
// embedded. Add merges into an existing line when the same product and
// variant selection is already present.
type Repository interface {
	Read(ctx context.Context, owner Owner) ([]Line, error)
	Add(ctx context.Context, owner Owner, productID uint, variantIDs []uint, quantity int) error
	UpdateQuantity(ctx context.Context, owner Owner, lineID uint, quantity int) error
	UpdateVariants(ctx context.Context, owner Owner, lineID uint, variantIDs []uint) error
	Remove(ctx context.Context, owner Owner, lineID uint) error
	Clear(ctx context.Context, owner Owner) error
}

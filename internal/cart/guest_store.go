package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/tindahanph/storefront-backend/pkg/errors"
	"github.com/tindahanph/storefront-backend/pkg/redis"
)

// GuestLine is one product line in an anonymous session cart.
type GuestLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Selected  bool      `json:"selected"`
	Size      string    `json:"size,omitempty"`
	Kind      string    `json:"kind,omitempty"`
}

// GuestCart is the full anonymous cart, keyed by the session token.
type GuestCart struct {
	Lines []GuestLine `json:"lines"`
}

type kvStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	GuestCartKey(sessionToken string) string
}

// GuestStore keeps anonymous carts in redis with a rolling TTL. Guest carts
// only support browsing; checkout requires signing in.
type GuestStore struct {
	kv  kvStore
	ttl time.Duration
}

// NewGuestStore wires a guest cart store over the provided key-value client.
func NewGuestStore(kv kvStore, ttl time.Duration) (*GuestStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("ttl must be positive")
	}
	return &GuestStore{kv: kv, ttl: ttl}, nil
}

// Load returns the session's cart, or an empty cart when none exists.
func (g *GuestStore) Load(ctx context.Context, sessionToken string) (*GuestCart, error) {
	if sessionToken == "" {
		return nil, fmt.Errorf("session token is required")
	}
	raw, err := g.kv.Get(ctx, g.kv.GuestCartKey(sessionToken))
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return &GuestCart{}, nil
		}
		return nil, err
	}
	var guestCart GuestCart
	if err := json.Unmarshal([]byte(raw), &guestCart); err != nil {
		return nil, fmt.Errorf("decode guest cart: %w", err)
	}
	return &guestCart, nil
}

// Add merges a line into the session's cart and refreshes the TTL. New
// lines start selected, like their persistent counterparts.
func (g *GuestStore) Add(ctx context.Context, sessionToken string, line GuestLine) (*GuestCart, error) {
	if line.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if line.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	guestCart, err := g.Load(ctx, sessionToken)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range guestCart.Lines {
		if guestCart.Lines[i].ProductID == line.ProductID {
			guestCart.Lines[i].Quantity += line.Quantity
			if line.Size != "" {
				guestCart.Lines[i].Size = line.Size
			}
			if line.Kind != "" {
				guestCart.Lines[i].Kind = line.Kind
			}
			merged = true
			break
		}
	}
	if !merged {
		line.Selected = true
		guestCart.Lines = append(guestCart.Lines, line)
	}

	if err := g.save(ctx, sessionToken, guestCart); err != nil {
		return nil, err
	}
	return guestCart, nil
}

// SetQuantity replaces a line's quantity.
func (g *GuestStore) SetQuantity(ctx context.Context, sessionToken string, productID uuid.UUID, quantity int) (*GuestCart, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return g.updateLine(ctx, sessionToken, productID, func(line *GuestLine) {
		line.Quantity = quantity
	})
}

// SetSelected flips one line in or out of the checkout selection.
func (g *GuestStore) SetSelected(ctx context.Context, sessionToken string, productID uuid.UUID, selected bool) (*GuestCart, error) {
	return g.updateLine(ctx, sessionToken, productID, func(line *GuestLine) {
		line.Selected = selected
	})
}

// SetSelectedAll applies one selection state to every line in the cart.
func (g *GuestStore) SetSelectedAll(ctx context.Context, sessionToken string, selected bool) (*GuestCart, error) {
	guestCart, err := g.Load(ctx, sessionToken)
	if err != nil {
		return nil, err
	}
	for i := range guestCart.Lines {
		guestCart.Lines[i].Selected = selected
	}
	if len(guestCart.Lines) == 0 {
		return guestCart, nil
	}
	if err := g.save(ctx, sessionToken, guestCart); err != nil {
		return nil, err
	}
	return guestCart, nil
}

// SetVariant updates the size and/or kind of an existing line. Nil fields
// keep their current value.
func (g *GuestStore) SetVariant(ctx context.Context, sessionToken string, productID uuid.UUID, size, kind *string) (*GuestCart, error) {
	return g.updateLine(ctx, sessionToken, productID, func(line *GuestLine) {
		if size != nil {
			line.Size = *size
		}
		if kind != nil {
			line.Kind = *kind
		}
	})
}

func (g *GuestStore) updateLine(ctx context.Context, sessionToken string, productID uuid.UUID, apply func(*GuestLine)) (*GuestCart, error) {
	guestCart, err := g.Load(ctx, sessionToken)
	if err != nil {
		return nil, err
	}
	for i := range guestCart.Lines {
		if guestCart.Lines[i].ProductID == productID {
			apply(&guestCart.Lines[i])
			if err := g.save(ctx, sessionToken, guestCart); err != nil {
				return nil, err
			}
			return guestCart, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
}

// Remove deletes one product line from the session's cart.
func (g *GuestStore) Remove(ctx context.Context, sessionToken string, productID uuid.UUID) (*GuestCart, error) {
	guestCart, err := g.Load(ctx, sessionToken)
	if err != nil {
		return nil, err
	}

	kept := guestCart.Lines[:0]
	for _, line := range guestCart.Lines {
		if line.ProductID != productID {
			kept = append(kept, line)
		}
	}
	guestCart.Lines = kept

	if len(guestCart.Lines) == 0 {
		if err := g.Clear(ctx, sessionToken); err != nil {
			return nil, err
		}
		return guestCart, nil
	}
	if err := g.save(ctx, sessionToken, guestCart); err != nil {
		return nil, err
	}
	return guestCart, nil
}

// Clear drops the session's cart entirely.
func (g *GuestStore) Clear(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return fmt.Errorf("session token is required")
	}
	return g.kv.Del(ctx, g.kv.GuestCartKey(sessionToken))
}

// Merge folds a guest cart into the customer's persistent cart on sign-in,
// then clears the session copy. Quantities merge per product.
func (g *GuestStore) Merge(ctx context.Context, sessionToken string, customerID uuid.UUID, svc Service) error {
	guestCart, err := g.Load(ctx, sessionToken)
	if err != nil {
		return err
	}
	for _, line := range guestCart.Lines {
		if _, err := svc.Add(ctx, AddInput{
			CustomerID: customerID,
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			Size:       line.Size,
			Kind:       line.Kind,
		}); err != nil {
			return err
		}
	}
	return g.Clear(ctx, sessionToken)
}

func (g *GuestStore) save(ctx context.Context, sessionToken string, guestCart *GuestCart) error {
	if sessionToken == "" {
		return fmt.Errorf("session token is required")
	}
	payload, err := json.Marshal(guestCart)
	if err != nil {
		return fmt.Errorf("encode guest cart: %w", err)
	}
	return g.kv.Set(ctx, g.kv.GuestCartKey(sessionToken), payload, g.ttl)
}

package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tindahanph/storefront-backend/pkg/db/models"
	pkgerrors "github.com/tindahanph/storefront-backend/pkg/errors"
)

// ProductGetter narrows the catalog surface the cart needs.
type ProductGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service defines authenticated cart operations. All mutations are scoped to
// the owning customer; one row per (customer, product) with quantities merged.
type Service interface {
	Add(ctx context.Context, input AddInput) (*models.CartItem, error)
	SetQuantity(ctx context.Context, customerID, itemID uuid.UUID, quantity int) (*models.CartItem, error)
	SetSelected(ctx context.Context, customerID, itemID uuid.UUID, selected bool) (*models.CartItem, error)
	SetSelectedAll(ctx context.Context, customerID uuid.UUID, selected bool) error
	SetVariant(ctx context.Context, input SetVariantInput) (*models.CartItem, error)
	Remove(ctx context.Context, customerID, itemID uuid.UUID) error
	Clear(ctx context.Context, customerID uuid.UUID) error
	List(ctx context.Context, customerID uuid.UUID) ([]models.CartItem, error)
}

type service struct {
	repo     Repository
	products ProductGetter
}

// AddInput carries one add-to-cart request.
type AddInput struct {
	CustomerID uuid.UUID
	ProductID  uuid.UUID
	Quantity   int
	Size       string
	Kind       string
}

// SetVariantInput updates the size/kind of an existing line.
type SetVariantInput struct {
	CustomerID uuid.UUID
	ItemID     uuid.UUID
	Size       *string
	Kind       *string
}

// NewService wires a cart service with the provided dependencies.
func NewService(repo Repository, products ProductGetter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product getter required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) Add(ctx context.Context, input AddInput) (*models.CartItem, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.products.Get(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if err := validateVariant(product, input.Size, input.Kind); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByProduct(ctx, input.CustomerID, input.ProductID)
	switch {
	case err == nil:
		existing.Quantity += input.Quantity
		if input.Size != "" {
			existing.Size = input.Size
		}
		if input.Kind != "" {
			existing.Kind = input.Kind
		}
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	case errors.Is(err, ErrItemNotFound):
		item := &models.CartItem{
			CustomerID: input.CustomerID,
			ProductID:  input.ProductID,
			Quantity:   input.Quantity,
			Price:      product.Price,
			Selected:   true,
			Size:       input.Size,
			Kind:       input.Kind,
		}
		if err := s.repo.Create(ctx, item); err != nil {
			return nil, err
		}
		return item, nil
	default:
		return nil, err
	}
}

func (s *service) SetQuantity(ctx context.Context, customerID, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	item, err := s.getOwned(ctx, customerID, itemID)
	if err != nil {
		return nil, err
	}
	item.Quantity = quantity
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) SetSelected(ctx context.Context, customerID, itemID uuid.UUID, selected bool) (*models.CartItem, error) {
	item, err := s.getOwned(ctx, customerID, itemID)
	if err != nil {
		return nil, err
	}
	if item.Selected == selected {
		return item, nil
	}
	item.Selected = selected
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) SetSelectedAll(ctx context.Context, customerID uuid.UUID, selected bool) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	return s.repo.SetSelectedAll(ctx, customerID, selected)
}

func (s *service) SetVariant(ctx context.Context, input SetVariantInput) (*models.CartItem, error) {
	item, err := s.getOwned(ctx, input.CustomerID, input.ItemID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.Get(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}

	size := item.Size
	kind := item.Kind
	if input.Size != nil {
		size = *input.Size
	}
	if input.Kind != nil {
		kind = *input.Kind
	}
	if err := validateVariant(product, size, kind); err != nil {
		return nil, err
	}

	item.Size = size
	item.Kind = kind
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) Remove(ctx context.Context, customerID, itemID uuid.UUID) error {
	if err := s.repo.Delete(ctx, customerID, itemID); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return err
	}
	return nil
}

func (s *service) Clear(ctx context.Context, customerID uuid.UUID) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	return s.repo.DeleteByOwner(ctx, customerID)
}

func (s *service) List(ctx context.Context, customerID uuid.UUID) ([]models.CartItem, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	return s.repo.ListByOwner(ctx, customerID)
}

func (s *service) getOwned(ctx context.Context, customerID, itemID uuid.UUID) (*models.CartItem, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	item, err := s.repo.Get(ctx, customerID, itemID)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, err
	}
	return item, nil
}

func validateVariant(product *models.Product, size, kind string) error {
	if size != "" && len(product.Sizes) > 0 && !slices.Contains(product.Sizes, size) {
		return pkgerrors.New(pkgerrors.CodeValidation, "size not offered for this product").
			WithDetails(map[string]any{"size": size})
	}
	if kind != "" && len(product.Kinds) > 0 && !slices.Contains(product.Kinds, kind) {
		return pkgerrors.New(pkgerrors.CodeValidation, "kind not offered for this product").
			WithDetails(map[string]any{"kind": kind})
	}
	return nil
}

// Subtotal sums quantity times snapshot price over the given lines.
func Subtotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tindahanph/storefront-backend/pkg/db/models"
)

// ErrItemNotFound signals the owner has no such cart line.
var ErrItemNotFound = errors.New("cart item not found")

// Repository manages persistence for authenticated cart lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.CartItem) error
	Update(ctx context.Context, item *models.CartItem) error
	Get(ctx context.Context, customerID, itemID uuid.UUID) (*models.CartItem, error)
	GetByProduct(ctx context.Context, customerID, productID uuid.UUID) (*models.CartItem, error)
	ListByOwner(ctx context.Context, customerID uuid.UUID) ([]models.CartItem, error)
	ListSelected(ctx context.Context, customerID uuid.UUID) ([]models.CartItem, error)
	SetSelectedAll(ctx context.Context, customerID uuid.UUID, selected bool) error
	Delete(ctx context.Context, customerID, itemID uuid.UUID) error
	DeleteByIDs(ctx context.Context, customerID uuid.UUID, ids []uuid.UUID) error
	DeleteSelected(ctx context.Context, customerID uuid.UUID) error
	DeleteByOwner(ctx context.Context, customerID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a cart repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) Update(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repository) Get(ctx context.Context, customerID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND id = ?", customerID, itemID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) GetByProduct(ctx context.Context, customerID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND product_id = ?", customerID, productID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListByOwner(ctx context.Context, customerID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListSelected(ctx context.Context, customerID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND selected = ?", customerID, true).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) SetSelectedAll(ctx context.Context, customerID uuid.UUID, selected bool) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("customer_id = ?", customerID).
		Update("selected", selected).Error
}

func (r *repository) Delete(ctx context.Context, customerID, itemID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("customer_id = ? AND id = ?", customerID, itemID).
		Delete(&models.CartItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *repository) DeleteByIDs(ctx context.Context, customerID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("customer_id = ? AND id IN ?", customerID, ids).
		Delete(&models.CartItem{}).Error
}

func (r *repository) DeleteSelected(ctx context.Context, customerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("customer_id = ? AND selected = ?", customerID, true).
		Delete(&models.CartItem{}).Error
}

func (r *repository) DeleteByOwner(ctx context.Context, customerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Delete(&models.CartItem{}).Error
}

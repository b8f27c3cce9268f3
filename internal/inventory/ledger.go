package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tindahanph/storefront-backend/pkg/db/models"
)

// Ledger owns every stock mutation. Decrements clamp at zero and increments
// are unbounded; both run as single atomic UPDATE statements so concurrent
// checkouts never interleave a read-modify-write.
type Ledger interface {
	WithTx(tx *gorm.DB) Ledger
	Decrement(ctx context.Context, productID uuid.UUID, qty int) error
	Increment(ctx context.Context, productID uuid.UUID, qty int) error
	Stock(ctx context.Context, productID uuid.UUID) (int, error)
}

type ledger struct {
	db *gorm.DB
}

// NewLedger returns a stock ledger bound to the provided database.
func NewLedger(db *gorm.DB) Ledger {
	return &ledger{db: db}
}

func (l *ledger) WithTx(tx *gorm.DB) Ledger {
	if tx == nil {
		return l
	}
	return &ledger{db: tx}
}

// Decrement reduces stock by qty, clamping at zero. Oversells record the
// sale; stock bottoms out rather than going negative.
func (l *ledger) Decrement(ctx context.Context, productID uuid.UUID, qty int) error {
	if productID == uuid.Nil {
		return fmt.Errorf("product id is required")
	}
	if qty <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", qty)
	}

	result := l.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("CASE WHEN stock > ? THEN stock - ? ELSE 0 END", qty, qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("product %s not found", productID)
	}
	return nil
}

// Increment restores stock by qty, used when a return is approved.
func (l *ledger) Increment(ctx context.Context, productID uuid.UUID, qty int) error {
	if productID == uuid.Nil {
		return fmt.Errorf("product id is required")
	}
	if qty <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", qty)
	}

	result := l.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("product %s not found", productID)
	}
	return nil
}

func (l *ledger) Stock(ctx context.Context, productID uuid.UUID) (int, error) {
	var product models.Product
	if err := l.db.WithContext(ctx).
		Select("stock").
		First(&product, "id = ?", productID).Error; err != nil {
		return 0, err
	}
	return product.Stock, nil
}

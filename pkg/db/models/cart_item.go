package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is one product line in an authenticated customer's cart. Price is
// snapshotted at add time; checkout consumes selected lines and deletes them.
type CartItem struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID       `gorm:"column:customer_id;type:uuid;not null;uniqueIndex:idx_cart_items_owner_product"`
	ProductID  uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_items_owner_product"`
	Quantity   int             `gorm:"column:quantity;not null"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Selected   bool            `gorm:"column:selected;not null;default:true"`
	Size       string          `gorm:"column:size;not null;default:''"`
	Kind       string          `gorm:"column:kind;not null;default:''"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

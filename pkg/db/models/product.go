package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the catalog entry whose stock the inventory ledger owns.
// Stock is only ever mutated through atomic update statements; see
// internal/inventory.
type Product struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Slug      string          `gorm:"column:slug;not null;uniqueIndex"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Stock     int             `gorm:"column:stock;not null;default:0"`
	Sizes     []string        `gorm:"column:sizes;type:jsonb;serializer:json"`
	Kinds     []string        `gorm:"column:kinds;type:jsonb;serializer:json"`
	Image     *string         `gorm:"column:image"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tindahanph/storefront-backend/pkg/enums"
)

// Customer is a storefront account able to hold a cart and place orders.
type Customer struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FirstName        string             `gorm:"column:first_name;not null"`
	LastName         string             `gorm:"column:last_name;not null"`
	Email            string             `gorm:"column:email;not null;uniqueIndex"`
	Phone            string             `gorm:"column:phone"`
	PasswordHash     string             `gorm:"column:password_hash;not null"`
	Role             enums.CustomerRole `gorm:"column:role;not null;default:'customer'"`
	DefaultAddressID *uuid.UUID         `gorm:"column:default_address_id;type:uuid"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

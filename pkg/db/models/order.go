package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tindahanph/storefront-backend/pkg/enums"
)

// Order is the immutable record of a finalized checkout attempt.
// TotalAmount always equals the sum of item totals plus ShippingAmount.
// ShippingAddress is a denormalized snapshot, never a live reference.
type Order struct {
	ID                     uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReferenceNumber        string                   `gorm:"column:reference_number;not null;uniqueIndex"`
	CustomerID             uuid.UUID                `gorm:"column:customer_id;type:uuid;not null;index"`
	TotalAmount            decimal.Decimal          `gorm:"column:total_amount;type:numeric(12,2);not null"`
	ShippingAmount         decimal.Decimal          `gorm:"column:shipping_amount;type:numeric(12,2);not null"`
	PaymentMethod          enums.PaymentMethod      `gorm:"column:payment_method;not null"`
	PaymentStatus          enums.PaymentStatus      `gorm:"column:payment_status;not null;default:'pending'"`
	PaymentReferenceNumber *string                  `gorm:"column:payment_reference_number"`
	OrderStatus            enums.OrderStatus        `gorm:"column:order_status;not null;default:'pending'"`
	ReturnRefundStatus     enums.ReturnRefundStatus `gorm:"column:return_refund_status;not null;default:'none'"`
	ReturnType             *enums.ReturnType        `gorm:"column:return_type"`
	ShippingMethod         enums.DeliveryMethod     `gorm:"column:shipping_method;not null;default:'delivery'"`
	ShippingAddress        *string                  `gorm:"column:shipping_address"`
	ShippingAddressID      *uuid.UUID               `gorm:"column:shipping_address_id;type:uuid"`
	Notes                  *string                  `gorm:"column:notes"`
	DeliveredAt            *time.Time               `gorm:"column:delivered_at"`
	Items                  []OrderItem              `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt              time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// CustomerAddress is a saved delivery address.
type CustomerAddress struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID      uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`
	Label           string    `gorm:"column:label"`
	CompleteAddress string    `gorm:"column:complete_address;not null"`
	City            string    `gorm:"column:city;not null"`
	Province        string    `gorm:"column:province;not null"`
	ZipCode         string    `gorm:"column:zip_code;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Oneline renders the address the way order snapshots store it.
func (a CustomerAddress) Oneline() string {
	return a.CompleteAddress + ", " + a.City + ", " + a.Province + ", " + a.ZipCode
}

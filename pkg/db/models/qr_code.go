package models

import (
	"time"

	"github.com/google/uuid"
)

// QRCode is a display-only payment QR image shown on the manual reference path.
type QRCode struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Image     string    `gorm:"column:image;not null"`
	Active    bool      `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

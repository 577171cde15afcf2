package models

import (
	"time"

	"gorm.io/gorm"
)

// DeliveryPoint represents a pickup/delivery location managed by the admin.
// Deactivating a point does not invalidate orders already scheduled at it.
type DeliveryPoint struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"not null" json:"name"`
	Address       string         `gorm:"not null" json:"address"`
	ReferenceNote string         `json:"reference_note"` // e.g. "blue door next to the bakery"
	Active        bool           `gorm:"default:true" json:"active"`
	Latitude      float64        `json:"latitude"`
	Longitude     float64        `json:"longitude"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the DeliveryPoint model
func (DeliveryPoint) TableName() string {
	return "delivery_points"
}

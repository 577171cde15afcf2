package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification audiences.
const (
	AudienceCustomer = "customer"
	AudienceAdmin    = "admin"
)

// Notification types. Each type maps to exactly one triggering transition.
const (
	NotificationQuoteIssued         = "quote_issued"
	NotificationOrderRejected       = "order_rejected"
	NotificationDeliveryScheduled   = "delivery_scheduled"
	NotificationRescheduleRequested = "reschedule_requested"
	NotificationRescheduleApproved  = "reschedule_approved"
	NotificationRescheduleRejected  = "reschedule_rejected"
	NotificationDeliveryConfirmed   = "delivery_confirmed"
)

// Notification records an event emitted to the counterparty of an order
// transition. Created only as a side effect of a CustomOrder transition.
type Notification struct {
	ID       uint        `gorm:"primaryKey" json:"id"`
	Audience string      `gorm:"not null;index" json:"audience"` // "customer" or "admin"
	Type     string      `gorm:"not null" json:"type"`
	OrderID  uint        `gorm:"not null;index" json:"order_id"`
	Order    CustomOrder `gorm:"foreignKey:OrderID" json:"-"`

	// Denormalized display payload so the inbox renders without joins.
	CustomerName string `json:"customer_name"`
	ModelType    string `json:"model_type"`
	Message      string `json:"message"`

	Read      bool           `gorm:"default:false" json:"read"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}

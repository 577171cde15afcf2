package models

import (
	"time"

	"gorm.io/gorm"
)

// Quoting statuses for a custom order.
const (
	StatusPending  = "pending"
	StatusQuoted   = "quoted"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Delivery statuses. The delivery track only becomes meaningful after payment.
const (
	DeliveryStatusPaid             = "PAID"
	DeliveryStatusScheduled        = "SCHEDULED"
	DeliveryStatusConfirmed        = "CONFIRMED"
	DeliveryStatusReadyForDelivery = "READY_FOR_DELIVERY"
	DeliveryStatusDelivered        = "DELIVERED"
	DeliveryStatusCancelled        = "CANCELLED"
)

// Rescheduling negotiation states.
const (
	ReschedulingNone      = "NONE"
	ReschedulingRequested = "REQUESTED"
)

// ModelTypes is the closed set of product categories customers can order.
var ModelTypes = []string{"llavero", "cuadro_pequeno", "cuadro_grande"}

// deliveryTransitions is the single authority for forward delivery moves.
// CANCELLED is reachable from any non-terminal state via an explicit cancel.
var deliveryTransitions = map[string]string{
	DeliveryStatusPaid:             DeliveryStatusScheduled,
	DeliveryStatusScheduled:        DeliveryStatusConfirmed,
	DeliveryStatusConfirmed:        DeliveryStatusReadyForDelivery,
	DeliveryStatusReadyForDelivery: DeliveryStatusDelivered,
}

// CustomOrder represents a customer-submitted request for a personalized product
type CustomOrder struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	CustomerID    uint   `gorm:"not null;index" json:"customer_id"` // foreign key to users table
	Customer      User   `gorm:"foreignKey:CustomerID" json:"customer"`
	CustomerName  string `json:"customer_name"`  // denormalized for display
	CustomerEmail string `json:"customer_email"` // denormalized for display
	CustomerPhone string `json:"customer_phone"` // denormalized for display

	ModelType   string  `json:"model_type"` // llavero, cuadro_pequeno, cuadro_grande
	Description string  `json:"description"`
	ImageS3Key  *string `json:"image_s3_key"`                 // S3 key for the reference image
	ImageURL    *string `gorm:"-" json:"image_url,omitempty"` // computed field, presigned URL for image

	Status  string  `gorm:"default:'pending'" json:"status"` // pending, quoted, accepted, rejected
	Price   float64 `json:"price"`                           // set when the order is quoted
	Comment *string `json:"comment"`                         // admin note, set on quote or rejection
	Total   float64 `json:"total"`                           // set when the order is paid

	DeliveryStatus    string         `json:"delivery_status"` // empty until payment confirmation
	DeliveryPointID   *uint          `gorm:"index" json:"delivery_point_id"`
	DeliveryPoint     *DeliveryPoint `gorm:"foreignKey:DeliveryPointID" json:"delivery_point,omitempty"`
	DeliveryDate      *time.Time     `json:"delivery_date"`
	DeliveryConfirmed bool           `json:"delivery_confirmed"`

	ReschedulingStatus   string     `gorm:"default:'NONE'" json:"rescheduling_status"` // NONE, REQUESTED
	ProposedDeliveryDate *time.Time `json:"proposed_delivery_date"`
	ReschedulingReason   *string    `json:"rescheduling_reason"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the CustomOrder model
func (CustomOrder) TableName() string {
	return "custom_orders"
}

// IsValidModelType reports whether modelType is in the recognized set.
func IsValidModelType(modelType string) bool {
	for _, mt := range ModelTypes {
		if mt == modelType {
			return true
		}
	}
	return false
}

// NormalizedStatus treats legacy records missing a status as pending.
func (o *CustomOrder) NormalizedStatus() string {
	if o.Status == "" {
		return StatusPending
	}
	return o.Status
}

// DisplayModelType renders unknown or missing model types as "unspecified"
// instead of failing downstream consumers.
func (o *CustomOrder) DisplayModelType() string {
	if o.ModelType == "" || !IsValidModelType(o.ModelType) {
		return "unspecified"
	}
	return o.ModelType
}

// NextDeliveryStatus returns the single next state in the delivery graph.
// The second return is false when no further forward transition exists
// (DELIVERED, CANCELLED, or the order never entered the delivery track).
func NextDeliveryStatus(current string) (string, bool) {
	next, ok := deliveryTransitions[current]
	return next, ok
}

// IsTerminalDeliveryStatus reports whether no further delivery transition is
// possible from the given state.
func IsTerminalDeliveryStatus(status string) bool {
	return status == DeliveryStatusDelivered || status == DeliveryStatusCancelled
}

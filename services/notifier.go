package services

import (
	"fmt"
	"log"

	"github.com/lupita-crafts/lupitas-crafts-api/models"
	"gorm.io/gorm"
)

// TransitionEvent is the domain event emitted after an order transition
// commits. A subscriber turns it into a persisted Notification; the state
// machine itself stays free of notification concerns.
type TransitionEvent struct {
	Audience string
	Type     string
	Order    *models.CustomOrder
	Message  string
}

// Notifier turns transition events into notifications for the counterparty.
type Notifier interface {
	// Notify records a notification for the event's audience. Errors are
	// returned so the caller can log them, but a failed dispatch must never
	// roll back the transition that triggered it.
	Notify(event TransitionEvent) (*models.Notification, error)
}

// DBNotifier persists notifications through gorm.
type DBNotifier struct {
	db *gorm.DB
}

var notifierInstance Notifier

// InitNotifier initializes the notifier with a database backend
func InitNotifier(db *gorm.DB) Notifier {
	notifierInstance = &DBNotifier{db: db}
	return notifierInstance
}

// GetNotifier returns the initialized notifier instance
func GetNotifier() Notifier {
	return notifierInstance
}

// SetNotifier sets the notifier instance (primarily for testing)
func SetNotifier(n Notifier) {
	notifierInstance = n
}

// Notify persists a notification row for the event.
func (n *DBNotifier) Notify(event TransitionEvent) (*models.Notification, error) {
	if event.Order == nil {
		return nil, &DispatchError{Code: "DISPATCH_ERROR", Message: "notification event has no order"}
	}

	notification := models.Notification{
		Audience:     event.Audience,
		Type:         event.Type,
		OrderID:      event.Order.ID,
		CustomerName: event.Order.CustomerName,
		ModelType:    event.Order.DisplayModelType(),
		Message:      event.Message,
	}

	if err := n.db.Create(&notification).Error; err != nil {
		return nil, &DispatchError{
			Code:    "DISPATCH_ERROR",
			Message: fmt.Sprintf("failed to persist notification: %v", err),
		}
	}

	return &notification, nil
}

// emit dispatches a transition event and swallows dispatch failures.
// Notification delivery is best-effort and decoupled from lifecycle
// correctness: the state transition has already committed by the time this
// runs, so a failure here is logged and nothing more. Emission happens
// synchronously after the write, which keeps notifications ordered per order.
func emit(event TransitionEvent) {
	notifier := GetNotifier()
	if notifier == nil {
		return
	}

	if _, err := notifier.Notify(event); err != nil {
		var orderID uint
		if event.Order != nil {
			orderID = event.Order.ID
		}
		log.Printf("notification dispatch failed for order %d (%s): %v", orderID, event.Type, err)
	}
}

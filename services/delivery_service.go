package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lupita-crafts/lupitas-crafts-api/models"
	"gorm.io/gorm"
)

// DeliveryService drives an accepted order from payment confirmation through
// physical delivery, including the customer/admin rescheduling negotiation.
// All transition validity lives here; callers only decide when to invoke.
type DeliveryService struct {
	db *gorm.DB
}

var deliveryServiceInstance *DeliveryService

// InitDeliveryService initializes the delivery service
func InitDeliveryService(db *gorm.DB) *DeliveryService {
	deliveryServiceInstance = &DeliveryService{db: db}
	return deliveryServiceInstance
}

// GetDeliveryService returns the initialized delivery service instance
func GetDeliveryService() *DeliveryService {
	return deliveryServiceInstance
}

// ScheduleDelivery sets the delivery date for a freshly paid order and moves
// it to SCHEDULED. An optional delivery point can be attached at this time.
func (s *DeliveryService) ScheduleDelivery(orderID uint, deliveryDate time.Time, deliveryPointID *uint) (*models.CustomOrder, error) {
	order, err := s.getDeliverableOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.DeliveryStatus != models.DeliveryStatusPaid {
		return nil, &InvalidStateError{
			Code:    "NOT_AWAITING_SCHEDULE",
			Message: fmt.Sprintf("Order %d is %s, only paid orders can be scheduled", orderID, order.DeliveryStatus),
		}
	}

	updates := map[string]interface{}{
		"delivery_status": models.DeliveryStatusScheduled,
		"delivery_date":   deliveryDate,
	}
	if deliveryPointID != nil {
		updates["delivery_point_id"] = *deliveryPointID
	}
	if err := s.commitIfDeliveryStatus(orderID, models.DeliveryStatusPaid, updates); err != nil {
		return nil, err
	}

	order, err = s.reload(orderID)
	if err != nil {
		return nil, err
	}

	emit(TransitionEvent{
		Audience: models.AudienceCustomer,
		Type:     models.NotificationDeliveryScheduled,
		Order:    order,
		Message:  fmt.Sprintf("Your order is scheduled for delivery on %s", deliveryDate.Format(time.RFC3339)),
	})
	return order, nil
}

// AdvanceStatus moves the order to the single next state in the delivery
// graph. Terminal states (DELIVERED, CANCELLED) have no further transition,
// and an open rescheduling negotiation must be resolved before the order can
// move on.
func (s *DeliveryService) AdvanceStatus(orderID uint) (*models.CustomOrder, error) {
	order, err := s.getDeliverableOrder(orderID)
	if err != nil {
		return nil, err
	}

	next, ok := models.NextDeliveryStatus(order.DeliveryStatus)
	if !ok {
		return nil, &InvalidStateError{
			Code:    "NO_FURTHER_TRANSITION",
			Message: fmt.Sprintf("Order %d is %s, no further transition", orderID, order.DeliveryStatus),
		}
	}
	if order.ReschedulingStatus == models.ReschedulingRequested {
		return nil, &InvalidStateError{
			Code:    "RESCHEDULE_PENDING",
			Message: fmt.Sprintf("Order %d has an open rescheduling request", orderID),
		}
	}

	result := s.db.Model(&models.CustomOrder{}).
		Where("id = ? AND delivery_status = ? AND rescheduling_status = ?",
			orderID, order.DeliveryStatus, models.ReschedulingNone).
		Updates(map[string]interface{}{"delivery_status": next})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, staleStateError(orderID)
	}

	return s.reload(orderID)
}

// ConfirmDelivery is the customer's terminal acknowledgment of a scheduled
// delivery, distinct from the admin's DELIVERED mark which records the
// physical handoff. Blocked while a rescheduling negotiation is open.
func (s *DeliveryService) ConfirmDelivery(orderID uint) (*models.CustomOrder, error) {
	order, err := s.getDeliverableOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.DeliveryStatus != models.DeliveryStatusReadyForDelivery {
		return nil, &InvalidStateError{
			Code:    "NOT_READY_FOR_DELIVERY",
			Message: fmt.Sprintf("Order %d is %s, only orders ready for delivery can be confirmed", orderID, order.DeliveryStatus),
		}
	}
	if order.ReschedulingStatus == models.ReschedulingRequested {
		return nil, &InvalidStateError{
			Code:    "RESCHEDULE_PENDING",
			Message: fmt.Sprintf("Order %d has an open rescheduling request", orderID),
		}
	}

	result := s.db.Model(&models.CustomOrder{}).
		Where("id = ? AND delivery_status = ? AND rescheduling_status = ?",
			orderID, models.DeliveryStatusReadyForDelivery, models.ReschedulingNone).
		Updates(map[string]interface{}{"delivery_confirmed": true})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, staleStateError(orderID)
	}

	order, err = s.reload(orderID)
	if err != nil {
		return nil, err
	}

	emit(TransitionEvent{
		Audience: models.AudienceAdmin,
		Type:     models.NotificationDeliveryConfirmed,
		Order:    order,
		Message:  fmt.Sprintf("%s confirmed the delivery of order %d", order.CustomerName, order.ID),
	})
	return order, nil
}

// CancelDelivery is the explicit admin cancel action, allowed from any
// non-terminal delivery state. Any open rescheduling request dies with it.
func (s *DeliveryService) CancelDelivery(orderID uint) (*models.CustomOrder, error) {
	order, err := s.getDeliverableOrder(orderID)
	if err != nil {
		return nil, err
	}
	if models.IsTerminalDeliveryStatus(order.DeliveryStatus) {
		return nil, &InvalidStateError{
			Code:    "NO_FURTHER_TRANSITION",
			Message: fmt.Sprintf("Order %d is %s, no further transition", orderID, order.DeliveryStatus),
		}
	}

	updates := map[string]interface{}{
		"delivery_status":        models.DeliveryStatusCancelled,
		"rescheduling_status":    models.ReschedulingNone,
		"proposed_delivery_date": nil,
		"rescheduling_reason":    nil,
	}
	if err := s.commitIfDeliveryStatus(orderID, order.DeliveryStatus, updates); err != nil {
		return nil, err
	}

	return s.reload(orderID)
}

// RequestReschedule opens a rescheduling negotiation for an order that is
// ready for delivery. At most one negotiation can be outstanding per order.
func (s *DeliveryService) RequestReschedule(orderID uint, reason string, proposedDate *time.Time) (*models.CustomOrder, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, &ValidationError{
			Code:    "MISSING_REASON",
			Message: "A reason is required to request rescheduling",
		}
	}

	order, err := s.getDeliverableOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.DeliveryStatus != models.DeliveryStatusReadyForDelivery {
		return nil, &InvalidStateError{
			Code:    "NOT_READY_FOR_DELIVERY",
			Message: fmt.Sprintf("Order %d is %s, rescheduling applies to orders ready for delivery", orderID, order.DeliveryStatus),
		}
	}
	if order.ReschedulingStatus == models.ReschedulingRequested {
		return nil, &InvalidStateError{
			Code:    "RESCHEDULE_PENDING",
			Message: fmt.Sprintf("Order %d already has an open rescheduling request", orderID),
		}
	}

	updates := map[string]interface{}{
		"rescheduling_status": models.ReschedulingRequested,
		"rescheduling_reason": reason,
	}
	if proposedDate != nil {
		updates["proposed_delivery_date"] = *proposedDate
	}

	result := s.db.Model(&models.CustomOrder{}).
		Where("id = ? AND delivery_status = ? AND rescheduling_status = ?",
			orderID, models.DeliveryStatusReadyForDelivery, models.ReschedulingNone).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, staleStateError(orderID)
	}

	order, err = s.reload(orderID)
	if err != nil {
		return nil, err
	}

	emit(TransitionEvent{
		Audience: models.AudienceAdmin,
		Type:     models.NotificationRescheduleRequested,
		Order:    order,
		Message:  fmt.Sprintf("%s asked to reschedule order %d: %s", order.CustomerName, order.ID, reason),
	})
	return order, nil
}

// ResolveReschedule closes an open rescheduling negotiation. Approval moves
// the delivery date to newDate; rejection leaves the original date untouched.
// Either way the negotiation fields are cleared.
func (s *DeliveryService) ResolveReschedule(orderID uint, approve bool, newDate *time.Time) (*models.CustomOrder, error) {
	order, err := s.getDeliverableOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.ReschedulingStatus != models.ReschedulingRequested {
		return nil, &InvalidStateError{
			Code:    "NO_RESCHEDULE_PENDING",
			Message: fmt.Sprintf("Order %d has no rescheduling request to resolve", orderID),
		}
	}

	updates := map[string]interface{}{
		"rescheduling_status":    models.ReschedulingNone,
		"proposed_delivery_date": nil,
		"rescheduling_reason":    nil,
	}
	if approve {
		if newDate == nil {
			return nil, &ValidationError{
				Code:    "MISSING_NEW_DATE",
				Message: "Approving a rescheduling request requires a new delivery date",
			}
		}
		updates["delivery_date"] = *newDate
	}

	result := s.db.Model(&models.CustomOrder{}).
		Where("id = ? AND rescheduling_status = ?", orderID, models.ReschedulingRequested).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, staleStateError(orderID)
	}

	order, err = s.reload(orderID)
	if err != nil {
		return nil, err
	}

	if approve {
		emit(TransitionEvent{
			Audience: models.AudienceCustomer,
			Type:     models.NotificationRescheduleApproved,
			Order:    order,
			Message:  fmt.Sprintf("Your delivery was rescheduled to %s", newDate.Format(time.RFC3339)),
		})
	} else {
		emit(TransitionEvent{
			Audience: models.AudienceCustomer,
			Type:     models.NotificationRescheduleRejected,
			Order:    order,
			Message:  "Your rescheduling request was declined, the original delivery date stands",
		})
	}
	return order, nil
}

// getDeliverableOrder fetches an order and checks it actually entered the
// delivery track (a paid-for quote).
func (s *DeliveryService) getDeliverableOrder(orderID uint) (*models.CustomOrder, error) {
	var order models.CustomOrder
	if err := s.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{
				Code:    "ORDER_NOT_FOUND",
				Message: fmt.Sprintf("Order %d not found", orderID),
			}
		}
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}

	if order.NormalizedStatus() != models.StatusAccepted || order.DeliveryStatus == "" {
		return nil, &InvalidStateError{
			Code:    "ORDER_NOT_PAID",
			Message: fmt.Sprintf("Order %d has not entered the delivery phase", orderID),
		}
	}
	return &order, nil
}

// commitIfDeliveryStatus applies updates only while the order still holds the
// expected delivery status at write time.
func (s *DeliveryService) commitIfDeliveryStatus(orderID uint, expected string, updates map[string]interface{}) error {
	result := s.db.Model(&models.CustomOrder{}).
		Where("id = ? AND delivery_status = ?", orderID, expected).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return staleStateError(orderID)
	}
	return nil
}

func staleStateError(orderID uint) error {
	return &InvalidStateError{
		Code:    "STALE_ORDER_STATE",
		Message: fmt.Sprintf("Order %d changed state before the update committed", orderID),
	}
}

func (s *DeliveryService) reload(orderID uint) (*models.CustomOrder, error) {
	var order models.CustomOrder
	if err := s.db.Preload("Customer").Preload("DeliveryPoint").First(&order, orderID).Error; err != nil {
		return nil, fmt.Errorf("failed to load order details: %w", err)
	}
	return &order, nil
}

package services

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/lupita-crafts/lupitas-crafts-api/models"
	"gorm.io/gorm"
)

// Buckets used by the admin dashboard and customer profile views.
const (
	BucketPending  = "pending"
	BucketQuoted   = "quoted"
	BucketRejected = "rejected"
)

// OrderFilters narrows ListOrders results. Zero values mean "no filter".
type OrderFilters struct {
	Status            string
	DeliveryStatusSet []string
	DateFrom          *time.Time
	DateTo            *time.Time
}

// OrderService drives the quoting phase of a custom order and serves the
// admin/customer list views.
type OrderService struct {
	db *gorm.DB
}

var orderServiceInstance *OrderService

// InitOrderService initializes the order service
func InitOrderService(db *gorm.DB) *OrderService {
	orderServiceInstance = &OrderService{db: db}
	return orderServiceInstance
}

// GetOrderService returns the initialized order service instance
func GetOrderService() *OrderService {
	return orderServiceInstance
}

// SubmitOrder creates a pending custom order for the given customer.
// The reference image is mandatory; modelType must be in the recognized set.
func (s *OrderService) SubmitOrder(customer *models.User, modelType, description, imageKey string) (*models.CustomOrder, error) {
	if !models.IsValidModelType(modelType) {
		return nil, &ValidationError{
			Code:    "INVALID_MODEL_TYPE",
			Message: fmt.Sprintf("Model type %q is not recognized", modelType),
		}
	}
	if imageKey == "" {
		return nil, &ValidationError{
			Code:    "MISSING_IMAGE",
			Message: "A reference image is required",
		}
	}

	order := models.CustomOrder{
		CustomerID:         customer.ID,
		CustomerName:       customer.Name,
		CustomerEmail:      customer.Email,
		CustomerPhone:      customer.Phone,
		ModelType:          modelType,
		Description:        description,
		ImageS3Key:         &imageKey,
		Status:             models.StatusPending,
		ReschedulingStatus: models.ReschedulingNone,
	}

	if err := s.db.Create(&order).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return s.reload(order.ID)
}

// QuoteOrder resolves a pending order with a price quote.
func (s *OrderService) QuoteOrder(orderID uint, price float64, comment string) (*models.CustomOrder, error) {
	if price <= 0 {
		return nil, &ValidationError{
			Code:    "INVALID_PRICE",
			Message: "Quote price must be greater than zero",
		}
	}

	order, err := s.getOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.NormalizedStatus() != models.StatusPending {
		return nil, &InvalidStateError{
			Code:    "ORDER_NOT_PENDING",
			Message: fmt.Sprintf("Order %d is %s and can no longer be quoted", orderID, order.NormalizedStatus()),
		}
	}

	// Precondition re-checked at commit: a concurrent resolution of the same
	// order leaves RowsAffected at zero.
	updates := map[string]interface{}{
		"status":  models.StatusQuoted,
		"price":   price,
		"comment": comment,
	}
	if err := s.commitIfStatus(orderID, pendingStatuses, updates); err != nil {
		return nil, err
	}

	order, err = s.reload(orderID)
	if err != nil {
		return nil, err
	}

	emit(TransitionEvent{
		Audience: models.AudienceCustomer,
		Type:     models.NotificationQuoteIssued,
		Order:    order,
		Message:  fmt.Sprintf("Your order was quoted at %.2f", price),
	})
	return order, nil
}

// RejectOrder resolves a pending order with a rejection.
func (s *OrderService) RejectOrder(orderID uint, comment string) (*models.CustomOrder, error) {
	order, err := s.getOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.NormalizedStatus() != models.StatusPending {
		return nil, &InvalidStateError{
			Code:    "ORDER_NOT_PENDING",
			Message: fmt.Sprintf("Order %d is %s and can no longer be rejected", orderID, order.NormalizedStatus()),
		}
	}

	updates := map[string]interface{}{
		"status":  models.StatusRejected,
		"price":   0,
		"comment": comment,
	}
	if err := s.commitIfStatus(orderID, pendingStatuses, updates); err != nil {
		return nil, err
	}

	order, err = s.reload(orderID)
	if err != nil {
		return nil, err
	}

	emit(TransitionEvent{
		Audience: models.AudienceCustomer,
		Type:     models.NotificationOrderRejected,
		Order:    order,
		Message:  "Your order could not be accepted: " + comment,
	})
	return order, nil
}

// ConfirmPayment promotes a quoted order into the delivery track. The payment
// itself happens outside this system; this is the confirmation event handler.
func (s *OrderService) ConfirmPayment(orderID uint, total float64) (*models.CustomOrder, error) {
	order, err := s.getOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.NormalizedStatus() != models.StatusQuoted {
		return nil, &InvalidStateError{
			Code:    "ORDER_NOT_QUOTED",
			Message: fmt.Sprintf("Order %d is %s, only quoted orders can be paid", orderID, order.NormalizedStatus()),
		}
	}
	if total <= 0 {
		total = order.Price
	}

	updates := map[string]interface{}{
		"status":          models.StatusAccepted,
		"total":           total,
		"delivery_status": models.DeliveryStatusPaid,
	}
	if err := s.commitIfStatus(orderID, []string{models.StatusQuoted}, updates); err != nil {
		return nil, err
	}

	return s.reload(orderID)
}

// GetOrder fetches a single order with its relations preloaded.
func (s *OrderService) GetOrder(orderID uint) (*models.CustomOrder, error) {
	if _, err := s.getOrder(orderID); err != nil {
		return nil, err
	}
	return s.reload(orderID)
}

// ListByBucket returns orders in one of the three admin groupings, sorted by
// recency. The quoted bucket tolerates legacy records that carry a price but
// no formal status; that shim is read-only and not extended to write paths.
func (s *OrderService) ListByBucket(bucket string, dateFilter string) ([]models.CustomOrder, error) {
	query := s.db.Model(&models.CustomOrder{})

	switch bucket {
	case BucketPending:
		// Legacy records missing a status count as pending.
		query = query.Where("status = ? OR status IS NULL OR status = ''", models.StatusPending)
	case BucketQuoted:
		query = query.Where("status IN ? OR price > 0", []string{models.StatusQuoted, models.StatusAccepted})
	case BucketRejected:
		query = query.Where("status IN ?", []string{models.StatusRejected, "cancelled"})
	default:
		return nil, &ValidationError{
			Code:    "INVALID_BUCKET",
			Message: fmt.Sprintf("Unknown bucket %q", bucket),
		}
	}

	if dateFilter != "" {
		start, end, err := parseDateFilter(dateFilter)
		if err != nil {
			return nil, err
		}
		query = query.Where("created_at >= ? AND created_at < ?", start, end)
	}

	var orders []models.CustomOrder
	if err := query.Preload("Customer").Order("created_at DESC, id ASC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ListOrders returns orders matching the given filters, sorted by recency with
// id as a deterministic tiebreak.
func (s *OrderService) ListOrders(filters OrderFilters) ([]models.CustomOrder, error) {
	query := s.db.Model(&models.CustomOrder{})

	if filters.Status != "" {
		if filters.Status == models.StatusPending {
			query = query.Where("status = ? OR status IS NULL OR status = ''", models.StatusPending)
		} else {
			query = query.Where("status = ?", filters.Status)
		}
	}
	if len(filters.DeliveryStatusSet) > 0 {
		query = query.Where("delivery_status IN ?", filters.DeliveryStatusSet)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at < ?", *filters.DateTo)
	}

	var orders []models.CustomOrder
	if err := query.Preload("Customer").Order("created_at DESC, id ASC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// DeleteOrder soft-deletes an order and retracts its unread notifications so
// the inbox never points at a record the admin removed.
func (s *OrderService) DeleteOrder(orderID uint) error {
	order, err := s.getOrder(orderID)
	if err != nil {
		return err
	}

	if err := s.db.Where("order_id = ? AND read = ?", order.ID, false).
		Delete(&models.Notification{}).Error; err != nil {
		return fmt.Errorf("failed to retract notifications: %w", err)
	}

	if err := s.db.Delete(order).Error; err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

var pendingStatuses = []string{models.StatusPending, ""}

// commitIfStatus applies updates only while the order still holds one of the
// expected quoting statuses. RowsAffected zero at commit means the
// precondition no longer holds (lost race or vanished order). NULL statuses
// only match when the empty legacy status is itself expected.
func (s *OrderService) commitIfStatus(orderID uint, expected []string, updates map[string]interface{}) error {
	query := s.db.Model(&models.CustomOrder{}).Where("id = ?", orderID)
	if slices.Contains(expected, "") {
		query = query.Where("status IN ? OR status IS NULL", expected)
	} else {
		query = query.Where("status IN ?", expected)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return &InvalidStateError{
			Code:    "STALE_ORDER_STATE",
			Message: fmt.Sprintf("Order %d changed state before the update committed", orderID),
		}
	}
	return nil
}

func (s *OrderService) getOrder(orderID uint) (*models.CustomOrder, error) {
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
	return &order, nil
}

func (s *OrderService) reload(orderID uint) (*models.CustomOrder, error) {
	var order models.CustomOrder
	if err := s.db.Preload("Customer").Preload("DeliveryPoint").First(&order, orderID).Error; err != nil {
		return nil, fmt.Errorf("failed to load order details: %w", err)
	}
	return &order, nil
}

// parseDateFilter infers day, month, or year granularity from the filter's
// format and returns the half-open [start, end) range it covers.
func parseDateFilter(filter string) (time.Time, time.Time, error) {
	if t, err := time.Parse("2006-01-02", filter); err == nil {
		return t, t.AddDate(0, 0, 1), nil
	}
	if t, err := time.Parse("2006-01", filter); err == nil {
		return t, t.AddDate(0, 1, 0), nil
	}
	if t, err := time.Parse("2006", filter); err == nil {
		return t, t.AddDate(1, 0, 0), nil
	}
	return time.Time{}, time.Time{}, &ValidationError{
		Code:    "INVALID_DATE_FILTER",
		Message: fmt.Sprintf("Date filter %q must be YYYY, YYYY-MM or YYYY-MM-DD", filter),
	}
}

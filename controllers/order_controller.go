package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lupita-crafts/lupitas-crafts-api/models"
	"github.com/lupita-crafts/lupitas-crafts-api/services"
)

// SubmitOrderRequest represents the request body for submitting a custom order
type SubmitOrderRequest struct {
	ModelType   string `json:"model_type" binding:"required"`
	Description string `json:"description"`
	ImageS3Key  string `json:"image_s3_key" binding:"required"`
}

// ResolveQuoteRequest represents the request body for quoting or rejecting a
// pending order. status="rejected" selects rejection; anything else quotes.
type ResolveQuoteRequest struct {
	Status  string  `json:"status"`
	Price   float64 `json:"price"`
	Comment string  `json:"comment"`
}

// ConfirmPaymentRequest carries the external payment confirmation event
type ConfirmPaymentRequest struct {
	Total float64 `json:"total"`
}

// SubmitOrder handles POST /api/v1/custom-orders - creates a custom order (customers only)
func SubmitOrder(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	if !requireRole(c, user, "customer") {
		return
	}

	var req SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	order, err := services.GetOrderService().SubmitOrder(user, req.ModelType, req.Description, req.ImageS3Key)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	attachImageURL(order)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// ResolveQuote handles PUT /api/v1/custom-orders/:id/quote - quotes or rejects
// a pending order (admin only)
func ResolveQuote(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	if !requireRole(c, user, "admin") {
		return
	}

	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req ResolveQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	var order *models.CustomOrder
	var err error
	if req.Status == models.StatusRejected {
		order, err = services.GetOrderService().RejectOrder(orderID, req.Comment)
	} else {
		order, err = services.GetOrderService().QuoteOrder(orderID, req.Price, req.Comment)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	attachImageURL(order)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// ConfirmPayment handles POST /api/v1/custom-orders/:id/payment - promotes a
// quoted order into the delivery track once the external payment confirms
func ConfirmPayment(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	if !requireRole(c, user, "admin") {
		return
	}

	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	order, err := services.GetOrderService().ConfirmPayment(orderID, req.Total)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// ListBucket handles GET /api/v1/custom-orders/pending|quoted|rejected - the
// admin dashboard groupings, optionally narrowed by a ?date= filter whose
// granularity (day, month, year) follows from its format
func ListBucket(bucket string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil {
			return
		}
		if !requireRole(c, user, "admin") {
			return
		}

		orders, err := services.GetOrderService().ListByBucket(bucket, c.Query("date"))
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    orders,
		})
	}
}

// ListOrders handles GET /api/v1/custom-orders - filtered order list.
// Admins see everything; customers only their own orders.
func ListOrders(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	filters := services.OrderFilters{
		Status: c.Query("status"),
	}
	if set := c.Query("delivery_status"); set != "" {
		filters.DeliveryStatusSet = strings.Split(set, ",")
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filters.DateFrom = &t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			end := t.AddDate(0, 0, 1)
			filters.DateTo = &end
		}
	}

	orders, err := services.GetOrderService().ListOrders(filters)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if user.Role != "admin" {
		own := make([]models.CustomOrder, 0, len(orders))
		for _, o := range orders {
			if o.CustomerID == user.ID {
				own = append(own, o)
			}
		}
		orders = own
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// GetOrder handles GET /api/v1/custom-orders/:id - fetches a single order.
// Customers can only access their own orders.
func GetOrder(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	order, err := services.GetOrderService().GetOrder(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if user.Role != "admin" && order.CustomerID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to access this order",
			},
		})
		return
	}

	attachImageURL(order)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// DeleteOrder handles DELETE /api/v1/custom-orders/:id - removes an order and
// retracts its unread notifications (admin only)
func DeleteOrder(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	if !requireRole(c, user, "admin") {
		return
	}

	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	if err := services.GetOrderService().DeleteOrder(orderID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order deleted",
	})
}

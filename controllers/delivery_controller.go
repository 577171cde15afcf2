package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lupita-crafts/lupitas-crafts-api/config"
	"github.com/lupita-crafts/lupitas-crafts-api/models"
	"github.com/lupita-crafts/lupitas-crafts-api/services"
)

// ScheduleDeliveryRequest represents the request body for scheduling a delivery
type ScheduleDeliveryRequest struct {
	DeliveryDate    time.Time `json:"delivery_date" binding:"required"`
	DeliveryPointID *uint     `json:"delivery_point_id"`
}

// RequestRescheduleRequest represents the customer's rescheduling request
type RequestRescheduleRequest struct {
	Reason       string     `json:"reason" binding:"required"`
	ProposedDate *time.Time `json:"proposed_date"`
}

// ResolveRescheduleRequest represents the admin's answer to a rescheduling request
type ResolveRescheduleRequest struct {
	Approve bool       `json:"approve"`
	NewDate *time.Time `json:"new_date"`
}

// ScheduleDelivery handles POST /api/v1/delivery-schedule/:id/schedule - sets
// the delivery date for a paid order (admin only)
func ScheduleDelivery(c *gin.Context) {
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

	var req ScheduleDeliveryRequest
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

	order, err := services.GetDeliveryService().ScheduleDelivery(orderID, req.DeliveryDate, req.DeliveryPointID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"order":   order,
	})
}

// AdvanceDeliveryStatus handles PUT /api/v1/delivery-schedule/:id/status -
// moves the order one step forward in the delivery graph (admin only)
func AdvanceDeliveryStatus(c *gin.Context) {
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

	order, err := services.GetDeliveryService().AdvanceStatus(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"order":   order,
	})
}

// CancelDelivery handles PUT /api/v1/delivery-schedule/:id/cancel - explicit
// admin cancel from any non-terminal delivery state
func CancelDelivery(c *gin.Context) {
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

	order, err := services.GetDeliveryService().CancelDelivery(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"order":   order,
	})
}

// RequestReschedule handles POST /api/v1/delivery-schedule/:id/request-reschedule -
// opens a rescheduling negotiation (customer, own order only)
func RequestReschedule(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	if !ownsOrder(c, user, orderID) {
		return
	}

	var req RequestRescheduleRequest
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

	order, err := services.GetDeliveryService().RequestReschedule(orderID, req.Reason, req.ProposedDate)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"order":   order,
	})
}

// ResolveReschedule handles PUT /api/v1/delivery-schedule/:id/rescheduling -
// admin approves (with a new date) or rejects the open request
func ResolveReschedule(c *gin.Context) {
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

	var req ResolveRescheduleRequest
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

	order, err := services.GetDeliveryService().ResolveReschedule(orderID, req.Approve, req.NewDate)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"order":   order,
	})
}

// ConfirmDelivery handles POST /api/v1/delivery-schedule/:id/confirm - the
// customer acknowledges the scheduled delivery (customer, own order only)
func ConfirmDelivery(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	if !ownsOrder(c, user, orderID) {
		return
	}

	order, err := services.GetDeliveryService().ConfirmDelivery(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"order":   order,
	})
}

// ownsOrder checks that the customer owns the order before letting them act
// on its delivery track. Admins pass through.
func ownsOrder(c *gin.Context, user *models.User, orderID uint) bool {
	if user.Role == "admin" {
		return true
	}

	db := config.GetDB()
	var order models.CustomOrder
	if err := db.First(&order, orderID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return false
	}

	if order.CustomerID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to act on this order",
			},
		})
		return false
	}
	return true
}

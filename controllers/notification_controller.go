package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lupita-crafts/lupitas-crafts-api/config"
	"github.com/lupita-crafts/lupitas-crafts-api/models"
)

// ListNotifications handles GET /api/v1/notifications - the caller's inbox.
// Admins see the admin audience; customers see the customer audience scoped
// to their own orders. ?unread=true narrows to unread entries.
func ListNotifications(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	db := config.GetDB()
	query := db.Model(&models.Notification{})

	if user.Role == "admin" {
		query = query.Where("audience = ?", models.AudienceAdmin)
	} else {
		query = query.Where("audience = ? AND order_id IN (?)",
			models.AudienceCustomer,
			db.Model(&models.CustomOrder{}).Select("id").Where("customer_id = ?", user.ID),
		)
	}

	if c.Query("unread") == "true" {
		query = query.Where("read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC, id ASC").Find(&notifications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch notifications",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    notifications,
	})
}

// MarkNotificationRead handles PUT /api/v1/notifications/:id/read
func MarkNotificationRead(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Notification ID must be a number",
			},
		})
		return
	}

	db := config.GetDB()
	var notification models.Notification
	if err := db.First(&notification, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOTIFICATION_NOT_FOUND",
				"message": "Notification not found",
			},
		})
		return
	}

	// Only the audience the notification targets can mark it read
	if (notification.Audience == models.AudienceAdmin) != (user.Role == "admin") {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to modify this notification",
			},
		})
		return
	}

	if err := db.Model(&notification).Updates(map[string]interface{}{"read": true}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update notification",
			},
		})
		return
	}

	notification.Read = true
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    notification,
	})
}

package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lupita-crafts/lupitas-crafts-api/config"
	"github.com/lupita-crafts/lupitas-crafts-api/models"
)

// DeliveryPointRequest represents the request body for creating or updating a
// pickup/delivery location
type DeliveryPointRequest struct {
	Name          string   `json:"name" binding:"required"`
	Address       string   `json:"address" binding:"required"`
	ReferenceNote string   `json:"reference_note"`
	Active        *bool    `json:"active"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}

// ListDeliveryPoints handles GET /api/v1/delivery-points. Customers only see
// active points; admins see everything.
func ListDeliveryPoints(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	db := config.GetDB()
	query := db.Model(&models.DeliveryPoint{})
	if user.Role != "admin" {
		query = query.Where("active = ?", true)
	}

	var points []models.DeliveryPoint
	if err := query.Order("name ASC").Find(&points).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch delivery points",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    points,
	})
}

// CreateDeliveryPoint handles POST /api/v1/delivery-points (admin only)
func CreateDeliveryPoint(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	if !requireRole(c, user, "admin") {
		return
	}

	var req DeliveryPointRequest
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

	point := models.DeliveryPoint{
		Name:          req.Name,
		Address:       req.Address,
		ReferenceNote: req.ReferenceNote,
		Active:        true,
	}
	if req.Active != nil {
		point.Active = *req.Active
	}
	if req.Latitude != nil {
		point.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		point.Longitude = *req.Longitude
	}

	db := config.GetDB()
	if err := db.Create(&point).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create delivery point",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    point,
	})
}

// UpdateDeliveryPoint handles PUT /api/v1/delivery-points/:id (admin only).
// Toggling active off never touches orders already scheduled at the point.
func UpdateDeliveryPoint(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	if !requireRole(c, user, "admin") {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Delivery point ID must be a number",
			},
		})
		return
	}

	db := config.GetDB()
	var point models.DeliveryPoint
	if err := db.First(&point, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DELIVERY_POINT_NOT_FOUND",
				"message": "Delivery point not found",
			},
		})
		return
	}

	var req DeliveryPointRequest
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

	updates := map[string]interface{}{
		"name":           req.Name,
		"address":        req.Address,
		"reference_note": req.ReferenceNote,
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if req.Latitude != nil {
		updates["latitude"] = *req.Latitude
	}
	if req.Longitude != nil {
		updates["longitude"] = *req.Longitude
	}

	if err := db.Model(&point).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update delivery point",
			},
		})
		return
	}

	if err := db.First(&point, uint(id)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch updated delivery point",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    point,
	})
}

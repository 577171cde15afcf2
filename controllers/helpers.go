package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lupita-crafts/lupitas-crafts-api/config"
	"github.com/lupita-crafts/lupitas-crafts-api/middleware"
	"github.com/lupita-crafts/lupitas-crafts-api/models"
	"github.com/lupita-crafts/lupitas-crafts-api/services"
)

// currentUser resolves the authenticated user from the JWT subject. It writes
// the error response itself and returns nil when resolution fails.
func currentUser(c *gin.Context) *models.User {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return nil
	}

	db := config.GetDB()
	var user models.User
	if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "USER_NOT_FOUND",
				"message": "User profile not found. Please create a profile first.",
			},
		})
		return nil
	}

	return &user
}

// requireRole checks the resolved user's role and writes a 403 on mismatch.
func requireRole(c *gin.Context, user *models.User, role string) bool {
	if user.Role != role {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to perform this action",
			},
		})
		return false
	}
	return true
}

// parseOrderID reads the :id route parameter.
func parseOrderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Order ID must be a number",
			},
		})
		return 0, false
	}
	return uint(id), true
}

// respondServiceError maps the service error taxonomy onto HTTP statuses:
// validation 400, invalid state 409, not found 404.
func respondServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    validationErr.Code,
				"message": validationErr.Message,
			},
		})
		return
	}

	var stateErr *services.InvalidStateError
	if errors.As(err, &stateErr) {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    stateErr.Code,
				"message": stateErr.Message,
			},
		})
		return
	}

	var notFoundErr *services.NotFoundError
	if errors.As(err, &notFoundErr) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    notFoundErr.Code,
				"message": notFoundErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "DATABASE_ERROR",
			"message": "Something went wrong handling the order",
		},
	})
}

// attachImageURL fills in the presigned reference image URL for responses.
// A failed presign never fails the request; the order just renders without it.
func attachImageURL(order *models.CustomOrder) {
	if order == nil || order.ImageS3Key == nil {
		return
	}
	imageService := services.GetImageService()
	if imageService == nil {
		return
	}
	if url, err := imageService.GetImageURL(*order.ImageS3Key); err == nil && url != "" {
		order.ImageURL = &url
	}
}

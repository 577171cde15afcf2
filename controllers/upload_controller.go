package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lupita-crafts/lupitas-crafts-api/services"
	"github.com/lupita-crafts/lupitas-crafts-api/utils"
)

// UploadReferenceImage handles POST /api/v1/uploads - uploads the reference
// image a customer attaches to a custom order. Returns the storage key to be
// passed along when submitting the order.
func UploadReferenceImage(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_IMAGE",
				"message": "An image file is required",
			},
		})
		return
	}

	imageService := services.GetImageService()
	imageKey, err := imageService.UploadImage(fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    uploadErr.Code,
					"message": uploadErr.Message,
				},
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_ERROR",
				"message": "Failed to upload image",
			},
		})
		return
	}

	url, err := imageService.GetImageURL(imageKey)
	if err != nil {
		// The upload itself succeeded; return the key without a URL
		url = ""
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"image_s3_key": imageKey,
			"image_url":    url,
		},
	})
}

// GetUploadedImage handles GET /api/v1/uploads/*key - resolves an uploaded
// reference image key to a short-lived access URL.
func GetUploadedImage(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	// Keys contain slashes (reference-images/...), so the route uses a
	// wildcard parameter with a leading slash
	imageKey := strings.TrimPrefix(c.Param("key"), "/")
	if imageKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_IMAGE_KEY",
				"message": "An image key is required",
			},
		})
		return
	}

	url, err := services.GetImageService().GetImageURL(imageKey)
	if err != nil || url == "" {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "IMAGE_NOT_FOUND",
				"message": "Image not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"image_s3_key": imageKey,
			"image_url":    url,
		},
	})
}

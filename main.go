package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lupita-crafts/lupitas-crafts-api/config"
	"github.com/lupita-crafts/lupitas-crafts-api/controllers"
	"github.com/lupita-crafts/lupitas-crafts-api/middleware"
	"github.com/lupita-crafts/lupitas-crafts-api/models"
	"github.com/lupita-crafts/lupitas-crafts-api/services"
)

func main() {
	// Basic logging
	log.Println("Starting Lupita's Crafts API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.User{},
		&models.CustomOrder{},
		&models.DeliveryPoint{},
		&models.Notification{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Initialize services
	services.InitOrderService(db)
	services.InitDeliveryService(db)
	services.InitNotifier(db)

	s3Service, err := services.InitS3Service()
	if err != nil {
		log.Fatalf("Failed to initialize S3 service: %v", err)
	}
	services.InitImageService(s3Service)

	// Initialize Gin router
	router := gin.Default()

	// Web and mobile clients live on other origins
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "https://lupitas-crafts.com"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	auth := middleware.EnsureValidToken(cfg)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus)

		// User profile bootstrap
		v1.POST("/users", auth, controllers.CreateUser)
		v1.GET("/users/me", auth, controllers.GetMyProfile)
		v1.PUT("/users/me", auth, controllers.UpdateMyProfile)

		// Custom orders: quoting phase and list views
		v1.POST("/custom-orders", auth, controllers.SubmitOrder)
		v1.GET("/custom-orders", auth, controllers.ListOrders)
		v1.GET("/custom-orders/pending", auth, controllers.ListBucket(services.BucketPending))
		v1.GET("/custom-orders/quoted", auth, controllers.ListBucket(services.BucketQuoted))
		v1.GET("/custom-orders/rejected", auth, controllers.ListBucket(services.BucketRejected))
		v1.GET("/custom-orders/:id", auth, controllers.GetOrder)
		v1.PUT("/custom-orders/:id/quote", auth, controllers.ResolveQuote)
		v1.POST("/custom-orders/:id/payment", auth, controllers.ConfirmPayment)
		v1.DELETE("/custom-orders/:id", auth, controllers.DeleteOrder)

		// Delivery scheduling and the rescheduling negotiation
		v1.POST("/delivery-schedule/:id/schedule", auth, controllers.ScheduleDelivery)
		v1.PUT("/delivery-schedule/:id/status", auth, controllers.AdvanceDeliveryStatus)
		v1.PUT("/delivery-schedule/:id/cancel", auth, controllers.CancelDelivery)
		v1.POST("/delivery-schedule/:id/request-reschedule", auth, controllers.RequestReschedule)
		v1.PUT("/delivery-schedule/:id/rescheduling", auth, controllers.ResolveReschedule)
		v1.POST("/delivery-schedule/:id/confirm", auth, controllers.ConfirmDelivery)

		// Notification inbox
		v1.GET("/notifications", auth, controllers.ListNotifications)
		v1.PUT("/notifications/:id/read", auth, controllers.MarkNotificationRead)

		// Delivery points
		v1.GET("/delivery-points", auth, controllers.ListDeliveryPoints)
		v1.POST("/delivery-points", auth, controllers.CreateDeliveryPoint)
		v1.PUT("/delivery-points/:id", auth, controllers.UpdateDeliveryPoint)

		// Reference image uploads
		v1.POST("/uploads", auth, controllers.UploadReferenceImage)
		v1.GET("/uploads/*key", auth, controllers.GetUploadedImage)
	}

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Lupita's Crafts API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	// Get list of tables
	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}

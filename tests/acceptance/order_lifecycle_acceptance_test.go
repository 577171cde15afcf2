package acceptance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lupita-crafts/lupitas-crafts-api/config"
	"github.com/lupita-crafts/lupitas-crafts-api/controllers"
	"github.com/lupita-crafts/lupitas-crafts-api/models"
	"github.com/lupita-crafts/lupitas-crafts-api/services"
	"github.com/lupita-crafts/lupitas-crafts-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OrderLifecycleAcceptanceTestSuite drives the full order lifecycle over real
// HTTP requests: submission, quoting, payment, scheduling, rescheduling
// negotiation and final confirmation.
type OrderLifecycleAcceptanceTestSuite struct {
	suite.Suite
	server *httptest.Server
	db     *gorm.DB
}

func (suite *OrderLifecycleAcceptanceTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)

	os.Setenv("GO_ENV", "test")
	os.Setenv("PORT", "8080")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.NoError(err)
	suite.db = db

	err = db.AutoMigrate(
		&models.User{},
		&models.CustomOrder{},
		&models.DeliveryPoint{},
		&models.Notification{},
	)
	suite.NoError(err)

	config.SetDB(db)
	services.InitOrderService(db)
	services.InitDeliveryService(db)
	services.InitNotifier(db)
	services.SetImageService(nil)

	router := suite.createRouter()
	suite.server = httptest.NewServer(router)
}

func (suite *OrderLifecycleAcceptanceTestSuite) TearDownSuite() {
	suite.server.Close()
	if suite.db != nil {
		sqlDB, _ := suite.db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	}
}

func (suite *OrderLifecycleAcceptanceTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM notifications")
	suite.db.Exec("DELETE FROM custom_orders")
	suite.db.Exec("DELETE FROM users")
}

// createRouter wires both roles onto parallel route trees so one suite can
// play the customer and the admin sides of the negotiation.
func (suite *OrderLifecycleAcceptanceTestSuite) createRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	customerAuth := suite.mockAuthMiddleware("auth0|customer", "customer")
	adminAuth := suite.mockAuthMiddleware("auth0|admin", "admin")

	v1 := router.Group("/api/v1")
	{
		v1.POST("/custom-orders", customerAuth, controllers.SubmitOrder)
		v1.GET("/custom-orders", customerAuth, controllers.ListOrders)
		v1.GET("/custom-orders/:id", customerAuth, controllers.GetOrder)
		v1.POST("/delivery-schedule/:id/request-reschedule", customerAuth, controllers.RequestReschedule)
		v1.POST("/delivery-schedule/:id/confirm", customerAuth, controllers.ConfirmDelivery)
		v1.GET("/notifications", customerAuth, controllers.ListNotifications)

		admin := v1.Group("/admin")
		{
			admin.GET("/custom-orders/pending", adminAuth, controllers.ListBucket(services.BucketPending))
			admin.GET("/custom-orders/quoted", adminAuth, controllers.ListBucket(services.BucketQuoted))
			admin.GET("/custom-orders/rejected", adminAuth, controllers.ListBucket(services.BucketRejected))
			admin.PUT("/custom-orders/:id/quote", adminAuth, controllers.ResolveQuote)
			admin.POST("/custom-orders/:id/payment", adminAuth, controllers.ConfirmPayment)
			admin.POST("/delivery-schedule/:id/schedule", adminAuth, controllers.ScheduleDelivery)
			admin.PUT("/delivery-schedule/:id/status", adminAuth, controllers.AdvanceDeliveryStatus)
			admin.PUT("/delivery-schedule/:id/rescheduling", adminAuth, controllers.ResolveReschedule)
			admin.GET("/notifications", adminAuth, controllers.ListNotifications)
		}
	}

	return router
}

func (suite *OrderLifecycleAcceptanceTestSuite) mockAuthMiddleware(auth0ID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		testutil.SetMockAuthContext(c, auth0ID, "https://test.auth0.com/", role, nil)
		c.Next()
	}
}

func (suite *OrderLifecycleAcceptanceTestSuite) createUsers() (models.User, models.User) {
	customer := models.User{
		Auth0ID: "auth0|customer",
		Name:    "Ana Torres",
		Email:   "ana@test.com",
		Role:    "customer",
	}
	suite.NoError(suite.db.Create(&customer).Error)

	admin := models.User{
		Auth0ID: "auth0|admin",
		Name:    "Lupita Reyes",
		Email:   "lupita@test.com",
		Role:    "admin",
	}
	suite.NoError(suite.db.Create(&admin).Error)

	return customer, admin
}

func (suite *OrderLifecycleAcceptanceTestSuite) makeRequest(method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	var bodyReader *bytes.Reader
	if body != nil {
		bodyJSON, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyJSON)
	} else {
		bodyReader = bytes.NewReader([]byte{})
	}

	req, err := http.NewRequest(method, suite.server.URL+path, bodyReader)
	suite.NoError(err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	suite.NoError(err)

	var responseData map[string]interface{}
	err = json.NewDecoder(resp.Body).Decode(&responseData)
	suite.NoError(err)
	resp.Body.Close()

	return resp, responseData
}

// TestCompleteLifecycle_Acceptance walks an order from submission to a
// confirmed delivery, including one round of rescheduling negotiation.
func (suite *OrderLifecycleAcceptanceTestSuite) TestCompleteLifecycle_Acceptance() {
	suite.createUsers()

	// Step 1: Customer submits a custom order
	resp, respData := suite.makeRequest("POST", "/api/v1/custom-orders", map[string]interface{}{
		"model_type":   "llavero",
		"description":  "con el nombre Maria",
		"image_s3_key": "reference-images/1_ref.png",
	})
	assert.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	orderData := respData["data"].(map[string]interface{})
	orderID := int(orderData["id"].(float64))
	assert.Equal(suite.T(), "pending", orderData["status"])

	// Step 2: Admin sees the order in the pending bucket
	resp, respData = suite.makeRequest("GET", "/api/v1/admin/custom-orders/pending", nil)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.Len(suite.T(), respData["data"].([]interface{}), 1)

	// Step 3: Admin quotes the order
	resp, respData = suite.makeRequest("PUT", fmt.Sprintf("/api/v1/admin/custom-orders/%d/quote", orderID), map[string]interface{}{
		"price":   15.0,
		"comment": "listo en una semana",
	})
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	orderData = respData["data"].(map[string]interface{})
	assert.Equal(suite.T(), "quoted", orderData["status"])
	assert.Equal(suite.T(), 15.0, orderData["price"])

	// Customer inbox received the quote notification
	resp, respData = suite.makeRequest("GET", "/api/v1/notifications", nil)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	inbox := respData["data"].([]interface{})
	assert.Len(suite.T(), inbox, 1)
	assert.Equal(suite.T(), "quote_issued", inbox[0].(map[string]interface{})["type"])

	// Step 4: Payment confirmation moves the order onto the delivery track
	resp, respData = suite.makeRequest("POST", fmt.Sprintf("/api/v1/admin/custom-orders/%d/payment", orderID), map[string]interface{}{
		"total": 15.0,
	})
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	orderData = respData["data"].(map[string]interface{})
	assert.Equal(suite.T(), "accepted", orderData["status"])
	assert.Equal(suite.T(), "PAID", orderData["delivery_status"])
	assert.Equal(suite.T(), 15.0, orderData["total"])

	// Step 5: Admin schedules the delivery
	resp, respData = suite.makeRequest("POST", fmt.Sprintf("/api/v1/admin/delivery-schedule/%d/schedule", orderID), map[string]interface{}{
		"delivery_date": "2026-09-01T00:00:00Z",
	})
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	orderData = respData["order"].(map[string]interface{})
	assert.Equal(suite.T(), "SCHEDULED", orderData["delivery_status"])

	// Step 6: Admin advances through CONFIRMED to READY_FOR_DELIVERY
	for _, want := range []string{"CONFIRMED", "READY_FOR_DELIVERY"} {
		resp, respData = suite.makeRequest("PUT", fmt.Sprintf("/api/v1/admin/delivery-schedule/%d/status", orderID), nil)
		assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
		orderData = respData["order"].(map[string]interface{})
		assert.Equal(suite.T(), want, orderData["delivery_status"])
	}

	// Step 7: Customer asks to move the delivery
	resp, respData = suite.makeRequest("POST", fmt.Sprintf("/api/v1/delivery-schedule/%d/request-reschedule", orderID), map[string]interface{}{
		"reason":        "estare fuera de la ciudad",
		"proposed_date": "2026-09-03T00:00:00Z",
	})
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	orderData = respData["order"].(map[string]interface{})
	assert.Equal(suite.T(), "REQUESTED", orderData["rescheduling_status"])

	// Confirmation is blocked while the request is open
	resp, respData = suite.makeRequest("POST", fmt.Sprintf("/api/v1/delivery-schedule/%d/confirm", orderID), nil)
	assert.Equal(suite.T(), http.StatusConflict, resp.StatusCode)
	errorData := respData["error"].(map[string]interface{})
	assert.Equal(suite.T(), "RESCHEDULE_PENDING", errorData["code"])

	// The admin inbox shows the request
	resp, respData = suite.makeRequest("GET", "/api/v1/admin/notifications", nil)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	adminInbox := respData["data"].([]interface{})
	assert.Len(suite.T(), adminInbox, 1)
	assert.Equal(suite.T(), "reschedule_requested", adminInbox[0].(map[string]interface{})["type"])

	// Step 8: Admin approves with a new date
	resp, respData = suite.makeRequest("PUT", fmt.Sprintf("/api/v1/admin/delivery-schedule/%d/rescheduling", orderID), map[string]interface{}{
		"approve":  true,
		"new_date": "2026-09-03T00:00:00Z",
	})
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	orderData = respData["order"].(map[string]interface{})
	assert.Equal(suite.T(), "NONE", orderData["rescheduling_status"])
	assert.Equal(suite.T(), "READY_FOR_DELIVERY", orderData["delivery_status"])

	// Step 9: Customer confirms the rescheduled delivery
	resp, respData = suite.makeRequest("POST", fmt.Sprintf("/api/v1/delivery-schedule/%d/confirm", orderID), nil)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	orderData = respData["order"].(map[string]interface{})
	assert.Equal(suite.T(), true, orderData["delivery_confirmed"])

	// Step 10: Admin hands the order over
	resp, respData = suite.makeRequest("PUT", fmt.Sprintf("/api/v1/admin/delivery-schedule/%d/status", orderID), nil)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	orderData = respData["order"].(map[string]interface{})
	assert.Equal(suite.T(), "DELIVERED", orderData["delivery_status"])

	// Final state in the database
	var final models.CustomOrder
	suite.NoError(suite.db.First(&final, orderID).Error)
	assert.Equal(suite.T(), models.StatusAccepted, final.Status)
	assert.Equal(suite.T(), models.DeliveryStatusDelivered, final.DeliveryStatus)
	assert.Equal(suite.T(), models.ReschedulingNone, final.ReschedulingStatus)
	assert.True(suite.T(), final.DeliveryConfirmed)
	suite.NotNil(final.DeliveryDate)
	assert.Equal(suite.T(), "2026-09-03", final.DeliveryDate.UTC().Format("2006-01-02"))

	// The customer inbox collected the whole negotiation trail
	resp, respData = suite.makeRequest("GET", "/api/v1/notifications", nil)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	inbox = respData["data"].([]interface{})
	types := make(map[string]int)
	for _, n := range inbox {
		types[n.(map[string]interface{})["type"].(string)]++
	}
	assert.Equal(suite.T(), 1, types["quote_issued"])
	assert.Equal(suite.T(), 1, types["delivery_scheduled"])
	assert.Equal(suite.T(), 1, types["reschedule_approved"])
}

// TestRejectionWorkflow_Acceptance covers the quote rejection path
func (suite *OrderLifecycleAcceptanceTestSuite) TestRejectionWorkflow_Acceptance() {
	suite.createUsers()

	resp, respData := suite.makeRequest("POST", "/api/v1/custom-orders", map[string]interface{}{
		"model_type":   "cuadro_grande",
		"image_s3_key": "reference-images/2_ref.png",
	})
	assert.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	orderID := int(respData["data"].(map[string]interface{})["id"].(float64))

	resp, respData = suite.makeRequest("PUT", fmt.Sprintf("/api/v1/admin/custom-orders/%d/quote", orderID), map[string]interface{}{
		"status":  "rejected",
		"comment": "no tengo el material",
	})
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	orderData := respData["data"].(map[string]interface{})
	assert.Equal(suite.T(), "rejected", orderData["status"])
	assert.Equal(suite.T(), float64(0), orderData["price"])

	// Rejected bucket picks it up
	resp, respData = suite.makeRequest("GET", "/api/v1/admin/custom-orders/rejected", nil)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.Len(suite.T(), respData["data"].([]interface{}), 1)

	// A rejected order never reaches the delivery track
	resp, respData = suite.makeRequest("POST", fmt.Sprintf("/api/v1/admin/delivery-schedule/%d/schedule", orderID), map[string]interface{}{
		"delivery_date": "2026-09-01T00:00:00Z",
	})
	assert.Equal(suite.T(), http.StatusConflict, resp.StatusCode)
	errorData := respData["error"].(map[string]interface{})
	assert.Equal(suite.T(), "ORDER_NOT_PAID", errorData["code"])
}

func TestOrderLifecycleAcceptanceSuite(t *testing.T) {
	suite.Run(t, new(OrderLifecycleAcceptanceTestSuite))
}

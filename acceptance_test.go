package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestServerStartup verifies the router can be initialized
func TestServerStartup(t *testing.T) {
	router := setupRouter()
	assert.NotNil(t, router, "Router should be initialized")
}

// TestAPIHealthEndpointAcceptance simulates a real HTTP request against the
// health endpoint
func TestAPIHealthEndpointAcceptance(t *testing.T) {
	router := setupRouter()

	req, err := http.NewRequest("GET", "/api/v1/health", nil)
	assert.NoError(t, err, "Should be able to create request")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "Health endpoint should return 200 OK")

	var response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	err = json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err, "Response should be valid JSON")

	assert.True(t, response.Success, "Success field should be true")
	assert.Equal(t, "Lupita's Crafts API is running", response.Message)
}

// TestHealthEndpointResponseTime tests that the endpoint responds quickly
func TestHealthEndpointResponseTime(t *testing.T) {
	router := setupRouter()

	req, _ := http.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()

	start := time.Now()
	router.ServeHTTP(w, req)
	duration := time.Since(start)

	assert.Less(t, duration, 100*time.Millisecond,
		"Health endpoint should respond in less than 100ms")
}

package testutil

import (
	"strings"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/lupita-crafts/lupitas-crafts-api/middleware"
)

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject, issuer, role string, scopes []string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Scope: strings.Join(scopes, " "),
			Role:  role,
		},
	}
}

// SetMockAuthContext sets up a mock authenticated context the same way the
// real EnsureValidToken middleware does
func SetMockAuthContext(c *gin.Context, userID, issuer, role string, scopes []string) {
	claims := MockValidatedClaims(userID, issuer, role, scopes)
	c.Set("user_id", userID)
	c.Set("access_token", "mock-token")
	c.Set("validated_claims", claims)
}

// CreateTestContext creates a test Gin context
func CreateTestContext() (*gin.Context, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	c, engine := gin.CreateTestContext(nil)
	return c, engine
}

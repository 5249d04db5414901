package testutil

import (
	"strconv"
	"testing"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/lumme/lumme-api/config"
	"github.com/lumme/lumme-api/middleware"
	"github.com/lumme/lumme-api/models"
	"github.com/lumme/lumme-api/services"
)

// TestConfig returns a configuration suitable for tests and installs it globally
func TestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{
		DatabaseURL: "sqlite://memory",
		Port:        "5000",
		GoEnv:       "test",
		AppVersion:  "test",
		JWTSecret:   "test-secret",
		JWTIssuer:   "lumme-api",
		JWTAudience: "lumme-clients",
		TokenTTL:    time.Hour,
		DeliveryFee: 50,
		CORSOrigins: []string{"*"},
		AWSRegion:   "us-east-1",
		LogLevel:    "silent",
	}
	previous := config.GetConfig()
	config.SetConfig(cfg)
	t.Cleanup(func() { config.SetConfig(previous) })
	return cfg
}

// IssueToken signs a real access token for user with the test configuration
func IssueToken(t *testing.T, cfg *config.Config, user models.User) string {
	t.Helper()

	token, _, err := services.NewTokenService(cfg).Issue(user)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return token
}

// MockValidatedClaims creates the claims the JWT middleware stores for a user
func MockValidatedClaims(userID uint, role string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  "lumme-api",
			Subject: strconv.FormatUint(uint64(userID), 10),
		},
		CustomClaims: &middleware.CustomClaims{
			Role: role,
		},
	}
}

// MockAuth is a middleware that authenticates every request as user
func MockAuth(user models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := MockValidatedClaims(user.ID, user.Role)
		c.Set(middleware.UserIDKey, claims.RegisteredClaims.Subject)
		c.Set(middleware.ClaimsKey, claims)
		c.Next()
	}
}

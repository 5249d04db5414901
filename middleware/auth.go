package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/lumme/lumme-api/applog"
	"github.com/lumme/lumme-api/config"
)

// Gin context keys written by EnsureValidToken
const (
	UserIDKey = "user_id"
	ClaimsKey = "validated_claims"
)

// AccessTokenParam is the query parameter accepted in place of the
// Authorization header (used by websocket clients)
const AccessTokenParam = "access_token"

// CustomClaims contains the non-registered claims of an access token
type CustomClaims struct {
	Role string `json:"role"`
}

// Validate rejects tokens that carry an unknown role
func (c CustomClaims) Validate(ctx context.Context) error {
	switch c.Role {
	case "customer", "seller", "admin":
		return nil
	}
	return fmt.Errorf("unknown role %q", c.Role)
}

// HasRole checks whether the token was issued for one of roles
func (c CustomClaims) HasRole(roles ...string) bool {
	for _, role := range roles {
		if c.Role == role {
			return true
		}
	}
	return false
}

type ginContextKey struct{}

// newTokenValidator accepts HS256 tokens signed with cfg.JWTSecret for cfg's
// issuer and audience
func newTokenValidator(cfg *config.Config) (*validator.Validator, error) {
	secret := []byte(cfg.JWTSecret)
	return validator.New(
		func(context.Context) (interface{}, error) { return secret, nil },
		validator.HS256,
		cfg.JWTIssuer,
		[]string{cfg.JWTAudience},
		validator.WithCustomClaims(func() validator.CustomClaims { return &CustomClaims{} }),
		validator.WithAllowedClockSkew(time.Minute),
	)
}

// rejectToken answers 401 through the gin context stashed on the request
func rejectToken(w http.ResponseWriter, r *http.Request, err error) {
	c, ok := r.Context().Value(ginContextKey{}).(*gin.Context)
	if !ok {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	applog.Security(c, "token_rejected", map[string]any{"reason": err.Error()})
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   "Failed to validate JWT.",
		"code":    "INVALID_TOKEN",
	})
}

// EnsureValidToken is a middleware that will check the validity of our JWT.
// The token comes from the Authorization header or the access_token query parameter.
func EnsureValidToken(cfg *config.Config) gin.HandlerFunc {
	tokenValidator, err := newTokenValidator(cfg)
	if err != nil {
		log.Fatalf("Failed to set up the jwt validator: %v", err)
	}

	checker := jwtmiddleware.New(
		tokenValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(rejectToken),
		jwtmiddleware.WithTokenExtractor(jwtmiddleware.MultiTokenExtractor(
			jwtmiddleware.AuthHeaderTokenExtractor,
			jwtmiddleware.ParameterTokenExtractor(AccessTokenParam),
		)),
	)

	return func(c *gin.Context) {
		next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			claims := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
			c.Set(UserIDKey, claims.RegisteredClaims.Subject)
			c.Set(ClaimsKey, claims)
			c.Request = r
			c.Next()
		})

		req := c.Request.WithContext(context.WithValue(c.Request.Context(), ginContextKey{}, c))
		checker.CheckJWT(next).ServeHTTP(c.Writer, req)
	}
}

// GetUserID returns the authenticated account id (the token subject)
func GetUserID(c *gin.Context) (uint, error) {
	raw, exists := c.Get(UserIDKey)
	if !exists {
		return 0, &AuthError{Code: "MISSING_USER_ID", Message: "User ID not found in context"}
	}
	subject, ok := raw.(string)
	if !ok {
		return 0, &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not a string"}
	}

	id, err := strconv.ParseUint(subject, 10, 64)
	if err != nil || id == 0 {
		return 0, &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not a valid account id"}
	}
	return uint(id), nil
}

// GetClaims returns the validated token claims
func GetClaims(c *gin.Context) (*validator.ValidatedClaims, error) {
	raw, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, &AuthError{Code: "MISSING_CLAIMS", Message: "Claims not found in context"}
	}
	claims, ok := raw.(*validator.ValidatedClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}
	return claims, nil
}

// RequireRole only lets tokens issued for one of roles through
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := GetClaims(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Could not retrieve token claims",
				"code":    "MISSING_CLAIMS",
			})
			return
		}

		custom, ok := claims.CustomClaims.(*CustomClaims)
		if !ok || !custom.HasRole(roles...) {
			applog.Security(c, "role_denied", map[string]any{"required": roles})
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "Insufficient permissions to access this resource",
				"code":    "FORBIDDEN",
			})
			return
		}

		c.Next()
	}
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumme/lumme-api/applog"
	"github.com/lumme/lumme-api/config"
	"github.com/lumme/lumme-api/services"
)

// RegisterRequest represents the request body for creating an account
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	Role            string `json:"role" binding:"omitempty,oneof=customer seller"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Phone           string `json:"phone"`
	ShopName        string `json:"shop_name"`
	ShopDescription string `json:"shop_description"`
	ShopAddress     string `json:"shop_address"`
	DefaultAddress  string `json:"default_address"`
}

// LoginRequest represents the request body for signing in
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func authService() *services.AuthService {
	cfg := config.GetConfig()
	return services.NewAuthService(config.GetDB(), services.NewTokenService(cfg))
}

// Register handles POST /api/auth/register - creates a user with a customer or seller profile
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	result, err := authService().Register(c.Request.Context(), services.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		Role:            req.Role,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Phone:           req.Phone,
		ShopName:        req.ShopName,
		ShopDescription: req.ShopDescription,
		ShopAddress:     req.ShopAddress,
		DefaultAddress:  req.DefaultAddress,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	applog.Audit(c, "user_registered", map[string]any{"user_id": result.User.ID, "role": result.User.Role})
	respondOK(c, http.StatusCreated, result)
}

// Login handles POST /api/auth/login - exchanges credentials for a token
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	result, err := authService().Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		applog.Security(c, "login_failed", map[string]any{"email": req.Email})
		respondError(c, err)
		return
	}

	applog.Audit(c, "user_logged_in", map[string]any{"user_id": result.User.ID})
	respondOK(c, http.StatusOK, result)
}

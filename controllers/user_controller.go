package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumme/lumme-api/applog"
	"github.com/lumme/lumme-api/config"
	"github.com/lumme/lumme-api/services"
)

// UpdateUserRequest represents the request body for updating a user profile.
// Shop fields apply to sellers, address fields to customers.
type UpdateUserRequest struct {
	FirstName         *string  `json:"first_name"`
	LastName          *string  `json:"last_name"`
	Phone             *string  `json:"phone"`
	DefaultAddress    *string  `json:"default_address"`
	DeliveryAddresses []string `json:"delivery_addresses"`
	ShopName          *string  `json:"shop_name"`
	ShopDescription   *string  `json:"shop_description"`
	ShopAddress       *string  `json:"shop_address"`
	ShopPhone         *string  `json:"shop_phone"`
}

// SetUserStatusRequest represents the request body for enabling or disabling an account
type SetUserStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// GetMyProfile handles GET /api/users/me - the caller's account and role profile
func GetMyProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	profile, err := services.NewUserService(config.GetDB()).GetProfile(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, profile)
}

// UpdateMyProfile handles PUT /api/users/me
func UpdateMyProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	profile, err := services.NewUserService(config.GetDB()).UpdateProfile(c.Request.Context(), user.ID, services.ProfileUpdate{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Phone:             req.Phone,
		DefaultAddress:    req.DefaultAddress,
		DeliveryAddresses: req.DeliveryAddresses,
		ShopName:          req.ShopName,
		ShopDescription:   req.ShopDescription,
		ShopAddress:       req.ShopAddress,
		ShopPhone:         req.ShopPhone,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, profile)
}

// SetUserStatus handles PUT /api/admin/users/:id/status - admins only
func SetUserStatus(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SetUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	user, err := services.NewUserService(config.GetDB()).SetUserActive(c.Request.Context(), *actor, userID, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}

	applog.Audit(c, "user_status_changed", map[string]any{"target_user_id": user.ID, "is_active": user.IsActive})
	respondOK(c, http.StatusOK, user)
}

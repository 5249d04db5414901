package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lumme/lumme-api/applog"
	"github.com/lumme/lumme-api/config"
	"github.com/lumme/lumme-api/middleware"
	"github.com/lumme/lumme-api/models"
	"github.com/lumme/lumme-api/services"
)

// respondOK writes the success envelope
func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondFailure writes the error envelope
func respondFailure(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

// respondValidationError reports a request body or query that failed binding
func respondValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   "Invalid request data",
		"code":    "VALIDATION_ERROR",
		"details": err.Error(),
	})
}

// respondError maps a service error to its HTTP status. Errors that are not
// AppErrors are logged and hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	var appErr *services.AppError
	if !errors.As(err, &appErr) {
		applog.Error(c, "request_failed", err, nil)
		respondFailure(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(appErr, services.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(appErr, services.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(appErr, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(appErr, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(appErr, services.ErrConflict), errors.Is(appErr, services.ErrInsufficientStock):
		status = http.StatusConflict
	}
	if status == http.StatusForbidden {
		applog.Security(c, "access_denied", map[string]any{"code": appErr.Code})
	}
	respondFailure(c, status, appErr.Code, appErr.Message)
}

// parseIDParam reads a positive numeric path parameter
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondFailure(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// currentUser loads the account behind the request's token. Tokens of
// deleted or deactivated accounts are refused.
func currentUser(c *gin.Context) (*models.User, bool) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondFailure(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return nil, false
	}

	user, err := services.NewUserService(config.GetDB()).GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondFailure(c, http.StatusUnauthorized, "UNAUTHORIZED", "Account no longer exists")
			return nil, false
		}
		respondError(c, err)
		return nil, false
	}
	if !user.IsActive {
		applog.Security(c, "disabled_account_request", map[string]any{"user_id": user.ID})
		respondFailure(c, http.StatusForbidden, "ACCOUNT_DISABLED", "Account is disabled")
		return nil, false
	}
	return user, true
}

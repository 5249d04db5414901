package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumme/lumme-api/applog"
	"github.com/lumme/lumme-api/config"
	"github.com/lumme/lumme-api/services"
)

// SubmitReviewRequest represents the request body for reviewing an ordered product
type SubmitReviewRequest struct {
	OrderID    uint   `json:"order_id" binding:"required"`
	ProductID  uint   `json:"product_id" binding:"required"`
	SellerID   uint   `json:"seller_id"`
	Rating     int    `json:"rating" binding:"required"`
	ReviewText string `json:"review_text"`
}

// SubmitReview handles POST /api/reviews - customers review products they ordered
func SubmitReview(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	review, err := services.NewReviewService(config.GetDB()).SubmitReview(c.Request.Context(), services.SubmitReviewInput{
		UserID:     user.ID,
		OrderID:    req.OrderID,
		ProductID:  req.ProductID,
		SellerID:   req.SellerID,
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	applog.Audit(c, "review_submitted", map[string]any{"review_id": review.ID, "product_id": review.ProductID})
	respondOK(c, http.StatusCreated, review)
}

// ListProductReviews handles GET /api/products/:id/reviews
func ListProductReviews(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	reviews, err := services.NewReviewService(config.GetDB()).ListProductReviews(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, reviews)
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumme/lumme-api/config"
	"github.com/lumme/lumme-api/services"
)

// AddToCartRequest represents the request body for adding a product to the cart
type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"omitempty,gt=0"`
}

// SetCartQuantityRequest represents the request body for changing a cart line
type SetCartQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

func cartService() *services.CartService {
	return services.NewCartService(config.GetDB())
}

// GetCart handles GET /api/cart
func GetCart(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := cartService().ListCart(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, items)
}

// AddToCart handles POST /api/cart - repeat adds increase the existing line
func AddToCart(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item, err := cartService().AddToCart(c.Request.Context(), user.ID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, item)
}

// UpdateCartItem handles PUT /api/cart/:product_id
func UpdateCartItem(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "product_id")
	if !ok {
		return
	}

	var req SetCartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	item, err := cartService().SetCartQuantity(c.Request.Context(), user.ID, productID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, item)
}

// RemoveCartItem handles DELETE /api/cart/:product_id
func RemoveCartItem(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "product_id")
	if !ok {
		return
	}

	if err := cartService().RemoveFromCart(c.Request.Context(), user.ID, productID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product removed from cart",
	})
}

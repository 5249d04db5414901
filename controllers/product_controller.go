package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumme/lumme-api/applog"
	"github.com/lumme/lumme-api/config"
	"github.com/lumme/lumme-api/models"
	"github.com/lumme/lumme-api/services"
)

// ListProductsQuery represents the query string of a catalog search
type ListProductsQuery struct {
	Occasion string   `form:"occasion"`
	Size     string   `form:"size" binding:"omitempty,oneof=small medium large"`
	MinPrice *float64 `form:"min_price" binding:"omitempty,min=0"`
	MaxPrice *float64 `form:"max_price" binding:"omitempty,min=0"`
	Page     int      `form:"page,default=1" binding:"min=1"`
	PerPage  int      `form:"per_page,default=12" binding:"min=1"`
}

// CreateProductRequest represents the request body for listing a product
type CreateProductRequest struct {
	Name          string             `json:"name" binding:"required"`
	Description   string             `json:"description"`
	Price         float64            `json:"price" binding:"required,gt=0"`
	Composition   models.Composition `json:"composition"`
	Occasion      string             `json:"occasion"`
	Size          string             `json:"size" binding:"omitempty,oneof=small medium large"`
	StockQuantity int                `json:"stock_quantity" binding:"min=0"`
	ImageURL      string             `json:"image_url"`
}

// UpdateProductRequest represents the request body for editing a product;
// omitted fields keep their value
type UpdateProductRequest struct {
	Name          *string            `json:"name" binding:"omitempty,min=1"`
	Description   *string            `json:"description"`
	Price         *float64           `json:"price" binding:"omitempty,gt=0"`
	Composition   models.Composition `json:"composition"`
	Occasion      *string            `json:"occasion"`
	Size          *string            `json:"size" binding:"omitempty,oneof=small medium large"`
	StockQuantity *int               `json:"stock_quantity" binding:"omitempty,min=0"`
	ImageURL      *string            `json:"image_url"`
}

func catalogService() *services.CatalogService {
	return services.NewCatalogService(config.GetDB(), services.GetImageStore())
}

// ListProducts handles GET /api/products - in-stock products with filters and pagination
func ListProducts(c *gin.Context) {
	var query ListProductsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondValidationError(c, err)
		return
	}

	page, err := catalogService().ListProducts(c.Request.Context(), services.ProductFilter{
		Occasion: query.Occasion,
		Size:     query.Size,
		MinPrice: query.MinPrice,
		MaxPrice: query.MaxPrice,
		Page:     query.Page,
		PerPage:  query.PerPage,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, page)
}

// GetProduct handles GET /api/products/:id
func GetProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := catalogService().GetProduct(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, product)
}

// CreateProduct handles POST /api/products - sellers only
func CreateProduct(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	product, err := catalogService().CreateProduct(c.Request.Context(), user.ID, services.ProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		Composition:   req.Composition,
		Occasion:      req.Occasion,
		Size:          req.Size,
		StockQuantity: req.StockQuantity,
		ImageURL:      req.ImageURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	applog.Audit(c, "product_created", map[string]any{"product_id": product.ID})
	respondOK(c, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/products/:id - owning seller only
func UpdateProduct(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	product, err := catalogService().UpdateProduct(c.Request.Context(), user.ID, productID, services.ProductUpdate{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		Composition:   req.Composition,
		Occasion:      req.Occasion,
		Size:          req.Size,
		StockQuantity: req.StockQuantity,
		ImageURL:      req.ImageURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	applog.Audit(c, "product_updated", map[string]any{"product_id": product.ID})
	respondOK(c, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/:id - owning seller only
func DeleteProduct(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := catalogService().DeleteProduct(c.Request.Context(), user.ID, productID); err != nil {
		respondError(c, err)
		return
	}

	applog.Audit(c, "product_deleted", map[string]any{"product_id": productID})
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product deleted",
	})
}

// UploadProductImage handles POST /api/products/:id/image - multipart field "image"
func UploadProductImage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondFailure(c, http.StatusBadRequest, "NO_FILE", "An image file is required in the \"image\" field")
		return
	}

	product, err := catalogService().SetProductImage(c.Request.Context(), user.ID, productID, fileHeader)
	if err != nil {
		respondError(c, err)
		return
	}

	applog.Audit(c, "product_image_uploaded", map[string]any{"product_id": product.ID})
	respondOK(c, http.StatusOK, product)
}

// GetProductImage handles GET /api/products/:id/image - redirects to a presigned URL
func GetProductImage(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	url, err := catalogService().ProductImageURL(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Redirect(http.StatusFound, url)
}

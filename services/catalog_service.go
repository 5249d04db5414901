package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"mime/multipart"
	"strings"
	"time"

	"github.com/lumme/lumme-api/models"
	"github.com/lumme/lumme-api/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Page size bounds for product listings
const (
	DefaultPerPage = 12
	MaxPerPage     = 100
)

// ProductFilter narrows a product listing. Nil price bounds are open.
type ProductFilter struct {
	Occasion string
	Size     string
	MinPrice *float64
	MaxPrice *float64
	Page     int
	PerPage  int
}

// Pagination describes the slice of results returned
type Pagination struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
}

// ProductPage is one page of a product listing
type ProductPage struct {
	Products   []models.Product `json:"products"`
	Pagination Pagination       `json:"pagination"`
}

// apply adds the in-stock condition and the filter's predicates to query
func (f ProductFilter) apply(query *gorm.DB) *gorm.DB {
	query = query.Where("is_in_stock = ?", true)
	if f.Occasion != "" {
		query = query.Where("occasion = ?", f.Occasion)
	}
	if f.Size != "" {
		query = query.Where("size = ?", f.Size)
	}
	if f.MinPrice != nil {
		query = query.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		query = query.Where("price <= ?", *f.MaxPrice)
	}
	return query
}

// ProductInput holds the fields of a new product
type ProductInput struct {
	Name          string
	Description   string
	Price         float64
	Composition   models.Composition
	Occasion      string
	Size          string
	StockQuantity int
	ImageURL      string
}

// ProductUpdate holds product changes; nil fields stay unchanged
type ProductUpdate struct {
	Name          *string
	Description   *string
	Price         *float64
	Composition   models.Composition
	Occasion      *string
	Size          *string
	StockQuantity *int
	ImageURL      *string
}

// CatalogService manages the products sellers list
type CatalogService struct {
	db     *gorm.DB
	images ImageStore
}

// NewCatalogService creates a catalog service. images may be nil when
// image storage is not configured.
func NewCatalogService(db *gorm.DB, images ImageStore) *CatalogService {
	return &CatalogService{db: db, images: images}
}

// ListProducts returns in-stock products matching the filter, ordered by id
func (s *CatalogService) ListProducts(ctx context.Context, filter ProductFilter) (*ProductPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = DefaultPerPage
	}
	if filter.PerPage > MaxPerPage {
		filter.PerPage = MaxPerPage
	}
	if filter.Size != "" && !models.Size(filter.Size).Valid() {
		return nil, invalid("INVALID_SIZE", "Size must be small, medium or large")
	}

	db := s.db.WithContext(ctx)

	var total int64
	if err := filter.apply(db.Model(&models.Product{})).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	products := []models.Product{}
	if err := filter.apply(db).Preload("Seller").
		Order("id ASC").
		Offset((filter.Page - 1) * filter.PerPage).
		Limit(filter.PerPage).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return &ProductPage{
		Products: products,
		Pagination: Pagination{
			Page:    filter.Page,
			PerPage: filter.PerPage,
			Total:   total,
			Pages:   int(math.Ceil(float64(total) / float64(filter.PerPage))),
		},
	}, nil
}

// GetProduct loads a product with its seller
func (s *CatalogService) GetProduct(ctx context.Context, productID uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Preload("Seller").First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, productNotFound()
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return &product, nil
}

// CreateProduct lists a new product in the acting seller's shop
func (s *CatalogService) CreateProduct(ctx context.Context, userID uint, in ProductInput) (*models.Product, error) {
	db := s.db.WithContext(ctx)
	seller, err := findSeller(db, userID)
	if err != nil {
		return nil, err
	}

	size := models.Size(in.Size)
	if in.Size == "" {
		size = models.SizeMedium
	}
	product := models.Product{
		SellerID:      seller.ID,
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		Price:         in.Price,
		Composition:   in.Composition,
		Occasion:      strings.TrimSpace(in.Occasion),
		Size:          size,
		StockQuantity: in.StockQuantity,
		ImageURL:      in.ImageURL,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	product.SyncStockFlag()

	if err := db.Create(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	product.Seller = seller
	return &product, nil
}

// UpdateProduct changes a product owned by the acting seller
func (s *CatalogService) UpdateProduct(ctx context.Context, userID, productID uint, update ProductUpdate) (*models.Product, error) {
	var product *models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned, seller, err := ownedProduct(tx, userID, productID)
		if err != nil {
			return err
		}

		if update.Name != nil {
			owned.Name = strings.TrimSpace(*update.Name)
		}
		if update.Description != nil {
			owned.Description = *update.Description
		}
		if update.Price != nil {
			owned.Price = *update.Price
		}
		if update.Composition != nil {
			owned.Composition = update.Composition
		}
		if update.Occasion != nil {
			owned.Occasion = strings.TrimSpace(*update.Occasion)
		}
		if update.Size != nil {
			owned.Size = models.Size(*update.Size)
		}
		if update.StockQuantity != nil {
			owned.StockQuantity = *update.StockQuantity
		}
		if update.ImageURL != nil {
			owned.ImageURL = *update.ImageURL
		}
		if err := validateProduct(*owned); err != nil {
			return err
		}
		owned.SyncStockFlag()

		if err := tx.Omit(clause.Associations).Save(owned).Error; err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		owned.Seller = seller
		product = owned
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a product owned by the acting seller together with
// its cart entries, reviews and order lines
func (s *CatalogService) DeleteProduct(ctx context.Context, userID, productID uint) error {
	var imageKey *string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, seller, err := ownedProduct(tx, userID, productID)
		if err != nil {
			return err
		}
		imageKey = product.ImageS3Key

		for _, dependent := range []interface{}{&models.CartItem{}, &models.Review{}, &models.OrderItem{}} {
			if err := tx.Where("product_id = ?", product.ID).Delete(dependent).Error; err != nil {
				return fmt.Errorf("failed to delete product dependents: %w", err)
			}
		}
		if err := tx.Delete(&models.Product{}, product.ID).Error; err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return recomputeSellerRating(tx, seller.ID)
	})
	if err != nil {
		return err
	}

	if imageKey != nil && s.images != nil {
		if err := s.images.Delete(ctx, *imageKey); err != nil {
			log.Printf("Failed to delete image %s for product %d: %v", *imageKey, productID, err)
		}
	}
	return nil
}

// SetProductImage stores an uploaded image for a product owned by the acting seller
func (s *CatalogService) SetProductImage(ctx context.Context, userID, productID uint, fileHeader *multipart.FileHeader) (*models.Product, error) {
	if s.images == nil {
		return nil, invalid("IMAGE_STORAGE_DISABLED", "Image storage is not configured")
	}
	db := s.db.WithContext(ctx)

	product, seller, err := ownedProduct(db, userID, productID)
	if err != nil {
		return nil, err
	}

	key, err := s.images.Save(ctx, product.ID, fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			return nil, invalid(uploadErr.Code, "%s", uploadErr.Message)
		}
		return nil, err
	}

	previous := product.ImageS3Key
	imageURL := ProductImagePath(product.ID)
	if err := db.Model(product).UpdateColumns(map[string]interface{}{
		"image_s3_key": key,
		"image_url":    imageURL,
		"updated_at":   time.Now(),
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to save product image: %w", err)
	}
	product.ImageS3Key = &key
	product.ImageURL = imageURL
	product.Seller = seller

	if previous != nil && *previous != key {
		if err := s.images.Delete(ctx, *previous); err != nil {
			log.Printf("Failed to delete replaced image %s: %v", *previous, err)
		}
	}
	return product, nil
}

// ProductImageURL returns a short-lived URL for a product's uploaded image
func (s *CatalogService) ProductImageURL(ctx context.Context, productID uint) (string, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", productNotFound()
		}
		return "", fmt.Errorf("failed to load product: %w", err)
	}
	if product.ImageS3Key == nil || s.images == nil {
		return "", notFound("IMAGE_NOT_FOUND", "Product has no uploaded image")
	}
	return s.images.URL(ctx, *product.ImageS3Key)
}

// ProductImagePath is the public path that redirects to a product's image
func ProductImagePath(productID uint) string {
	return fmt.Sprintf("/api/products/%d/image", productID)
}

// ownedProduct loads a product and checks that the acting user's shop owns it
func ownedProduct(tx *gorm.DB, userID, productID uint) (*models.Product, *models.Seller, error) {
	seller, err := findSeller(tx, userID)
	if err != nil {
		return nil, nil, err
	}

	var product models.Product
	if err := tx.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, productNotFound()
		}
		return nil, nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product.SellerID != seller.ID {
		return nil, nil, forbidden("You can only manage products from your own shop")
	}
	return &product, seller, nil
}

func validateProduct(p models.Product) error {
	if p.Name == "" {
		return invalid("VALIDATION_ERROR", "Product name is required")
	}
	if p.Price <= 0 {
		return invalid("VALIDATION_ERROR", "Price must be greater than zero")
	}
	if p.StockQuantity < 0 {
		return invalid("VALIDATION_ERROR", "Stock quantity cannot be negative")
	}
	if !p.Size.Valid() {
		return invalid("INVALID_SIZE", "Size must be small, medium or large")
	}
	for flower, count := range p.Composition {
		if count <= 0 {
			return invalid("VALIDATION_ERROR", "Composition count for %s must be positive", flower)
		}
	}
	return nil
}

func productNotFound() *AppError {
	return notFound("PRODUCT_NOT_FOUND", "Product not found")
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lumme/lumme-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubmitReviewInput is a customer's rating of a product they ordered
type SubmitReviewInput struct {
	UserID     uint
	OrderID    uint
	ProductID  uint
	SellerID   uint // optional, must match the order's seller when set
	Rating     int
	ReviewText string
}

// ReviewService records reviews and keeps product and shop ratings current
type ReviewService struct {
	db *gorm.DB
}

// NewReviewService creates a review service
func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// ratingAggregate is the mean and count of a set of reviews
type ratingAggregate struct {
	Average float64
	Total   int64
}

// SubmitReview stores the review and recomputes the product's rating and
// review count and the seller's rating in the same transaction
func (s *ReviewService) SubmitReview(ctx context.Context, in SubmitReviewInput) (*models.Review, error) {
	if in.Rating < models.MinRating || in.Rating > models.MaxRating {
		return nil, invalid("INVALID_RATING", "Rating must be between %d and %d", models.MinRating, models.MaxRating)
	}
	db := s.db.WithContext(ctx)

	customer, err := findCustomer(db, in.UserID)
	if err != nil {
		return nil, err
	}

	var review models.Review
	err = db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, in.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("ORDER_NOT_FOUND", "Order not found")
			}
			return fmt.Errorf("failed to load order: %w", err)
		}
		if order.CustomerID != customer.ID {
			return forbidden("You can only review your own orders")
		}
		if in.SellerID != 0 && in.SellerID != order.SellerID {
			return invalid("SELLER_MISMATCH", "Seller does not match the order")
		}

		var lines int64
		if err := tx.Model(&models.OrderItem{}).
			Where("order_id = ? AND product_id = ?", order.ID, in.ProductID).
			Count(&lines).Error; err != nil {
			return fmt.Errorf("failed to check order items: %w", err)
		}
		if lines == 0 {
			return invalid("PRODUCT_NOT_IN_ORDER", "Product %d is not part of this order", in.ProductID)
		}

		// Serializes concurrent reviews of the same product
		var product models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, in.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return productNotFound()
			}
			return fmt.Errorf("failed to load product: %w", err)
		}

		review = models.Review{
			OrderID:    order.ID,
			CustomerID: customer.ID,
			ProductID:  product.ID,
			SellerID:   order.SellerID,
			Rating:     in.Rating,
			ReviewText: strings.TrimSpace(in.ReviewText),
		}
		if err := tx.Create(&review).Error; err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}

		if err := recomputeProductRating(tx, product.ID); err != nil {
			return err
		}
		return recomputeSellerRating(tx, order.SellerID)
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// ListProductReviews returns a product's reviews, newest first, with the
// reviewer's first name
func (s *ReviewService) ListProductReviews(ctx context.Context, productID uint) ([]models.Review, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if count == 0 {
		return nil, productNotFound()
	}

	reviews := []models.Review{}
	if err := db.Model(&models.Review{}).
		Select("reviews.*, users.first_name AS customer_name").
		Joins("JOIN customers ON customers.id = reviews.customer_id").
		Joins("JOIN users ON users.id = customers.user_id").
		Where("reviews.product_id = ?", productID).
		Order("reviews.created_at DESC").
		Order("reviews.id DESC").
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func aggregateRatings(tx *gorm.DB, column string, id uint) (ratingAggregate, error) {
	var agg ratingAggregate
	err := tx.Model(&models.Review{}).
		Select("COALESCE(AVG(CAST(rating AS FLOAT)), 0) AS average, COUNT(*) AS total").
		Where(column+" = ?", id).
		Scan(&agg).Error
	return agg, err
}

func recomputeProductRating(tx *gorm.DB, productID uint) error {
	agg, err := aggregateRatings(tx, "product_id", productID)
	if err != nil {
		return fmt.Errorf("failed to aggregate product ratings: %w", err)
	}
	if err := tx.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumns(map[string]interface{}{
			"rating":       agg.Average,
			"review_count": agg.Total,
			"updated_at":   time.Now(),
		}).Error; err != nil {
		return fmt.Errorf("failed to update product rating: %w", err)
	}
	return nil
}

func recomputeSellerRating(tx *gorm.DB, sellerID uint) error {
	agg, err := aggregateRatings(tx, "seller_id", sellerID)
	if err != nil {
		return fmt.Errorf("failed to aggregate seller ratings: %w", err)
	}
	if err := tx.Model(&models.Seller{}).
		Where("id = ?", sellerID).
		UpdateColumns(map[string]interface{}{
			"rating":     agg.Average,
			"updated_at": time.Now(),
		}).Error; err != nil {
		return fmt.Errorf("failed to update seller rating: %w", err)
	}
	return nil
}

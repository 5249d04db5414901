package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lumme/lumme-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartService manages customers' carts
type CartService struct {
	db *gorm.DB
}

// NewCartService creates a cart service
func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

// ListCart returns the customer's cart lines with their products, oldest first
func (s *CartService) ListCart(ctx context.Context, userID uint) ([]models.CartItem, error) {
	db := s.db.WithContext(ctx)
	customer, err := findCustomer(db, userID)
	if err != nil {
		return nil, err
	}

	items := []models.CartItem{}
	if err := db.Preload("Product").
		Where("customer_id = ?", customer.ID).
		Order("id").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return items, nil
}

// AddToCart adds quantity of a product to the cart. Adding a product that is
// already in the cart increases the existing line.
func (s *CartService) AddToCart(ctx context.Context, userID, productID uint, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, invalid("INVALID_QUANTITY", "Quantity must be positive")
	}
	db := s.db.WithContext(ctx)
	customer, err := findCustomer(db, userID)
	if err != nil {
		return nil, err
	}

	var item models.CartItem
	err = db.Transaction(func(tx *gorm.DB) error {
		product, err := availableProduct(tx, productID)
		if err != nil {
			return err
		}

		line := models.CartItem{CustomerID: customer.ID, ProductID: product.ID, Quantity: quantity}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "customer_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   gorm.Expr("cart_items.quantity + ?", quantity),
				"updated_at": time.Now(),
			}),
		}).Create(&line).Error; err != nil {
			return fmt.Errorf("failed to add to cart: %w", err)
		}

		if err := tx.Preload("Product").
			Where("customer_id = ? AND product_id = ?", customer.ID, product.ID).
			First(&item).Error; err != nil {
			return fmt.Errorf("failed to load cart item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SetCartQuantity replaces the quantity of a product already in the cart
func (s *CartService) SetCartQuantity(ctx context.Context, userID, productID uint, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, invalid("INVALID_QUANTITY", "Quantity must be positive")
	}
	db := s.db.WithContext(ctx)
	customer, err := findCustomer(db, userID)
	if err != nil {
		return nil, err
	}

	var item models.CartItem
	if err := db.Where("customer_id = ? AND product_id = ?", customer.ID, productID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cartItemNotFound()
		}
		return nil, fmt.Errorf("failed to load cart item: %w", err)
	}
	if err := db.Model(&item).Update("quantity", quantity).Error; err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	if err := db.Preload("Product").First(&item, item.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load cart item: %w", err)
	}
	return &item, nil
}

// RemoveFromCart deletes a product from the cart
func (s *CartService) RemoveFromCart(ctx context.Context, userID, productID uint) error {
	db := s.db.WithContext(ctx)
	customer, err := findCustomer(db, userID)
	if err != nil {
		return err
	}

	res := db.Where("customer_id = ? AND product_id = ?", customer.ID, productID).Delete(&models.CartItem{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove cart item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return cartItemNotFound()
	}
	return nil
}

// availableProduct loads a product that can currently be bought
func availableProduct(tx *gorm.DB, productID uint) (*models.Product, error) {
	var product models.Product
	if err := tx.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, productNotFound()
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if !product.IsInStock {
		return nil, insufficientStock(product.Name)
	}
	return &product, nil
}

func cartItemNotFound() *AppError {
	return notFound("CART_ITEM_NOT_FOUND", "Product is not in the cart")
}

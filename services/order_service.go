package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/lumme/lumme-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxOrderNumberAttempts bounds retries after an order number collision
const maxOrderNumberAttempts = 5

// OrderLine is one requested product and quantity
type OrderLine struct {
	ProductID uint
	Quantity  int
}

// PlaceOrderInput carries a checkout request from an authenticated user
type PlaceOrderInput struct {
	UserID          uint
	Items           []OrderLine
	DeliveryAddress string
	DeliveryDate    string // YYYY-MM-DD
	DeliveryTime    string
	PersonalMessage string
	PaymentMethod   string
}

func (in PlaceOrderInput) validate() error {
	if len(in.Items) == 0 {
		return invalid("EMPTY_ORDER", "Order must contain at least one item")
	}
	for _, line := range in.Items {
		if line.ProductID == 0 {
			return invalid("VALIDATION_ERROR", "Every item needs a product id")
		}
		if line.Quantity <= 0 {
			return invalid("INVALID_QUANTITY", "Quantity for product %d must be positive", line.ProductID)
		}
	}
	if strings.TrimSpace(in.DeliveryAddress) == "" {
		return invalid("VALIDATION_ERROR", "Delivery address is required")
	}
	if _, err := time.Parse(models.DeliveryDateLayout, in.DeliveryDate); err != nil {
		return invalid("INVALID_DELIVERY_DATE", "Delivery date must use the YYYY-MM-DD format")
	}
	return nil
}

// mergeLines sums quantities of repeated products, keeping first-seen order
func mergeLines(lines []OrderLine) []OrderLine {
	merged := make([]OrderLine, 0, len(lines))
	index := make(map[uint]int, len(lines))
	for _, line := range lines {
		if i, ok := index[line.ProductID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged
}

func lineProductIDs(lines []OrderLine) []uint {
	ids := make([]uint, len(lines))
	for i, line := range lines {
		ids[i] = line.ProductID
	}
	return ids
}

// OrderService places orders and drives them through fulfillment
type OrderService struct {
	db             *gorm.DB
	deliveryFee    float64
	notifier       OrderNotifier
	now            func() time.Time
	newOrderNumber func(time.Time) string
}

// NewOrderService creates an order service. notifier may be nil.
func NewOrderService(db *gorm.DB, deliveryFee float64, notifier OrderNotifier) *OrderService {
	return &OrderService{
		db:             db,
		deliveryFee:    deliveryFee,
		notifier:       notifier,
		now:            time.Now,
		newOrderNumber: GenerateOrderNumber,
	}
}

// WithOrderNumberGenerator replaces the order number source
func (s *OrderService) WithOrderNumberGenerator(gen func(time.Time) string) *OrderService {
	s.newOrderNumber = gen
	return s
}

// PlaceOrder validates the request and, in one transaction, creates the order
// with its items, takes the stock, clears the ordered products from the cart
// and updates the customer's totals.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	db := s.db.WithContext(ctx)

	customer, err := findCustomer(db, in.UserID)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = models.DefaultPaymentMethod
	}
	lines := mergeLines(in.Items)

	var order *models.Order
	for attempt := 1; ; attempt++ {
		number := s.newOrderNumber(s.now())
		err = db.Transaction(func(tx *gorm.DB) error {
			placed, err := s.placeOrderTx(tx, customer, in, lines, number)
			if err != nil {
				return err
			}
			order = placed
			return nil
		})
		if err == nil {
			break
		}
		if isDuplicateKey(err) && attempt < maxOrderNumberAttempts {
			log.Printf("Order number %s already taken, retrying (attempt %d)", number, attempt)
			continue
		}
		return nil, err
	}

	s.publish(EventOrderPlaced, *order)
	return order, nil
}

func (s *OrderService) placeOrderTx(tx *gorm.DB, customer *models.Customer, in PlaceOrderInput, lines []OrderLine, number string) (*models.Order, error) {
	ids := lineProductIDs(lines)

	// Lock in id order so concurrent checkouts cannot deadlock
	var products []models.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, line := range lines {
		if _, ok := byID[line.ProductID]; !ok {
			return nil, notFound("PRODUCT_NOT_FOUND", "Product %d not found", line.ProductID)
		}
	}

	sellerID := byID[lines[0].ProductID].SellerID
	for _, line := range lines {
		if byID[line.ProductID].SellerID != sellerID {
			return nil, invalid("MIXED_SELLERS", "All items in an order must come from the same shop")
		}
	}

	for _, line := range lines {
		if product := byID[line.ProductID]; line.Quantity > product.StockQuantity {
			return nil, insufficientStock(product.Name)
		}
	}

	items, total := priceLines(lines, byID, s.deliveryFee)
	now := s.now()

	order := models.Order{
		OrderNumber:     number,
		CustomerID:      customer.ID,
		SellerID:        sellerID,
		TotalAmount:     total,
		DeliveryFee:     s.deliveryFee,
		DeliveryAddress: strings.TrimSpace(in.DeliveryAddress),
		DeliveryDate:    in.DeliveryDate,
		DeliveryTime:    in.DeliveryTime,
		PersonalMessage: in.PersonalMessage,
		PaymentMethod:   in.PaymentMethod,
		Status:          models.OrderStatusPending,
		Items:           items,
	}
	if err := tx.Create(&order).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for _, line := range lines {
		res := tx.Model(&models.Product{}).
			Where("id = ? AND stock_quantity >= ?", line.ProductID, line.Quantity).
			UpdateColumns(map[string]interface{}{
				"stock_quantity": gorm.Expr("stock_quantity - ?", line.Quantity),
				"is_in_stock":    gorm.Expr("stock_quantity - ? > 0", line.Quantity),
				"updated_at":     now,
			})
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update stock: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, insufficientStock(byID[line.ProductID].Name)
		}
	}

	if err := tx.Where("customer_id = ? AND product_id IN ?", customer.ID, ids).
		Delete(&models.CartItem{}).Error; err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Model(&models.Customer{}).
		Where("id = ?", customer.ID).
		UpdateColumns(map[string]interface{}{
			"total_orders": gorm.Expr("total_orders + ?", 1),
			"total_spent":  gorm.Expr("total_spent + ?", total),
			"updated_at":   now,
		}).Error; err != nil {
		return nil, fmt.Errorf("failed to update customer totals: %w", err)
	}

	return &order, nil
}

// UpdateOrderStatus moves an order owned by the acting seller to a new status.
// Cancelling returns the stock and reverses the customer's totals; delivery
// counts as a sale for the shop.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, userID, orderID uint, rawStatus string) (*models.Order, error) {
	db := s.db.WithContext(ctx)

	seller, err := findSeller(db, userID)
	if err != nil {
		return nil, err
	}
	next, ok := models.ParseOrderStatus(rawStatus)
	if !ok {
		return nil, invalid("INVALID_STATUS", "Unknown order status %q", rawStatus)
	}

	var updated models.Order
	err = db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("ORDER_NOT_FOUND", "Order not found")
			}
			return fmt.Errorf("failed to load order: %w", err)
		}
		if order.SellerID != seller.ID {
			return forbidden("You can only update orders placed with your shop")
		}
		if !order.Status.CanTransitionTo(next) {
			return invalid("INVALID_STATUS_TRANSITION", "Cannot change order status from %s to %s", order.Status, next)
		}
		if err := tx.Where("order_id = ?", order.ID).Order("id").Find(&order.Items).Error; err != nil {
			return fmt.Errorf("failed to load order items: %w", err)
		}

		now := s.now()
		switch next {
		case models.OrderStatusCancelled:
			if err := s.releaseOrder(tx, order, now); err != nil {
				return err
			}
		case models.OrderStatusDelivered:
			if err := tx.Model(&models.Seller{}).
				Where("id = ?", seller.ID).
				UpdateColumns(map[string]interface{}{
					"total_sales": gorm.Expr("total_sales + ?", 1),
					"updated_at":  now,
				}).Error; err != nil {
				return fmt.Errorf("failed to update seller sales: %w", err)
			}
		}

		if err := tx.Model(&order).UpdateColumns(map[string]interface{}{
			"order_status": string(next),
			"updated_at":   now,
		}).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		order.Status = next
		order.UpdatedAt = now
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(EventOrderStatusChanged, updated)
	return &updated, nil
}

// releaseOrder undoes the effects of placing order
func (s *OrderService) releaseOrder(tx *gorm.DB, order models.Order, now time.Time) error {
	for _, item := range order.Items {
		if err := tx.Model(&models.Product{}).
			Where("id = ?", item.ProductID).
			UpdateColumns(map[string]interface{}{
				"stock_quantity": gorm.Expr("stock_quantity + ?", item.Quantity),
				"is_in_stock":    gorm.Expr("stock_quantity + ? > 0", item.Quantity),
				"updated_at":     now,
			}).Error; err != nil {
			return fmt.Errorf("failed to restock product %d: %w", item.ProductID, err)
		}
	}

	if err := tx.Model(&models.Customer{}).
		Where("id = ?", order.CustomerID).
		UpdateColumns(map[string]interface{}{
			"total_orders": gorm.Expr("total_orders - ?", 1),
			"total_spent":  gorm.Expr("total_spent - ?", order.TotalAmount),
			"updated_at":   now,
		}).Error; err != nil {
		return fmt.Errorf("failed to update customer totals: %w", err)
	}
	return nil
}

// ListOrders returns the caller's orders, newest first: a customer's own
// purchases or the orders placed with a seller's shop
func (s *OrderService) ListOrders(ctx context.Context, user models.User) ([]models.Order, error) {
	db := s.db.WithContext(ctx)
	query := db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("id")
	}).Order("created_at DESC").Order("id DESC")

	switch user.Role {
	case models.RoleCustomer:
		customer, err := findCustomer(db, user.ID)
		if err != nil {
			return nil, err
		}
		query = query.Where("customer_id = ?", customer.ID)
	case models.RoleSeller:
		seller, err := findSeller(db, user.ID)
		if err != nil {
			return nil, err
		}
		query = query.Where("seller_id = ?", seller.ID)
	default:
		return nil, forbidden("Only customers and sellers have orders")
	}

	orders := []models.Order{}
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// GetOrder returns one order with its items if the caller is its customer or seller
func (s *OrderService) GetOrder(ctx context.Context, user models.User, orderID uint) (*models.Order, error) {
	db := s.db.WithContext(ctx)

	var order models.Order
	if err := db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("id")
	}).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("ORDER_NOT_FOUND", "Order not found")
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	switch user.Role {
	case models.RoleCustomer:
		customer, err := findCustomer(db, user.ID)
		if err != nil {
			return nil, err
		}
		if order.CustomerID == customer.ID {
			return &order, nil
		}
	case models.RoleSeller:
		seller, err := findSeller(db, user.ID)
		if err != nil {
			return nil, err
		}
		if order.SellerID == seller.ID {
			return &order, nil
		}
	}
	return nil, forbidden("You do not have access to this order")
}

func (s *OrderService) publish(eventType string, order models.Order) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(OrderEvent{Type: eventType, Order: order})
}

package models

import (
	"time"
)

// OrderStatus is the fulfillment state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusOnTheWay  OrderStatus = "on_the_way"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// DefaultPaymentMethod is stored when the customer does not pick one
const DefaultPaymentMethod = "cash_on_delivery"

// DeliveryDateLayout is the wire and storage format of Order.DeliveryDate
const DeliveryDateLayout = "2006-01-02"

// fulfillment is the forward path an order travels; cancelled sits outside it
var fulfillment = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusOnTheWay,
	OrderStatusDelivered,
}

// ParseOrderStatus converts a raw status value, reporting false for unknown values
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	status := OrderStatus(raw)
	if status == OrderStatusCancelled {
		return status, true
	}
	return status, status.step() >= 0
}

func (s OrderStatus) step() int {
	for i, candidate := range fulfillment {
		if candidate == s {
			return i
		}
	}
	return -1
}

// IsTerminal reports whether no further transition is allowed
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether an order in status s may move to next.
// Orders only move forward along the fulfillment path (steps may be skipped),
// and any non-terminal order may be cancelled.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	from, to := s.step(), next.step()
	return from >= 0 && to > from
}

// Order is a purchase from a single seller
type Order struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	OrderNumber     string      `gorm:"uniqueIndex;size:50;not null" json:"order_number"`
	CustomerID      uint        `gorm:"not null;index" json:"customer_id"`
	Customer        *Customer   `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
	SellerID        uint        `gorm:"not null;index" json:"seller_id"`
	Seller          *Seller     `gorm:"foreignKey:SellerID;constraint:OnDelete:CASCADE" json:"-"`
	TotalAmount     float64     `gorm:"not null" json:"total_amount"`
	DeliveryFee     float64     `gorm:"not null;default:0" json:"delivery_fee"`
	DeliveryAddress string      `gorm:"type:text;not null" json:"delivery_address"`
	DeliveryDate    string      `gorm:"size:10;not null" json:"delivery_date"` // YYYY-MM-DD
	DeliveryTime    string      `gorm:"size:20" json:"delivery_time"`
	PersonalMessage string      `gorm:"type:text" json:"personal_message"`
	PaymentMethod   string      `gorm:"size:50;not null;default:'cash_on_delivery'" json:"payment_method"`
	Status          OrderStatus `gorm:"column:order_status;size:20;not null;default:'pending';index" json:"order_status"`
	Items           []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderItem is a line of an order. Price fields are frozen when the order is placed.
type OrderItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrderID     uint      `gorm:"not null;index" json:"order_id"`
	ProductID   uint      `gorm:"not null;index" json:"product_id"`
	Product     *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
	ProductName string    `gorm:"size:100;not null" json:"product_name"`
	Quantity    int       `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice   float64   `gorm:"not null" json:"unit_price"`
	Subtotal    float64   `gorm:"not null" json:"subtotal"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

package models

import (
	"time"
)

// CartItem is a product a customer intends to buy. A customer holds at most
// one row per product; repeated adds increase Quantity.
type CartItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CustomerID uint      `gorm:"not null;uniqueIndex:idx_cart_customer_product" json:"customer_id"`
	Customer   *Customer `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
	ProductID  uint      `gorm:"not null;uniqueIndex:idx_cart_customer_product" json:"product_id"`
	Product    *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product,omitempty"`
	Quantity   int       `gorm:"not null;default:1;check:quantity > 0" json:"quantity"`
	AddedAt    time.Time `gorm:"autoCreateTime" json:"added_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for the CartItem model
func (CartItem) TableName() string {
	return "cart_items"
}

// All returns every model managed by AutoMigrate, parents before children
func All() []interface{} {
	return []interface{}{
		&User{},
		&Seller{},
		&Customer{},
		&Product{},
		&Order{},
		&OrderItem{},
		&Review{},
		&CartItem{},
	}
}

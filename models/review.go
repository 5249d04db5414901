package models

import (
	"time"
)

// Rating bounds for a review
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a customer's rating of a product from one of their orders
type Review struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OrderID      uint      `gorm:"not null;index" json:"order_id"`
	Order        *Order    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"-"`
	CustomerID   uint      `gorm:"not null;index" json:"customer_id"`
	Customer     *Customer `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
	ProductID    uint      `gorm:"not null;index" json:"product_id"`
	Product      *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
	SellerID     uint      `gorm:"not null;index" json:"seller_id"`
	Seller       *Seller   `gorm:"foreignKey:SellerID;constraint:OnDelete:CASCADE" json:"-"`
	Rating       int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	ReviewText   string    `gorm:"type:text" json:"review_text"`
	CustomerName string    `gorm:"->;-:migration" json:"customer_name,omitempty"` // read-only, filled by joined queries
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Review model
func (Review) TableName() string {
	return "reviews"
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Size is the bouquet size label
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// Valid reports whether s is one of the known sizes
func (s Size) Valid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

// Composition maps a flower name to the number of stems in the bouquet
type Composition map[string]int

// Product is a bouquet listed by a seller
type Product struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	SellerID      uint        `gorm:"not null;index" json:"seller_id"`
	Seller        *Seller     `gorm:"foreignKey:SellerID;constraint:OnDelete:CASCADE" json:"seller,omitempty"`
	Name          string      `gorm:"size:100;not null" json:"name"`
	Description   string      `gorm:"type:text" json:"description"`
	Price         float64     `gorm:"not null;check:price > 0" json:"price"`
	Composition   Composition `gorm:"type:text;serializer:json" json:"composition"`
	Occasion      string      `gorm:"size:50;index" json:"occasion"`
	Size          Size        `gorm:"size:20;not null;default:'medium'" json:"size"`
	StockQuantity int         `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stock_quantity"`
	IsInStock     bool        `gorm:"not null;default:false;index" json:"is_in_stock"`
	Rating        float64     `gorm:"not null;default:0" json:"rating"`
	ReviewCount   int         `gorm:"not null;default:0" json:"review_count"`
	ImageURL      string      `gorm:"size:500" json:"image_url"`
	ImageS3Key    *string     `json:"image_s3_key,omitempty"` // nullable, set when an image is uploaded
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// SyncStockFlag derives IsInStock from StockQuantity
func (p *Product) SyncStockFlag() {
	p.IsInStock = p.StockQuantity > 0
}

// BeforeSave keeps IsInStock consistent for every Create and Save of a product.
// Column updates issued with gorm.Expr must set is_in_stock themselves.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.SyncStockFlag()
	return nil
}

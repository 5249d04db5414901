package models

import (
	"time"
)

// Account roles
const (
	RoleCustomer = "customer"
	RoleSeller   = "seller"
	RoleAdmin    = "admin"
)

// User represents an account in the marketplace (customer, seller or admin)
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:120;not null" json:"email"` // stored lower-case
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	FirstName    string    `gorm:"size:50" json:"first_name"`
	LastName     string    `gorm:"size:50" json:"last_name"`
	Phone        string    `gorm:"size:20" json:"phone"`
	Role         string    `gorm:"size:20;not null;default:'customer'" json:"role"`
	TelegramID   *int64    `gorm:"uniqueIndex" json:"telegram_id,omitempty"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsCustomer reports whether the account buys from shops
func (u User) IsCustomer() bool {
	return u.Role == RoleCustomer
}

// IsSeller reports whether the account owns a shop
func (u User) IsSeller() bool {
	return u.Role == RoleSeller
}

// IsAdmin reports whether the account can manage other accounts
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ValidRole reports whether role names a known account role
func ValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// Seller is the shop profile attached to a seller account
type Seller struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User            *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ShopName        string    `gorm:"size:100;not null" json:"shop_name"`
	ShopDescription string    `gorm:"type:text" json:"shop_description"`
	ShopAddress     string    `gorm:"size:200" json:"shop_address"`
	ShopPhone       string    `gorm:"size:20" json:"shop_phone"`
	Rating          float64   `gorm:"not null;default:0" json:"rating"`         // mean of all reviews for the shop
	TotalSales      int       `gorm:"not null;default:0" json:"total_sales"`    // delivered orders
	IsVerified      bool      `gorm:"not null;default:false" json:"is_verified"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Seller model
func (Seller) TableName() string {
	return "sellers"
}

// Customer is the buyer profile attached to a customer account.
// TotalOrders and TotalSpent are maintained by the order workflow only.
type Customer struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User              *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	DefaultAddress    string    `gorm:"type:text" json:"default_address"`
	DeliveryAddresses []string  `gorm:"type:text;serializer:json" json:"delivery_addresses"`
	TotalOrders       int       `gorm:"not null;default:0" json:"total_orders"`
	TotalSpent        float64   `gorm:"not null;default:0" json:"total_spent"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}

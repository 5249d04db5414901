package testutil

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/lumme/lumme-api/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every fixture account
const DefaultPassword = "password123"

var (
	emailSeq     uint64
	hashOnce     sync.Once
	passwordHash []byte
	hashErr      error
)

func fixturePasswordHash(t *testing.T) string {
	t.Helper()
	hashOnce.Do(func() {
		passwordHash, hashErr = bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	})
	if hashErr != nil {
		t.Fatalf("Failed to hash fixture password: %v", hashErr)
	}
	return string(passwordHash)
}

func uniqueEmail(role string) string {
	return fmt.Sprintf("%s%d@example.com", role, atomic.AddUint64(&emailSeq, 1))
}

// CreateUser inserts an active account with the given role and no profile
func CreateUser(t *testing.T, db *gorm.DB, role string) models.User {
	t.Helper()

	user := models.User{
		Email:        uniqueEmail(role),
		PasswordHash: fixturePasswordHash(t),
		FirstName:    "Test",
		LastName:     role,
		Role:         role,
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create %s user: %v", role, err)
	}
	return user
}

// CreateSeller inserts a seller account with its shop
func CreateSeller(t *testing.T, db *gorm.DB, shopName string) (models.User, models.Seller) {
	t.Helper()

	user := CreateUser(t, db, models.RoleSeller)
	seller := models.Seller{UserID: user.ID, ShopName: shopName}
	if err := db.Create(&seller).Error; err != nil {
		t.Fatalf("Failed to create seller profile: %v", err)
	}
	return user, seller
}

// CreateCustomer inserts a customer account with its profile
func CreateCustomer(t *testing.T, db *gorm.DB) (models.User, models.Customer) {
	t.Helper()

	user := CreateUser(t, db, models.RoleCustomer)
	customer := models.Customer{
		UserID:            user.ID,
		DefaultAddress:    "1 Garden Lane",
		DeliveryAddresses: []string{},
	}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("Failed to create customer profile: %v", err)
	}
	return user, customer
}

// CreateAdmin inserts an admin account
func CreateAdmin(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	return CreateUser(t, db, models.RoleAdmin)
}

// CreateProduct inserts a medium-sized product for a shop
func CreateProduct(t *testing.T, db *gorm.DB, sellerID uint, name string, price float64, stock int) models.Product {
	t.Helper()

	product := models.Product{
		SellerID:      sellerID,
		Name:          name,
		Description:   name + " bouquet",
		Price:         price,
		Composition:   models.Composition{"rose": 5},
		Occasion:      "birthday",
		Size:          models.SizeMedium,
		StockQuantity: stock,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("Failed to create product: %v", err)
	}
	return product
}

// Reload fetches the current row of a model by primary key
func Reload[T any](t *testing.T, db *gorm.DB, id uint) T {
	t.Helper()

	var row T
	if err := db.First(&row, id).Error; err != nil {
		t.Fatalf("Failed to reload %T %d: %v", row, id, err)
	}
	return row
}

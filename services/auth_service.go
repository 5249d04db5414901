package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lumme/lumme-api/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Password length bounds; bcrypt only reads the first 72 bytes
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

// defaultShopName is used when a seller registers without naming the shop
const defaultShopName = "My Flower Shop"

// RegisterInput is a sign-up request
type RegisterInput struct {
	Email           string
	Password        string
	Role            string // customer (default) or seller
	FirstName       string
	LastName        string
	Phone           string
	ShopName        string
	ShopDescription string
	ShopAddress     string
	DefaultAddress  string
}

// AuthResult is returned by a successful register or login
type AuthResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// AuthService registers accounts and checks credentials
type AuthService struct {
	db         *gorm.DB
	tokens     *TokenService
	bcryptCost int
}

// NewAuthService creates an auth service
func NewAuthService(db *gorm.DB, tokens *TokenService) *AuthService {
	return &AuthService{db: db, tokens: tokens, bcryptCost: bcrypt.DefaultCost}
}

// WithBcryptCost overrides the password hashing cost
func (s *AuthService) WithBcryptCost(cost int) *AuthService {
	s.bcryptCost = cost
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user and the profile for its role in one transaction
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, invalid("VALIDATION_ERROR", "A valid email is required")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, invalid("VALIDATION_ERROR", "Password must be at least %d characters", MinPasswordLength)
	}
	if len(in.Password) > MaxPasswordLength {
		return nil, invalid("VALIDATION_ERROR", "Password must be at most %d bytes", MaxPasswordLength)
	}
	role := in.Role
	if role == "" {
		role = models.RoleCustomer
	}
	if role != models.RoleCustomer && role != models.RoleSeller {
		return nil, invalid("INVALID_ROLE", "Role must be customer or seller")
	}

	db := s.db.WithContext(ctx)

	var existing int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing > 0 {
		return nil, emailTaken()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         role,
		IsActive:     true,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if isDuplicateKey(err) {
				return emailTaken()
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		if role == models.RoleSeller {
			shopName := strings.TrimSpace(in.ShopName)
			if shopName == "" {
				shopName = defaultShopName
			}
			seller := models.Seller{
				UserID:          user.ID,
				ShopName:        shopName,
				ShopDescription: in.ShopDescription,
				ShopAddress:     in.ShopAddress,
				ShopPhone:       user.Phone,
			}
			if err := tx.Create(&seller).Error; err != nil {
				return fmt.Errorf("failed to create seller profile: %w", err)
			}
			return nil
		}

		customer := models.Customer{
			UserID:            user.ID,
			DefaultAddress:    in.DefaultAddress,
			DeliveryAddresses: []string{},
		}
		if err := tx.Create(&customer).Error; err != nil {
			return fmt.Errorf("failed to create customer profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.issue(user)
}

// Login checks credentials and returns a fresh token
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, badCredentials()
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, badCredentials()
	}
	if !user.IsActive {
		return nil, newAppError(ErrForbidden, "ACCOUNT_DISABLED", "Account is deactivated")
	}

	return s.issue(user)
}

func (s *AuthService) issue(user models.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func emailTaken() *AppError {
	return newAppError(ErrConflict, "EMAIL_EXISTS", "Email already registered")
}

func badCredentials() *AppError {
	return newAppError(ErrUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
}

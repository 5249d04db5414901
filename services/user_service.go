package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lumme/lumme-api/models"
	"gorm.io/gorm"
)

// findCustomer resolves the customer profile of a user; users without one are forbidden
func findCustomer(tx *gorm.DB, userID uint) (*models.Customer, error) {
	var customer models.Customer
	if err := tx.Where("user_id = ?", userID).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, forbidden("Only customers can perform this action")
		}
		return nil, fmt.Errorf("failed to load customer profile: %w", err)
	}
	return &customer, nil
}

// findSeller resolves the shop profile of a user; users without one are forbidden
func findSeller(tx *gorm.DB, userID uint) (*models.Seller, error) {
	var seller models.Seller
	if err := tx.Where("user_id = ?", userID).First(&seller).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, forbidden("Only sellers can perform this action")
		}
		return nil, fmt.Errorf("failed to load seller profile: %w", err)
	}
	return &seller, nil
}

// Profile is a user together with the profile matching their role
type Profile struct {
	User     models.User      `json:"user"`
	Seller   *models.Seller   `json:"seller,omitempty"`
	Customer *models.Customer `json:"customer,omitempty"`
}

// ProfileUpdate holds the editable profile fields; nil fields stay unchanged
type ProfileUpdate struct {
	FirstName         *string
	LastName          *string
	Phone             *string
	DefaultAddress    *string
	DeliveryAddresses []string
	ShopName          *string
	ShopDescription   *string
	ShopAddress       *string
	ShopPhone         *string
}

// UserService reads and edits accounts
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a user service
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetUser loads an account by id
func (s *UserService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("USER_NOT_FOUND", "User not found")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// GetProfile loads a user and the profile for their role
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*Profile, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.loadProfile(s.db.WithContext(ctx), *user)
}

func (s *UserService) loadProfile(tx *gorm.DB, user models.User) (*Profile, error) {
	profile := &Profile{User: user}
	switch user.Role {
	case models.RoleSeller:
		seller, err := findSeller(tx, user.ID)
		if err != nil {
			return nil, err
		}
		profile.Seller = seller
	case models.RoleCustomer:
		customer, err := findCustomer(tx, user.ID)
		if err != nil {
			return nil, err
		}
		profile.Customer = customer
	}
	return profile, nil
}

// UpdateProfile applies the changes to the user and their role profile atomically
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*Profile, error) {
	var profile *Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("USER_NOT_FOUND", "User not found")
			}
			return fmt.Errorf("failed to load user: %w", err)
		}

		userChanges := map[string]interface{}{}
		setIfPresent(userChanges, "first_name", update.FirstName)
		setIfPresent(userChanges, "last_name", update.LastName)
		setIfPresent(userChanges, "phone", update.Phone)
		if len(userChanges) > 0 {
			if err := tx.Model(&user).Updates(userChanges).Error; err != nil {
				return fmt.Errorf("failed to update user: %w", err)
			}
		}

		switch user.Role {
		case models.RoleSeller:
			seller, err := findSeller(tx, user.ID)
			if err != nil {
				return err
			}
			if update.ShopName != nil && strings.TrimSpace(*update.ShopName) == "" {
				return invalid("VALIDATION_ERROR", "Shop name cannot be empty")
			}
			changes := map[string]interface{}{}
			setIfPresent(changes, "shop_name", update.ShopName)
			setIfPresent(changes, "shop_description", update.ShopDescription)
			setIfPresent(changes, "shop_address", update.ShopAddress)
			setIfPresent(changes, "shop_phone", update.ShopPhone)
			if len(changes) > 0 {
				if err := tx.Model(seller).Updates(changes).Error; err != nil {
					return fmt.Errorf("failed to update shop: %w", err)
				}
			}
		case models.RoleCustomer:
			customer, err := findCustomer(tx, user.ID)
			if err != nil {
				return err
			}
			if update.DefaultAddress != nil {
				customer.DefaultAddress = *update.DefaultAddress
			}
			if update.DeliveryAddresses != nil {
				customer.DeliveryAddresses = update.DeliveryAddresses
			}
			if update.DefaultAddress != nil || update.DeliveryAddresses != nil {
				if err := tx.Model(customer).Select("default_address", "delivery_addresses").Updates(customer).Error; err != nil {
					return fmt.Errorf("failed to update customer: %w", err)
				}
			}
		}

		if err := tx.First(&user, userID).Error; err != nil {
			return fmt.Errorf("failed to reload user: %w", err)
		}
		loaded, err := s.loadProfile(tx, user)
		if err != nil {
			return err
		}
		profile = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// SetUserActive enables or disables login for an account. Only admins may call it,
// and admins cannot disable themselves.
func (s *UserService) SetUserActive(ctx context.Context, actor models.User, userID uint, active bool) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, forbidden("Only admins can change account status")
	}
	if actor.ID == userID && !active {
		return nil, invalid("VALIDATION_ERROR", "Admins cannot deactivate their own account")
	}

	db := s.db.WithContext(ctx)
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := db.Model(user).Update("is_active", active).Error; err != nil {
		return nil, fmt.Errorf("failed to update account status: %w", err)
	}
	user.IsActive = active
	return user, nil
}

func setIfPresent(changes map[string]interface{}, column string, value *string) {
	if value != nil {
		changes[column] = strings.TrimSpace(*value)
	}
}

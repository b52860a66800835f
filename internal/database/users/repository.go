// Package users provides database operations for readers and staff accounts.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	readers, err := repo.ListActiveReaders()
package users

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/entities"
)

var ErrNotFound = errors.New("user not found")

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email, ignoring case.
func (r *Repository) GetUserByEmail(email string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailExists reports whether an account already uses the email.
func (r *Repository) EmailExists(email string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Where("email = ?", NormalizeEmail(email)).Count(&count).Error
	return count > 0, err
}

// ListActiveReaders returns active readers ordered by full name.
func (r *Repository) ListActiveReaders() ([]entities.User, error) {
	var readers []entities.User
	err := r.db.Where("role = ? AND is_active = ?", entities.RoleReader, true).
		Order("full_name ASC").
		Find(&readers).Error
	return readers, err
}

// ListUsers returns every account ordered by role, then full name.
func (r *Repository) ListUsers() ([]entities.User, error) {
	var users []entities.User
	err := r.db.Order("role ASC, full_name ASC").Find(&users).Error
	return users, err
}

// UpdateRole changes a user's role.
func (r *Repository) UpdateRole(id uint, role entities.UserRole) error {
	return r.updateField(id, "role", role)
}

// SetActive activates or deactivates an account.
func (r *Repository) SetActive(id uint, active bool) error {
	return r.updateField(id, "is_active", active)
}

// CountActiveReaders returns the number of active reader accounts.
func (r *Repository) CountActiveReaders() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Where("role = ? AND is_active = ?", entities.RoleReader, true).Count(&count).Error
	return count, err
}

// CountUsers returns the number of accounts of any role.
func (r *Repository) CountUsers() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	return count, err
}

func (r *Repository) updateField(id uint, column string, value any) error {
	result := r.db.Model(&entities.User{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

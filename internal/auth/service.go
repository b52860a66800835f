package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database/users"
	"github.com/mrlokans/library/internal/entities"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("a user with this email already exists")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidRole      = errors.New("invalid role")
	ErrFullNameRequired = errors.New("full name is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrEmailInvalid     = errors.New("invalid email format")
	ErrAccountLocked    = errors.New("account is locked due to too many failed login attempts")
	ErrAccountInactive  = errors.New("account is deactivated")
	ErrCannotChangeSelf = errors.New("administrators cannot change their own role or status")
	ErrSystemAdminOnly  = errors.New("only a system administrator can grant or revoke the system administrator role")
)

// NewUser describes an account to create.
type NewUser struct {
	Email     string
	FullName  string
	Password  string
	Role      entities.UserRole
	StudentID string
	Category  string
}

// Service handles authentication and account management.
type Service struct {
	db     *gorm.DB
	users  *users.Repository
	config config.Auth
	now    func() time.Time
}

// NewService creates a new authentication service.
func NewService(db *gorm.DB, cfg config.Auth) *Service {
	return &Service{
		db:     db,
		users:  users.NewRepository(db),
		config: cfg,
		now:    time.Now,
	}
}

// CreateUser validates input and stores an active account.
func (s *Service) CreateUser(input NewUser) (*entities.User, error) {
	email := users.NormalizeEmail(input.Email)
	fullName := strings.TrimSpace(input.FullName)

	if fullName == "" {
		return nil, ErrFullNameRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	if input.Password == "" {
		return nil, ErrPasswordRequired
	}
	// RFC 5321 limit is 254
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}
	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}

	exists, err := s.users.EmailExists(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := HashPassword(input.Password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	category := strings.TrimSpace(input.Category)
	if category == "" && input.Role == entities.RoleReader {
		category = entities.DefaultReaderCategory
	}

	user := &entities.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: passwordHash,
		Role:         input.Role,
		StudentID:    strings.TrimSpace(input.StudentID),
		Category:     category,
		IsActive:     true,
		RegisteredAt: s.now(),
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// RegisterReader is self-service sign-up. The account is always a Reader.
func (s *Service) RegisterReader(fullName, email, password, studentID string) (*entities.User, error) {
	return s.CreateUser(NewUser{
		Email:     email,
		FullName:  fullName,
		Password:  password,
		Role:      entities.RoleReader,
		StudentID: studentID,
	})
}

// EnrollReader creates a reader on behalf of staff and returns the generated
// temporary password. The password is not stored in plaintext anywhere.
func (s *Service) EnrollReader(fullName, email, studentID, category string) (*entities.User, string, error) {
	password, err := GenerateTemporaryPassword()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate password: %w", err)
	}

	user, err := s.CreateUser(NewUser{
		Email:     email,
		FullName:  fullName,
		Password:  password,
		Role:      entities.RoleReader,
		StudentID: studentID,
		Category:  category,
	})
	if err != nil {
		return nil, "", err
	}
	return user, password, nil
}

// Authenticate validates credentials and returns the user.
// Implements account lockout after too many failed attempts.
func (s *Service) Authenticate(email, password string) (*entities.User, error) {
	user, err := s.users.GetUserByEmail(email)
	if errors.Is(err, users.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	now := s.now()
	if user.IsLocked(now) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if recordErr := s.recordFailedLogin(user); recordErr != nil {
			return nil, recordErr
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	// Successful login - reset failed attempts and update last login
	err = s.db.Model(user).Updates(map[string]any{
		"last_login_at":      now,
		"failed_login_count": 0,
		"locked_until":       nil,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLoginAt = &now
	user.FailedLoginCount = 0
	user.LockedUntil = nil

	return user, nil
}

// recordFailedLogin increments the failed login counter and locks the account if threshold reached.
func (s *Service) recordFailedLogin(user *entities.User) error {
	user.FailedLoginCount++

	updates := map[string]any{
		"failed_login_count": user.FailedLoginCount,
	}

	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if user.FailedLoginCount >= maxAttempts {
		lockoutDuration := s.config.LockoutDuration
		if lockoutDuration == 0 {
			lockoutDuration = 30 * time.Minute
		}
		lockedUntil := s.now().Add(lockoutDuration)
		updates["locked_until"] = lockedUntil
		user.LockedUntil = &lockedUntil
	}

	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to record failed login: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	user, err := s.users.GetUserByID(id)
	if errors.Is(err, users.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// ValidateToken checks a plaintext token and returns the associated user.
// Returns ErrTokenExpired if the token is past its expiry time.
func (s *Service) ValidateToken(token string) (*entities.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var user entities.User
	err := s.db.Where("token_hash = ?", HashToken(token)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	if s.config.TokenExpiry > 0 && user.TokenCreatedAt != nil {
		if s.now().Sub(*user.TokenCreatedAt) > s.config.TokenExpiry {
			return nil, ErrTokenExpired
		}
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	return &user, nil
}

// GenerateToken creates a new API token for a user.
// Returns the plaintext token (show to user once) - only the hash is stored in DB.
func (s *Service) GenerateToken(userID uint) (string, error) {
	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	result := s.db.Model(&entities.User{}).Where("id = ?", userID).Updates(map[string]any{
		"token_hash":       hash,
		"token_created_at": s.now(),
	})
	if result.Error != nil {
		return "", fmt.Errorf("failed to save token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", ErrUserNotFound
	}

	return plaintext, nil
}

// RevokeToken removes a user's API token.
func (s *Service) RevokeToken(userID uint) error {
	result := s.db.Model(&entities.User{}).Where("id = ?", userID).Updates(map[string]any{
		"token_hash":       "",
		"token_created_at": nil,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to revoke token: %w", result.Error)
	}
	return nil
}

// ChangePassword updates a user's password after verifying the current one.
func (s *Service) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	if err := CheckPassword(oldPassword, user.PasswordHash); err != nil {
		return err
	}

	newHash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}

	return s.db.Model(user).Update("password_hash", newHash).Error
}

// ChangeRole assigns a new role. Admins cannot demote themselves, and only a
// system administrator may move an account into or out of RoleSystemAdmin.
func (s *Service) ChangeRole(actor entities.Identity, userID uint, role entities.UserRole) (*entities.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if actor.UserID == userID {
		return nil, ErrCannotChangeSelf
	}
	target, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if (role == entities.RoleSystemAdmin || target.Role == entities.RoleSystemAdmin) && actor.Role != entities.RoleSystemAdmin {
		return nil, ErrSystemAdminOnly
	}
	if err := s.users.UpdateRole(userID, role); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.GetUserByID(userID)
}

// Deactivate blocks an account from logging in. Existing sessions are
// rejected by the middleware on their next request.
func (s *Service) Deactivate(actor entities.Identity, userID uint) (*entities.User, error) {
	if actor.UserID == userID {
		return nil, ErrCannotChangeSelf
	}
	if err := s.users.SetActive(userID, false); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if err := s.RevokeToken(userID); err != nil {
		return nil, err
	}
	return s.GetUserByID(userID)
}

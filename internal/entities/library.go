package entities

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleReader      UserRole = "reader"
	RoleLibrarian   UserRole = "librarian"
	RoleAdmin       UserRole = "admin"
	RoleSystemAdmin UserRole = "system_admin"
)

var allRoles = []UserRole{RoleReader, RoleLibrarian, RoleAdmin, RoleSystemAdmin}

// ParseUserRole accepts both the stored form ("system_admin") and the
// display form ("SystemAdmin"), case-insensitively.
func ParseUserRole(s string) (UserRole, bool) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
	for _, role := range allRoles {
		if strings.ReplaceAll(string(role), "_", "") == normalized {
			return role, true
		}
	}
	return "", false
}

func (r UserRole) Valid() bool {
	for _, role := range allRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role may run circulation desk operations.
func (r UserRole) IsStaff() bool {
	return r == RoleLibrarian || r.IsAdmin()
}

func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSystemAdmin
}

type BookStatus string

const (
	BookAvailable BookStatus = "available"
	BookReserved  BookStatus = "reserved"
	BookIssued    BookStatus = "issued"
)

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
)

type LoanStatus string

const (
	LoanActive   LoanStatus = "active"
	LoanReturned LoanStatus = "returned"
)

// DefaultReaderCategory is assigned to readers registered without one.
const DefaultReaderCategory = "Student"

// Identity is the authenticated caller of an operation.
type Identity struct {
	UserID uint
	Role   UserRole
}

func (i Identity) CanActFor(userID uint) bool {
	return i.UserID == userID || i.Role.IsStaff()
}

type User struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Email            string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash     string     `gorm:"size:255" json:"-"`
	FullName         string     `gorm:"size:255;not null" json:"full_name"`
	Role             UserRole   `gorm:"size:20;index;not null" json:"role"`
	StudentID        string     `gorm:"size:50" json:"student_id,omitempty"`
	Category         string     `gorm:"size:100" json:"category,omitempty"`
	IsActive         bool       `gorm:"index" json:"is_active"`
	FailedLoginCount int        `json:"-"`
	LockedUntil      *time.Time `json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	TokenHash        string     `gorm:"size:64;index" json:"-"`
	TokenCreatedAt   *time.Time `json:"-"`
	RegisteredAt     time.Time  `json:"registered_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsLocked returns true if the account is currently locked due to failed login attempts.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

type Book struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Title           string     `gorm:"size:255;not null;index" json:"title"`
	Author          string     `gorm:"size:255;not null;index" json:"author"`
	Genre           string     `gorm:"size:100;index" json:"genre"`
	Year            int        `json:"year"`
	ISBN            string     `gorm:"size:20" json:"isbn"`
	Description     string     `gorm:"type:text" json:"description"`
	Location        string     `gorm:"size:100;not null" json:"location"`
	Status          BookStatus `gorm:"size:20;index;not null" json:"status"`
	ReadingRoomOnly bool       `json:"reading_room_only"`
	AcquiredAt      time.Time  `json:"acquired_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type Reservation struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	BookID     uint              `gorm:"index;not null" json:"book_id"`
	UserID     uint              `gorm:"index;not null" json:"user_id"`
	Status     ReservationStatus `gorm:"size:20;index;not null" json:"status"`
	ReservedAt time.Time         `gorm:"index" json:"reserved_at"`
	ExpiresAt  time.Time         `gorm:"index" json:"expires_at"`
	ClosedAt   *time.Time        `json:"closed_at,omitempty"`
	Book       *Book             `gorm:"constraint:OnDelete:CASCADE" json:"book,omitempty"`
	User       *User             `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (r *Reservation) IsExpired(now time.Time) bool {
	return r.Status == ReservationActive && r.ExpiresAt.Before(now)
}

type Loan struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	BookID        uint       `gorm:"index;not null" json:"book_id"`
	UserID        uint       `gorm:"index;not null" json:"user_id"`
	ReservationID *uint      `gorm:"uniqueIndex" json:"reservation_id,omitempty"`
	Status        LoanStatus `gorm:"size:20;index;not null" json:"status"`
	IssuedAt      time.Time  `gorm:"index" json:"issued_at"`
	DueAt         time.Time  `gorm:"index" json:"due_at"`
	ReturnedAt    *time.Time `json:"returned_at,omitempty"`
	Book          *Book      `gorm:"constraint:OnDelete:CASCADE" json:"book,omitempty"`
	User          *User      `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

// IsOverdue reports whether the book is still out past its due date.
func (l *Loan) IsOverdue(now time.Time) bool {
	return l.Status == LoanActive && l.DueAt.Before(now)
}

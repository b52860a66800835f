package lending

import "errors"

var (
	ErrBookNotFound         = errors.New("book not found")
	ErrBookUnavailable      = errors.New("book is not available")
	ErrAlreadyReserved      = errors.New("book is already reserved by this user")
	ErrUserNotFound         = errors.New("user not found")
	ErrUserInactive         = errors.New("user account is deactivated")
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrReservationNotActive = errors.New("reservation is no longer active")
	ErrNotReservationOwner  = errors.New("reservation belongs to another user")
	ErrLoanNotFound         = errors.New("active loan not found")

	// ErrStatusMismatch means a book's stored status disagrees with its
	// reservation or loan rows. The transition is rolled back.
	ErrStatusMismatch = errors.New("book status does not match its circulation records")
)

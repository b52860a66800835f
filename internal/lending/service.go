// Package lending moves books through the circulation lifecycle:
//
//	Available -> Reserved -> Issued -> Available
//	               |
//	               +-> Available (cancelled or expired)
//
// Each transition runs in one transaction and flips the book status with a
// conditional update, so a book is never held by two reservations or loans.
package lending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/entities"
)

type Service struct {
	db     *gorm.DB
	cfg    config.Lending
	logger *zap.Logger
	now    func() time.Time
}

func NewService(db *gorm.DB, cfg config.Lending, logger *zap.Logger) *Service {
	if cfg.ReservationHold <= 0 {
		cfg.ReservationHold = config.DefaultReservationHold
	}
	if cfg.LoanPeriod <= 0 {
		cfg.LoanPeriod = config.DefaultLoanPeriod
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:     db,
		cfg:    cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Reserve places a hold on an Available book for userID.
func (s *Service) Reserve(ctx context.Context, bookID, userID uint) (*entities.Reservation, error) {
	now := s.now()
	var reservation *entities.Reservation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		book, err := findBook(tx, bookID)
		if err != nil {
			return err
		}
		if err := requireActiveUser(tx, userID); err != nil {
			return err
		}

		var held int64
		err = tx.Model(&entities.Reservation{}).
			Where("book_id = ? AND user_id = ? AND status = ?", bookID, userID, entities.ReservationActive).
			Count(&held).Error
		if err != nil {
			return fmt.Errorf("failed to check existing reservations: %w", err)
		}
		if held > 0 {
			return ErrAlreadyReserved
		}
		if book.Status != entities.BookAvailable {
			return ErrBookUnavailable
		}

		reservation = &entities.Reservation{
			BookID:     bookID,
			UserID:     userID,
			Status:     entities.ReservationActive,
			ReservedAt: now,
			ExpiresAt:  now.Add(s.cfg.ReservationHold),
		}
		if err := tx.Create(reservation).Error; err != nil {
			return fmt.Errorf("failed to create reservation: %w", err)
		}

		err = setBookStatus(tx, bookID, entities.BookAvailable, entities.BookReserved)
		if errors.Is(err, ErrStatusMismatch) {
			return ErrBookUnavailable
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Book reserved",
		zap.Uint("book_id", bookID),
		zap.Uint("user_id", userID),
		zap.Uint("reservation_id", reservation.ID),
		zap.Time("expires_at", reservation.ExpiresAt))
	return reservation, nil
}

// CancelReservation releases an Active reservation. The actor must own the
// reservation or be staff.
func (s *Service) CancelReservation(ctx context.Context, reservationID uint, actor entities.Identity) (*entities.Reservation, error) {
	var reservation entities.Reservation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&reservation, reservationID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReservationNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load reservation: %w", err)
		}
		if !actor.CanActFor(reservation.UserID) {
			return ErrNotReservationOwner
		}
		if reservation.Status != entities.ReservationActive {
			return ErrReservationNotActive
		}
		return s.release(tx, &reservation, entities.ReservationCancelled)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reservation cancelled",
		zap.Uint("reservation_id", reservation.ID),
		zap.Uint("book_id", reservation.BookID),
		zap.Uint("actor_id", actor.UserID))
	return &reservation, nil
}

// IssueBook converts an Active reservation into a loan.
func (s *Service) IssueBook(ctx context.Context, reservationID uint) (*entities.Loan, error) {
	now := s.now()
	var loan *entities.Loan

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reservation entities.Reservation
		err := tx.Where("id = ? AND status = ?", reservationID, entities.ReservationActive).First(&reservation).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReservationNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load reservation: %w", err)
		}

		if err := closeReservation(tx, &reservation, entities.ReservationCompleted, now); err != nil {
			return err
		}

		loan = &entities.Loan{
			BookID:        reservation.BookID,
			UserID:        reservation.UserID,
			ReservationID: &reservation.ID,
			Status:        entities.LoanActive,
			IssuedAt:      now,
			DueAt:         now.Add(s.cfg.LoanPeriod),
		}
		if err := tx.Create(loan).Error; err != nil {
			return fmt.Errorf("failed to create loan: %w", err)
		}

		return setBookStatus(tx, reservation.BookID, entities.BookReserved, entities.BookIssued)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Book issued",
		zap.Uint("loan_id", loan.ID),
		zap.Uint("book_id", loan.BookID),
		zap.Uint("user_id", loan.UserID),
		zap.Time("due_at", loan.DueAt))
	return loan, nil
}

// ReturnBook closes an Active loan and makes the book Available again.
func (s *Service) ReturnBook(ctx context.Context, loanID uint) (*entities.Loan, error) {
	now := s.now()
	var loan entities.Loan

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND status = ?", loanID, entities.LoanActive).First(&loan).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLoanNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load loan: %w", err)
		}

		result := tx.Model(&entities.Loan{}).
			Where("id = ? AND status = ?", loanID, entities.LoanActive).
			Updates(map[string]any{"status": entities.LoanReturned, "returned_at": now})
		if result.Error != nil {
			return fmt.Errorf("failed to close loan: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrLoanNotFound
		}
		loan.Status = entities.LoanReturned
		loan.ReturnedAt = &now

		return setBookStatus(tx, loan.BookID, entities.BookIssued, entities.BookAvailable)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Book returned",
		zap.Uint("loan_id", loan.ID),
		zap.Uint("book_id", loan.BookID),
		zap.Bool("overdue", loan.DueAt.Before(now)))
	return &loan, nil
}

// ExpireReservations cancels every Active reservation whose hold ran out
// and returns how many were released.
func (s *Service) ExpireReservations(ctx context.Context) (int, error) {
	now := s.now()

	var expired []entities.Reservation
	err := s.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", entities.ReservationActive, now).
		Find(&expired).Error
	if err != nil {
		return 0, fmt.Errorf("failed to find expired reservations: %w", err)
	}

	released := 0
	for i := range expired {
		if err := ctx.Err(); err != nil {
			return released, err
		}
		reservation := expired[i]
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.release(tx, &reservation, entities.ReservationCancelled)
		})
		if errors.Is(err, ErrReservationNotActive) {
			// Issued or cancelled since the scan.
			continue
		}
		if err != nil {
			return released, err
		}
		released++
		s.logger.Info("Reservation expired",
			zap.Uint("reservation_id", reservation.ID),
			zap.Uint("book_id", reservation.BookID))
	}
	return released, nil
}

// release closes a reservation without a loan and frees its book.
func (s *Service) release(tx *gorm.DB, reservation *entities.Reservation, status entities.ReservationStatus) error {
	if err := closeReservation(tx, reservation, status, s.now()); err != nil {
		return err
	}
	return setBookStatus(tx, reservation.BookID, entities.BookReserved, entities.BookAvailable)
}

func closeReservation(tx *gorm.DB, reservation *entities.Reservation, status entities.ReservationStatus, now time.Time) error {
	result := tx.Model(&entities.Reservation{}).
		Where("id = ? AND status = ?", reservation.ID, entities.ReservationActive).
		Updates(map[string]any{"status": status, "closed_at": now})
	if result.Error != nil {
		return fmt.Errorf("failed to update reservation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReservationNotActive
	}
	reservation.Status = status
	reservation.ClosedAt = &now
	return nil
}

// setBookStatus moves a book from one status to another, failing with
// ErrStatusMismatch if the book is not in the expected status.
func setBookStatus(tx *gorm.DB, bookID uint, from, to entities.BookStatus) error {
	result := tx.Model(&entities.Book{}).
		Where("id = ? AND status = ?", bookID, from).
		Update("status", to)
	if result.Error != nil {
		return fmt.Errorf("failed to update book status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: book %d is not %s", ErrStatusMismatch, bookID, from)
	}
	return nil
}

func findBook(tx *gorm.DB, bookID uint) (*entities.Book, error) {
	var book entities.Book
	err := tx.First(&book, bookID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load book: %w", err)
	}
	return &book, nil
}

func requireActiveUser(tx *gorm.DB, userID uint) error {
	var user entities.User
	err := tx.Select("id", "is_active").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return ErrUserInactive
	}
	return nil
}

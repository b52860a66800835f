package lending

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/entities"
)

// LoanView is a loan with its overdue flag evaluated at query time.
type LoanView struct {
	entities.Loan
	IsOverdue bool `json:"is_overdue"`
}

// Shelf is what a reader currently holds.
type Shelf struct {
	Reservations []entities.Reservation `json:"reservations"`
	Loans        []LoanView             `json:"loans"`
}

// ReaderShelf returns the Active reservations and loans of userID, newest first.
func (s *Service) ReaderShelf(ctx context.Context, userID uint) (*Shelf, error) {
	db := s.db.WithContext(ctx)

	shelf := &Shelf{Reservations: []entities.Reservation{}}
	err := db.Preload("Book").
		Where("user_id = ? AND status = ?", userID, entities.ReservationActive).
		Order("reserved_at DESC").
		Find(&shelf.Reservations).Error
	if err != nil {
		return nil, err
	}

	var loans []entities.Loan
	err = db.Preload("Book").
		Where("user_id = ? AND status = ?", userID, entities.LoanActive).
		Order("issued_at DESC").
		Find(&loans).Error
	if err != nil {
		return nil, err
	}
	shelf.Loans = s.views(loans)
	return shelf, nil
}

// ActiveReservations lists every Active reservation with its book and reader, newest first.
func (s *Service) ActiveReservations(ctx context.Context) ([]entities.Reservation, error) {
	reservations := []entities.Reservation{}
	err := s.withParties(s.db.WithContext(ctx)).
		Where("status = ?", entities.ReservationActive).
		Order("reserved_at DESC").
		Find(&reservations).Error
	return reservations, err
}

// ActiveLoans lists every Active loan with its book and reader, soonest due first.
func (s *Service) ActiveLoans(ctx context.Context) ([]LoanView, error) {
	var loans []entities.Loan
	err := s.withParties(s.db.WithContext(ctx)).
		Where("status = ?", entities.LoanActive).
		Order("due_at ASC").
		Find(&loans).Error
	if err != nil {
		return nil, err
	}
	return s.views(loans), nil
}

// OverdueLoans lists Active loans past their due date, most overdue first.
func (s *Service) OverdueLoans(ctx context.Context) ([]LoanView, error) {
	var loans []entities.Loan
	err := s.withParties(s.db.WithContext(ctx)).
		Where("status = ? AND due_at < ?", entities.LoanActive, s.now()).
		Order("due_at ASC").
		Find(&loans).Error
	if err != nil {
		return nil, err
	}
	return s.views(loans), nil
}

// CountOverdue returns the number of Active loans past their due date.
func (s *Service) CountOverdue(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&entities.Loan{}).
		Where("status = ? AND due_at < ?", entities.LoanActive, s.now()).
		Count(&count).Error
	return count, err
}

func (s *Service) withParties(db *gorm.DB) *gorm.DB {
	return db.Preload("Book").Preload("User")
}

func (s *Service) views(loans []entities.Loan) []LoanView {
	now := s.now()
	views := make([]LoanView, 0, len(loans))
	for _, l := range loans {
		views = append(views, LoanView{Loan: l, IsOverdue: l.IsOverdue(now)})
	}
	return views
}

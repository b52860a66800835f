// Package stats computes the counters shown on the dashboards.
package stats

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/entities"
)

// TopGenreLimit is how many genres SystemStats ranks.
const TopGenreLimit = 5

// Dashboard is visible to every signed-in user.
type Dashboard struct {
	TotalBooks     int64 `json:"total_books"`
	AvailableBooks int64 `json:"available_books"`
	ActiveReaders  int64 `json:"active_readers"`
	ActiveLoans    int64 `json:"active_loans"`
}

// Management is the librarian view of the circulation desk.
type Management struct {
	ActiveReaders      int64 `json:"active_readers"`
	ActiveReservations int64 `json:"active_reservations"`
	ActiveLoans        int64 `json:"active_loans"`
	OverdueLoans       int64 `json:"overdue_loans"`
}

// AdminOverview counts every row regardless of state.
type AdminOverview struct {
	TotalUsers        int64 `json:"total_users"`
	TotalBooks        int64 `json:"total_books"`
	TotalLoans        int64 `json:"total_loans"`
	TotalReservations int64 `json:"total_reservations"`
}

type GenreCount struct {
	Genre string `json:"genre"`
	Count int64  `json:"count"`
}

// SystemStats breaks the data down for administrators.
type SystemStats struct {
	UsersByRole    map[entities.UserRole]int64   `json:"users_by_role"`
	BooksByStatus  map[entities.BookStatus]int64 `json:"books_by_status"`
	LoansThisMonth int64                         `json:"loans_this_month"`
	TopGenres      []GenreCount                  `json:"top_genres"`
}

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	db := s.db.WithContext(ctx)
	var d Dashboard
	err := firstError(
		count(db.Model(&entities.Book{}), &d.TotalBooks),
		count(db.Model(&entities.Book{}).Where("status = ?", entities.BookAvailable), &d.AvailableBooks),
		count(activeReaders(db), &d.ActiveReaders),
		count(db.Model(&entities.Loan{}).Where("status = ?", entities.LoanActive), &d.ActiveLoans),
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return &d, nil
}

func (s *Service) Management(ctx context.Context) (*Management, error) {
	db := s.db.WithContext(ctx)
	var m Management
	err := firstError(
		count(activeReaders(db), &m.ActiveReaders),
		count(db.Model(&entities.Reservation{}).Where("status = ?", entities.ReservationActive), &m.ActiveReservations),
		count(db.Model(&entities.Loan{}).Where("status = ?", entities.LoanActive), &m.ActiveLoans),
		count(db.Model(&entities.Loan{}).Where("status = ? AND due_at < ?", entities.LoanActive, s.now()), &m.OverdueLoans),
	)
	if err != nil {
		return nil, fmt.Errorf("management stats: %w", err)
	}
	return &m, nil
}

func (s *Service) AdminOverview(ctx context.Context) (*AdminOverview, error) {
	db := s.db.WithContext(ctx)
	var o AdminOverview
	err := firstError(
		count(db.Model(&entities.User{}), &o.TotalUsers),
		count(db.Model(&entities.Book{}), &o.TotalBooks),
		count(db.Model(&entities.Loan{}), &o.TotalLoans),
		count(db.Model(&entities.Reservation{}), &o.TotalReservations),
	)
	if err != nil {
		return nil, fmt.Errorf("admin overview: %w", err)
	}
	return &o, nil
}

// SystemStats groups users and books and counts loans issued since the
// start of the current calendar month (UTC).
func (s *Service) SystemStats(ctx context.Context) (*SystemStats, error) {
	db := s.db.WithContext(ctx)

	var roles []struct {
		Role  entities.UserRole
		Count int64
	}
	if err := db.Model(&entities.User{}).Select("role, COUNT(*) AS count").Group("role").Scan(&roles).Error; err != nil {
		return nil, fmt.Errorf("users by role: %w", err)
	}

	var statuses []struct {
		Status entities.BookStatus
		Count  int64
	}
	if err := db.Model(&entities.Book{}).Select("status, COUNT(*) AS count").Group("status").Scan(&statuses).Error; err != nil {
		return nil, fmt.Errorf("books by status: %w", err)
	}

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	var loansThisMonth int64
	if err := db.Model(&entities.Loan{}).Where("issued_at >= ?", monthStart).Count(&loansThisMonth).Error; err != nil {
		return nil, fmt.Errorf("loans this month: %w", err)
	}

	genres := []GenreCount{}
	err := db.Model(&entities.Book{}).
		Select("genre, COUNT(*) AS count").
		Where("genre <> ''").
		Group("genre").
		Order("count DESC, genre ASC").
		Limit(TopGenreLimit).
		Scan(&genres).Error
	if err != nil {
		return nil, fmt.Errorf("top genres: %w", err)
	}

	result := &SystemStats{
		UsersByRole:    make(map[entities.UserRole]int64, len(roles)),
		BooksByStatus:  make(map[entities.BookStatus]int64, len(statuses)),
		LoansThisMonth: loansThisMonth,
		TopGenres:      genres,
	}
	for _, r := range roles {
		result.UsersByRole[r.Role] = r.Count
	}
	for _, st := range statuses {
		result.BooksByStatus[st.Status] = st.Count
	}
	return result, nil
}

func activeReaders(db *gorm.DB) *gorm.DB {
	return db.Model(&entities.User{}).Where("role = ? AND is_active = ?", entities.RoleReader, true)
}

func count(query *gorm.DB, dst *int64) error {
	return query.Count(dst).Error
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

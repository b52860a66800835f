package stats

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/entities"
)

var testNow = time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC)

func day(month time.Month, d int) time.Time {
	return time.Date(2024, month, d, 10, 0, 0, 0, time.UTC)
}

func setupStats(t *testing.T) *Service {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "stats.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	seedCirculation(t, db.DB)

	svc := NewService(db.DB)
	svc.now = func() time.Time { return testNow }
	return svc
}

// seedCirculation builds a small library: three active readers of whom one
// is deactivated, six books and a mix of open and closed records.
func seedCirculation(t *testing.T, db *gorm.DB) {
	t.Helper()

	roles := []entities.UserRole{entities.RoleReader, entities.RoleReader, entities.RoleReader, entities.RoleLibrarian, entities.RoleAdmin}
	accounts := make([]*entities.User, 0, len(roles))
	for i, role := range roles {
		u := &entities.User{Email: fmt.Sprintf("u%d@example.com", i), FullName: fmt.Sprintf("User %d", i), Role: role, IsActive: true}
		require.NoError(t, db.Create(u).Error)
		accounts = append(accounts, u)
	}
	require.NoError(t, db.Model(accounts[2]).Update("is_active", false).Error)

	books := []*entities.Book{
		{Title: "A", Genre: "Novel", Status: entities.BookAvailable},
		{Title: "B", Genre: "Novel", Status: entities.BookReserved},
		{Title: "C", Genre: "Novel", Status: entities.BookIssued},
		{Title: "D", Genre: "Philosophy", Status: entities.BookIssued},
		{Title: "E", Genre: "Fantasy", Status: entities.BookAvailable},
		{Title: "F", Genre: "", Status: entities.BookAvailable},
	}
	for _, b := range books {
		b.Author = "Author"
		b.Location = "Hall"
		require.NoError(t, db.Create(b).Error)
	}

	reader := accounts[0].ID
	reservations := []*entities.Reservation{
		{BookID: books[1].ID, UserID: reader, Status: entities.ReservationActive, ReservedAt: day(4, 14), ExpiresAt: day(4, 17)},
		{BookID: books[2].ID, UserID: reader, Status: entities.ReservationCompleted, ReservedAt: day(4, 9), ExpiresAt: day(4, 12)},
		{BookID: books[0].ID, UserID: reader, Status: entities.ReservationCancelled, ReservedAt: day(3, 1), ExpiresAt: day(3, 4)},
	}
	for _, r := range reservations {
		require.NoError(t, db.Create(r).Error)
	}

	returnedAt := day(4, 5)
	loans := []*entities.Loan{
		{BookID: books[2].ID, UserID: reader, Status: entities.LoanActive, IssuedAt: day(4, 10), DueAt: day(4, 24)},
		{BookID: books[3].ID, UserID: accounts[1].ID, Status: entities.LoanActive, IssuedAt: day(3, 20), DueAt: day(4, 3)},
		{BookID: books[4].ID, UserID: reader, Status: entities.LoanReturned, IssuedAt: day(4, 2), DueAt: day(4, 16), ReturnedAt: &returnedAt},
	}
	for _, l := range loans {
		require.NoError(t, db.Create(l).Error)
	}
}

func TestService_Dashboard(t *testing.T) {
	svc := setupStats(t)

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Dashboard{TotalBooks: 6, AvailableBooks: 3, ActiveReaders: 2, ActiveLoans: 2}, d)
}

func TestService_Management(t *testing.T) {
	svc := setupStats(t)

	m, err := svc.Management(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Management{ActiveReaders: 2, ActiveReservations: 1, ActiveLoans: 2, OverdueLoans: 1}, m)
}

func TestService_AdminOverview(t *testing.T) {
	svc := setupStats(t)

	o, err := svc.AdminOverview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &AdminOverview{TotalUsers: 5, TotalBooks: 6, TotalLoans: 3, TotalReservations: 3}, o)
}

func TestService_SystemStats(t *testing.T) {
	svc := setupStats(t)

	s, err := svc.SystemStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[entities.UserRole]int64{
		entities.RoleReader:    3,
		entities.RoleLibrarian: 1,
		entities.RoleAdmin:     1,
	}, s.UsersByRole)
	assert.Equal(t, map[entities.BookStatus]int64{
		entities.BookAvailable: 3,
		entities.BookReserved:  1,
		entities.BookIssued:    2,
	}, s.BooksByStatus)
	assert.Equal(t, int64(2), s.LoansThisMonth)
	assert.Equal(t, []GenreCount{
		{Genre: "Novel", Count: 3},
		{Genre: "Fantasy", Count: 1},
		{Genre: "Philosophy", Count: 1},
	}, s.TopGenres)
}

func TestService_EmptyDatabase(t *testing.T) {
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "empty.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	svc := NewService(db.DB)

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Dashboard{}, d)

	s, err := svc.SystemStats(context.Background())
	require.NoError(t, err)
	assert.Empty(t, s.UsersByRole)
	assert.Empty(t, s.TopGenres)
	assert.NotNil(t, s.TopGenres)
}

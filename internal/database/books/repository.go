// Package books provides catalog queries: listing, search, adding books and
// the reading-room access rule.
//
// Book status is read here but only ever changed by the lending package.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	found, err := repo.Search("orwell", books.SearchByAuthor)
package books

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/entities"
)

var (
	ErrNotFound    = errors.New("book not found")
	ErrInvalidBook = errors.New("invalid book")
)

// MinYear is the earliest publication year accepted for new books.
const MinYear = 1000

// SearchField selects which columns a search term is matched against.
type SearchField string

const (
	SearchByTitle  SearchField = "title"
	SearchByAuthor SearchField = "author"
	SearchByGenre  SearchField = "genre"
	SearchByAll    SearchField = "all"
)

// ParseSearchField maps unknown values to SearchByAll.
func ParseSearchField(s string) SearchField {
	switch SearchField(strings.ToLower(strings.TrimSpace(s))) {
	case SearchByTitle:
		return SearchByTitle
	case SearchByAuthor:
		return SearchByAuthor
	case SearchByGenre:
		return SearchByGenre
	default:
		return SearchByAll
	}
}

// NewBook holds the fields staff provide when adding a book to the catalog.
type NewBook struct {
	Title           string
	Author          string
	Genre           string
	Year            int
	ISBN            string
	Description     string
	Location        string
	ReadingRoomOnly bool
}

// Repository handles all catalog database operations.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Validate trims the input in place and checks required fields and the year range.
func (b *NewBook) Validate(now time.Time) error {
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
	b.Location = strings.TrimSpace(b.Location)
	b.Genre = strings.TrimSpace(b.Genre)
	b.ISBN = strings.TrimSpace(b.ISBN)
	b.Description = strings.TrimSpace(b.Description)

	if b.Title == "" || b.Author == "" || b.Location == "" {
		return fmt.Errorf("%w: title, author and location are required", ErrInvalidBook)
	}
	if b.Year < MinYear || b.Year > now.Year()+1 {
		return fmt.Errorf("%w: year must be between %d and %d", ErrInvalidBook, MinYear, now.Year()+1)
	}
	return nil
}

// CreateBook validates the input and adds an Available book.
func (r *Repository) CreateBook(input NewBook) (*entities.Book, error) {
	now := r.now()
	if err := input.Validate(now); err != nil {
		return nil, err
	}

	book := &entities.Book{
		Title:           input.Title,
		Author:          input.Author,
		Genre:           input.Genre,
		Year:            input.Year,
		ISBN:            input.ISBN,
		Description:     input.Description,
		Location:        input.Location,
		ReadingRoomOnly: input.ReadingRoomOnly,
		Status:          entities.BookAvailable,
		AcquiredAt:      now,
	}
	if err := r.db.Create(book).Error; err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}
	return book, nil
}

// GetBookByID retrieves a book by its ID.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetAllBooks returns the whole catalog ordered by title.
func (r *Repository) GetAllBooks() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Order("title ASC").Find(&books).Error
	return books, err
}

// Search matches term case-insensitively as a substring of the selected
// field. SearchByAll also matches ISBN. An empty term returns the catalog.
// The connection must come from database.Dialector so that Unicode
// lowercasing is available to SQL.
func (r *Repository) Search(term string, field SearchField) ([]entities.Book, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return r.GetAllBooks()
	}

	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	query := r.db.Model(&entities.Book{})

	switch field {
	case SearchByTitle:
		query = query.Where(matchColumn("title"), pattern)
	case SearchByAuthor:
		query = query.Where(matchColumn("author"), pattern)
	case SearchByGenre:
		query = query.Where(matchColumn("genre"), pattern)
	default:
		query = query.Where(
			strings.Join([]string{
				matchNamed("title"), matchNamed("author"), matchNamed("genre"), matchNamed("isbn"),
			}, " OR "),
			map[string]any{"p": pattern},
		)
	}

	var books []entities.Book
	err := query.Order("title ASC").Find(&books).Error
	return books, err
}

// SetReadingRoomOnly updates the access rule of a book.
func (r *Repository) SetReadingRoomOnly(id uint, readingRoomOnly bool) (*entities.Book, error) {
	result := r.db.Model(&entities.Book{}).Where("id = ?", id).Update("reading_room_only", readingRoomOnly)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetBookByID(id)
}

// CountBooks returns the total number of books in the catalog.
func (r *Repository) CountBooks() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of books in the given status.
func (r *Repository) CountByStatus(status entities.BookStatus) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

func matchColumn(column string) string {
	return fmt.Sprintf(`%s(COALESCE(%s, '')) LIKE ? ESCAPE '\'`, database.UnicodeLowerFunc, column)
}

func matchNamed(column string) string {
	return fmt.Sprintf(`%s(COALESCE(%s, '')) LIKE @p ESCAPE '\'`, database.UnicodeLowerFunc, column)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

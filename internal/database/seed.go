package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/entities"
)

var seedUsers = []entities.User{
	{Email: "reader@library.local", FullName: "Ivan Petrov", Role: entities.RoleReader, StudentID: "ST001", Category: entities.DefaultReaderCategory},
	{Email: "librarian@library.local", FullName: "Maria Sidorova", Role: entities.RoleLibrarian, Category: "Staff"},
	{Email: "admin@library.local", FullName: "Alexey Ivanov", Role: entities.RoleAdmin, Category: "Administrator"},
	{Email: "sysadmin@library.local", FullName: "Dmitry Smirnov", Role: entities.RoleSystemAdmin, Category: "System administrator"},
}

var seedBooks = []entities.Book{
	{Title: "War and Peace", Author: "Leo Tolstoy", Genre: "Classics", Year: 1869, ISBN: "978-5-699-12014-7", Location: "Hall 1, Rack 2, Shelf 3",
		Description: "An epic novel of Russian society during the Napoleonic wars."},
	{Title: "Crime and Punishment", Author: "Fyodor Dostoevsky", Genre: "Classics", Year: 1866, ISBN: "978-5-17-090345-2", Location: "Hall 1, Rack 1, Shelf 2",
		Description: "A psychological novel about a student who commits a murder."},
	{Title: "The Master and Margarita", Author: "Mikhail Bulgakov", Genre: "Classics", Year: 1967, ISBN: "978-5-389-08266-5", Location: "Hall 1, Rack 3, Shelf 1",
		Description: "The devil visits Soviet Moscow.", ReadingRoomOnly: true},
	{Title: "1984", Author: "George Orwell", Genre: "Dystopia", Year: 1949, ISBN: "978-5-17-080115-4", Location: "Hall 2, Rack 1, Shelf 4",
		Description: "A dystopian novel about a totalitarian state."},
	{Title: "Harry Potter and the Philosopher's Stone", Author: "J. K. Rowling", Genre: "Fantasy", Year: 1997, ISBN: "978-5-389-04865-4", Location: "Hall 2, Rack 2, Shelf 1",
		Description: "A boy learns he is a wizard."},
	{Title: "A Game of Thrones", Author: "George R. R. Martin", Genre: "Fantasy", Year: 1996, ISBN: "978-5-389-06553-8", Location: "Hall 2, Rack 3, Shelf 2",
		Description: "Noble houses fight for the Iron Throne."},
	{Title: "Three Comrades", Author: "Erich Maria Remarque", Genre: "Classics", Year: 1936, ISBN: "978-5-389-07134-8", Location: "Hall 1, Rack 4, Shelf 1",
		Description: "Three friends in Weimar Germany."},
	{Title: "Atlas Shrugged", Author: "Ayn Rand", Genre: "Philosophy", Year: 1957, ISBN: "978-5-389-04853-1", Location: "Hall 3, Rack 1, Shelf 3",
		Description: "A novel about the withdrawal of the creative class.", ReadingRoomOnly: true},
}

// Seed fills an empty database with the demo accounts and catalog. Every
// seeded account gets passwordHash. Returns false when users already exist.
func (d *Database) Seed(passwordHash string) (bool, error) {
	var count int64
	if err := d.DB.Model(&entities.User{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	now := time.Now()
	err := d.DB.Transaction(func(tx *gorm.DB) error {
		for _, u := range seedUsers {
			user := u
			user.PasswordHash = passwordHash
			user.IsActive = true
			user.RegisteredAt = now
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("failed to create user %s: %w", user.Email, err)
			}
		}
		for _, b := range seedBooks {
			book := b
			book.Status = entities.BookAvailable
			book.AcquiredAt = now
			if err := tx.Create(&book).Error; err != nil {
				return fmt.Errorf("failed to create book %q: %w", book.Title, err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	d.logger.Info("Seeded demo data", zap.Int("users", len(seedUsers)), zap.Int("books", len(seedBooks)))
	return true, nil
}

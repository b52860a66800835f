// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── seed.go          # Demo accounts and catalog for empty databases
//	├── books/           # Catalog queries, search and access rules
//	├── users/           # Readers, staff and role management
//	└── audit/           # Audit event storage
//
// Reservation and loan rows are written only by the lending package, which
// owns the transactions that keep them consistent with book status.
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./library.db", logger)
//
//	booksRepo := books.NewRepository(db.DB)
//	usersRepo := users.NewRepository(db.DB)
//
//	results, err := booksRepo.Search("tolstoy", books.SearchByAuthor)
package database

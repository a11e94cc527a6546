// Package database provides the data access layer for the library backend.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, dialect selection, migrations
//	├── listing.go       # Shared pagination and sort helpers
//	├── errors.go        # Constraint error classification
//	├── timestamp.go     # Timestamp scanning for aggregate columns
//	├── authors/         # Author CRUD
//	├── members/         # Member CRUD with active-loan guards
//	├── books/           # Book CRUD, status rules
//	├── loans/           # Checkout / return lifecycle
//	├── reports/         # Read-only reporting queries (goqu)
//	├── audit/           # Audit event log
//	└── staff/           # Staff accounts for basic auth
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase("./data/library.db")
//
//	authorsRepo := authors.NewRepository(db.DB)
//	loansRepo := loans.NewRepository(db.DB)
//	reportsRepo := reports.NewRepository(db.DB, db.Dialect)
//
//	loan, err := loansRepo.Checkout(ctx, loans.CheckoutInput{BookID: 1, MemberID: 2})
//
// # Interface Implementations
//
// Each sub-package implements the store interface its controller declares:
//
//   - authors.Repository: implements http.AuthorStore
//   - members.Repository: implements http.MemberStore
//   - books.Repository: implements http.BookStore
//   - loans.Repository: implements http.LoanStore and tasks.OverdueCounter
//   - reports.Repository: implements http.ReportStore
//   - audit.Repository: backs audit.Service
//   - staff.Repository: backs auth.Service
//
// The checks live in internal/interfaces/checks.go.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Register the entity in Migrate
//  5. Add compile-time interface check in internal/interfaces
package database

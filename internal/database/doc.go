// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── books/           # Books, sections, chunks, assets and ownership checks
//	├── imports/         # Import job records and status transitions
//	├── progress/        # Reading progress (UserBook) and bookmarks
//	└── users/           # Identities resolved from the identity provider
//
// Content ingestion writes sections and chunks inside its own transaction
// (see internal/ingest); the repositories here serve the read paths and
// the job lifecycle.
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase("./librium.db")
//
//	booksRepo := books.NewRepository(db.DB)
//	jobsRepo := imports.NewRepository(db.DB)
//
//	book, err := booksRepo.GetBookForOwner(bookID, userID)
//	job, err := jobsRepo.GetJob(jobID)
//
// # Ownership
//
// Every row other than users and import jobs hangs off exactly one Book.
// Read paths take the viewer's user ID and return ErrNotOwner rather than
// leaking another user's data.
package database

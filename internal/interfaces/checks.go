package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/ABFCode/Librium-sub000/internal/auth"
	"github.com/ABFCode/Librium-sub000/internal/database/books"
	"github.com/ABFCode/Librium-sub000/internal/database/progress"
	"github.com/ABFCode/Librium-sub000/internal/database/users"
	"github.com/ABFCode/Librium-sub000/internal/http"
	"github.com/ABFCode/Librium-sub000/internal/importers"
	"github.com/ABFCode/Librium-sub000/internal/ingest"
	"github.com/ABFCode/Librium-sub000/internal/parser"
	"github.com/ABFCode/Librium-sub000/internal/scheduler"
	"github.com/ABFCode/Librium-sub000/internal/storage"
	"github.com/ABFCode/Librium-sub000/internal/tasks"
)

// =============================================================================
// Storage
// =============================================================================

// Store implementations
var _ storage.Store = (*storage.LocalStore)(nil)
var _ storage.Store = (*storage.MemoryStore)(nil)

// Gateway consumers
var _ importers.BlobStore = (*storage.Gateway)(nil)
var _ ingest.BlobWriter = (*storage.Gateway)(nil)
var _ tasks.BlobDeleter = (*storage.Gateway)(nil)
var _ http.BlobReader = (*storage.Gateway)(nil)
var _ http.UploadGateway = (*storage.Gateway)(nil)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.BookStore = (*books.Repository)(nil)
var _ http.ProgressStore = (*progress.Repository)(nil)
var _ http.UserLookup = (*users.Repository)(nil)
var _ auth.IdentityStore = (*users.Repository)(nil)

// =============================================================================
// Import Pipeline
// =============================================================================

var _ importers.Parser = (*parser.Client)(nil)
var _ importers.Ingester = (*ingest.Ingester)(nil)

// Dispatcher implementations
var _ importers.Dispatcher = (*tasks.ImportDispatcher)(nil)
var _ importers.Dispatcher = (*importers.Background)(nil)
var _ importers.Dispatcher = importers.DispatchFunc(nil)

var _ http.ImportService = (*importers.Pipeline)(nil)
var _ tasks.ImportAdvancer = (*importers.Pipeline)(nil)
var _ scheduler.StaleJobFailer = (*importers.Pipeline)(nil)

// BlobCleaner implementations
var _ http.BlobCleaner = (*tasks.Client)(nil)
var _ http.BlobCleaner = tasks.InlineBlobCleaner{}

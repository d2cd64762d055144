package http

import (
	"github.com/ABFCode/Librium-sub000/internal/auth"
	"github.com/ABFCode/Librium-sub000/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Imports  ImportService
	Users    UserLookup
	Books    BookStore
	Progress ProgressStore

	// Blob storage
	Blobs         BlobReader
	Uploads       UploadGateway
	BlobCleaner   BlobCleaner
	MaxUploadSize int64

	// Authentication
	AuthMiddleware     *auth.Middleware
	AllowExplicitOwner bool // local callers may import on behalf of another user

	// Origins of the reader UI allowed to call the API
	CORSAllowedOrigins []string

	// Application info
	Version string
}

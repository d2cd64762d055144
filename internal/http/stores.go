package http

import (
	"context"
	"io"

	"github.com/ABFCode/Librium-sub000/internal/database/books"
	"github.com/ABFCode/Librium-sub000/internal/database/progress"
	"github.com/ABFCode/Librium-sub000/internal/entities"
	"github.com/ABFCode/Librium-sub000/internal/storage"
)

// This file consolidates the interfaces HTTP controllers depend on.
// Each controller only depends on the methods it actually uses.

// ImportService is the import job state machine.
type ImportService interface {
	Submit(ctx context.Context, ownerID uint, fileName string, file io.Reader) (*entities.ImportJob, error)
	SubmitStored(ctx context.Context, ownerID uint, blobID, fileName string) (*entities.ImportJob, error)
	Retry(ctx context.Context, jobID, viewerID uint) (*entities.ImportJob, error)
	Status(jobID, viewerID uint) (*entities.ImportJob, error)
	List(viewerID uint, limit int) ([]entities.ImportJob, error)
	Clear(viewerID uint) (int64, error)
}

// UserLookup resolves explicit owner references on submissions.
type UserLookup interface {
	GetUserByID(id uint) (*entities.User, error)
}

// BookStore provides read and delete access to ingested books.
type BookStore interface {
	GetBookForOwner(bookID, userID uint) (*entities.Book, error)
	ListBooksForOwner(userID uint) ([]entities.Book, error)
	ListSections(bookID uint) ([]entities.Section, error)
	GetSectionForOwner(sectionID, userID uint) (*entities.Section, error)
	ListChunks(sectionID uint, start, limit int) (*books.ChunkPage, error)
	GetAssetByHref(bookID uint, href string) (*entities.BookAsset, error)
	GetFiles(bookID uint) ([]entities.BookFile, error)
	DeleteBookForOwner(bookID, userID uint) ([]string, error)
}

// ProgressStore persists reading progress and bookmarks.
type ProgressStore interface {
	GetOrCreateUserBook(userID, bookID uint) (*entities.UserBook, error)
	SaveCheckpoint(userID, bookID uint, cp progress.Checkpoint) (*entities.UserBook, error)
	ListBookmarks(userID, bookID uint) ([]entities.Bookmark, error)
	CreateBookmark(bookmark *entities.Bookmark) error
	DeleteBookmark(id, userID uint) error
}

// BlobReader streams stored blobs.
type BlobReader interface {
	Get(ctx context.Context, id string) (io.ReadCloser, storage.BlobInfo, error)
}

// BlobCleaner schedules removal of a deleted book's blobs.
type BlobCleaner interface {
	EnqueueDeleteBlobs(ctx context.Context, bookID uint, blobIDs []string) error
}

// UploadGateway issues and accepts direct upload URLs.
type UploadGateway interface {
	IssueUploadURL(ctx context.Context, owner uint) (*storage.UploadTicket, error)
	AcceptUpload(ctx context.Context, token string, content io.Reader) (storage.BlobInfo, error)
}

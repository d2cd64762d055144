// Package progress provides database operations for reading progress and bookmarks.
//
// There is exactly one UserBook row per (user, book). Checkpoints overwrite it
// wholesale, last write wins.
package progress

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ABFCode/Librium-sub000/internal/entities"
)

var (
	ErrBookmarkNotFound = errors.New("bookmark not found")
	ErrNotOwner         = errors.New("bookmark belongs to another user")
)

// Checkpoint is one complete reading position. All fields are written together
// so a later scroll-tolerance check compares metrics from the same moment.
type Checkpoint struct {
	SectionID    *uint   `json:"sectionId" binding:"required"`
	SectionIndex int     `json:"sectionIndex" binding:"min=0"`
	ChunkIndex   int     `json:"chunkIndex" binding:"min=0"`
	ChunkOffset  float64 `json:"chunkOffset" binding:"min=0"`
	ScrollRatio  float64 `json:"scrollRatio" binding:"min=0,max=1"`
	ScrollTop    float64 `json:"scrollTop" binding:"min=0"`
	ScrollHeight float64 `json:"scrollHeight" binding:"min=0"`
	ClientHeight float64 `json:"clientHeight" binding:"min=0"`
}

// Repository handles all progress and bookmark database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new progress repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateInitialTx writes the zero-progress row for a freshly ingested book.
func CreateInitialTx(tx *gorm.DB, userID, bookID uint) error {
	row := entities.UserBook{UserID: userID, BookID: bookID}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

// GetOrCreateUserBook returns the progress row, creating a zero row on first view.
func (r *Repository) GetOrCreateUserBook(userID, bookID uint) (*entities.UserBook, error) {
	if err := CreateInitialTx(r.db, userID, bookID); err != nil {
		return nil, fmt.Errorf("failed to create progress: %w", err)
	}
	var row entities.UserBook
	if err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// SaveCheckpoint upserts the full reading position.
func (r *Repository) SaveCheckpoint(userID, bookID uint, cp Checkpoint) (*entities.UserBook, error) {
	row := entities.UserBook{
		UserID:           userID,
		BookID:           bookID,
		LastSectionID:    cp.SectionID,
		LastSectionIndex: cp.SectionIndex,
		LastChunkIndex:   cp.ChunkIndex,
		LastChunkOffset:  cp.ChunkOffset,
		LastScrollRatio:  cp.ScrollRatio,
		LastScrollTop:    cp.ScrollTop,
		LastScrollHeight: cp.ScrollHeight,
		LastClientHeight: cp.ClientHeight,
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"last_section_id", "last_section_index", "last_chunk_index", "last_chunk_offset",
			"last_scroll_ratio", "last_scroll_top", "last_scroll_height", "last_client_height",
			"updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return r.GetOrCreateUserBook(userID, bookID)
}

// ListBookmarks returns the user's bookmarks for a book in creation order.
func (r *Repository) ListBookmarks(userID, bookID uint) ([]entities.Bookmark, error) {
	var bookmarks []entities.Bookmark
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).
		Order("created_at ASC, id ASC").
		Find(&bookmarks).Error
	return bookmarks, err
}

// CreateBookmark stores a new bookmark.
func (r *Repository) CreateBookmark(bookmark *entities.Bookmark) error {
	if bookmark.CreatedAt.IsZero() {
		bookmark.CreatedAt = time.Now()
	}
	return r.db.Create(bookmark).Error
}

// DeleteBookmark removes a bookmark if userID owns it.
func (r *Repository) DeleteBookmark(id, userID uint) error {
	var bookmark entities.Bookmark
	err := r.db.First(&bookmark, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrBookmarkNotFound
	}
	if err != nil {
		return err
	}
	if bookmark.UserID != userID {
		return ErrNotOwner
	}
	return r.db.Delete(&bookmark).Error
}

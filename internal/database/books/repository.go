// Package books provides database operations for ingested books and their content.
//
// Every read path takes the viewer's user ID: a book that exists but belongs to
// somebody else yields ErrNotOwner, a missing one ErrNotFound.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetBookForOwner(bookID, userID)
package books

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ABFCode/Librium-sub000/internal/entities"
)

var (
	ErrNotFound = errors.New("book not found")
	ErrNotOwner = errors.New("book belongs to another user")
)

// MaxChunkPage caps a single ListChunks page.
const MaxChunkPage = 200

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetBookForOwner retrieves a book and checks it belongs to userID.
func (r *Repository) GetBookForOwner(bookID, userID uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, bookID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if book.OwnerID != userID {
		return nil, ErrNotOwner
	}
	return &book, nil
}

// ListBooksForOwner returns the user's library, most recently added first.
func (r *Repository) ListBooksForOwner(userID uint) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Where("owner_id = ?", userID).Order("created_at DESC, id DESC").Find(&books).Error
	return books, err
}

// ListSections returns the table of contents of a book in reading order.
func (r *Repository) ListSections(bookID uint) ([]entities.Section, error) {
	var sections []entities.Section
	err := r.db.Where("book_id = ?", bookID).Order("order_index ASC").Find(&sections).Error
	return sections, err
}

// GetSectionForOwner retrieves a section after proving the ownership chain
// section -> book -> user.
func (r *Repository) GetSectionForOwner(sectionID, userID uint) (*entities.Section, error) {
	var section entities.Section
	err := r.db.First(&section, sectionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err := r.GetBookForOwner(section.BookID, userID); err != nil {
		return nil, err
	}
	return &section, nil
}

// ChunkPage is one window of a section's chunks. NextIndex is nil when the
// window reached the end of the section.
type ChunkPage struct {
	Chunks    []entities.ContentChunk `json:"chunks"`
	NextIndex *int                    `json:"nextIndex"`
}

// ListChunks returns up to limit chunks of a section starting at chunk index start.
func (r *Repository) ListChunks(sectionID uint, start, limit int) (*ChunkPage, error) {
	if start < 0 {
		start = 0
	}
	if limit <= 0 || limit > MaxChunkPage {
		limit = MaxChunkPage
	}

	// One extra row tells us whether another page exists.
	var chunks []entities.ContentChunk
	err := r.db.Where("section_id = ? AND chunk_index >= ?", sectionID, start).
		Order("chunk_index ASC").
		Limit(limit + 1).
		Find(&chunks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}

	page := &ChunkPage{Chunks: chunks}
	if len(chunks) > limit {
		next := chunks[limit].ChunkIndex
		page.Chunks = chunks[:limit]
		page.NextIndex = &next
	}
	if page.Chunks == nil {
		page.Chunks = []entities.ContentChunk{}
	}
	return page, nil
}

// CountChunks returns the number of chunks stored for a section.
func (r *Repository) CountChunks(sectionID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.ContentChunk{}).Where("section_id = ?", sectionID).Count(&count).Error
	return count, err
}

// GetAssetByHref looks up an embedded asset by its original href.
func (r *Repository) GetAssetByHref(bookID uint, href string) (*entities.BookAsset, error) {
	var asset entities.BookAsset
	err := r.db.Where("book_id = ? AND href = ?", bookID, href).First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

// GetFiles returns the original uploads of a book.
func (r *Repository) GetFiles(bookID uint) ([]entities.BookFile, error) {
	var files []entities.BookFile
	err := r.db.Where("book_id = ?", bookID).Order("id ASC").Find(&files).Error
	return files, err
}

// DeleteBookForOwner removes a book and everything hanging off it in one
// transaction. It returns the blob IDs the rows referenced so the caller can
// remove them from the blob store.
func (r *Repository) DeleteBookForOwner(bookID, userID uint) ([]string, error) {
	book, err := r.GetBookForOwner(bookID, userID)
	if err != nil {
		return nil, err
	}

	var blobIDs []string
	err = r.db.Transaction(func(tx *gorm.DB) error {
		var sections []entities.Section
		if err := tx.Select("text_blob_id", "content_blob_id").Where("book_id = ?", bookID).Find(&sections).Error; err != nil {
			return err
		}
		for _, s := range sections {
			blobIDs = appendBlob(blobIDs, s.TextBlobID)
			blobIDs = appendBlob(blobIDs, s.ContentBlobID)
		}

		var assets []entities.BookAsset
		if err := tx.Select("blob_id").Where("book_id = ?", bookID).Find(&assets).Error; err != nil {
			return err
		}
		for _, a := range assets {
			blobIDs = appendBlob(blobIDs, a.BlobID)
		}

		var files []entities.BookFile
		if err := tx.Select("blob_id").Where("book_id = ?", bookID).Find(&files).Error; err != nil {
			return err
		}
		for _, f := range files {
			blobIDs = appendBlob(blobIDs, f.BlobID)
		}
		blobIDs = appendBlob(blobIDs, book.CoverBlobID)

		for _, model := range []any{
			&entities.ContentChunk{},
			&entities.Section{},
			&entities.BookAsset{},
			&entities.BookFile{},
			&entities.Bookmark{},
			&entities.UserBook{},
		} {
			if err := tx.Where("book_id = ?", bookID).Delete(model).Error; err != nil {
				return err
			}
		}
		// Jobs outlive their book so the history stays visible.
		if err := tx.Model(&entities.ImportJob{}).Where("book_id = ?", bookID).Update("book_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Book{}, bookID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete book: %w", err)
	}
	return blobIDs, nil
}

func appendBlob(ids []string, id string) []string {
	if id == "" {
		return ids
	}
	return append(ids, id)
}

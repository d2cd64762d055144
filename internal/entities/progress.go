package entities

import "time"

// UserBook is the single reading-progress record for a (user, book) pair.
// All positional fields are written together on every checkpoint.
type UserBook struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"uniqueIndex:idx_user_books_pair;not null" json:"userId"`
	BookID           uint      `gorm:"uniqueIndex:idx_user_books_pair;not null" json:"bookId"`
	LastSectionID    *uint     `json:"lastSectionId,omitempty"`
	LastSectionIndex int       `json:"lastSectionIndex"`
	LastChunkIndex   int       `json:"lastChunkIndex"`
	LastChunkOffset  float64   `json:"lastChunkOffset"`
	LastScrollRatio  float64   `json:"lastScrollRatio"`
	LastScrollTop    float64   `json:"lastScrollTop"`
	LastScrollHeight float64   `json:"lastScrollHeight"`
	LastClientHeight float64   `json:"lastClientHeight"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type Bookmark struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index:idx_bookmarks_user_book;not null" json:"userId"`
	BookID     uint      `gorm:"index:idx_bookmarks_user_book;not null" json:"bookId"`
	SectionID  uint      `gorm:"not null" json:"sectionId"`
	ChunkIndex int       `json:"chunkIndex"`
	Offset     float64   `json:"offset"`
	Label      string    `gorm:"size:256" json:"label,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

package entities

import (
	"time"
)

// BookIdentifier is one identifier tuple reported by the parser (ISBN, UUID, ...).
type BookIdentifier struct {
	ID     string `json:"id,omitempty"`
	Scheme string `json:"scheme,omitempty"`
	Value  string `json:"value"`
	Type   string `json:"type,omitempty"`
}

type Book struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	OwnerID          uint             `gorm:"index;not null" json:"ownerId"`
	Title            string           `gorm:"index;size:512" json:"title"`
	Author           string           `gorm:"index;size:512" json:"author,omitempty"`
	Language         string           `gorm:"size:32" json:"language,omitempty"`
	Publisher        string           `gorm:"size:256" json:"publisher,omitempty"`
	PublishedAt      string           `gorm:"size:64" json:"publishedAt,omitempty"`
	Series           string           `gorm:"size:256" json:"series,omitempty"`
	SeriesIndex      string           `gorm:"size:32" json:"seriesIndex,omitempty"`
	Subjects         []string         `gorm:"serializer:json" json:"subjects,omitempty"`
	Identifiers      []BookIdentifier `gorm:"serializer:json" json:"identifiers,omitempty"`
	CoverBlobID      string           `gorm:"size:64" json:"-"`
	CoverContentType string           `gorm:"size:128" json:"coverContentType,omitempty"`
	SectionCount     int              `json:"sectionCount"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// HasCover reports whether a cover image was stored for the book.
func (b Book) HasCover() bool {
	return b.CoverBlobID != ""
}

// BookFile references the original uploaded file of a book.
type BookFile struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	BookID      uint      `gorm:"index;not null" json:"bookId"`
	BlobID      string    `gorm:"size:64;not null" json:"-"`
	FileName    string    `gorm:"size:512" json:"fileName"`
	FileSize    int64     `json:"fileSize"`
	ContentType string    `gorm:"size:128" json:"contentType,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BookAsset is a binary resource referenced from block content, keyed by its
// original href inside the EPUB.
type BookAsset struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	BookID      uint      `gorm:"uniqueIndex:idx_book_assets_href;not null" json:"bookId"`
	Href        string    `gorm:"size:1024;uniqueIndex:idx_book_assets_href" json:"href"`
	BlobID      string    `gorm:"size:64;not null" json:"-"`
	ContentType string    `gorm:"size:128" json:"contentType,omitempty"`
	ByteSize    int64     `json:"byteSize"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

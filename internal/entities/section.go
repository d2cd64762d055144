package entities

// Section is a node of a book's table of contents. OrderIndex is dense and
// unique per book, in document order.
type Section struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	BookID        uint   `gorm:"uniqueIndex:idx_sections_order;not null" json:"bookId"`
	ParentID      *uint  `gorm:"index" json:"parentId,omitempty"`
	Title         string `gorm:"size:512" json:"title"`
	Href          string `gorm:"size:1024" json:"href,omitempty"`
	Anchor        string `gorm:"size:512" json:"anchor,omitempty"`
	OrderIndex    int    `gorm:"uniqueIndex:idx_sections_order" json:"orderIndex"`
	Depth         int    `json:"depth"`
	TextBlobID    string `gorm:"size:64" json:"-"`
	TextSize      int64  `json:"textSize,omitempty"`
	ContentBlobID string `gorm:"size:64" json:"-"`
	ContentSize   int64  `json:"contentSize,omitempty"`
}

// HasBlocks reports whether layout-preserving block content was stored.
func (s Section) HasBlocks() bool {
	return s.ContentBlobID != ""
}

// ContentChunk is a bounded slice of a section's text. Offsets are section-local
// rune offsets; chunk n ends where chunk n+1 starts.
type ContentChunk struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	BookID      uint   `gorm:"index;not null" json:"bookId"`
	SectionID   uint   `gorm:"uniqueIndex:idx_chunks_section;not null" json:"sectionId"`
	ChunkIndex  int    `gorm:"uniqueIndex:idx_chunks_section" json:"chunkIndex"`
	StartOffset int    `json:"startOffset"`
	EndOffset   int    `json:"endOffset"`
	WordCount   int    `json:"wordCount"`
	Content     string `gorm:"type:text" json:"content"`
}

func (ContentChunk) TableName() string {
	return "content_chunks"
}

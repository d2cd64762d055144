package parser

// Wire types of the parser service response. Pointer fields distinguish a
// required value that is absent from its zero value. Unknown fields are ignored.

type response struct {
	FileName      string                 `json:"fileName"`
	FileSize      int64                  `json:"fileSize"`
	Message       string                 `json:"message"`
	Metadata      *metadataPayload       `json:"metadata"`
	Sections      []sectionPayload       `json:"sections" validate:"required,dive"`
	Chunks        []chunkPayload         `json:"chunks" validate:"required,dive"`
	SectionBlocks []sectionBlocksPayload `json:"sectionBlocks" validate:"omitempty,dive"`
	Warnings      []Warning              `json:"warnings"`
	Cover         *coverPayload          `json:"cover"`
	Images        []imagePayload         `json:"images" validate:"omitempty,dive"`
}

type sectionPayload struct {
	Title            *string `json:"title" validate:"required"`
	OrderIndex       *int    `json:"orderIndex" validate:"required,min=0"`
	Depth            *int    `json:"depth" validate:"required,min=0"`
	ParentOrderIndex *int    `json:"parentOrderIndex" validate:"omitempty,min=0"`
	Href             string  `json:"href"`
	Anchor           string  `json:"anchor"`
}

type chunkPayload struct {
	SectionOrderIndex *int    `json:"sectionOrderIndex" validate:"required,min=0"`
	ChunkIndex        *int    `json:"chunkIndex" validate:"required,min=0"`
	StartOffset       *int    `json:"startOffset" validate:"required,min=0"`
	EndOffset         *int    `json:"endOffset" validate:"required,min=0"`
	WordCount         *int    `json:"wordCount" validate:"required,min=0"`
	Content           *string `json:"content" validate:"required"`
}

type sectionBlocksPayload struct {
	SectionOrderIndex *int    `json:"sectionOrderIndex" validate:"required,min=0"`
	Blocks            []Block `json:"blocks" validate:"omitempty,dive"`
}

type metadataPayload struct {
	Title       string              `json:"title"`
	Authors     []string            `json:"authors"`
	Language    string              `json:"language"`
	Publisher   string              `json:"publisher"`
	PublishedAt string              `json:"publishedAt"`
	Series      string              `json:"series"`
	SeriesIndex string              `json:"seriesIndex"`
	Subjects    []string            `json:"subjects"`
	Identifiers []identifierPayload `json:"identifiers" validate:"omitempty,dive"`
}

type identifierPayload struct {
	ID     string  `json:"id"`
	Scheme string  `json:"scheme"`
	Value  *string `json:"value" validate:"required"`
	Type   string  `json:"type"`
}

type coverPayload struct {
	ContentType string  `json:"contentType"`
	Data        *string `json:"data" validate:"required"`
}

type imagePayload struct {
	Href        string  `json:"href" validate:"required"`
	ContentType string  `json:"contentType"`
	Data        *string `json:"data" validate:"required"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
}

// Block is one layout element of a section. Blocks are stored as JSON and
// handed to the reader unchanged.
type Block struct {
	Kind      string   `json:"kind" validate:"required"`
	Level     int      `json:"level,omitempty"`
	Ordered   bool     `json:"ordered,omitempty"`
	ListIndex int      `json:"listIndex,omitempty"`
	Inlines   []Inline `json:"inlines,omitempty" validate:"omitempty,dive"`
	Table     *Table   `json:"table,omitempty"`
	Figure    *Figure  `json:"figure,omitempty"`
	Anchors   []string `json:"anchors,omitempty"`
}

// Inline is a run of text or an embedded element inside a block.
type Inline struct {
	Kind   string `json:"kind" validate:"required"`
	Text   string `json:"text,omitempty"`
	Href   string `json:"href,omitempty"`
	Src    string `json:"src,omitempty"`
	Alt    string `json:"alt,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Emph   bool   `json:"emph,omitempty"`
	Strong bool   `json:"strong,omitempty"`
}

type Table struct {
	Rows []TableRow `json:"rows" validate:"omitempty,dive"`
}

type TableRow struct {
	Cells []TableCell `json:"cells" validate:"omitempty,dive"`
}

type TableCell struct {
	Inlines []Inline `json:"inlines" validate:"omitempty,dive"`
	Header  bool     `json:"header,omitempty"`
}

type Figure struct {
	Images  []Inline `json:"images" validate:"omitempty,dive"`
	Caption []Inline `json:"caption" validate:"omitempty,dive"`
}

// Warning is a non-fatal problem the parser reported.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

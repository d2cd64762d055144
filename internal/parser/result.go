package parser

// Result is a parser response that passed validation. Sections are ordered by
// OrderIndex and binary payloads are decoded.
type Result struct {
	FileName string
	Metadata Metadata
	Cover    *Binary
	Sections []Section
	Chunks   []Chunk
	// Blocks holds the layout blocks of each section, keyed by order index.
	Blocks   map[int][]Block
	Images   []Image
	Warnings []Warning
}

type Metadata struct {
	Title       string
	Authors     []string
	Language    string
	Publisher   string
	PublishedAt string
	Series      string
	SeriesIndex string
	Subjects    []string
	Identifiers []Identifier
}

type Identifier struct {
	ID     string
	Scheme string
	Value  string
	Type   string
}

type Section struct {
	Title            string
	OrderIndex       int
	Depth            int
	ParentOrderIndex *int
	Href             string
	Anchor           string
}

type Chunk struct {
	SectionOrderIndex int
	ChunkIndex        int
	StartOffset       int
	EndOffset         int
	WordCount         int
	Content           string
}

type Binary struct {
	ContentType string
	Data        []byte
}

// Image is an embedded image referenced from section blocks by Href.
type Image struct {
	Href        string
	ContentType string
	Data        []byte
	Width       int
	Height      int
}

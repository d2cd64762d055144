// Package demo builds small EPUB files from public domain excerpts.
// They seed local installations (cmd/generate_demo) and serve as fixtures in tests.
package demo

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	epub "github.com/go-shiori/go-epub"
)

// Chapter is one section of a demo book.
type Chapter struct {
	Title      string
	Paragraphs []string
}

// Book describes a demo EPUB.
type Book struct {
	Title    string
	Author   string
	Language string
	Chapters []Chapter
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// FileName returns a file system friendly name for the book.
func (b Book) FileName() string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(b.Title), "-"), "-")
	if slug == "" {
		slug = "book"
	}
	return slug + ".epub"
}

// Write renders the book as an EPUB file at path.
func Write(book Book, path string) error {
	e, err := epub.NewEpub(book.Title)
	if err != nil {
		return fmt.Errorf("create epub: %w", err)
	}
	e.SetAuthor(book.Author)
	if book.Language != "" {
		e.SetLang(book.Language)
	}

	for i, ch := range book.Chapters {
		var body strings.Builder
		fmt.Fprintf(&body, "<h1>%s</h1>\n", html.EscapeString(ch.Title))
		for _, p := range ch.Paragraphs {
			fmt.Fprintf(&body, "<p>%s</p>\n", html.EscapeString(p))
		}
		if _, err := e.AddSection(body.String(), ch.Title, fmt.Sprintf("chapter%03d.xhtml", i+1), ""); err != nil {
			return fmt.Errorf("add chapter %q: %w", ch.Title, err)
		}
	}

	if err := e.Write(path); err != nil {
		return fmt.Errorf("write epub: %w", err)
	}
	return nil
}

// Build renders the book and returns the EPUB bytes.
func Build(book Book) ([]byte, error) {
	dir, err := os.MkdirTemp("", "demo-epub-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, book.FileName())
	if err := Write(book, path); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// PublicDomainBooks returns the demo library.
func PublicDomainBooks() []Book {
	return []Book{
		{
			Title:    "Pride and Prejudice",
			Author:   "Jane Austen",
			Language: "en",
			Chapters: []Chapter{
				{Title: "Chapter 1", Paragraphs: []string{
					"It is a truth universally acknowledged, that a single man in possession of a good fortune, must be in want of a wife.",
					"However little known the feelings or views of such a man may be on his first entering a neighbourhood, this truth is so well fixed in the minds of the surrounding families, that he is considered the rightful property of some one or other of their daughters.",
				}},
				{Title: "Chapter 2", Paragraphs: []string{
					"Mr. Bennet was among the earliest of those who waited on Mr. Bingley.",
					"He had always intended to visit him, though to the last always assuring his wife that he should not go.",
				}},
			},
		},
		{
			Title:    "Meditations",
			Author:   "Marcus Aurelius",
			Language: "en",
			Chapters: []Chapter{
				{Title: "Book One", Paragraphs: []string{
					"From my grandfather Verus I learned good morals and the government of my temper.",
					"From the reputation and remembrance of my father, modesty and a manly character.",
				}},
				{Title: "Book Two", Paragraphs: []string{
					"Begin the morning by saying to thyself, I shall meet with the busy-body, the ungrateful, arrogant, deceitful, envious, unsocial.",
				}},
			},
		},
		{
			Title:    "The Art of War",
			Author:   "Sun Tzu",
			Language: "en",
			Chapters: []Chapter{
				{Title: "Laying Plans", Paragraphs: []string{
					"The art of war is of vital importance to the State.",
					"All warfare is based on deception.",
				}},
			},
		},
	}
}

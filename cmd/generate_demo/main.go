// Command generate_demo writes EPUB files of public domain excerpts that can
// be imported into a local library.
// Usage: go run cmd/generate_demo/main.go [-dir path/to/demo]
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/ABFCode/Librium-sub000/internal/demo"
)

const defaultDemoDir = "./demo"

func main() {
	dir := flag.String("dir", defaultDemoDir, "directory the demo EPUB files are written to")
	flag.Parse()

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Fatalf("Failed to create demo directory: %v", err)
	}

	books := demo.PublicDomainBooks()
	for _, book := range books {
		path := filepath.Join(*dir, book.FileName())
		if err := demo.Write(book, path); err != nil {
			log.Printf("Failed to write %s: %v", book.Title, err)
			continue
		}
		log.Printf("Wrote: %s by %s (%d chapters) -> %s", book.Title, book.Author, len(book.Chapters), path)
	}

	log.Printf("Done. Import them with: librium import %s", filepath.Join(*dir, "<file>.epub"))
}

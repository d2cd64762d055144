package storage

import (
	"bytes"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

const (
	ContentTypeEPUB   = "application/epub+zip"
	sniffHeaderLength = 3072
)

// SniffContentType detects the content type from the first bytes of r and
// returns a reader that still yields the full content.
func SniffContentType(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffHeaderLength)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, err
	}
	head = head[:n]

	mime := mimetype.Detect(head)
	return mime.String(), io.MultiReader(bytes.NewReader(head), r), nil
}

// IsEPUB reports whether a sniffed content type denotes an EPUB container.
func IsEPUB(contentType string) bool {
	return mimetype.EqualsAny(contentType, ContentTypeEPUB)
}

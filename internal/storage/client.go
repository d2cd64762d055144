// Package storage is the blob store gateway: opaque blobs addressed by id,
// with signed upload URLs for clients that push files directly.
//
// Blobs carry a small metadata record (content type, size, checksum, owner).
// Ids are random UUIDs; callers never build paths from them.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrNotFound indicates the blob id does not exist.
	ErrNotFound = errors.New("blob not found")

	// ErrTooLarge indicates the content exceeded the allowed size.
	ErrTooLarge = errors.New("blob exceeds maximum size")

	// ErrInvalidID indicates a malformed blob id.
	ErrInvalidID = errors.New("invalid blob id")
)

// Meta is supplied by the writer of a blob.
type Meta struct {
	ContentType string
	OwnerID     uint
}

// BlobInfo describes a stored blob.
type BlobInfo struct {
	ID          string    `json:"id"`
	ContentType string    `json:"contentType,omitempty"`
	Size        int64     `json:"size"`
	SHA256      string    `json:"sha256"`
	OwnerID     uint      `json:"ownerId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store defines the blob persistence operations.
type Store interface {
	// Write stores content under id. Existing content is replaced.
	Write(ctx context.Context, id string, content io.Reader, meta Meta) (BlobInfo, error)

	// Open returns the blob content and its metadata.
	Open(ctx context.Context, id string) (io.ReadCloser, BlobInfo, error)

	// Stat returns metadata without opening the content.
	Stat(ctx context.Context, id string) (BlobInfo, error)

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, id string) error
}

// ReadAll is a helper that loads a whole blob into memory.
func ReadAll(ctx context.Context, store Store, id string) ([]byte, BlobInfo, error) {
	reader, info, err := store.Open(ctx, id)
	if err != nil {
		return nil, BlobInfo{}, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, BlobInfo{}, err
	}
	return data, info, nil
}

// limitedReader fails with ErrTooLarge instead of silently truncating.
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrTooLarge
	}
	return n, err
}

// LimitReader wraps r so reading more than max bytes returns ErrTooLarge.
// A non-positive max disables the limit.
func LimitReader(r io.Reader, max int64) io.Reader {
	if max <= 0 {
		return r
	}
	return &limitedReader{r: r, remaining: max}
}

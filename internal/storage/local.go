package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// LocalStore keeps blobs on the local filesystem, sharded by the first two
// characters of the id, with a JSON metadata file next to each blob.
type LocalStore struct {
	dir string
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore creates a store rooted at dir.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Dir returns the root directory.
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Write(ctx context.Context, id string, content io.Reader, meta Meta) (BlobInfo, error) {
	blobPath, metaPath, err := s.paths(id)
	if err != nil {
		return BlobInfo{}, err
	}
	if err := ctx.Err(); err != nil {
		return BlobInfo{}, err
	}
	if err := os.MkdirAll(filepath.Dir(blobPath), 0755); err != nil {
		return BlobInfo{}, err
	}

	// Temp file in the same directory for an atomic rename
	tmpFile, err := os.CreateTemp(filepath.Dir(blobPath), "blob_tmp_")
	if err != nil {
		return BlobInfo{}, err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath) // no-op after a successful rename
	}()

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmpFile, hasher), content)
	if err != nil {
		return BlobInfo{}, err
	}
	if err := tmpFile.Close(); err != nil {
		return BlobInfo{}, err
	}

	info := BlobInfo{
		ID:          id,
		ContentType: meta.ContentType,
		Size:        size,
		SHA256:      hex.EncodeToString(hasher.Sum(nil)),
		OwnerID:     meta.OwnerID,
		CreatedAt:   time.Now().UTC(),
	}
	metaBytes, err := json.Marshal(info)
	if err != nil {
		return BlobInfo{}, err
	}
	if err := writeFileAtomic(metaPath, metaBytes); err != nil {
		return BlobInfo{}, err
	}
	if err := os.Rename(tmpPath, blobPath); err != nil {
		os.Remove(metaPath)
		return BlobInfo{}, err
	}

	return info, nil
}

func (s *LocalStore) Open(ctx context.Context, id string) (io.ReadCloser, BlobInfo, error) {
	info, err := s.Stat(ctx, id)
	if err != nil {
		return nil, BlobInfo{}, err
	}
	blobPath, _, _ := s.paths(id)
	f, err := os.Open(blobPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, BlobInfo{}, ErrNotFound
	}
	if err != nil {
		return nil, BlobInfo{}, err
	}
	return f, info, nil
}

func (s *LocalStore) Stat(ctx context.Context, id string) (BlobInfo, error) {
	_, metaPath, err := s.paths(id)
	if err != nil {
		return BlobInfo{}, err
	}
	data, err := os.ReadFile(metaPath)
	if errors.Is(err, os.ErrNotExist) {
		return BlobInfo{}, ErrNotFound
	}
	if err != nil {
		return BlobInfo{}, err
	}
	var info BlobInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return BlobInfo{}, fmt.Errorf("corrupt metadata for blob %s: %w", id, err)
	}
	return info, nil
}

func (s *LocalStore) Delete(ctx context.Context, id string) error {
	blobPath, metaPath, err := s.paths(id)
	if err != nil {
		return err
	}
	for _, p := range []string{blobPath, metaPath} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// paths validates the id and returns the blob and metadata file paths.
func (s *LocalStore) paths(id string) (string, string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", "", ErrInvalidID
	}
	canonical := parsed.String()
	base := filepath.Join(s.dir, canonical[:2], canonical)
	return base, base + ".meta.json", nil
}

func writeFileAtomic(path string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "meta_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

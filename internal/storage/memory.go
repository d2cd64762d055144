package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps blobs in memory. Used by tests and dry runs.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]memoryBlob
}

type memoryBlob struct {
	data []byte
	info BlobInfo
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]memoryBlob)}
}

func (s *MemoryStore) Write(ctx context.Context, id string, content io.Reader, meta Meta) (BlobInfo, error) {
	if _, err := uuid.Parse(id); err != nil {
		return BlobInfo{}, ErrInvalidID
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return BlobInfo{}, err
	}
	sum := sha256.Sum256(data)
	info := BlobInfo{
		ID:          id,
		ContentType: meta.ContentType,
		Size:        int64(len(data)),
		SHA256:      hex.EncodeToString(sum[:]),
		OwnerID:     meta.OwnerID,
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.blobs[id] = memoryBlob{data: data, info: info}
	s.mu.Unlock()
	return info, nil
}

func (s *MemoryStore) Open(ctx context.Context, id string) (io.ReadCloser, BlobInfo, error) {
	s.mu.RLock()
	blob, ok := s.blobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, BlobInfo{}, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(blob.data)), blob.info, nil
}

func (s *MemoryStore) Stat(ctx context.Context, id string) (BlobInfo, error) {
	s.mu.RLock()
	blob, ok := s.blobs[id]
	s.mu.RUnlock()
	if !ok {
		return BlobInfo{}, ErrNotFound
	}
	return blob.info, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.blobs, id)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored blobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

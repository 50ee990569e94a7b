package storage

import (
	"context"
	"sync"
)

// BlobStore is the persistence contract for the timetable snapshot: one
// opaque blob, saved whole and loaded whole. The in-memory state is the
// source of truth for the running session; the blob is its durable copy.
type BlobStore interface {
	// Save replaces the stored blob.
	Save(ctx context.Context, data []byte) error
	// Load returns the stored blob, or ok=false when nothing has been saved.
	Load(ctx context.Context) (data []byte, ok bool, err error)
}

// MemoryBlobStore keeps the blob in process memory. Used in tests and as a
// throwaway backend.
type MemoryBlobStore struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryBlobStore returns an empty in-memory store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{}
}

func (s *MemoryBlobStore) Save(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	return nil
}

func (s *MemoryBlobStore) Load(_ context.Context) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, false, nil
	}
	return append([]byte(nil), s.data...), true, nil
}

package upload

import (
	"sync"

	"github.com/google/uuid"
)

// Store holds image preview bytes keyed by an opaque ref — the server-side
// analog of an object URL. Refs are scoped to a session's current image and
// must be released when the image is replaced, cleared, or the session ends.
type Store struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewStore() *Store { return &Store{blobs: map[string][]byte{}} }

func (s *Store) Put(data []byte) string {
	ref := uuid.NewString()
	s.mu.Lock()
	s.blobs[ref] = data
	s.mu.Unlock()
	return ref
}

func (s *Store) Get(ref string) ([]byte, bool) {
	s.mu.Lock()
	b, ok := s.blobs[ref]
	s.mu.Unlock()
	return b, ok
}

// Release is a no-op for unknown refs, so double-release is safe.
func (s *Store) Release(ref string) {
	s.mu.Lock()
	delete(s.blobs, ref)
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

package memory

import (
	"context"
	"sync"

	"github.com/msomdec/account-portal/internal/domain"
)

type object struct {
	contentType string
	data        []byte
}

// FileStore implements domain.FileStore in memory.
type FileStore struct {
	mu      sync.Mutex
	objects map[string]object
}

// NewFileStore creates an empty in-memory FileStore.
func NewFileStore() *FileStore {
	return &FileStore{objects: make(map[string]object)}
}

func (s *FileStore) Save(ctx context.Context, key, contentType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = object{contentType: contentType, data: append([]byte(nil), data...)}
	return nil
}

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, "", domain.ErrNotFound
	}
	return append([]byte(nil), obj.data...), obj.contentType, nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Len returns the number of stored objects.
func (s *FileStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

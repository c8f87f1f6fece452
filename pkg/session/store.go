// Package session implements the client-side session model: two key/value
// store backends of different lifetimes, a manager holding the in-memory
// session, and the route guard deciding access from that state.
package session

import (
	"os"
	"path/filepath"
	"sync"
)

// Canonical persistence keys. Every component reads and writes sessions
// through these two constants; nothing else may name the keys.
const (
	KeyUser  = "user"
	KeyToken = "access_token"
)

// Store is a key/value backend holding the serialized profile and token.
// Absence of a key is a normal state, not an error.
type Store interface {
	Set(key, value string) error
	Get(key string) (string, bool)
	Remove(key string) error
}

// MemStore is the ephemeral backend: values live for the process lifetime.
type MemStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemStore returns an empty ephemeral store.
func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string]string)}
}

func (s *MemStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok
}

func (s *MemStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// FileStore is the durable backend: one file per key under a state directory,
// surviving process restarts.
type FileStore struct {
	dir string
}

// NewFileStore creates the state directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Set(key, value string) error {
	return os.WriteFile(s.path(key), []byte(value), 0o600)
}

func (s *FileStore) Get(key string) (string, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (s *FileStore) Remove(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key)
}

// Package memory implements an in-memory BlobStore for tests.
package memory

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"fleetevents/internal/ports"
)

const Driver = "memory"

// Store keeps blobs in process memory. FailPut, when set, is consulted before every
// write so tests can inject storage faults.
type Store struct {
	mu      sync.RWMutex
	objs    map[string][]byte
	FailPut func(key string) error
}

var _ ports.BlobStore = (*Store)(nil)

func New() *Store { return &Store{objs: make(map[string][]byte)} }

func (s *Store) Driver() string { return Driver }

func (s *Store) Put(ctx context.Context, key string, r io.Reader, _ string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s.FailPut != nil {
		if err := s.FailPut(key); err != nil {
			return 0, err
		}
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objs[key]; exists {
		return 0, fmt.Errorf("%w: %s", ports.ErrBlobExists, key)
	}
	s.objs[key] = b
	return int64(len(b)), nil
}

func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objs[key]; !ok {
		return false, nil
	}
	delete(s.objs, key)
	return true, nil
}

func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objs[key]
	return ok, nil
}

// Keys returns every stored key in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.objs))
	for k := range s.objs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) Content(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.objs[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, true
}

package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/Pro7ech/rnsfhe/rlwe"
)

// MemoryStore is a [Store] keeping the encoded ciphertexts in memory.
// It is safe for concurrent use.
type MemoryStore struct {
	params rlwe.Parameters

	mu   sync.RWMutex
	data map[Handle][]byte
}

// NewMemoryStore creates a new empty [MemoryStore] for the parameters.
func NewMemoryStore(params rlwe.ParameterProvider) *MemoryStore {
	return &MemoryStore{
		params: *params.GetRLWEParameters(),
		data:   map[Handle][]byte{},
	}
}

// Len returns the number of ciphertexts in the store.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) Put(_ context.Context, ct *rlwe.Ciphertext) (h Handle, err error) {

	var data []byte
	if data, h, err = encode(s.params, ct); err != nil {
		return h, fmt.Errorf("cannot Put: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[h] = data

	return
}

func (s *MemoryStore) Get(_ context.Context, h Handle) (ct *rlwe.Ciphertext, err error) {

	s.mu.RLock()
	data, ok := s.data[h]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("cannot Get %s: %w", h, ErrNotFound)
	}

	if ct, err = decode(s.params, h, data); err != nil {
		return nil, fmt.Errorf("cannot Get: %w", err)
	}

	return
}

func (s *MemoryStore) Delete(_ context.Context, h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, h)
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.data)
	return nil
}

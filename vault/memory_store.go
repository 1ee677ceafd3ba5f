package vault

import (
	"sync"

	"github.com/IHB1-Foundation/magni-cspr/crypto"
)

// MemoryStore is a reference, map-backed Store implementation. It backs the
// engine's own test suite and the demo harness; a real deployment backs
// Store with the host chain's own key-value storage instead.
type MemoryStore struct {
	mu          sync.Mutex
	positions   map[string]Position
	globals     Globals
	initialized bool
}

// NewMemoryStore constructs an empty MemoryStore with zeroed globals.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		positions: make(map[string]Position),
		globals:   zeroGlobals(),
	}
}

func memoryKey(addr crypto.Address) string { return string(addr.Bytes()) }

// GetPosition implements Store.
func (s *MemoryStore) GetPosition(user crypto.Address) (Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pos, ok := s.positions[memoryKey(user)]; ok {
		return pos, nil
	}
	return zeroPosition(), nil
}

// PutPosition implements Store.
func (s *MemoryStore) PutPosition(user crypto.Address, pos Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[memoryKey(user)] = pos
	return nil
}

// GetGlobals implements Store.
func (s *MemoryStore) GetGlobals() (Globals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.globals, nil
}

// PutGlobals implements Store.
func (s *MemoryStore) PutGlobals(g Globals) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globals = g
	return nil
}

// IsInitialized implements Store.
func (s *MemoryStore) IsInitialized() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized, nil
}

// MarkInitialized implements Store.
func (s *MemoryStore) MarkInitialized() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
	return nil
}

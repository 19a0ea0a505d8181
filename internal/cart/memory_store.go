package cart

import (
	"context"
	"sync"
)

// MemoryStore keeps carts in process memory. Carts are lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string][]Line
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string][]Line)}
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) ([]Line, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Clone(m.carts[sessionID]), nil
}

func (m *MemoryStore) Save(_ context.Context, sessionID string, lines []Line) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(lines) == 0 {
		delete(m.carts, sessionID)
		return nil
	}
	m.carts[sessionID] = Clone(lines)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}

// Len reports how many sessions currently hold a cart.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.carts)
}

package storage

import (
	"context"
	"sync"
)

// MemoryGridStore держит сжатый снимок в памяти. Используется в тестах
// и когда постоянное хранилище не настроено.
type MemoryGridStore struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemoryGridStore создаёт пустое хранилище
func NewMemoryGridStore() *MemoryGridStore {
	return &MemoryGridStore{}
}

func (m *MemoryGridStore) SaveGrid(ctx context.Context, snap *Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryGridStore) LoadGrid(ctx context.Context) (*Snapshot, error) {
	m.mu.RLock()
	data := m.data
	m.mu.RUnlock()

	if data == nil {
		return nil, ErrNotFound
	}
	return decodeSnapshot(data)
}

func (m *MemoryGridStore) Close() error { return nil }

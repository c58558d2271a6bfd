package storage

import (
	"context"
	"sync"
)

// Memory keeps values in process memory. Nothing survives a restart.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: map[string][]byte{}}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	buf := make([]byte, len(value))
	copy(buf, value)
	m.mu.Lock()
	m.data[key] = buf
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

package store

import (
	"context"
	"sync"
)

// Memory keeps the record in process memory. It does not survive a restart.
type Memory struct {
	mu     sync.Mutex
	record string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.record == "" {
		return "", ErrNotFound
	}
	return m.record, nil
}

func (m *Memory) Save(_ context.Context, record string) error {
	m.mu.Lock()
	m.record = record
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.record = ""
	m.mu.Unlock()
	return nil
}

// Package directory resolves participant ids to display names.
package directory

import (
	"context"
	"sync"
)

// Directory looks up display names for participants whose messages do not
// carry a denormalized sender name.
type Directory interface {
	DisplayNameFor(ctx context.Context, participantID string) (string, bool)
}

// Memory is a mutex-guarded in-memory directory.
type Memory struct {
	mu    sync.RWMutex
	names map[string]string
}

func NewMemory() *Memory {
	return &Memory{names: make(map[string]string)}
}

// Seed preloads a batch of names.
func (m *Memory) Seed(names map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, name := range names {
		m.names[id] = name
	}
}

func (m *Memory) Put(participantID, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[participantID] = name
}

func (m *Memory) DisplayNameFor(ctx context.Context, participantID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.names[participantID]
	return name, ok
}
